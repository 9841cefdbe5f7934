package supervisor

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/AumSahayata/chunksync/internal/chunkio"
	"github.com/AumSahayata/chunksync/internal/session"
)

func tempFileWithContent(t *testing.T, content []byte) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "supervisor")
	require.NoError(t, err)
	_, err = f.Write(content)
	require.NoError(t, err)
	_, err = f.Seek(0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestRunSenderAndReceiver_IdenticalFiles(t *testing.T) {
	content := []byte("the quick brown fox jumps over the lazy dog")

	senderFile := tempFileWithContent(t, content)
	receiverFile := tempFileWithContent(t, content)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	hasher := chunkio.Hasher{}
	senderSess := session.New("f.bin", int64(len(content)), logrus.New())
	receiverSess := session.New("f.bin", int64(len(content)), logrus.New())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recvDone := make(chan error, 1)
	go func() {
		recvDone <- RunReceiver(ctx, ReceiverConfig{
			Addr:   addr,
			File:   receiverFile,
			Sess:   receiverSess,
			Hasher: hasher,
		})
	}()

	time.Sleep(20 * time.Millisecond)

	sendErr := RunSender(ctx, SenderConfig{
		Addr:   addr,
		File:   senderFile,
		Sess:   senderSess,
		Hasher: hasher,
	})
	require.NoError(t, sendErr)

	select {
	case err := <-recvDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("receiver did not finish")
	}
}
