package receiver

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/AumSahayata/chunksync/internal/chunkio"
	"github.com/AumSahayata/chunksync/internal/rendezvous"
	"github.com/AumSahayata/chunksync/internal/session"
)

func TestFeeder_OffersQueuedChunksInOrder(t *testing.T) {
	ctx := context.Background()
	q := chunkio.NewQueue(chunkio.QueueCapacity)
	sess := session.New("test.bin", 8, logrus.New())
	rv := rendezvous.New()
	f := NewFeeder(q, sess, rv)

	q.Push(chunkio.Chunk{Num: 1, Hash: chunkio.Hash128{Lo: 1}})
	q.Push(chunkio.Chunk{Num: 2, Hash: chunkio.Hash128{Lo: 2}})
	sess.SetReaderFinished()

	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	ref1, err := rv.Await(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), ref1.Num)
	require.NoError(t, rv.Signal(ctx))

	ref2, err := rv.Await(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), ref2.Num)
	require.NoError(t, rv.Signal(ctx))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("feeder did not finish")
	}
}

func TestFeeder_StopsOnEmptyFinishedQueue(t *testing.T) {
	ctx := context.Background()
	q := chunkio.NewQueue(chunkio.QueueCapacity)
	sess := session.New("empty.bin", 0, logrus.New())
	sess.SetReaderFinished()
	rv := rendezvous.New()
	f := NewFeeder(q, sess, rv)

	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("feeder did not finish on empty queue")
	}
}
