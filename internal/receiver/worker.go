// Package receiver implements the server role: one listener, exactly one
// accepted connection, and the inverse of the sender's per-chunk dialogue,
// writing received data in place at each chunk's offset.
package receiver

import (
	"bufio"
	"context"
	"io"
	"net"

	"github.com/AumSahayata/chunksync/internal/chunkio"
	"github.com/AumSahayata/chunksync/internal/rendezvous"
	"github.com/AumSahayata/chunksync/internal/session"
	"github.com/AumSahayata/chunksync/internal/synerr"
	"github.com/AumSahayata/chunksync/internal/wire"
)

// DialogueObserver is notified after each chunk's dialogue completes.
type DialogueObserver func(num int64, offset int64, size int, hash chunkio.Hash128, matched bool)

// Worker is the receiver-side role (C5). It binds addr, accepts exactly
// one connection, and for every chunk blocks on the rendezvous to learn
// the expected (num, hash) before running the wire dialogue.
type Worker struct {
	addr   string
	sess   *session.State
	rv     *rendezvous.Rendezvous
	writer *chunkio.Writer

	observe DialogueObserver
}

// NewWorker creates a receiver Worker bound to addr, serving chunks
// against writer and pairing each chunk with rv.
func NewWorker(addr string, sess *session.State, rv *rendezvous.Rendezvous, writer *chunkio.Writer) *Worker {
	return &Worker{addr: addr, sess: sess, rv: rv, writer: writer}
}

// Observe registers a DialogueObserver invoked after each chunk.
func (w *Worker) Observe(f DialogueObserver) { w.observe = f }

// Run binds the listener, accepts exactly one connection, serves the
// dialogue to completion, and tears the listener down.
func (w *Worker) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", w.addr)
	if err != nil {
		return synerr.Fatal(synerr.Configuration, err)
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return synerr.Fatal(synerr.IO, err)
	}
	defer conn.Close()

	return w.serve(ctx, conn)
}

func (w *Worker) serve(ctx context.Context, conn net.Conn) error {
	r := bufio.NewReader(conn)
	wr := bufio.NewWriter(conn)

	if err := w.readPreambleOnce(r); err != nil {
		return err
	}

	for {
		num, err := wire.ReadChunkNum(r)
		if err != nil {
			return synerr.Fatal(synerr.IO, err)
		}
		if num == wire.Sentinel {
			return nil
		}

		ref, err := w.rv.Await(ctx)
		if err != nil {
			return synerr.Fatal(synerr.Invariant, err)
		}
		if num != ref.Num {
			return synerr.Fatalf(synerr.Protocol, "chunk number mismatch: wire=%d, local reader=%d", num, ref.Num)
		}

		size, hash, err := wire.ReadChunkRest(r)
		if err != nil {
			return synerr.Fatal(synerr.IO, err)
		}
		if size < 1 || size > chunkio.ChunkSizeMax {
			return synerr.Fatalf(synerr.Protocol, "chunk %d has out-of-range size %d", num, size)
		}
		if hash.IsZero() {
			return synerr.Fatalf(synerr.Protocol, "chunk %d has a zero hash", num)
		}

		offset := w.sess.CurrentFilePosition()
		equal := chunkio.Chunk{Hash: hash, Size: int(size)}.Equal(chunkio.Chunk{Hash: ref.Hash, Size: ref.Size})
		if equal {
			if err := wire.WriteToken(wr, wire.TokenEQL); err != nil {
				return synerr.Fatal(synerr.IO, err)
			}
		} else {
			if err := wire.WriteToken(wr, wire.TokenACK); err != nil {
				return synerr.Fatal(synerr.IO, err)
			}
			if err := wr.Flush(); err != nil {
				return synerr.Fatal(synerr.IO, err)
			}
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return synerr.Fatal(synerr.IO, err)
			}
			if _, _, err := w.writer.WriteChunk(chunkio.Chunk{Num: num, Offset: offset, Size: int(size)}, data, false); err != nil {
				return synerr.Fatal(synerr.IO, err)
			}
		}

		w.sess.AdvancePosition(int64(size))

		if err := wire.WriteToken(wr, wire.TokenACK); err != nil {
			return synerr.Fatal(synerr.IO, err)
		}
		if err := wr.Flush(); err != nil {
			return synerr.Fatal(synerr.IO, err)
		}

		if err := w.rv.Signal(ctx); err != nil {
			return synerr.Fatal(synerr.Invariant, err)
		}

		if w.observe != nil {
			w.observe(num, offset, int(size), hash, equal)
		}
	}
}

func (w *Worker) readPreambleOnce(r *bufio.Reader) error {
	if w.sess.MiscReceived() {
		return nil
	}
	version, filesize, err := wire.ReadPreamble(r)
	if err != nil {
		return synerr.Fatal(synerr.IO, err)
	}
	if version != wire.Version {
		return synerr.Fatalf(synerr.Protocol, "version mismatch: remote=%q, local=%q", version, wire.Version)
	}
	if filesize != w.sess.FileSize {
		return synerr.Fatalf(synerr.Protocol, "filesize mismatch: remote=%d, local=%d", filesize, w.sess.FileSize)
	}
	w.sess.MarkMiscReceived()
	return nil
}
