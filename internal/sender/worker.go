// Package sender implements the client role's worker: one TCP connection,
// reused for every chunk, driving the two-phase ACK dialogue described in
// the design.
package sender

import (
	"bufio"
	"context"
	"net"

	"github.com/AumSahayata/chunksync/internal/chunkio"
	"github.com/AumSahayata/chunksync/internal/session"
	"github.com/AumSahayata/chunksync/internal/synerr"
	"github.com/AumSahayata/chunksync/internal/wire"
)

// DialogueObserver is notified after each chunk's dialogue completes, so
// the status reporter can track throughput without the worker depending on
// it directly.
type DialogueObserver func(chunk chunkio.Chunk, transferred bool)

// Worker is the sender-side role (C4): it dials once, then for every
// chunk popped from the queue runs the per-chunk dialogue, and finally
// writes the end-of-stream sentinel.
type Worker struct {
	addr  string
	queue *chunkio.Queue
	sess  *session.State

	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer

	observe DialogueObserver
}

// NewWorker creates a sender Worker that will dial addr on first chunk.
func NewWorker(addr string, q *chunkio.Queue, sess *session.State) *Worker {
	return &Worker{addr: addr, queue: q, sess: sess}
}

// Observe registers a DialogueObserver invoked after each chunk.
func (w *Worker) Observe(f DialogueObserver) { w.observe = f }

// Run drains the queue, running one dialogue per chunk, until the reader
// has finished and the queue is empty, then writes the sentinel and closes
// the connection.
func (w *Worker) Run(ctx context.Context) error {
	for {
		chunk, ok := w.queue.Pop(w.sess.ReaderFinished)
		if !ok {
			break
		}
		if err := w.ensureConnected(); err != nil {
			return synerr.Fatal(synerr.Configuration, err)
		}
		if err := w.sendPreambleOnce(); err != nil {
			return synerr.Fatal(synerr.IO, err)
		}
		transferred, err := w.dialogue(chunk)
		if err != nil {
			return err
		}
		if w.observe != nil {
			w.observe(chunk, transferred)
		}
	}

	if !w.sess.MiscSent() {
		// No chunks were ever sent (e.g. an empty file): still connect and
		// send the preamble so the receiver sees it before the sentinel.
		if err := w.ensureConnected(); err != nil {
			return synerr.Fatal(synerr.Configuration, err)
		}
		if err := w.sendPreambleOnce(); err != nil {
			return synerr.Fatal(synerr.IO, err)
		}
	}

	if err := wire.WriteSentinel(w.w); err != nil {
		return synerr.Fatal(synerr.IO, err)
	}
	if err := w.w.Flush(); err != nil {
		return synerr.Fatal(synerr.IO, err)
	}
	return synerr.Fatal(synerr.IO, w.conn.Close())
}

func (w *Worker) ensureConnected() error {
	if w.conn != nil {
		return nil
	}
	conn, err := net.Dial("tcp", w.addr)
	if err != nil {
		return err
	}
	w.conn = conn
	w.r = bufio.NewReader(conn)
	w.w = bufio.NewWriter(conn)
	return nil
}

func (w *Worker) sendPreambleOnce() error {
	if w.sess.MiscSent() {
		return nil
	}
	if err := wire.WritePreamble(w.w, wire.Version, w.sess.FileSize); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	w.sess.MarkMiscSent()
	return nil
}

// dialogue runs steps 2-6 of §4.4 for one chunk, returning whether the
// payload was actually transmitted.
func (w *Worker) dialogue(chunk chunkio.Chunk) (transferred bool, err error) {
	if err := wire.WriteChunkHeader(w.w, chunk.Num, uint64(chunk.Size), chunk.Hash); err != nil {
		return false, synerr.Fatal(synerr.IO, err)
	}
	if err := w.w.Flush(); err != nil {
		return false, synerr.Fatal(synerr.IO, err)
	}

	tok1, err := wire.ReadToken(w.r)
	if err != nil {
		return false, synerr.Fatal(synerr.IO, err)
	}

	switch tok1 {
	case wire.TokenEQL:
		// Hashes already agree; no payload to send.
	case wire.TokenACK:
		if _, err := w.w.Write(chunk.Data); err != nil {
			return false, synerr.Fatal(synerr.IO, err)
		}
		if err := w.w.Flush(); err != nil {
			return false, synerr.Fatal(synerr.IO, err)
		}
		transferred = true
	case wire.TokenNOK:
		return false, synerr.Fatalf(synerr.Protocol, "receiver rejected chunk %d with NOK", chunk.Num)
	default:
		return false, synerr.Fatalf(synerr.Protocol, "unexpected response token %q for chunk %d", tok1, chunk.Num)
	}

	tok2, err := wire.ReadToken(w.r)
	if err != nil {
		return false, synerr.Fatal(synerr.IO, err)
	}
	if tok2 != wire.TokenACK {
		return false, synerr.Fatalf(synerr.Protocol, "expected second ACK for chunk %d, got %q", chunk.Num, tok2)
	}

	return transferred, nil
}
