package receiver

import (
	"context"

	"github.com/AumSahayata/chunksync/internal/chunkio"
	"github.com/AumSahayata/chunksync/internal/rendezvous"
	"github.com/AumSahayata/chunksync/internal/session"
)

// Feeder drains the receiver's own chunk queue — produced by reading its
// local target file — and offers each chunk's identity to the network
// handler via the rendezvous. This is the "worker" half of §4.6: the
// network handler is the other half, waiting in Worker.serve.
type Feeder struct {
	queue *chunkio.Queue
	sess  *session.State
	rv    *rendezvous.Rendezvous
}

// NewFeeder creates a Feeder over queue, offering chunks through rv.
func NewFeeder(queue *chunkio.Queue, sess *session.State, rv *rendezvous.Rendezvous) *Feeder {
	return &Feeder{queue: queue, sess: sess, rv: rv}
}

// Run offers chunks to the rendezvous until the queue is drained and the
// local reader has finished.
func (f *Feeder) Run(ctx context.Context) error {
	for {
		chunk, ok := f.queue.Pop(f.sess.ReaderFinished)
		if !ok {
			return nil
		}
		if err := f.rv.Offer(ctx, rendezvous.ChunkRef{Num: chunk.Num, Size: chunk.Size, Hash: chunk.Hash}); err != nil {
			return err
		}
		if err := f.rv.Wait(ctx); err != nil {
			return err
		}
	}
}
