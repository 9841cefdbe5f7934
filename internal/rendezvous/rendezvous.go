// Package rendezvous synchronizes the receiver's own chunk reader with its
// inbound network dialogue. The design (spec §4.6) describes this as a
// mutex/condvar ping-pong guarding current_num/current_hash and
// one_chunk_finished; §9 explicitly sanctions rendering it instead as a
// pair of single-capacity channels, which is the more idiomatic Go form
// used here.
package rendezvous

import (
	"context"

	"github.com/AumSahayata/chunksync/internal/chunkio"
)

// ChunkRef identifies the chunk the receiver's own reader is currently
// offering: the pairing the network handler must compare against what the
// sender transmits.
type ChunkRef struct {
	Num  int64
	Size int
	Hash chunkio.Hash128
}

// Rendezvous is a strict, per-chunk two-way handshake: the worker offers
// one ChunkRef, the network handler consumes it and eventually calls
// Signal, and only then may the worker offer the next one. Both channels are
// single-capacity, so a second Offer/Signal before the first is consumed
// blocks the caller — this is what keeps the two sides in lockstep.
type Rendezvous struct {
	refs chan ChunkRef
	done chan struct{}
}

// New creates an empty Rendezvous.
func New() *Rendezvous {
	return &Rendezvous{
		refs: make(chan ChunkRef, 1),
		done: make(chan struct{}, 1),
	}
}

// Offer is called by the worker, after popping its own chunk from the
// queue, to publish that chunk's identity to the network handler.
func (r *Rendezvous) Offer(ctx context.Context, ref ChunkRef) error {
	select {
	case r.refs <- ref:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Await is called by the network handler to obtain the chunk identity the
// worker most recently offered.
func (r *Rendezvous) Await(ctx context.Context) (ChunkRef, error) {
	select {
	case ref := <-r.refs:
		return ref, nil
	case <-ctx.Done():
		return ChunkRef{}, ctx.Err()
	}
}

// Signal is called by the network handler once it has written the second
// ACK for the current chunk, releasing the worker to offer the next one.
func (r *Rendezvous) Signal(ctx context.Context) error {
	select {
	case r.done <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait is called by the worker to block until the network handler has
// finished the chunk it most recently offered.
func (r *Rendezvous) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
