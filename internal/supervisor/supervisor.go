// Package supervisor wires the per-role goroutines — chunk reader, queue,
// network worker, and on the receiver the rendezvous feeder — into one
// group and propagates the first fatal error, cancelling the rest. This is
// C7 from the design: restic's checker and repository packages use
// golang.org/x/sync/errgroup the same way, so that is the pattern kept here
// rather than a hand-rolled WaitGroup+error channel.
package supervisor

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AumSahayata/chunksync/internal/chunkio"
	"github.com/AumSahayata/chunksync/internal/receiver"
	"github.com/AumSahayata/chunksync/internal/rendezvous"
	"github.com/AumSahayata/chunksync/internal/sender"
	"github.com/AumSahayata/chunksync/internal/session"
)

// pollQueueDepth samples q's length every WaitTime interval and reports it
// to observe, until ctx is cancelled. Run outside the errgroup: it never
// fails and must not hold up g.Wait() once the transfer's own goroutines
// are done.
func pollQueueDepth(ctx context.Context, q *chunkio.Queue, observe func(int)) {
	ticker := time.NewTicker(chunkio.WaitTime * time.Nanosecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			observe(q.Len())
		}
	}
}

// SenderConfig bundles what RunSender needs to assemble C2-C4.
type SenderConfig struct {
	Addr string
	File *os.File
	Sess *session.State

	Hasher       chunkio.Hasher
	ChunkSize    int // defaults to chunkio.ChunkSizeMax if zero
	OnChunk      sender.DialogueObserver
	OnFinish     func(totalBytes int64)
	OnQueueDepth func(depth int)
}

// RunSender assembles a Reader -> Queue -> sender.Worker pipeline for one
// file transfer and runs it to completion, or to the first fatal error.
func RunSender(ctx context.Context, cfg SenderConfig) error {
	queue := chunkio.NewQueue(chunkio.QueueCapacity)

	reader := chunkio.NewReader(cfg.File, cfg.Hasher, queue, cfg.ChunkSize)
	reader.OnChunk(func(c chunkio.Chunk) {
		cfg.Sess.AdvancePosition(int64(c.Size))
	})
	reader.OnFinish(func(total int64) {
		cfg.Sess.SetReaderFinished()
		if cfg.OnFinish != nil {
			cfg.OnFinish(total)
		}
	})

	worker := sender.NewWorker(cfg.Addr, queue, cfg.Sess)
	if cfg.OnChunk != nil {
		worker.Observe(cfg.OnChunk)
	}

	if cfg.OnQueueDepth != nil {
		pollCtx, stopPoll := context.WithCancel(ctx)
		defer stopPoll()
		go pollQueueDepth(pollCtx, queue, cfg.OnQueueDepth)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return reader.Run() })
	g.Go(func() error { return worker.Run(gctx) })
	return g.Wait()
}

// ReceiverConfig bundles what RunReceiver needs to assemble C2, C5, and the
// rendezvous feeder that pairs the local target file's chunks with the
// inbound network dialogue.
type ReceiverConfig struct {
	Addr string
	File *os.File
	Sess *session.State

	Hasher       chunkio.Hasher
	ChunkSize    int // defaults to chunkio.ChunkSizeMax if zero
	OnChunk      receiver.DialogueObserver
	OnFinish     func(totalBytes int64)
	OnQueueDepth func(depth int)
}

// RunReceiver assembles a local Reader -> Queue -> Feeder pipeline,
// alongside the listening receiver.Worker, and runs both to completion
// under one rendezvous.
func RunReceiver(ctx context.Context, cfg ReceiverConfig) error {
	queue := chunkio.NewQueue(chunkio.QueueCapacity)
	rv := rendezvous.New()

	reader := chunkio.NewReader(cfg.File, cfg.Hasher, queue, cfg.ChunkSize)
	reader.OnFinish(func(total int64) {
		cfg.Sess.SetReaderFinished()
		if cfg.OnFinish != nil {
			cfg.OnFinish(total)
		}
	})

	feeder := receiver.NewFeeder(queue, cfg.Sess, rv)

	writer := chunkio.NewWriter(cfg.File)
	worker := receiver.NewWorker(cfg.Addr, cfg.Sess, rv, writer)
	if cfg.OnChunk != nil {
		worker.Observe(cfg.OnChunk)
	}

	if cfg.OnQueueDepth != nil {
		pollCtx, stopPoll := context.WithCancel(ctx)
		defer stopPoll()
		go pollQueueDepth(pollCtx, queue, cfg.OnQueueDepth)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return reader.Run() })
	g.Go(func() error { return feeder.Run(gctx) })
	g.Go(func() error { return worker.Run(gctx) })

	if err := g.Wait(); err != nil {
		return err
	}
	return writer.Sync()
}
