package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/AumSahayata/chunksync/internal/chunkio"
	"github.com/AumSahayata/chunksync/internal/report"
	"github.com/AumSahayata/chunksync/internal/session"
	"github.com/AumSahayata/chunksync/internal/status"
	"github.com/AumSahayata/chunksync/internal/supervisor"
	"github.com/AumSahayata/chunksync/internal/synerr"
)

// runServer is the receiver role: it listens for exactly one connection
// and synchronizes its local file against what the sender streams.
func runServer(ctx context.Context, base *logrus.Logger) error {
	f, err := os.OpenFile(global.File, os.O_RDWR, 0o644)
	if err != nil {
		return synerr.Fatal(synerr.Configuration, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return synerr.Fatal(synerr.Configuration, err)
	}

	sess := session.New(global.File, info.Size(), base)
	rep := report.New(sess.ID.String(), global.File, info.Size(), global.HashAlgo)
	rpt := status.NewReporter(sess.Log, prometheus.DefaultRegisterer)

	if ctx == nil {
		ctx = context.Background()
	}

	g, gctx := errgroup.WithContext(ctx)
	metricsCtx, stopMetrics := context.WithCancel(gctx)
	defer stopMetrics()
	if global.MetricsAddr != "" {
		g.Go(func() error { return rpt.Serve(metricsCtx, global.MetricsAddr) })
	}
	g.Go(func() error {
		defer stopMetrics()
		return supervisor.RunReceiver(gctx, supervisor.ReceiverConfig{
			Addr:   addr(),
			File:   f,
			Sess:   sess,
			Hasher: chunkio.Hasher{Name: global.HashAlgo},
			OnChunk: func(num, offset int64, size int, hash chunkio.Hash128, matched bool) {
				rpt.ObserveChunk(size, matched)
				rep.RecordChunk(num, offset, size, hash.String(), matched)
			},
			OnQueueDepth: rpt.ObserveQueueDepth,
		})
	})

	runErr := g.Wait()
	rep.Finish()
	rpt.LogProgress()

	if global.ReportOut != "" {
		if saveErr := rep.Save(global.ReportOut); saveErr != nil {
			sess.Log.WithError(saveErr).Warn("failed to write transfer report")
		}
	}

	if runErr != nil {
		return runErr
	}
	sess.Log.Info("receive complete")
	return nil
}
