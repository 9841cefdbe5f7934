package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/AumSahayata/chunksync/internal/chunkio"
	"github.com/AumSahayata/chunksync/internal/report"
	"github.com/AumSahayata/chunksync/internal/session"
	"github.com/AumSahayata/chunksync/internal/status"
	"github.com/AumSahayata/chunksync/internal/supervisor"
	"github.com/AumSahayata/chunksync/internal/synerr"
)

// runClient is the sender role (spec.md's "client"): it dials the
// receiver and streams its local file as chunks.
func runClient(ctx context.Context, base *logrus.Logger) error {
	f, err := os.Open(global.File)
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

	stopMetrics := func() {}
	if global.MetricsAddr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		metricsDone := make(chan error, 1)
		go func() { metricsDone <- rpt.Serve(metricsCtx, global.MetricsAddr) }()
		stopMetrics = func() {
			cancel()
			if mErr := <-metricsDone; mErr != nil {
				sess.Log.WithError(mErr).Warn("metrics server failed")
			}
		}
	}

	err = supervisor.RunSender(ctx, supervisor.SenderConfig{
		Addr:   addr(),
		File:   f,
		Sess:   sess,
		Hasher: chunkio.Hasher{Name: global.HashAlgo},
		OnChunk: func(chunk chunkio.Chunk, transferred bool) {
			matched := !transferred
			rpt.ObserveChunk(chunk.Size, matched)
			rep.RecordChunk(chunk.Num, chunk.Offset, chunk.Size, chunk.Hash.String(), matched)
		},
		OnQueueDepth: rpt.ObserveQueueDepth,
	})
	stopMetrics()
	rep.Finish()
	rpt.LogProgress()

	if global.ReportOut != "" {
		if saveErr := rep.Save(global.ReportOut); saveErr != nil {
			sess.Log.WithError(saveErr).Warn("failed to write transfer report")
		}
	}

	if err != nil {
		return err
	}
	sess.Log.Info("send complete")
	return nil
}
