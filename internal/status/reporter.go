// Package status exposes the running session's progress as both
// structured log lines and Prometheus metrics, grounded on the gateway's
// internal/metrics package and restic's gorilla/mux web router.
package status

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Reporter tracks one session's throughput and exposes it two ways: a
// logrus summary line written by LogProgress, and a set of Prometheus
// metrics served over HTTP when Serve is called.
type Reporter struct {
	log *logrus.Entry

	gatherer prometheus.Gatherer

	chunksTotal     prometheus.Counter
	chunksMatched   prometheus.Counter
	chunksRewritten prometheus.Counter
	bytesTransferred prometheus.Counter
	queueDepth      prometheus.Gauge

	startedAt time.Time
	bytes     int64
	chunks    int64
}

// NewReporter creates a Reporter logging through log and registering its
// metrics against reg. Pass prometheus.NewRegistry() in tests to avoid
// collisions with the global default registry.
func NewReporter(log *logrus.Entry, reg prometheus.Registerer) *Reporter {
	gatherer, ok := reg.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}
	factory := promauto.With(reg)
	return &Reporter{
		log: log,
		chunksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "chunksync_chunks_total",
			Help: "Total chunks processed by this session.",
		}),
		chunksMatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "chunksync_chunks_matched_total",
			Help: "Chunks whose hash already matched (EQL, no payload sent).",
		}),
		chunksRewritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "chunksync_chunks_rewritten_total",
			Help: "Chunks whose payload was retransmitted and rewritten.",
		}),
		bytesTransferred: factory.NewCounter(prometheus.CounterOpts{
			Name: "chunksync_bytes_transferred_total",
			Help: "Payload bytes actually sent over the wire (excludes EQL chunks).",
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chunksync_queue_depth",
			Help: "Current depth of the bounded chunk queue.",
		}),
		startedAt: time.Now(),
		gatherer:  gatherer,
	}
}

// ObserveChunk records the outcome of one chunk's dialogue. matched is
// true for an EQL outcome, false when the payload was retransmitted.
func (r *Reporter) ObserveChunk(size int, matched bool) {
	r.chunksTotal.Inc()
	r.chunks++
	if matched {
		r.chunksMatched.Inc()
		return
	}
	r.chunksRewritten.Inc()
	r.bytesTransferred.Add(float64(size))
	r.bytes += int64(size)
}

// ObserveQueueDepth records the queue's current length.
func (r *Reporter) ObserveQueueDepth(n int) {
	r.queueDepth.Set(float64(n))
}

// LogProgress emits one structured throughput line covering the session so
// far. It starts no goroutine or ticker of its own.
func (r *Reporter) LogProgress() {
	elapsed := time.Since(r.startedAt)
	var rate float64
	if elapsed > 0 {
		rate = float64(r.bytes) / elapsed.Seconds()
	}
	r.log.WithFields(logrus.Fields{
		"chunks":      r.chunks,
		"bytes_sent":  r.bytes,
		"elapsed":     elapsed.Round(time.Millisecond).String(),
		"bytes_per_s": int64(rate),
	}).Info("transfer progress")
}

// Router builds the /metrics and /healthz routes, following the same
// gorilla/mux layout the CLI's web frontend uses elsewhere in this family
// of tools.
func (r *Reporter) Router() *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/healthz", r.healthz).Methods(http.MethodGet)
	return router
}

func (r *Reporter) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Serve runs the metrics/health HTTP server until ctx is cancelled.
func (r *Reporter) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: r.Router()}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
