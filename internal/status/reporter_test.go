package status

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestReporter(t *testing.T) *Reporter {
	t.Helper()
	log := logrus.New().WithField("test", true)
	return NewReporter(log, prometheus.NewRegistry())
}

func TestReporter_ObserveChunkTracksMatchedAndRewritten(t *testing.T) {
	r := newTestReporter(t)

	r.ObserveChunk(100, true)
	r.ObserveChunk(50, false)

	require.Equal(t, int64(2), r.chunks)
	require.Equal(t, int64(50), r.bytes)
}

func TestReporter_HealthzReturnsOK(t *testing.T) {
	r := newTestReporter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestReporter_MetricsEndpointExposesCounters(t *testing.T) {
	r := newTestReporter(t)
	r.ObserveChunk(10, false)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "chunksync_chunks_rewritten_total")
}

func TestReporter_ServeShutsDownOnContextCancel(t *testing.T) {
	r := newTestReporter(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx, "127.0.0.1:0") }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
