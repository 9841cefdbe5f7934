package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReport_RecordChunkUpdatesTotals(t *testing.T) {
	r := New("sess-1", "f.bin", 100, "blake3")
	r.RecordChunk(1, 0, 40, "aaaa", true)
	r.RecordChunk(2, 40, 60, "bbbb", false)

	require.Equal(t, int64(2), r.ChunksTotal)
	require.Equal(t, int64(1), r.ChunksMatched)
	require.Equal(t, int64(60), r.BytesSent)
	require.Len(t, r.Outcomes, 2)
}

func TestReport_SaveAndLoadRoundTrip(t *testing.T) {
	r := New("sess-2", "f.bin", 100, "blake3")
	r.RecordChunk(1, 0, 40, "aaaa", false)
	r.Finish()

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, r.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, r.SessionID, loaded.SessionID)
	require.Equal(t, r.ChunksTotal, loaded.ChunksTotal)
	require.Equal(t, r.BytesSent, loaded.BytesSent)
	require.False(t, loaded.FinishedAt.IsZero())
}

func TestReport_SaveLeavesNoTempFileBehind(t *testing.T) {
	r := New("sess-3", "f.bin", 0, "blake3")
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, r.Save(path))

	_, err := Load(path + ".tmp")
	require.Error(t, err)
}
