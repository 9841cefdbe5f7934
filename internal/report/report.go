// Package report persists a completed transfer's summary as JSON,
// adapted from the chunking library's own manifest Save/Load pair and
// its JSON index's atomic temp-file-then-rename write.
package report

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ChunkOutcome records one chunk's dialogue result.
type ChunkOutcome struct {
	Num     int64  `json:"num"`
	Offset  int64  `json:"offset"`
	Size    int    `json:"size"`
	Hash    string `json:"hash"`
	Matched bool   `json:"matched"`
}

// Report is a completed session's transfer summary: identical in spirit
// to a manifest, but describing what happened on the wire rather than a
// file's static chunk composition.
type Report struct {
	SessionID     string         `json:"session_id"`
	Filename      string         `json:"filename"`
	FileSize      int64          `json:"file_size"`
	HashAlgorithm string         `json:"hash_algorithm"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	ChunksTotal   int64          `json:"chunks_total"`
	ChunksMatched int64          `json:"chunks_matched"`
	BytesSent     int64          `json:"bytes_sent"`
	Outcomes      []ChunkOutcome `json:"outcomes,omitempty"`

	mu sync.Mutex
}

// New creates an empty Report for one session.
func New(sessionID, filename string, fileSize int64, hashAlgorithm string) *Report {
	return &Report{
		SessionID:     sessionID,
		Filename:      filename,
		FileSize:      fileSize,
		HashAlgorithm: hashAlgorithm,
		StartedAt:     time.Now(),
	}
}

// RecordChunk appends one chunk's outcome and updates the running totals.
func (r *Report) RecordChunk(num, offset int64, size int, hash string, matched bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Outcomes = append(r.Outcomes, ChunkOutcome{Num: num, Offset: offset, Size: size, Hash: hash, Matched: matched})
	r.ChunksTotal++
	if matched {
		r.ChunksMatched++
		return
	}
	r.BytesSent += int64(size)
}

// Finish stamps the completion time. Called once, after the supervisor's
// goroutines return, whether or not the run failed.
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishedAt = time.Now()
}

// Save writes the report to path as indented JSON, via a temp file and
// atomic rename so a reader never observes a partially written report.
func (r *Report) Save(path string) error {
	r.mu.Lock()
	data, err := json.MarshalIndent(r, "", "  ")
	r.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "marshaling transfer report")
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return errors.Wrap(err, "creating temp report file")
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrap(err, "writing temp report file")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrap(err, "syncing temp report file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "closing temp report file")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "renaming report into place")
	}
	return nil
}

// Load reads a report previously written by Save.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading report file")
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, "unmarshaling report file")
	}
	return &r, nil
}
