// Package session holds the state shared between a role's reader, worker,
// and (on the receiver) network handler goroutines for one run of the
// protocol.
package session

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// State is the scalar session state from the design: filename and filesize
// are set once and read by the worker/network handler to validate the
// preamble; the current file position is advanced by the reader on the
// sender and by the network handler on the receiver.
// Each field here has exactly one writer; readers tolerate momentary
// staleness because they only gate loop termination or one-shot preambles.
type State struct {
	Filename string
	FileSize int64

	// ID correlates sender-side and receiver-side log lines for one run.
	ID uuid.UUID

	// Log is the session-scoped logger; callers should use WithField for
	// anything beyond the session_id already attached here.
	Log *logrus.Entry

	position       atomic.Int64
	readerFinished atomic.Bool
	miscSent       atomic.Bool
	miscReceived   atomic.Bool
}

// New creates session state for filename/fileSize, attaching a fresh
// session id to the given base logger.
func New(filename string, fileSize int64, base *logrus.Logger) *State {
	id := uuid.New()
	return &State{
		Filename: filename,
		FileSize: fileSize,
		ID:       id,
		Log:      base.WithField("session_id", id.String()),
	}
}

// CurrentFilePosition returns the session's current offset into the file.
func (s *State) CurrentFilePosition() int64 { return s.position.Load() }

// AdvancePosition advances the position by a chunk's size. On the sender
// only the reader calls it, after producing a chunk; on the receiver only
// the network handler calls it, after finishing a chunk's dialogue.
func (s *State) AdvancePosition(n int64) { s.position.Add(n) }

// ReaderFinished reports whether the reader has reached end-of-file.
func (s *State) ReaderFinished() bool { return s.readerFinished.Load() }

// SetReaderFinished is called exactly once, by the reader, at EOF.
func (s *State) SetReaderFinished() { s.readerFinished.Store(true) }

// MiscSent/MarkMiscSent guard the sender-side preamble so it is written
// exactly once per session.
func (s *State) MiscSent() bool { return s.miscSent.Load() }
func (s *State) MarkMiscSent()  { s.miscSent.Store(true) }

// MiscReceived/MarkMiscReceived guard the receiver-side preamble so it is
// read exactly once per session.
func (s *State) MiscReceived() bool { return s.miscReceived.Load() }
func (s *State) MarkMiscReceived()  { s.miscReceived.Store(true) }
