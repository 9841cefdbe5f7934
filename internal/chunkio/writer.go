package chunkio

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Writer mutates the receiver's target file in place at each chunk's
// offset. Unlike a sequential writer, chunks may be skipped outright: if
// the sender's hash for a chunk equals the receiver's own hash at that
// offset (an "EQL" on the wire), the bytes on disk are already correct and
// WriteChunk is a no-op.
type Writer struct {
	f  *os.File
	mu sync.Mutex
}

// NewWriter wraps f, which must be open for read+write and already sized
// to at least the session's filesize (the caller validates this during the
// preamble, before any chunk is written).
func NewWriter(f *os.File) *Writer {
	return &Writer{f: f}
}

// WriteChunk writes data at chunk.Offset, unless equal is true, in which
// case the on-disk bytes already match and the write is skipped.
func (w *Writer) WriteChunk(chunk Chunk, data []byte, equal bool) (written int, skipped bool, err error) {
	if equal {
		return 0, true, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.f.WriteAt(data, chunk.Offset)
	if err != nil {
		return n, false, errors.Wrapf(err, "writing chunk %d at offset %d", chunk.Num, chunk.Offset)
	}
	return n, false, nil
}

// Sync flushes the target file to stable storage. Called once the session
// completes cleanly.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Sync()
}
