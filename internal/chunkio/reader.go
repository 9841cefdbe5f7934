package chunkio

import (
	"io"

	"github.com/pkg/errors"
)

// Reader streams a local file as fixed-size chunks into a Queue, assigning
// monotonically increasing chunk numbers and computing each chunk's hash
// before handing ownership to the queue.
//
// Reader is the only writer of Offset/Num/ReaderFinished bookkeeping; a
// worker only ever observes it.
type Reader struct {
	r            io.Reader
	hasher       Hasher
	queue        *Queue
	maxChunkSize int

	num    int64
	offset int64

	onChunk  func(Chunk)          // invoked with offset/num already assigned, before push
	onFinish func(totalBytes int64)
}

// NewReader creates a Reader over r. maxChunkSize bounds the size of each
// chunk (ChunkSizeMax in production; tests may pass a smaller value).
func NewReader(r io.Reader, hasher Hasher, q *Queue, maxChunkSize int) *Reader {
	if maxChunkSize <= 0 {
		maxChunkSize = ChunkSizeMax
	}
	return &Reader{r: r, hasher: hasher, queue: q, maxChunkSize: maxChunkSize}
}

// OnChunk registers a callback invoked synchronously for every chunk
// produced, before it is pushed onto the queue. Used by the session/status
// layers to track file position and progress without the reader knowing
// about them directly.
func (rd *Reader) OnChunk(f func(Chunk)) { rd.onChunk = f }

// OnFinish registers a callback invoked once, at EOF, with the total
// number of bytes read.
func (rd *Reader) OnFinish(f func(totalBytes int64)) { rd.onFinish = f }

// Run reads the underlying stream to completion, pushing one Chunk per
// iteration onto the queue (blocking under backpressure per Queue.Push).
// It returns a non-nil error when the underlying read fails or a chunk
// cannot be hashed — these are fatal per the design: the receiver's offset
// math depends on the chunk sequence being contiguous, so there is no
// partial recovery. A read that ends before the buffer is full is taken as
// the final chunk; Run does not compare the total number of bytes read
// with any expected file size.
func (rd *Reader) Run() error {
	buf := make([]byte, rd.maxChunkSize)
	for {
		n, err := io.ReadFull(rd.r, buf)
		switch {
		case err == nil:
			if emitErr := rd.emit(buf[:n]); emitErr != nil {
				return emitErr
			}
			continue
		case errors.Is(err, io.EOF):
			// Clean EOF with no leftover bytes: nothing more to emit.
			rd.finish()
			return nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			// Final, short chunk.
			if emitErr := rd.emit(buf[:n]); emitErr != nil {
				return emitErr
			}
			rd.finish()
			return nil
		default:
			return errors.Wrap(err, "reading chunk")
		}
	}
}

func (rd *Reader) emit(data []byte) error {
	rd.num++
	hash, err := rd.hasher.Sum128(data)
	if err != nil {
		return errors.Wrap(err, "hashing chunk")
	}

	chunk := Chunk{
		Num:    rd.num,
		Offset: rd.offset,
		Size:   len(data),
		Hash:   hash,
		Data:   append([]byte(nil), data...),
	}
	rd.offset += int64(chunk.Size)

	if rd.onChunk != nil {
		rd.onChunk(chunk)
	}
	rd.queue.Push(chunk)
	return nil
}

func (rd *Reader) finish() {
	if rd.onFinish != nil {
		rd.onFinish(rd.offset)
	}
}
