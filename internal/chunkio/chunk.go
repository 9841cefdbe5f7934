package chunkio

import "fmt"

// CHUNK_SIZE_MAX, QUEUE_CAPACITY, and WAIT_TIME are the protocol constants
// from the design: the maximum size of a chunk, the bounded queue's
// capacity, and the poll interval used both by the reader (to recheck
// queue depth) and the worker (to recheck reader completion).
const (
	ChunkSizeMax  = 200_000_000
	QueueCapacity = 20
	WaitTime      = 32_000_000 // nanoseconds, ~32ms; see time.Duration(WaitTime)
)

// Chunk is produced by the Reader and consumed once by a Worker.
//
// Num is a strictly positive, sequential ordinal assigned by the reader.
// Offset is the byte offset of this chunk within the file, equal to the
// sum of the sizes of all prior chunks in the session. Hash is the 128-bit
// content hash of exactly Size bytes of Data.
type Chunk struct {
	Num    int64
	Offset int64
	Size   int
	Hash   Hash128
	Data   []byte
}

// String implements fmt.Stringer for diagnostic logging.
func (c Chunk) String() string {
	return fmt.Sprintf("Chunk{num=%d, offset=%d, size=%d, hash=%s}", c.Num, c.Offset, c.Size, c.Hash)
}

// Equal reports whether two chunks have the same hash and size. Used by
// the receiver to decide whether a payload must be transmitted.
func (c Chunk) Equal(other Chunk) bool {
	return c.Hash == other.Hash && c.Size == other.Size
}
