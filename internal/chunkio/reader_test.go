package chunkio

import (
	"bytes"
	"fmt"
	"testing"
)

func drain(t *testing.T, q *Queue, finished func() bool) []Chunk {
	t.Helper()
	var chunks []Chunk
	for {
		c, ok := q.Pop(finished)
		if !ok {
			return chunks
		}
		chunks = append(chunks, c)
	}
}

func TestReader_SequentialChunkNumbers(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 10)
	q := NewQueue(QueueCapacity)
	rd := NewReader(bytes.NewReader(data), Hasher{Name: "blake3"}, q, 3)

	var finished bool
	rd.OnFinish(func(int64) { finished = true })

	if err := rd.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunks := drain(t, q, func() bool { return finished })
	if len(chunks) != 4 { // 3,3,3,1
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	var total int
	for i, c := range chunks {
		if c.Num != int64(i+1) {
			t.Errorf("chunk %d has Num=%d, want %d", i, c.Num, i+1)
		}
		total += c.Size
	}
	if total != len(data) {
		t.Errorf("total chunked size = %d, want %d", total, len(data))
	}
	if chunks[3].Size != 1 {
		t.Errorf("final chunk size = %d, want 1", chunks[3].Size)
	}
}

func TestReader_OffsetsAreCumulative(t *testing.T) {
	data := bytes.Repeat([]byte{0xCD}, 25)
	q := NewQueue(QueueCapacity)
	rd := NewReader(bytes.NewReader(data), Hasher{Name: "blake3"}, q, 10)

	var finished bool
	rd.OnFinish(func(int64) { finished = true })
	if err := rd.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunks := drain(t, q, func() bool { return finished })
	var want int64
	for _, c := range chunks {
		if c.Offset != want {
			t.Errorf("chunk %d offset = %d, want %d", c.Num, c.Offset, want)
		}
		want += int64(c.Size)
	}
}

func TestReader_EmptyFileProducesNoChunks(t *testing.T) {
	q := NewQueue(QueueCapacity)
	rd := NewReader(bytes.NewReader(nil), Hasher{Name: "blake3"}, q, 10)

	var finished bool
	var totalAtFinish int64
	rd.OnFinish(func(n int64) { finished = true; totalAtFinish = n })

	if err := rd.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !finished {
		t.Fatalf("expected OnFinish to be called")
	}
	if totalAtFinish != 0 {
		t.Errorf("totalAtFinish = %d, want 0", totalAtFinish)
	}
	if q.Len() != 0 {
		t.Errorf("expected no chunks queued for empty file")
	}
}

func TestReader_ExactChunkMultiple(t *testing.T) {
	data := bytes.Repeat([]byte{0x11}, 20)
	q := NewQueue(QueueCapacity)
	rd := NewReader(bytes.NewReader(data), Hasher{Name: "blake3"}, q, 20)

	var finished bool
	rd.OnFinish(func(int64) { finished = true })
	if err := rd.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunks := drain(t, q, func() bool { return finished })
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want exactly 1 when filesize == max chunk size", len(chunks))
	}
	if chunks[0].Size != 20 {
		t.Errorf("chunk size = %d, want 20", chunks[0].Size)
	}
}

type errorReader struct{}

func (e *errorReader) Read(p []byte) (int, error) {
	return 0, fmt.Errorf("simulated read error")
}

func TestReader_PropagatesReadErrors(t *testing.T) {
	q := NewQueue(QueueCapacity)
	rd := NewReader(&errorReader{}, Hasher{Name: "blake3"}, q, 10)

	if err := rd.Run(); err == nil {
		t.Fatalf("expected error from underlying reader")
	}
}
