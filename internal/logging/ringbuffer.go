package logging

import (
	"os"
	"sync"
)

// RingBuffer keeps the most recent bytes written to it. Older data is
// overwritten once the capacity is reached.
type RingBuffer struct {
	mu    sync.Mutex
	data  []byte
	start int // index of the oldest byte
	n     int // bytes currently held
}

// NewRingBuffer returns a buffer holding at most size bytes.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = 1 << 20
	}
	return &RingBuffer{data: make([]byte, size)}
}

// Write appends p, discarding the oldest bytes when full. It never fails.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	total := len(p)
	capacity := len(rb.data)
	if total >= capacity {
		copy(rb.data, p[total-capacity:])
		rb.start, rb.n = 0, capacity
		return total, nil
	}

	end := (rb.start + rb.n) % capacity
	first := copy(rb.data[end:], p)
	copy(rb.data, p[first:])

	rb.n += total
	if rb.n > capacity {
		rb.start = (rb.start + rb.n - capacity) % capacity
		rb.n = capacity
	}
	return total, nil
}

// Len reports how many bytes are held.
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.n
}

// Bytes returns a copy of the held bytes, oldest first.
func (rb *RingBuffer) Bytes() []byte {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	out := make([]byte, rb.n)
	first := copy(out, rb.data[rb.start:min(rb.start+rb.n, len(rb.data))])
	copy(out[first:], rb.data[:rb.n-first])
	return out
}

// DumpToFile writes the held bytes to path, replacing any existing file.
func (rb *RingBuffer) DumpToFile(path string) error {
	return os.WriteFile(path, rb.Bytes(), 0o600)
}
