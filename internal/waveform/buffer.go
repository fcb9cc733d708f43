package waveform

import "sync"

// Buffer is an append-only envelope of quantized amplitudes. One analyzer
// writes, any number of readers take snapshots.
type Buffer struct {
	mu   sync.RWMutex
	data []byte
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds one envelope point.
func (b *Buffer) Append(v byte) {
	b.mu.Lock()
	b.data = append(b.data, v)
	b.mu.Unlock()
}

// Len returns the number of points written so far.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Snapshot returns a copy of the points written so far.
func (b *Buffer) Snapshot() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}
