// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package securebuf

import (
	"crypto/subtle"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
)

// nextID orders buffers for two-buffer locking.
var nextID atomic.Uint64

// Buffer holds secret bytes in storage it exclusively owns. All capacity
// bytes are zeroed by Clear and Close, and Close returns the storage to
// its pool. Every method takes the buffer's lock, so a Buffer may be
// shared between goroutines, but callbacks passed to With must not call
// back into the same Buffer.
//
// Create buffers with New, NewFromBytes or Pool.Get. A Buffer must not be
// copied.
type Buffer struct {
	mu      sync.Mutex
	id      uint64
	ref     slotRef
	data    []byte
	length  int
	closed  bool
	cleanup runtime.Cleanup
}

// newBuffer takes ownership of data. A runtime cleanup wipes and releases
// the slot if the buffer becomes unreachable without being closed.
func newBuffer(ref slotRef, data []byte, length int) *Buffer {
	b := &Buffer{
		id:     nextID.Add(1),
		ref:    ref,
		data:   data,
		length: length,
	}
	b.cleanup = runtime.AddCleanup(b, func(r slotRef) { _ = r.release() }, ref)
	return b
}

// New allocates a zeroed buffer of the given capacity in its own secure
// region. The region is released when the buffer is closed.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", ErrAllocation, capacity)
	}

	p, err := NewPool(capacity, 1)
	if err != nil {
		return nil, err
	}
	b, err := p.get(capacity, true)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return b, nil
}

// NewFromBytes copies source into a new buffer sized to fit it exactly and
// then wipes source, so the caller's slice no longer holds the secret.
func NewFromBytes(source []byte) (*Buffer, error) {
	b, err := New(len(source))
	if err != nil {
		return nil, err
	}
	// Cannot truncate: capacity equals len(source).
	_ = b.Load(source)
	wipe(source)
	return b, nil
}

// Load replaces the contents with src. The whole capacity is wiped first.
// If src is longer than the capacity, the buffer keeps the first Cap()
// bytes and an error wrapping ErrTruncated is returned.
func (b *Buffer) Load(src []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	wipe(b.data)
	b.length = copy(b.data, src)

	if len(src) > len(b.data) {
		return fmt.Errorf("%w: source is %d bytes, capacity is %d",
			ErrTruncated, len(src), len(b.data))
	}
	return nil
}

// Write appends p to the contents, implementing io.Writer. Bytes that do
// not fit are dropped and ErrTruncated is returned with the count written.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	n := copy(b.data[b.length:], p)
	b.length += n

	if n < len(p) {
		return n, fmt.Errorf("%w: %d of %d bytes written, capacity is %d",
			ErrTruncated, n, len(p), len(b.data))
	}
	return n, nil
}

// Fill replaces the contents with exactly n bytes read from r directly
// into secure storage. n larger than the capacity is rejected with
// ErrTruncated before anything is read. On a short read the buffer is
// wiped and left empty.
func (b *Buffer) Fill(r io.Reader, n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if n < 0 || n > len(b.data) {
		return fmt.Errorf("%w: cannot fill %d bytes, capacity is %d",
			ErrTruncated, n, len(b.data))
	}

	wipe(b.data)
	b.length = 0

	if _, err := io.ReadFull(r, b.data[:n]); err != nil {
		wipe(b.data)
		return fmt.Errorf("securebuf: fill: %w", err)
	}
	b.length = n
	return nil
}

// With calls fn with the populated bytes. The slice is only valid for the
// duration of the call and must not be retained or appended to.
func (b *Buffer) With(fn func(data []byte) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	return fn(b.data[:b.length:b.length])
}

// WithContents calls fn with the populated bytes and returns its result.
// It returns ErrClosed without calling fn if b is closed.
func WithContents[R any](b *Buffer, fn func(data []byte) R) (R, error) {
	var result R
	err := b.With(func(data []byte) error {
		result = fn(data)
		return nil
	})
	return result, err
}

// Equal reports whether the contents equal other, in time that depends
// only on the lengths. Lengths are treated as public. A closed buffer is
// equal to nothing.
func (b *Buffer) Equal(other []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	return constantTimeEqual(b.data[:b.length], other)
}

// EqualBuffer compares the contents of two buffers in constant time.
func (b *Buffer) EqualBuffer(other *Buffer) bool {
	if other == nil {
		return false
	}
	if other == b {
		b.mu.Lock()
		defer b.mu.Unlock()
		return !b.closed
	}

	first, second := b, other
	if second.id < first.id {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if b.closed || other.closed {
		return false
	}
	return constantTimeEqual(b.data[:b.length], other.data[:other.length])
}

// constantTimeEqual visits every byte and accumulates the difference
// rather than returning at the first mismatch.
func constantTimeEqual(a, c []byte) bool {
	if len(a) != len(c) {
		return false
	}
	return subtle.ConstantTimeCompare(a, c) == 1
}

// Clear wipes every capacity byte and empties the buffer. It is
// idempotent and a no-op on a closed buffer.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	wipe(b.data)
	b.length = 0
}

// Move transfers the storage to a new Buffer and closes b without wiping,
// so exactly one handle owns the secret at any time.
func (b *Buffer) Move() (*Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	b.cleanup.Stop()
	moved := newBuffer(b.ref, b.data, b.length)

	b.closed = true
	b.data = nil
	b.length = 0
	b.ref = slotRef{}
	return moved, nil
}

// Close wipes the storage and returns it to its pool. It is idempotent.
// The only error is a failure to unmap a dedicated region, after the
// secret has already been wiped.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.cleanup.Stop()

	wipe(b.data)
	b.data = nil
	b.length = 0

	return b.ref.release()
}

// Len returns the number of populated bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.length
}

// Cap returns the fixed capacity, or zero once closed.
func (b *Buffer) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.data)
}

// Locked reports whether the backing memory is locked against swapping.
func (b *Buffer) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	return b.ref.pool.Stats().Locked
}

// String describes the buffer without revealing its contents, so that
// formatting a Buffer never prints the secret.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return "securebuf.Buffer(closed)"
	}
	return fmt.Sprintf("securebuf.Buffer(len=%d, cap=%d)", b.length, len(b.data))
}

// GoString is String for %#v.
func (b *Buffer) GoString() string {
	return b.String()
}
