// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package securebuf

import (
	"fmt"
	"sync"
)

// Pool sizing limits.
const (
	// DefaultSlotSize fits the largest secret most callers handle
	// (passwords, 32-64 byte keys, their hex encodings).
	DefaultSlotSize = 128

	// DefaultSlots is the number of slots in a pool created with zero
	// values.
	DefaultSlots = 32

	// MaxRegionSize bounds slotSize*slots for a single pool.
	MaxRegionSize = 64 << 20
)

// Pool is a fixed region of secure memory divided into equally sized
// slots. Slots are handed out most-recently-released first, and every
// slot is wiped before it returns to the free list.
//
// Pool is safe for concurrent use.
type Pool struct {
	mu       sync.Mutex
	region   *region
	slotSize int
	slots    int
	free     []int
	inUse    int
	closed   bool
}

// Stats describes a pool's occupancy.
type Stats struct {
	SlotSize int
	Slots    int
	InUse    int
	Locked   bool
}

// slotRef identifies the storage behind a buffer. It is the argument of
// the runtime cleanup, so it must not reference the Buffer itself.
type slotRef struct {
	pool  *Pool
	slot  int
	owned bool
}

// NewPool allocates a region of slots*slotSize bytes. Zero values select
// DefaultSlotSize and DefaultSlots.
func NewPool(slotSize, slots int) (*Pool, error) {
	if slotSize == 0 {
		slotSize = DefaultSlotSize
	}
	if slots == 0 {
		slots = DefaultSlots
	}
	if slotSize < 0 || slots < 0 {
		return nil, fmt.Errorf("%w: invalid pool geometry %d x %d", ErrAllocation, slots, slotSize)
	}
	if slotSize > MaxRegionSize/slots {
		return nil, fmt.Errorf("%w: pool of %d x %d bytes exceeds maximum %d",
			ErrAllocation, slots, slotSize, MaxRegionSize)
	}

	r, err := allocRegion(slotSize * slots)
	if err != nil {
		return nil, err
	}

	free := make([]int, slots)
	for i := range free {
		free[i] = slots - 1 - i
	}

	return &Pool{
		region:   r,
		slotSize: slotSize,
		slots:    slots,
		free:     free,
	}, nil
}

// Get returns a zeroed buffer of the given capacity backed by a free slot.
// It fails with ErrAllocation if capacity is not in (0, slot size], or if
// the pool is exhausted or closed.
func (p *Pool) Get(capacity int) (*Buffer, error) {
	return p.get(capacity, false)
}

func (p *Pool) get(capacity int, owned bool) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", ErrAllocation, capacity)
	}
	if capacity > p.slotSize {
		return nil, fmt.Errorf("%w: capacity %d exceeds slot size %d",
			ErrAllocation, capacity, p.slotSize)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: pool closed", ErrAllocation)
	}
	if len(p.free) == 0 {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: pool exhausted (%d slots)", ErrAllocation, p.slots)
	}
	slot := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.inUse++
	data := p.slotData(slot)[:capacity:capacity]
	p.mu.Unlock()

	return newBuffer(slotRef{pool: p, slot: slot, owned: owned}, data, 0), nil
}

// Use runs fn with a buffer from the pool and closes the buffer when fn
// returns or panics.
func (p *Pool) Use(capacity int, fn func(b *Buffer) error) (err error) {
	b, err := p.Get(capacity)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := b.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(b)
}

// Stats returns the pool's current occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		SlotSize: p.slotSize,
		Slots:    p.slots,
		InUse:    p.inUse,
		Locked:   p.region.locked,
	}
}

// Audit checks that every free slot is all zero. It returns an error
// wrapping ErrDirtySlot naming the first slot that is not.
func (p *Pool) Audit() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	for _, slot := range p.free {
		if !isZero(p.slotData(slot)) {
			return fmt.Errorf("%w: slot %d", ErrDirtySlot, slot)
		}
	}
	return nil
}

// Close wipes and releases the pool's region. It returns ErrPoolInUse,
// leaving the pool intact, while any buffer from it is still open.
// Close is idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	if p.inUse > 0 {
		return fmt.Errorf("%w: %d open", ErrPoolInUse, p.inUse)
	}
	p.closed = true
	return p.region.release()
}

// slotData returns the full slot. Callers hold p.mu or own the slot.
func (p *Pool) slotData(slot int) []byte {
	offset := slot * p.slotSize
	end := offset + p.slotSize
	return p.region.data[offset:end:end]
}

// put wipes a slot and returns it to the free list.
func (p *Pool) put(slot int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	wipe(p.slotData(slot))
	p.free = append(p.free, slot)
	p.inUse--
}

// release returns the slot to its pool, closing the pool too when it was
// dedicated to a single buffer.
func (r slotRef) release() error {
	r.pool.put(r.slot)
	if r.owned {
		return r.pool.Close()
	}
	return nil
}
