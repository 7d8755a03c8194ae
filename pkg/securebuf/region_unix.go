// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

//go:build unix

package securebuf

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// region is an anonymous mapping outside the Go heap. The garbage
// collector never sees it, so secret bytes are never copied or moved.
type region struct {
	data   []byte
	locked bool
}

// allocRegion maps at least size bytes, rounded up to the page size.
// Locking into RAM and excluding from core dumps are best effort: a low
// RLIMIT_MEMLOCK must not make secrets unusable.
func allocRegion(size int) (*region, error) {
	pageSize := os.Getpagesize()
	size = (size + pageSize - 1) / pageSize * pageSize

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %w", ErrAllocation, size, err)
	}

	r := &region{data: data}
	if err := unix.Mlock(data); err == nil {
		r.locked = true
	}
	_ = adviseNoDump(data)

	return r, nil
}

// release wipes, unlocks and unmaps the region. Unlock and unmap errors
// are reported but the region is unusable afterwards either way.
func (r *region) release() error {
	if r.data == nil {
		return nil
	}
	wipe(r.data)

	var firstError error
	if r.locked {
		if err := unix.Munlock(r.data); err != nil {
			firstError = fmt.Errorf("securebuf: munlock failed: %w", err)
		}
	}
	if err := unix.Munmap(r.data); err != nil && firstError == nil {
		firstError = fmt.Errorf("securebuf: munmap failed: %w", err)
	}

	r.data = nil
	r.locked = false
	return firstError
}
