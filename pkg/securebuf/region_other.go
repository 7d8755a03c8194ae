// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

//go:build !unix

package securebuf

import "fmt"

// region falls back to a heap slice where anonymous mappings are not
// available. Wiping still applies; swap and core dump protection do not.
type region struct {
	data   []byte
	locked bool
}

func allocRegion(size int) (*region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: region size must be positive, got %d", ErrAllocation, size)
	}
	return &region{data: make([]byte, size)}, nil
}

func (r *region) release() error {
	wipe(r.data)
	r.data = nil
	return nil
}
