// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package securebuf provides owned, fixed-capacity buffers for secret
// material such as passwords and private keys.
//
// A [Buffer] is carved from a [Pool] slot. On unix the pool region is
// mapped outside the Go heap, locked into RAM where the memlock limit
// allows, and excluded from core dumps on Linux. Every capacity byte is
// overwritten with zero when the buffer is cleared or closed, and a slot
// is wiped again before it is handed to the next owner.
//
// Contents are only reachable inside a callback ([Buffer.With],
// [WithContents]); no reference to the storage outlives the call. Use
// [Use] or [Pool.Use] to bind a buffer's lifetime to a scope.
package securebuf

import "errors"

// Sentinel errors for the securebuf package.
var (
	// ErrAllocation indicates a buffer or pool could not be created: the
	// requested capacity is invalid, the pool is exhausted or closed, or
	// the operating system refused the mapping.
	ErrAllocation = errors.New("securebuf: allocation failed")

	// ErrTruncated indicates the source was larger than the buffer
	// capacity. The buffer keeps the prefix that fit.
	ErrTruncated = errors.New("securebuf: secret truncated to capacity")

	// ErrClosed indicates an operation on a buffer that has been closed
	// or whose storage was moved to another buffer.
	ErrClosed = errors.New("securebuf: buffer closed")

	// ErrPoolInUse indicates a pool was closed while buffers carved from
	// it were still open.
	ErrPoolInUse = errors.New("securebuf: pool has open buffers")

	// ErrDirtySlot indicates a free pool slot still holds non-zero bytes.
	ErrDirtySlot = errors.New("securebuf: free slot not wiped")
)
