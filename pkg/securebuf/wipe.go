// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package securebuf

import "runtime"

// Wipe overwrites every byte of b with zero. Use it for transient copies
// of secret material that cannot live in a Buffer, such as slices returned
// by third-party libraries.
func Wipe(b []byte) {
	wipe(b)
}

// wipe must stay out of line so the stores are never proven dead at the
// call site, and KeepAlive keeps b observable until the loop finishes.
//
//go:noinline
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// isZero reports whether every byte of b is zero, visiting all of them.
func isZero(b []byte) bool {
	var acc byte
	for _, v := range b {
		acc |= v
	}
	return acc == 0
}
