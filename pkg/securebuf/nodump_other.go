// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

//go:build unix && !linux

package securebuf

// MADV_DONTDUMP is Linux-only.
func adviseNoDump([]byte) error {
	return nil
}
