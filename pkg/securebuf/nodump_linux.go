// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package securebuf

import "golang.org/x/sys/unix"

func adviseNoDump(data []byte) error {
	return unix.Madvise(data, unix.MADV_DONTDUMP)
}
