// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package noisekey

import (
	"github.com/flynn/noise"

	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

// WipeDHKey zeros both the Private and Public fields of a Noise DHKey
// produced by the noise library, which allocates them on the heap.
func WipeDHKey(key *noise.DHKey) {
	if key == nil {
		return
	}
	securebuf.Wipe(key.Private)
	securebuf.Wipe(key.Public)
}
