// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package securebuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWipe(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	Wipe(data)
	for i, b := range data {
		assert.Equal(t, byte(0), b, "byte at index %d should be zero", i)
	}
}

func TestWipe_Nil(t *testing.T) {
	assert.NotPanics(t, func() {
		Wipe(nil)
	})
}

func TestWipe_Empty(t *testing.T) {
	assert.NotPanics(t, func() {
		Wipe([]byte{})
	})
}

func TestWipe_SubsliceLeavesRest(t *testing.T) {
	data := []byte("abcdef")
	Wipe(data[1:3])
	assert.Equal(t, []byte{'a', 0, 0, 'd', 'e', 'f'}, data)
}
