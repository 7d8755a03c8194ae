// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package credential

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

// testParams keeps argon2id at its accepted minimum so tests stay fast.
func testParams() HashParams {
	return HashParams{
		Memory:      minMemory,
		Time:        minTime,
		Parallelism: minParallelism,
		SaltLength:  minSaltLength,
		KeyLength:   32,
	}
}

func secretBuffer(t *testing.T, s string) *securebuf.Buffer {
	t.Helper()
	b, err := securebuf.NewFromBytes([]byte(s))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func contents(t *testing.T, b *securebuf.Buffer) string {
	t.Helper()
	s, err := securebuf.WithContents(b, func(data []byte) string { return string(data) })
	require.NoError(t, err)
	return s
}
