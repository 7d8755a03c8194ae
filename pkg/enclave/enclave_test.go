// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package enclave

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	b, err := securebuf.NewFromBytes([]byte("sealed-secret"))
	require.NoError(t, err)
	defer b.Close()

	e, err := Seal(b)
	require.NoError(t, err)
	assert.Equal(t, len("sealed-secret"), e.Size())
	assert.True(t, b.Equal([]byte("sealed-secret")), "sealing must not alter the source")

	opened, err := e.Open(nil)
	require.NoError(t, err)
	defer opened.Close()

	assert.True(t, opened.EqualBuffer(b))
}

func TestOpen_FromPool(t *testing.T) {
	p, err := securebuf.NewPool(64, 2)
	require.NoError(t, err)
	defer p.Close()

	var e *Enclave
	err = p.Use(64, func(b *securebuf.Buffer) error {
		if err := b.Load([]byte("pool-secret")); err != nil {
			return err
		}
		e, err = Seal(b)
		return err
	})
	require.NoError(t, err)

	opened, err := e.Open(p)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stats().InUse)
	assert.True(t, opened.Equal([]byte("pool-secret")))
	assert.Equal(t, len("pool-secret"), opened.Cap())
	require.NoError(t, opened.Close())
}

func TestOpen_RepeatedOpensAreIndependent(t *testing.T) {
	b, err := securebuf.NewFromBytes([]byte("reopen"))
	require.NoError(t, err)
	e, err := Seal(b)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	first, err := e.Open(nil)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := e.Open(nil)
	require.NoError(t, err)
	defer second.Close()
	assert.True(t, second.Equal([]byte("reopen")))
}

func TestSeal_Empty(t *testing.T) {
	b, err := securebuf.New(16)
	require.NoError(t, err)
	defer b.Close()

	_, err = Seal(b)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSeal_Closed(t *testing.T) {
	b, err := securebuf.NewFromBytes([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = Seal(b)
	assert.ErrorIs(t, err, securebuf.ErrClosed)
}

func TestOpen_PoolTooSmall(t *testing.T) {
	b, err := securebuf.NewFromBytes([]byte("longer-than-slot"))
	require.NoError(t, err)
	defer b.Close()
	e, err := Seal(b)
	require.NoError(t, err)

	p, err := securebuf.NewPool(4, 1)
	require.NoError(t, err)
	defer p.Close()

	_, err = e.Open(p)
	assert.ErrorIs(t, err, securebuf.ErrAllocation)
	assert.Equal(t, 0, p.Stats().InUse)
}

func TestDestroy(t *testing.T) {
	b, err := securebuf.NewFromBytes([]byte("gone"))
	require.NoError(t, err)
	defer b.Close()
	e, err := Seal(b)
	require.NoError(t, err)

	e.Destroy()
	e.Destroy()
	assert.Equal(t, 0, e.Size())

	_, err = e.Open(nil)
	assert.ErrorIs(t, err, ErrDestroyed)

	var nilEnclave *Enclave
	_, err = nilEnclave.Open(nil)
	assert.ErrorIs(t, err, ErrDestroyed)
	assert.NotPanics(t, nilEnclave.Destroy)
}

func TestPurge_InvalidatesSealed(t *testing.T) {
	b, err := securebuf.NewFromBytes([]byte("purged"))
	require.NoError(t, err)
	defer b.Close()
	e, err := Seal(b)
	require.NoError(t, err)

	Purge()

	_, err = e.Open(nil)
	assert.ErrorIs(t, err, ErrOpenFailed)

	fresh, err := Seal(b)
	require.NoError(t, err)
	opened, err := fresh.Open(nil)
	require.NoError(t, err)
	defer opened.Close()
	assert.True(t, opened.Equal([]byte("purged")))
}
