// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package enclave

import (
	"fmt"

	"github.com/awnumar/memguard"

	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

// Enclave holds a secret encrypted under a process-wide session key.
type Enclave struct {
	sealed *memguard.Enclave
}

// Seal encrypts the populated contents of b into a new Enclave. The
// plaintext passes only through b and a memguard locked buffer that is
// destroyed before Seal returns. b itself is left untouched.
func Seal(b *securebuf.Buffer) (*Enclave, error) {
	var sealed *memguard.Enclave

	err := b.With(func(data []byte) error {
		if len(data) == 0 {
			return ErrEmpty
		}
		locked := memguard.NewBuffer(len(data))
		copy(locked.Bytes(), data)
		// Seal destroys the locked buffer.
		sealed = locked.Seal()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Enclave{sealed: sealed}, nil
}

// Open decrypts the secret into a new buffer taken from p, or into a
// dedicated buffer when p is nil. The caller owns the returned buffer and
// must close it.
func (e *Enclave) Open(p *securebuf.Pool) (*securebuf.Buffer, error) {
	if e == nil || e.sealed == nil {
		return nil, ErrDestroyed
	}

	locked, err := e.sealed.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	defer locked.Destroy()

	var b *securebuf.Buffer
	if p != nil {
		b, err = p.Get(locked.Size())
	} else {
		b, err = securebuf.New(locked.Size())
	}
	if err != nil {
		return nil, err
	}

	if err := b.Load(locked.Bytes()); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

// Size returns the plaintext length, or zero once destroyed.
func (e *Enclave) Size() int {
	if e == nil || e.sealed == nil {
		return 0
	}
	return e.sealed.Size()
}

// Destroy drops the ciphertext. Destroy is idempotent.
func (e *Enclave) Destroy() {
	if e != nil {
		e.sealed = nil
	}
}

// Purge replaces the session key and destroys every memguard buffer in the
// process. Enclaves sealed before Purge can no longer be opened.
func Purge() {
	memguard.Purge()
}
