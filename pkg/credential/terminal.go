// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package credential

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

// FileSource returns a Source reading from f: without echo when f is a
// terminal, line by line otherwise.
func FileSource(f *os.File) Source {
	return func(capacity int) (*securebuf.Buffer, error) {
		return ReadSecret(f, capacity)
	}
}

// ReadSecret reads one secret from f. On a terminal, echo is disabled and
// the heap copy returned by the terminal layer is wiped as soon as it has
// been loaded into the secure buffer.
func ReadSecret(f *os.File, capacity int) (*securebuf.Buffer, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return ReadLine(f, capacity)
	}

	raw, err := term.ReadPassword(fd)
	defer securebuf.Wipe(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	if len(raw) == 0 {
		return nil, ErrEmptySecret
	}

	b, err := securebuf.New(capacity)
	if err != nil {
		return nil, err
	}
	// On truncation b keeps the prefix; the caller decides.
	return b, b.Load(raw)
}
