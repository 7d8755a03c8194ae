// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package credential

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

// Source produces one secret per call into a buffer of at most capacity
// bytes. The caller owns and must close the returned buffer, which may be
// non-nil alongside an error wrapping securebuf.ErrTruncated.
type Source func(capacity int) (*securebuf.Buffer, error)

// LineSource returns a Source that reads successive lines from r.
func LineSource(r io.Reader) Source {
	return func(capacity int) (*securebuf.Buffer, error) {
		return ReadLine(r, capacity)
	}
}

// ReadLine reads one line from r directly into a new secure buffer. Bytes
// are read one at a time so that nothing past the newline is consumed and
// no secret bytes are left in an intermediate read buffer. A trailing
// "\r" is dropped.
//
// A line longer than capacity is consumed up to its newline and returned
// truncated together with an error wrapping securebuf.ErrTruncated. An
// empty line is ErrEmptySecret; end of input before any byte is ErrNoInput.
func ReadLine(r io.Reader, capacity int) (*securebuf.Buffer, error) {
	b, err := securebuf.New(capacity)
	if err != nil {
		return nil, err
	}

	var scratch [1]byte
	defer securebuf.Wipe(scratch[:])

	var (
		consumed   int
		pendingCR  bool
		truncated  bool
		sawNewline bool
	)

	appendByte := func(c byte) {
		if truncated {
			return
		}
		scratch[0] = c
		if _, err := b.Write(scratch[:]); err != nil {
			truncated = true
		}
	}

	for !sawNewline {
		n, readErr := r.Read(scratch[:])
		if n == 1 {
			consumed++
			switch c := scratch[0]; {
			case c == '\n':
				sawNewline = true
			case pendingCR:
				appendByte('\r')
				pendingCR = c == '\r'
				if !pendingCR {
					appendByte(c)
				}
			case c == '\r':
				pendingCR = true
			default:
				appendByte(c)
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			_ = b.Close()
			return nil, fmt.Errorf("%w: %w", ErrReadFailed, readErr)
		}
	}

	switch {
	case consumed == 0:
		_ = b.Close()
		return nil, ErrNoInput
	case truncated:
		return b, fmt.Errorf("%w: line exceeds %d bytes", securebuf.ErrTruncated, capacity)
	case b.Len() == 0:
		_ = b.Close()
		return nil, ErrEmptySecret
	}
	return b, nil
}
