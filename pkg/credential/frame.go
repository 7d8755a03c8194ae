// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package credential

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// FrameSource returns a Source reading successive frames from r with a
// per-frame timeout. A zero timeout disables deadlines.
func FrameSource(r io.Reader, timeout time.Duration) Source {
	return func(capacity int) (*securebuf.Buffer, error) {
		var deadline time.Time
		if timeout > 0 {
			deadline = time.Now().Add(timeout)
		}
		return ReadFrame(r, capacity, deadline)
	}
}

// WriteFrame writes the contents of b as a 2-byte big-endian
// length-prefixed frame. The deadline is applied when w supports it and is
// non-zero.
func WriteFrame(w io.Writer, b *securebuf.Buffer, deadline time.Time) error {
	if d, ok := w.(writeDeadliner); ok && !deadline.IsZero() {
		if err := d.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("%w: set write deadline: %w", ErrTimeout, err)
		}
	}

	return b.With(func(data []byte) error {
		if len(data) > MaxFrameSize {
			return fmt.Errorf("%w: size %d exceeds maximum %d",
				ErrFrameTooLarge, len(data), MaxFrameSize)
		}

		var header [FrameHeaderSize]byte
		binary.BigEndian.PutUint16(header[:], uint16(len(data)))

		if _, err := w.Write(header[:]); err != nil {
			return fmt.Errorf("%w: write header: %w", ErrWriteFailed, err)
		}
		if len(data) > 0 {
			if _, err := w.Write(data); err != nil {
				return fmt.Errorf("%w: write payload: %w", ErrWriteFailed, err)
			}
		}
		return nil
	})
}

// ReadFrame reads a 2-byte big-endian length-prefixed secret from r into a
// new buffer of the given capacity. The declared length is checked against
// capacity before any payload byte is read, and the payload is read
// directly into secure storage.
func ReadFrame(r io.Reader, capacity int, deadline time.Time) (*securebuf.Buffer, error) {
	if d, ok := r.(readDeadliner); ok && !deadline.IsZero() {
		if err := d.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("%w: set read deadline: %w", ErrTimeout, err)
		}
	}

	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, ErrNoInput
		}
		return nil, fmt.Errorf("%w: read header: %w", ErrReadFailed, err)
	}

	length := int(binary.BigEndian.Uint16(header[:]))
	if length > capacity {
		return nil, fmt.Errorf("%w: declared size %d exceeds capacity %d",
			ErrFrameTooLarge, length, capacity)
	}
	if length == 0 {
		return nil, ErrEmptySecret
	}

	b, err := securebuf.New(capacity)
	if err != nil {
		return nil, err
	}
	if err := b.Fill(r, length); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("%w: read payload: %w", ErrReadFailed, err)
	}
	return b, nil
}
