// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package securebuf

// Use allocates a buffer of the given capacity, runs fn with it and closes
// it on every exit path, including a panic in fn. A close error is only
// returned when fn itself succeeded.
func Use(capacity int, fn func(b *Buffer) error) (err error) {
	b, err := New(capacity)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := b.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(b)
}
