// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package counter implements a shared counter incremented by concurrent
// workers in the three safe forms: an atomic integer, a mutex-guarded
// integer, and per-worker tallies aggregated over a channel.
package counter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidWorkload indicates a non-positive worker or increment count.
var ErrInvalidWorkload = errors.New("counter: invalid workload")

// Counter is a value safe to increment from many goroutines.
type Counter interface {
	Inc()
	Value() int64
}

// Atomic is a Counter backed by an atomic integer.
type Atomic struct {
	n atomic.Int64
}

// Inc adds one.
func (a *Atomic) Inc() { a.n.Add(1) }

// Value returns the current count.
func (a *Atomic) Value() int64 { return a.n.Load() }

// Locked is a Counter whose every access holds a mutex.
type Locked struct {
	mu sync.Mutex
	n  int64
}

// Inc adds one.
func (l *Locked) Inc() {
	l.mu.Lock()
	l.n++
	l.mu.Unlock()
}

// Value returns the current count.
func (l *Locked) Value() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

func validate(workers, increments int) error {
	if workers <= 0 || increments <= 0 {
		return fmt.Errorf("%w: %d workers x %d increments", ErrInvalidWorkload, workers, increments)
	}
	return nil
}

// Run starts workers goroutines that each increment c increments times and
// returns c's final value. Workers stop early when ctx is done.
func Run(ctx context.Context, c Counter, workers, increments int) (int64, error) {
	if err := validate(workers, increments); err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < increments; i++ {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				c.Inc()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return c.Value(), err
	}
	return c.Value(), nil
}

// Aggregate confines each tally to its own goroutine and sums the results
// received over a channel, so no counter memory is shared at all.
func Aggregate(ctx context.Context, workers, increments int) (int64, error) {
	if err := validate(workers, increments); err != nil {
		return 0, err
	}

	results := make(chan int64, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			var local int64
			for i := 0; i < increments; i++ {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				local++
			}
			results <- local
			return nil
		})
	}

	err := g.Wait()
	close(results)

	var total int64
	for n := range results {
		total += n
	}
	return total, err
}
