// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-secmem/internal/counter"
)

// Flag variables for the counter command.
var (
	counterWorkers    int
	counterIncrements int
)

var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "Increment a shared counter from concurrent workers",
	Long: `Start --workers goroutines that each increment a shared counter
--increments times, once per strategy:

  atomic    - atomic integer
  locked    - integer guarded by a mutex
  aggregate - per-worker tallies summed over a channel

Every strategy must end at exactly workers x increments.`,
	RunE: runCounter,
}

func init() {
	counterCmd.Flags().IntVar(&counterWorkers, "workers", 10, "number of concurrent workers")
	counterCmd.Flags().IntVar(&counterIncrements, "increments", 10000, "increments per worker")
}

type counterResult struct {
	Strategy string        `json:"strategy"`
	Total    int64         `json:"total"`
	Expected int64         `json:"expected"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

type strategy struct {
	name string
	run  func(ctx context.Context) (int64, error)
}

// runCounter runs every strategy and fails if any total is off.
func runCounter(cmd *cobra.Command, args []string) error {
	if counterWorkers <= 0 || counterIncrements <= 0 {
		return fmt.Errorf("%w: --workers and --increments must be positive", ErrInvalidInput)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	strategies := []strategy{
		{"atomic", func(ctx context.Context) (int64, error) {
			return counter.Run(ctx, &counter.Atomic{}, counterWorkers, counterIncrements)
		}},
		{"locked", func(ctx context.Context) (int64, error) {
			return counter.Run(ctx, &counter.Locked{}, counterWorkers, counterIncrements)
		}},
		{"aggregate", func(ctx context.Context) (int64, error) {
			return counter.Aggregate(ctx, counterWorkers, counterIncrements)
		}},
	}

	expected := int64(counterWorkers) * int64(counterIncrements)
	results := make([]counterResult, 0, len(strategies))
	var mismatched []string

	for _, s := range strategies {
		start := time.Now()
		total, err := s.run(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		elapsed := time.Since(start)

		slog.Debug("counter strategy finished", "strategy", s.name, "total", total, "elapsed", elapsed)
		if total != expected {
			mismatched = append(mismatched, s.name)
		}
		results = append(results, counterResult{
			Strategy: s.name,
			Total:    total,
			Expected: expected,
			Elapsed:  elapsed,
		})
	}

	if err := writeResult(results, func() string {
		var sb strings.Builder
		for _, r := range results {
			fmt.Fprintf(&sb, "%-10s %d/%d  %s\n", r.Strategy, r.Total, r.Expected, r.Elapsed)
		}
		return sb.String()
	}); err != nil {
		return err
	}

	if len(mismatched) > 0 {
		return fmt.Errorf("%w: %s", ErrCounterMismatch, strings.Join(mismatched, ", "))
	}
	return nil
}
