// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-secmem/pkg/enclave"
	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Check buffer wiping, pool reuse and truncation",
	Long: `Run a set of scenarios against the secure buffer implementation:

  pool-reuse   - a secret loaded in a scope is gone from the pool after
                 the scope ends, and the slot handed out next is zeroed
  truncation   - an over-long secret is cut to capacity and reported
  error-path   - a scope that fails still wipes its buffer
  enclave      - a sealed secret opens back into secure memory intact

A non-zero exit status means at least one scenario failed.`,
	RunE: runSelftest,
}

type scenarioResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

type scenario struct {
	name string
	run  func() error
}

var scenarios = []scenario{
	{"pool-reuse", checkPoolReuse},
	{"truncation", checkTruncation},
	{"error-path", checkErrorPath},
	{"enclave", checkEnclave},
}

// runSelftest runs every scenario, reports each outcome and fails if any
// scenario failed.
func runSelftest(cmd *cobra.Command, args []string) error {
	results := make([]scenarioResult, 0, len(scenarios))
	var failed []string

	for _, s := range scenarios {
		r := scenarioResult{Name: s.name, Passed: true}
		if err := s.run(); err != nil {
			r.Passed = false
			r.Detail = err.Error()
			failed = append(failed, s.name)
			slog.Error("self-test scenario failed", "scenario", s.name, "error", err)
		} else {
			slog.Debug("self-test scenario passed", "scenario", s.name)
		}
		results = append(results, r)
	}

	if err := writeResult(results, func() string {
		var sb strings.Builder
		for _, r := range results {
			status := "PASS"
			if !r.Passed {
				status = "FAIL"
			}
			fmt.Fprintf(&sb, "%s  %s", status, r.Name)
			if r.Detail != "" {
				fmt.Fprintf(&sb, ": %s", r.Detail)
			}
			sb.WriteByte('\n')
		}
		return sb.String()
	}); err != nil {
		return err
	}

	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", ErrSelfTestFailed, strings.Join(failed, ", "))
	}
	return nil
}

// checkPoolReuse loads "hunter2" in a scope, audits the released slots
// and takes the next buffer from the same pool.
func checkPoolReuse() error {
	p, err := securebuf.NewPool(32, 4)
	if err != nil {
		return err
	}
	defer p.Close()

	secret := []byte("hunter2")
	err = p.Use(32, func(b *securebuf.Buffer) error {
		if err := b.Load(secret); err != nil {
			return err
		}
		if !b.Equal(secret) {
			return errors.New("loaded buffer does not hold the secret")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := p.Audit(); err != nil {
		return err
	}

	next, err := p.Get(32)
	if err != nil {
		return err
	}
	defer next.Close()

	if next.Len() != 0 || next.Cap() != 32 {
		return fmt.Errorf("reused buffer has length %d and capacity %d", next.Len(), next.Cap())
	}
	if next.Equal(secret) {
		return errors.New("reused buffer still holds the secret")
	}
	return nil
}

// checkTruncation loads 16 bytes into an 8-byte buffer.
func checkTruncation() error {
	b, err := securebuf.New(8)
	if err != nil {
		return err
	}
	defer b.Close()

	err = b.Load([]byte("0123456789abcdef"))
	if !errors.Is(err, securebuf.ErrTruncated) {
		return fmt.Errorf("load returned %v, want %v", err, securebuf.ErrTruncated)
	}
	if b.Len() != 8 || !b.Equal([]byte("01234567")) {
		return errors.New("truncated buffer does not hold the first 8 bytes")
	}
	return nil
}

// checkErrorPath fails a scope after loading a secret and audits the pool.
func checkErrorPath() error {
	p, err := securebuf.NewPool(32, 1)
	if err != nil {
		return err
	}
	defer p.Close()

	errScope := errors.New("scope failed")
	err = p.Use(32, func(b *securebuf.Buffer) error {
		if err := b.Load([]byte("hunter2")); err != nil {
			return err
		}
		return errScope
	})
	if !errors.Is(err, errScope) {
		return fmt.Errorf("scope returned %v, want %v", err, errScope)
	}
	if in := p.Stats().InUse; in != 0 {
		return fmt.Errorf("%d buffers still in use", in)
	}
	return p.Audit()
}

// checkEnclave seals a secret and opens it again.
func checkEnclave() error {
	b, err := securebuf.NewFromBytes([]byte("hunter2"))
	if err != nil {
		return err
	}
	defer b.Close()

	sealed, err := enclave.Seal(b)
	if err != nil {
		return err
	}
	defer sealed.Destroy()

	opened, err := sealed.Open(nil)
	if err != nil {
		return err
	}
	defer opened.Close()

	if !opened.EqualBuffer(b) {
		return errors.New("opened enclave does not match the sealed secret")
	}
	return nil
}
