// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-secmem/pkg/credential"
)

// Flag variables for the verify command.
var (
	verifyUser     string
	verifyAttempts int
	verifyCapacity int
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Prompt for a secret and verify it",
	Long: `Prompt for a secret up to --attempts times and check each one against
the digest stored for --user. Each attempt's secret is read into locked
memory and wiped as soon as it has been checked.

Secrets longer than --capacity, empty secrets and wrong secrets all count
as failed attempts. Attempts are also rate limited per user.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyUser, "user", "", "user name to verify (required)")
	verifyCmd.Flags().IntVar(&verifyAttempts, "attempts", credential.DefaultMaxAttempts,
		"maximum number of attempts")
	verifyCmd.Flags().IntVar(&verifyCapacity, "capacity", credential.DefaultCapacity,
		"maximum secret length in bytes")
}

// runVerify runs the prompt loop for --user against the credential store.
func runVerify(cmd *cobra.Command, args []string) error {
	if verifyUser == "" {
		return fmt.Errorf("%w: --user is required", ErrInvalidInput)
	}
	if verifyAttempts <= 0 || verifyCapacity <= 0 {
		return fmt.Errorf("%w: --attempts and --capacity must be positive", ErrInvalidInput)
	}
	if _, err := os.Stat(storePath); err != nil {
		return fmt.Errorf("%w: credential store %s: %w", ErrFileOperation, storePath, err)
	}

	store, err := credential.OpenStore(storePath, credential.DefaultHashParams())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileOperation, err)
	}

	prompter, err := credential.NewPrompter(store, &credential.PromptConfig{
		Capacity:    verifyCapacity,
		MaxAttempts: verifyAttempts,
		Logger:      slog.Default(),
	})
	if err != nil {
		return err
	}
	defer prompter.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = prompter.Authenticate(ctx, verifyUser, secretSource(), cmd.ErrOrStderr())
	switch {
	case err == nil:
		return writeResult(verifyResult{User: verifyUser, Verified: true}, func() string {
			return fmt.Sprintf("%s: verified\n", verifyUser)
		})
	case errors.Is(err, credential.ErrTooManyAttempts),
		errors.Is(err, credential.ErrRateLimited):
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: interrupted", ErrVerificationFailed)
	default:
		return err
	}
}

type verifyResult struct {
	User     string `json:"user"`
	Verified bool   `json:"verified"`
}
