// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-secmem/pkg/credential"
	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

// frameTimeout bounds how long a framed secret may take to arrive.
const frameTimeout = 30 * time.Second

// secretSource returns the Source secrets are read from; tests replace it.
var secretSource = func() credential.Source {
	return stdinSource(os.Stdin)
}

// stdinSource reads length-prefixed frames from f when --framed is set.
// Otherwise it reads lines, without echo when f is a terminal.
func stdinSource(f *os.File) credential.Source {
	if framedInput {
		return credential.FrameSource(f, frameTimeout)
	}
	return credential.FileSource(f)
}

// Flag variables for the enroll command.
var (
	enrollUser        string
	enrollCapacity    int
	enrollMemory      uint32
	enrollTime        uint32
	enrollParallelism uint8
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a secret for a user",
	Long: `Read a secret from the terminal (or one line from stdin) into locked
memory, derive an argon2id digest from it and save the digest in the
credential store. The secret itself is never written anywhere.

A secret longer than --capacity is refused rather than silently cut.`,
	RunE: runEnroll,
}

func init() {
	defaults := credential.DefaultHashParams()

	enrollCmd.Flags().StringVar(&enrollUser, "user", "", "user name to enroll (required)")
	enrollCmd.Flags().IntVar(&enrollCapacity, "capacity", credential.DefaultCapacity,
		"maximum secret length in bytes")
	enrollCmd.Flags().Uint32Var(&enrollMemory, "memory", defaults.Memory, "argon2id memory cost in KiB")
	enrollCmd.Flags().Uint32Var(&enrollTime, "time", defaults.Time, "argon2id passes")
	enrollCmd.Flags().Uint8Var(&enrollParallelism, "parallelism", defaults.Parallelism, "argon2id lanes")
}

func enrollParams() credential.HashParams {
	params := credential.DefaultHashParams()
	params.Memory = enrollMemory
	params.Time = enrollTime
	params.Parallelism = enrollParallelism
	return params
}

// runEnroll reads one secret and records its digest for --user.
func runEnroll(cmd *cobra.Command, args []string) error {
	if enrollUser == "" {
		return fmt.Errorf("%w: --user is required", ErrInvalidInput)
	}
	if enrollCapacity <= 0 {
		return fmt.Errorf("%w: --capacity must be positive", ErrInvalidInput)
	}

	store, err := credential.OpenStore(storePath, enrollParams())
	if err != nil {
		if errors.Is(err, credential.ErrInvalidParams) {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return fmt.Errorf("%w: %w", ErrFileOperation, err)
	}

	fmt.Fprint(cmd.ErrOrStderr(), credential.DefaultPrompt)
	secret, err := secretSource()(enrollCapacity)
	if secret != nil {
		defer secret.Close()
	}
	if err != nil {
		if errors.Is(err, securebuf.ErrTruncated) {
			return fmt.Errorf("%w: secret longer than %d bytes", ErrInvalidInput, enrollCapacity)
		}
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	slog.Debug("secret read", "user", enrollUser, "locked", secret.Locked())

	if err := store.Enroll(enrollUser, secret); err != nil {
		if errors.Is(err, credential.ErrInvalidUser) {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return err
	}
	if err := store.Save(); err != nil {
		return fmt.Errorf("%w: %w", ErrFileOperation, err)
	}

	slog.Info("secret enrolled", "user", enrollUser, "store", store.Path())
	return nil
}
