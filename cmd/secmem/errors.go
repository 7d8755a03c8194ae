// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"errors"

	"github.com/jeremyhahn/go-secmem/pkg/credential"
)

// Exit codes for the CLI.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitFailure indicates an operation or verification failed.
	ExitFailure = 1

	// ExitConfigError indicates a configuration or input validation error.
	ExitConfigError = 2

	// ExitDenied indicates the secret was rejected or attempts ran out.
	ExitDenied = 3
)

// Sentinel errors for CLI operations.
var (
	// ErrInvalidInput is returned when required input parameters are missing or invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrVerificationFailed is returned when a secret does not verify.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrKeyOperation is returned when a key generation or decoding operation fails.
	ErrKeyOperation = errors.New("key operation failed")

	// ErrFileOperation is returned when a file read or write operation fails.
	ErrFileOperation = errors.New("file operation failed")

	// ErrCounterMismatch is returned when a counter strategy loses increments.
	ErrCounterMismatch = errors.New("counter total mismatch")

	// ErrSelfTestFailed is returned when any self-test scenario fails.
	ErrSelfTestFailed = errors.New("self-test failed")
)

// exitCode maps a command error to a process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrInvalidInput):
		return ExitConfigError
	case errors.Is(err, ErrVerificationFailed),
		errors.Is(err, credential.ErrTooManyAttempts),
		errors.Is(err, credential.ErrRateLimited):
		return ExitDenied
	default:
		return ExitFailure
	}
}
