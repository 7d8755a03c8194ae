// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package credential reads secrets from untrusted input straight into
// secure buffers and checks them against stored argon2id digests.
//
// Every copy from an input source is bounded by the destination buffer's
// capacity, and input is never interpreted as a format string.
package credential

import "errors"

// Sentinel errors for the credential package.
var (
	// ErrEmptySecret indicates the input source produced an empty secret.
	ErrEmptySecret = errors.New("credential: secret is empty")

	// ErrNoInput indicates the input source was exhausted before any byte
	// of a secret was read.
	ErrNoInput = errors.New("credential: no input")

	// ErrReadFailed indicates the input source returned an I/O error.
	ErrReadFailed = errors.New("credential: read failed")

	// ErrWriteFailed indicates a frame could not be written.
	ErrWriteFailed = errors.New("credential: write failed")

	// ErrFrameTooLarge indicates a frame declared a length larger than the
	// receiving buffer.
	ErrFrameTooLarge = errors.New("credential: frame too large")

	// ErrTimeout indicates an I/O deadline could not be applied or expired.
	ErrTimeout = errors.New("credential: operation timeout")

	// ErrInvalidCredentials indicates the secret does not match the stored
	// digest, or the user is not enrolled. The two cases are deliberately
	// indistinguishable.
	ErrInvalidCredentials = errors.New("credential: invalid credentials")

	// ErrUnknownUser indicates an administrative operation named a user
	// that is not enrolled.
	ErrUnknownUser = errors.New("credential: unknown user")

	// ErrInvalidUser indicates a user name that cannot be stored.
	ErrInvalidUser = errors.New("credential: invalid user name")

	// ErrInvalidParams indicates hash parameters outside the accepted bounds.
	ErrInvalidParams = errors.New("credential: invalid hash parameters")

	// ErrInvalidDigest indicates a stored digest that is not a valid
	// argon2id PHC string.
	ErrInvalidDigest = errors.New("credential: invalid digest")

	// ErrStoreFailed indicates the credential store could not be read or
	// written.
	ErrStoreFailed = errors.New("credential: store operation failed")

	// ErrRateLimited indicates the user exhausted the attempt rate budget.
	ErrRateLimited = errors.New("credential: rate limited")

	// ErrTooManyAttempts indicates every allowed prompt attempt failed.
	ErrTooManyAttempts = errors.New("credential: too many failed attempts")

	// ErrVerifierRequired indicates a Prompter was built without a Verifier.
	ErrVerifierRequired = errors.New("credential: verifier not configured")
)
