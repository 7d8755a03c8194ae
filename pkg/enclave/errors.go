// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package enclave parks secrets encrypted in memory between uses. A sealed
// secret is decrypted only into a securebuf.Buffer, for as long as the
// caller keeps that buffer open.
package enclave

import "errors"

// Sentinel errors for the enclave package.
var (
	// ErrEmpty indicates an attempt to seal a buffer with no contents.
	ErrEmpty = errors.New("enclave: nothing to seal")

	// ErrDestroyed indicates the enclave was destroyed or never sealed.
	ErrDestroyed = errors.New("enclave: destroyed")

	// ErrOpenFailed indicates the ciphertext could not be decrypted, for
	// example after Purge replaced the session key.
	ErrOpenFailed = errors.New("enclave: open failed")
)
