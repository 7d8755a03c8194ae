// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package noisekey manages Curve25519 static keys for the Noise Protocol
// Framework without leaving private key material on the Go heap. The
// private half is kept sealed in an enclave and is only decrypted into a
// secure buffer for the duration of a callback.
package noisekey

import "errors"

// Sentinel errors for the noisekey package.
var (
	// ErrInvalidKeySize indicates a key with an incorrect size was provided.
	ErrInvalidKeySize = errors.New("noisekey: invalid key size")

	// ErrKeyGeneration indicates a new key pair could not be generated.
	ErrKeyGeneration = errors.New("noisekey: key generation failed")

	// ErrKeyMismatch indicates the private key does not correspond to the
	// recorded public key.
	ErrKeyMismatch = errors.New("noisekey: private key does not match public key")

	// ErrDestroyed indicates the key was destroyed.
	ErrDestroyed = errors.New("noisekey: key destroyed")
)
