// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package credential

import (
	"log/slog"
	"time"
)

// Default configuration values for input sources, hashing and prompting.
const (
	// DefaultCapacity is the largest secret accepted from an input source.
	DefaultCapacity = 128

	// FrameHeaderSize is the number of bytes used for the big-endian length prefix.
	FrameHeaderSize = 2

	// MaxFrameSize is the largest payload a 2-byte length prefix can declare.
	MaxFrameSize = 65535

	// DefaultMaxAttempts is the number of prompt attempts before giving up.
	DefaultMaxAttempts = 3

	// DefaultRateLimit is the per-user token refill rate in attempts per second.
	DefaultRateLimit = 0.2

	// DefaultRateBurst is the number of attempts a user may make back to back.
	DefaultRateBurst = 5

	// DefaultStaleAge is how long an idle user's limiter is kept.
	DefaultStaleAge = 15 * time.Minute

	// DefaultCleanupInterval is how often idle limiters are evicted.
	DefaultCleanupInterval = time.Minute

	// DefaultPrompt is written before each secret is read.
	DefaultPrompt = "Password: "

	// DefaultRejectMessage is written after a failed attempt.
	DefaultRejectMessage = "Access denied.\n"
)

// Argon2id defaults (RFC 9106 second recommended option) and accepted
// bounds. The upper bounds keep a tampered store from requesting an
// unbounded derivation.
const (
	DefaultMemory      uint32 = 64 * 1024
	DefaultTime        uint32 = 3
	DefaultParallelism uint8  = 4
	DefaultSaltLength  uint32 = 16
	DefaultKeyLength   uint32 = 32

	minMemory      uint32 = 8 * 1024
	minTime        uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16

	maxMemory      uint32 = 4 * 1024 * 1024
	maxTime        uint32 = 64
	maxParallelism uint8  = 64
	maxSaltLength  uint32 = 64
	maxKeyLength   uint32 = 128
)

// HashParams configures argon2id derivation for newly enrolled secrets.
// Verification always uses the parameters recorded in the stored digest.
type HashParams struct {
	// Memory is the argon2 memory cost in KiB.
	Memory uint32

	// Time is the number of argon2 passes.
	Time uint32

	// Parallelism is the number of argon2 lanes.
	Parallelism uint8

	// SaltLength is the random salt size in bytes.
	SaltLength uint32

	// KeyLength is the derived key size in bytes.
	KeyLength uint32
}

// DefaultHashParams returns the recommended argon2id parameters.
func DefaultHashParams() HashParams {
	return HashParams{
		Memory:      DefaultMemory,
		Time:        DefaultTime,
		Parallelism: DefaultParallelism,
		SaltLength:  DefaultSaltLength,
		KeyLength:   DefaultKeyLength,
	}
}

// PromptConfig configures a Prompter.
type PromptConfig struct {
	// Capacity is the largest secret accepted per attempt. Longer input is
	// a failed attempt. Zero value is replaced with DefaultCapacity.
	Capacity int

	// MaxAttempts is the number of attempts before ErrTooManyAttempts.
	// Zero or negative values are replaced with DefaultMaxAttempts.
	MaxAttempts int

	// RateLimit is the per-user token refill rate in attempts per second.
	// Zero value is replaced with DefaultRateLimit.
	RateLimit float64

	// RateBurst is the number of attempts a user may make before rate
	// limiting applies. Zero value is replaced with DefaultRateBurst.
	RateBurst int

	// Prompt is written before each attempt. Empty selects DefaultPrompt.
	Prompt string

	// RejectMessage is written after each failed attempt. Empty selects
	// DefaultRejectMessage.
	RejectMessage string

	// Logger is the structured logger for the prompter. If nil,
	// slog.Default() is used.
	Logger *slog.Logger
}
