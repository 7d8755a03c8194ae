// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package credential

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

// Verifier checks a secret for a user. *Store satisfies it.
type Verifier interface {
	Verify(user string, secret *securebuf.Buffer) error
}

// Prompter runs a bounded, rate-limited prompt loop. Each attempt's secret
// lives only for that attempt.
type Prompter struct {
	verifier Verifier
	config   PromptConfig
	limiter  *attemptLimiter
	logger   *slog.Logger
}

// NewPrompter creates a Prompter checking secrets against v. Call Close to
// stop the limiter's cleanup goroutine.
func NewPrompter(v Verifier, cfg *PromptConfig) (*Prompter, error) {
	if v == nil {
		return nil, ErrVerifierRequired
	}

	config := PromptConfig{}
	if cfg != nil {
		config = *cfg
	}
	if config.Capacity <= 0 {
		config.Capacity = DefaultCapacity
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.RateLimit <= 0 {
		config.RateLimit = DefaultRateLimit
	}
	if config.RateBurst <= 0 {
		config.RateBurst = DefaultRateBurst
	}
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	if config.RejectMessage == "" {
		config.RejectMessage = DefaultRejectMessage
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Prompter{
		verifier: v,
		config:   config,
		limiter:  newAttemptLimiter(config.RateLimit, config.RateBurst, DefaultStaleAge, DefaultCleanupInterval),
		logger:   logger,
	}, nil
}

// Authenticate prompts on out and reads secrets from src until one
// verifies for user, MaxAttempts attempts fail, the user is rate limited
// or ctx is done. Over-long, empty and wrong secrets count as failed
// attempts; read errors and exhausted input end the loop.
func (p *Prompter) Authenticate(ctx context.Context, user string, src Source, out io.Writer) error {
	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ok, wait := p.limiter.Allow(user); !ok {
			p.logger.Warn("secret attempt rate limited", "user", user, "attempt", attempt, "retry_after", wait)
			return fmt.Errorf("%w: retry in %s", ErrRateLimited, wait.Round(time.Second))
		}

		if _, err := io.WriteString(out, p.config.Prompt); err != nil {
			return fmt.Errorf("%w: prompt: %w", ErrWriteFailed, err)
		}

		err := p.attempt(user, src)
		switch {
		case err == nil:
			p.logger.Info("secret verified", "user", user, "attempt", attempt)
			return nil
		case errors.Is(err, ErrInvalidCredentials),
			errors.Is(err, securebuf.ErrTruncated),
			errors.Is(err, ErrEmptySecret):
			p.logger.Warn("secret rejected", "user", user, "attempt", attempt, "reason", rejectReason(err))
			if _, werr := io.WriteString(out, p.config.RejectMessage); werr != nil {
				return fmt.Errorf("%w: reject message: %w", ErrWriteFailed, werr)
			}
		default:
			return err
		}
	}

	p.logger.Warn("secret attempts exhausted", "user", user, "attempts", p.config.MaxAttempts)
	return ErrTooManyAttempts
}

// attempt reads and verifies one secret. The secret is closed on return,
// including when the source reports truncation alongside a buffer.
func (p *Prompter) attempt(user string, src Source) error {
	secret, err := src(p.config.Capacity)
	if secret != nil {
		defer secret.Close()
	}
	if err != nil {
		return err
	}
	return p.verifier.Verify(user, secret)
}

// Close stops background work. Close is idempotent.
func (p *Prompter) Close() {
	p.limiter.Stop()
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, securebuf.ErrTruncated):
		return "too long"
	case errors.Is(err, ErrEmptySecret):
		return "empty"
	default:
		return "mismatch"
	}
}
