// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package credential

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

// fakeVerifier accepts a fixed secret and records every buffer it sees so
// tests can check the buffers were closed after each attempt.
type fakeVerifier struct {
	mu     sync.Mutex
	secret string
	seen   []*securebuf.Buffer
}

func (f *fakeVerifier) Verify(_ string, secret *securebuf.Buffer) error {
	f.mu.Lock()
	f.seen = append(f.seen, secret)
	f.mu.Unlock()

	if secret.Equal([]byte(f.secret)) {
		return nil
	}
	return ErrInvalidCredentials
}

func newTestPrompter(t *testing.T, v Verifier, cfg *PromptConfig) *Prompter {
	t.Helper()
	if cfg == nil {
		cfg = &PromptConfig{}
	}
	cfg.Logger = slog.New(slog.DiscardHandler)
	p, err := NewPrompter(v, cfg)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestNewPrompter_RequiresVerifier(t *testing.T) {
	_, err := NewPrompter(nil, nil)
	assert.ErrorIs(t, err, ErrVerifierRequired)
}

func TestNewPrompter_Defaults(t *testing.T) {
	p, err := NewPrompter(&fakeVerifier{}, nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, DefaultCapacity, p.config.Capacity)
	assert.Equal(t, DefaultMaxAttempts, p.config.MaxAttempts)
	assert.Equal(t, DefaultPrompt, p.config.Prompt)
	assert.Equal(t, DefaultRejectMessage, p.config.RejectMessage)
	assert.NotNil(t, p.logger)
}

func TestAuthenticate_FirstAttempt(t *testing.T) {
	v := &fakeVerifier{secret: "hunter2"}
	p := newTestPrompter(t, v, nil)

	var out bytes.Buffer
	err := p.Authenticate(context.Background(), "alice", LineSource(strings.NewReader("hunter2\n")), &out)
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompt, out.String())
}

func TestAuthenticate_SecondAttempt(t *testing.T) {
	v := &fakeVerifier{secret: "hunter2"}
	p := newTestPrompter(t, v, nil)

	var out bytes.Buffer
	input := strings.NewReader("wrong\nhunter2\n")
	err := p.Authenticate(context.Background(), "alice", LineSource(input), &out)
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompt+DefaultRejectMessage+DefaultPrompt, out.String())

	require.Len(t, v.seen, 2)
	for i, b := range v.seen {
		assert.ErrorIs(t, b.With(func([]byte) error { return nil }), securebuf.ErrClosed,
			"attempt %d buffer should be closed", i)
	}
}

func TestAuthenticate_Exhausted(t *testing.T) {
	v := &fakeVerifier{secret: "hunter2"}
	p := newTestPrompter(t, v, &PromptConfig{MaxAttempts: 3})

	var out bytes.Buffer
	input := strings.NewReader("a\nb\nc\nhunter2\n")
	err := p.Authenticate(context.Background(), "alice", LineSource(input), &out)
	assert.ErrorIs(t, err, ErrTooManyAttempts)
	assert.Equal(t, 3, strings.Count(out.String(), DefaultRejectMessage))
	assert.Len(t, v.seen, 3)
}

func TestAuthenticate_TruncatedAttemptCounts(t *testing.T) {
	v := &fakeVerifier{secret: "hunter2"}
	p := newTestPrompter(t, v, &PromptConfig{Capacity: 8})

	// The truncated prefix "hunter2x" must not be accepted and the second
	// line must still be read on its own.
	input := strings.NewReader("hunter2xxxxxxxx\nhunter2\n")
	err := p.Authenticate(context.Background(), "alice", LineSource(input), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Len(t, v.seen, 1, "truncated input must never reach the verifier")
}

func TestAuthenticate_EmptyAttemptCounts(t *testing.T) {
	v := &fakeVerifier{secret: "hunter2"}
	p := newTestPrompter(t, v, nil)

	err := p.Authenticate(context.Background(), "alice", LineSource(strings.NewReader("\nhunter2\n")), &bytes.Buffer{})
	require.NoError(t, err)
}

func TestAuthenticate_NoInput(t *testing.T) {
	p := newTestPrompter(t, &fakeVerifier{secret: "x"}, nil)

	err := p.Authenticate(context.Background(), "alice", LineSource(strings.NewReader("")), &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestAuthenticate_RateLimited(t *testing.T) {
	v := &fakeVerifier{secret: "hunter2"}
	p := newTestPrompter(t, v, &PromptConfig{MaxAttempts: 10, RateLimit: 0.001, RateBurst: 2})

	input := strings.NewReader("a\nb\nc\nhunter2\n")
	err := p.Authenticate(context.Background(), "alice", LineSource(input), &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Len(t, v.seen, 2)

	// Another user keeps an independent budget.
	err = p.Authenticate(context.Background(), "bob", LineSource(strings.NewReader("hunter2\n")), &bytes.Buffer{})
	assert.NoError(t, err)
}

func TestAuthenticate_ContextCanceled(t *testing.T) {
	p := newTestPrompter(t, &fakeVerifier{secret: "x"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Authenticate(ctx, "alice", LineSource(strings.NewReader("x\n")), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestAuthenticate_PromptWriteFails(t *testing.T) {
	p := newTestPrompter(t, &fakeVerifier{secret: "x"}, nil)

	err := p.Authenticate(context.Background(), "alice", LineSource(strings.NewReader("x\n")), failingWriter{})
	assert.ErrorIs(t, err, ErrWriteFailed)
}

func TestAuthenticate_WithStore(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Enroll("alice", secretBuffer(t, "correct horse")))

	p := newTestPrompter(t, s, nil)
	err := p.Authenticate(context.Background(), "alice",
		LineSource(strings.NewReader("battery staple\ncorrect horse\n")), &bytes.Buffer{})
	require.NoError(t, err)

	err = p.Authenticate(context.Background(), "mallory",
		LineSource(strings.NewReader("correct horse\n\nx\n")), &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}
