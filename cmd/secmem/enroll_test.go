// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-secmem/pkg/credential"
	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

func enroll(t *testing.T, store, user, input string) error {
	t.Helper()
	withInput(t, input)
	args := append([]string{"--store", store, "enroll", "--user", user}, fastHashFlags...)
	_, _, err := execute(t, args...)
	return err
}

func TestEnroll(t *testing.T) {
	store := filepath.Join(t.TempDir(), "credentials.yaml")

	require.NoError(t, enroll(t, store, "alice", "hunter2\n"))

	data, err := os.ReadFile(store)
	require.NoError(t, err)
	assert.Contains(t, string(data), "alice:")
	assert.Contains(t, string(data), "$argon2id$v=19$m=8192,t=1,p=1$")
	assert.NotContains(t, string(data), "hunter2")

	info, err := os.Stat(store)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEnroll_MissingUser(t *testing.T) {
	withInput(t, "hunter2\n")
	_, _, err := execute(t, "--store", filepath.Join(t.TempDir(), "c.yaml"), "enroll")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEnroll_InvalidUser(t *testing.T) {
	err := enroll(t, filepath.Join(t.TempDir(), "c.yaml"), " alice", "hunter2\n")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, credential.ErrInvalidUser)
}

func TestEnroll_RefusesTruncatedSecret(t *testing.T) {
	store := filepath.Join(t.TempDir(), "c.yaml")
	withInput(t, "0123456789abcdef\n")
	args := append([]string{"--store", store, "enroll", "--user", "alice", "--capacity", "8"}, fastHashFlags...)
	_, _, err := execute(t, args...)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, statErr := os.Stat(store)
	assert.True(t, os.IsNotExist(statErr), "nothing should be saved")
}

func TestEnroll_EmptySecret(t *testing.T) {
	err := enroll(t, filepath.Join(t.TempDir(), "c.yaml"), "alice", "\n")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, credential.ErrEmptySecret)
}

func TestEnroll_WeakParams(t *testing.T) {
	withInput(t, "hunter2\n")
	_, _, err := execute(t, "--store", filepath.Join(t.TempDir(), "c.yaml"),
		"enroll", "--user", "alice", "--memory", "1024")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVerify(t *testing.T) {
	store := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, enroll(t, store, "alice", "hunter2\n"))

	t.Run("first attempt", func(t *testing.T) {
		withInput(t, "hunter2\n")
		out, errOut, err := execute(t, "--store", store, "verify", "--user", "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice: verified\n", out)
		assert.Equal(t, credential.DefaultPrompt, errOut)
	})

	t.Run("after failures", func(t *testing.T) {
		withInput(t, "wrong\n\nhunter2\n")
		_, errOut, err := execute(t, "--store", store, "verify", "--user", "alice")
		require.NoError(t, err)
		assert.Contains(t, errOut, credential.DefaultRejectMessage)
	})

	t.Run("json", func(t *testing.T) {
		withInput(t, "hunter2\n")
		out, _, err := execute(t, "--store", store, "--format", "json", "verify", "--user", "alice")
		require.NoError(t, err)

		var result verifyResult
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, verifyResult{User: "alice", Verified: true}, result)
	})
}

func TestVerify_TooManyAttempts(t *testing.T) {
	store := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, enroll(t, store, "alice", "hunter2\n"))

	withInput(t, "nope\nnope\nhunter2\n")
	out, _, err := execute(t, "--store", store, "verify", "--user", "alice", "--attempts", "2")
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.ErrorIs(t, err, credential.ErrTooManyAttempts)
	assert.Equal(t, ExitDenied, exitCode(err))
	assert.Empty(t, out)
}

func TestVerify_UnknownUser(t *testing.T) {
	store := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, enroll(t, store, "alice", "hunter2\n"))

	withInput(t, "hunter2\n")
	_, _, err := execute(t, "--store", store, "verify", "--user", "mallory", "--attempts", "1")
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestVerify_MissingStore(t *testing.T) {
	withInput(t, "hunter2\n")
	_, _, err := execute(t, "--store", filepath.Join(t.TempDir(), "absent.yaml"),
		"verify", "--user", "alice")
	assert.ErrorIs(t, err, ErrFileOperation)
}

func TestVerify_InputExhausted(t *testing.T) {
	store := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, enroll(t, store, "alice", "hunter2\n"))

	withInput(t, "")
	_, _, err := execute(t, "--store", store, "verify", "--user", "alice")
	assert.ErrorIs(t, err, credential.ErrNoInput)
	assert.Equal(t, ExitFailure, exitCode(err))
}

func TestStdinSource_Framed(t *testing.T) {
	framedInput = true
	defer func() { framedInput = false }()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	go func() {
		defer w.Close()
		secret, err := securebuf.NewFromBytes([]byte("hunter2"))
		if err != nil {
			return
		}
		defer secret.Close()
		_ = credential.WriteFrame(w, secret, time.Time{})
	}()

	b, err := stdinSource(r)(credential.DefaultCapacity)
	require.NoError(t, err)
	defer b.Close()
	assert.True(t, b.Equal([]byte("hunter2")))
}

func TestStdinSource_Lines(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	_, err = w.WriteString("hunter2\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b, err := stdinSource(r)(credential.DefaultCapacity)
	require.NoError(t, err)
	defer b.Close()
	assert.True(t, b.Equal([]byte("hunter2")))
}
