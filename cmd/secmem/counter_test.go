// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterCmd(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "counter", "--workers", "10", "--increments", "10000")
	require.NoError(t, err)

	var results []counterResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)

	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Strategy)
		assert.Equal(t, int64(100000), r.Total, r.Strategy)
		assert.Equal(t, int64(100000), r.Expected, r.Strategy)
	}
	assert.Equal(t, []string{"atomic", "locked", "aggregate"}, names)
}

func TestCounterCmd_Text(t *testing.T) {
	out, _, err := execute(t, "counter", "--workers", "2", "--increments", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "atomic")
	assert.Contains(t, out, "10/10")
}

func TestCounterCmd_InvalidWorkload(t *testing.T) {
	_, _, err := execute(t, "counter", "--increments", "-1")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
