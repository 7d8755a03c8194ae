// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/jeremyhahn/go-secmem/pkg/credential"
)

// execute runs the root command with args and returns what was written to
// stdout and stderr. Global flag state is restored afterwards.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(resetGlobals)

	var out, errOut bytes.Buffer
	stdout = &out
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--quiet"}, args...))

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// withInput makes secretSource read successive lines of input.
func withInput(t *testing.T, input string) {
	t.Helper()
	r := strings.NewReader(input)
	secretSource = func() credential.Source { return credential.LineSource(r) }
}

func resetGlobals() {
	quiet = false
	debug = false
	format = formatText
	outputFile = ""
	logFormat = "text"
	storePath = defaultStorePath
	stdout = os.Stdout
	framedInput = false

	defaults := credential.DefaultHashParams()
	enrollUser = ""
	enrollCapacity = credential.DefaultCapacity
	enrollMemory = defaults.Memory
	enrollTime = defaults.Time
	enrollParallelism = defaults.Parallelism

	verifyUser = ""
	verifyAttempts = credential.DefaultMaxAttempts
	verifyCapacity = credential.DefaultCapacity

	keygenKeyFile = defaultNoiseKeyFile
	keygenForce = false
	pubkeyKeyFile = defaultNoiseKeyFile

	counterWorkers = 10
	counterIncrements = 10000

	secretSource = func() credential.Source { return stdinSource(os.Stdin) }

	rootCmd.SetArgs(nil)
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
}

// fastHashFlags selects the cheapest accepted argon2id parameters.
var fastHashFlags = []string{"--memory", "8192", "--time", "1", "--parallelism", "1"}
