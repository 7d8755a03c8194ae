// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// defaultStorePath is the credential store used when --store is not set.
const defaultStorePath = "credentials.yaml"

var (
	quiet      bool
	debug      bool
	format     string
	outputFile string
	logFormat  string
	storePath  string

	framedInput bool
)

// logLevel controls the global slog level at runtime.
var logLevel = new(slog.LevelVar)

// exitFunc is the function called to exit the program.
// This can be overridden in tests to capture exit calls.
var exitFunc = os.Exit

// stdout receives command results when --output is not set.
var stdout io.Writer = os.Stdout

var rootCmd = &cobra.Command{
	Use:   "secmem",
	Short: "Secure secret handling toolkit",
	Long: `secmem keeps passwords and private keys in locked, wiped memory.

Commands:
  enroll   - Read a secret and store its argon2id digest
  verify   - Prompt for a secret and check it against the store
  keygen   - Generate a Noise static key pair
  pubkey   - Show the public key of a stored Noise private key
  counter  - Increment a shared counter from concurrent workers
  selftest - Check buffer wiping, pool reuse and truncation`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initLogging()
		return validateFormat()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output (errors only)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&format, "format", formatText, "output format (text|json)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format (text|json)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", defaultStorePath, "credential store file")
	rootCmd.PersistentFlags().BoolVar(&framedInput, "framed", false,
		"read secrets from stdin as 2-byte length-prefixed frames")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(enrollCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(pubkeyCmd)
	rootCmd.AddCommand(counterCmd)
	rootCmd.AddCommand(selftestCmd)
}

// initLogging configures the global slog logger based on CLI flags.
//
//	--debug: LevelDebug with source location
//	default: LevelInfo
//	--quiet: LevelError (only errors shown)
//
// --debug takes precedence over --quiet.
// --log-format selects the handler: "text" (default) or "json".
func initLogging() {
	switch {
	case debug:
		logLevel.Set(slog.LevelDebug)
	case quiet:
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: debug,
	}

	handlers := map[string]func(io.Writer, *slog.HandlerOptions) slog.Handler{
		"text": func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewTextHandler(w, o) },
		"json": func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewJSONHandler(w, o) },
	}

	factory, ok := handlers[logFormat]
	if !ok {
		factory = handlers["text"]
	}

	handler := factory(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))
}

func validateFormat() error {
	switch format {
	case formatText, formatJSON:
		return nil
	default:
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidInput, format)
	}
}

// writeOutput writes data to the configured output file or stdout.
// It respects the --output flag; when empty, writes to stdout.
func writeOutput(data []byte) error {
	if outputFile != "" {
		if err := os.WriteFile(outputFile, data, 0600); err != nil {
			return fmt.Errorf("%w: %w", ErrFileOperation, err)
		}
		slog.Info("written to file", "path", outputFile, "bytes", len(data))
		return nil
	}
	_, err := stdout.Write(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileOperation, err)
	}
	return nil
}

// writeResult renders v as indented JSON or, for text, with the given
// text renderer.
func writeResult(v any, text func() string) error {
	if format == formatJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("%w: encoding result: %w", ErrFileOperation, err)
		}
		return writeOutput(append(data, '\n'))
	}
	return writeOutput([]byte(text()))
}
