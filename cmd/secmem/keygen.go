// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-secmem/pkg/credential"
	"github.com/jeremyhahn/go-secmem/pkg/noisekey"
	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

// defaultNoiseKeyFile is the default path for generated Noise static keys.
const defaultNoiseKeyFile = "noise-static.key"

// Flag variables for the keygen and pubkey commands.
var (
	keygenKeyFile string
	keygenForce   bool
	pubkeyKeyFile string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a Noise static keypair",
	Long: `Generate a new Curve25519 static keypair for the Noise protocol. The
private key only exists in sealed or locked memory until it is written,
hex encoded, to --key-file with mode 0600. The public key is printed.

The pair is checked with an in-memory Noise_NK handshake before the
private key is written.`,
	RunE: runKeygen,
}

var pubkeyCmd = &cobra.Command{
	Use:   "pubkey",
	Short: "Show the public key of a Noise private key file",
	Long: `Read a hex-encoded Noise static private key into locked memory, check
it with an in-memory Noise_NK handshake and print the corresponding
Curve25519 public key.`,
	RunE: runPubkey,
}

func init() {
	keygenCmd.Flags().StringVar(&keygenKeyFile, "key-file", defaultNoiseKeyFile,
		"output file path for the private key")
	keygenCmd.Flags().BoolVar(&keygenForce, "force", false, "overwrite an existing key file")

	pubkeyCmd.Flags().StringVar(&pubkeyKeyFile, "key-file", defaultNoiseKeyFile,
		"path to hex-encoded private key file")
}

type keyResult struct {
	KeyFile   string `json:"key_file"`
	PublicKey string `json:"public_key"`
}

func (r keyResult) text() string {
	return fmt.Sprintf("Public key: %s\n", r.PublicKey)
}

// runKeygen generates a keypair and writes the private half to --key-file.
func runKeygen(cmd *cobra.Command, args []string) error {
	if keygenKeyFile == "" {
		return fmt.Errorf("%w: --key-file is required", ErrInvalidInput)
	}

	slog.Debug("generating Curve25519 static keypair")

	key, err := noisekey.Generate()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeyOperation, err)
	}
	defer key.Destroy()

	if err := key.Check(); err != nil {
		return fmt.Errorf("%w: %w", ErrKeyOperation, err)
	}

	encoded, err := key.Encode()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeyOperation, err)
	}
	defer encoded.Close()

	if err := writeKeyFile(keygenKeyFile, encoded, keygenForce); err != nil {
		return err
	}
	slog.Info("private key written", "path", keygenKeyFile)

	result := keyResult{KeyFile: keygenKeyFile, PublicKey: key.PublicHex()}
	return writeResult(result, result.text)
}

// writeKeyFile writes the hex key followed by a newline with mode 0600.
// An existing file is only replaced when force is set.
func writeKeyFile(path string, encoded *securebuf.Buffer, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s exists (use --force to overwrite)", ErrInvalidInput, path)
		}
		return fmt.Errorf("%w: %w", ErrFileOperation, err)
	}

	err = encoded.With(func(data []byte) error {
		if _, err := f.Write(data); err != nil {
			return err
		}
		_, err := f.Write([]byte{'\n'})
		return err
	})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrFileOperation, path, err)
	}
	return nil
}

// runPubkey loads --key-file and prints its public key.
func runPubkey(cmd *cobra.Command, args []string) error {
	if pubkeyKeyFile == "" {
		return fmt.Errorf("%w: --key-file is required", ErrInvalidInput)
	}

	key, err := loadKeyFile(pubkeyKeyFile)
	if err != nil {
		return err
	}
	defer key.Destroy()

	if err := key.Check(); err != nil {
		return fmt.Errorf("%w: %w", ErrKeyOperation, err)
	}

	result := keyResult{KeyFile: pubkeyKeyFile, PublicKey: key.PublicHex()}
	return writeResult(result, result.text)
}

// loadKeyFile reads the first line of path straight into secure memory
// and decodes it.
func loadKeyFile(path string) (*noisekey.StaticKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading key file %s: %w", ErrFileOperation, path, err)
	}
	defer f.Close()

	encoded, err := credential.ReadLine(f, noisekey.EncodedSize)
	if encoded != nil {
		defer encoded.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading key file %s: %w", ErrKeyOperation, path, err)
	}

	key, err := noisekey.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding key: %w", ErrKeyOperation, err)
	}
	return key, nil
}
