// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package noisekey

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/flynn/noise"
	"golang.org/x/crypto/curve25519"

	"github.com/jeremyhahn/go-secmem/pkg/enclave"
	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

// KeySize is the size of Curve25519 keys in bytes.
const KeySize = 32

// EncodedSize is the length of a hex-encoded private key.
const EncodedSize = KeySize * 2

// checkPayload is carried by the self-check handshake.
var checkPayload = []byte("noisekey-check")

// StaticKey is a Curve25519 static key pair whose private half is sealed.
type StaticKey struct {
	mu      sync.Mutex
	public  []byte
	private *enclave.Enclave
}

// Generate creates a new static key pair. The private key produced by the
// noise library is moved into secure memory and wiped.
func Generate() (*StaticKey, error) {
	key, err := noise.DH25519.GenerateKeypair(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
	}
	defer WipeDHKey(&key)

	private, err := securebuf.NewFromBytes(key.Private)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
	}
	defer private.Close()

	return Load(private)
}

// Load builds a StaticKey from a raw private key, deriving the public key
// by scalar base multiplication. private is left untouched; the key keeps
// its own sealed copy.
func Load(private *securebuf.Buffer) (*StaticKey, error) {
	var public []byte
	err := private.With(func(data []byte) error {
		if len(data) != KeySize {
			return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeySize, len(data), KeySize)
		}
		var err error
		public, err = curve25519.X25519(data, curve25519.Basepoint)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidKeySize, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sealed, err := enclave.Seal(private)
	if err != nil {
		return nil, err
	}

	return &StaticKey{
		public:  public,
		private: sealed,
	}, nil
}

// Decode parses a hex-encoded private key held in a secure buffer.
func Decode(encoded *securebuf.Buffer) (*StaticKey, error) {
	var raw [KeySize]byte
	defer securebuf.Wipe(raw[:])

	err := encoded.With(func(data []byte) error {
		data = bytes.TrimSpace(data)
		if len(data) != EncodedSize {
			return fmt.Errorf("%w: got %d hex characters, want %d", ErrInvalidKeySize, len(data), EncodedSize)
		}
		if _, err := hex.Decode(raw[:], data); err != nil {
			return fmt.Errorf("%w: invalid hex encoding: %w", ErrInvalidKeySize, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	private, err := securebuf.New(KeySize)
	if err != nil {
		return nil, err
	}
	defer private.Close()

	if err := private.Load(raw[:]); err != nil {
		return nil, err
	}
	return Load(private)
}

// Encode returns the private key as lowercase hex in a new secure buffer,
// for persistent storage. The caller must close it.
func (k *StaticKey) Encode() (*securebuf.Buffer, error) {
	var text [EncodedSize]byte
	defer securebuf.Wipe(text[:])

	err := k.withPrivate(func(private []byte) error {
		hex.Encode(text[:], private)
		return nil
	})
	if err != nil {
		return nil, err
	}

	out, err := securebuf.New(EncodedSize)
	if err != nil {
		return nil, err
	}
	if err := out.Load(text[:]); err != nil {
		_ = out.Close()
		return nil, err
	}
	return out, nil
}

// Public returns a copy of the public key.
func (k *StaticKey) Public() []byte {
	k.mu.Lock()
	defer k.mu.Unlock()

	return bytes.Clone(k.public)
}

// PublicHex returns the public key as lowercase hex.
func (k *StaticKey) PublicHex() string {
	return hex.EncodeToString(k.Public())
}

// WithDHKey calls fn with the key pair in the form the noise library
// expects. The Private slice points into secure memory that is wiped when
// fn returns and must not be retained.
func (k *StaticKey) WithDHKey(fn func(key noise.DHKey) error) error {
	public := k.Public()
	return k.withPrivate(func(private []byte) error {
		return fn(noise.DHKey{Private: private, Public: public})
	})
}

// Check proves the sealed private key matches the public key by running a
// Noise NK handshake in memory with the key as responder.
func (k *StaticKey) Check() error {
	suite := noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashSHA256)

	return k.WithDHKey(func(static noise.DHKey) error {
		initiator, err := noise.NewHandshakeState(noise.Config{
			CipherSuite: suite,
			Pattern:     noise.HandshakeNK,
			Initiator:   true,
			PeerStatic:  static.Public,
		})
		if err != nil {
			return fmt.Errorf("%w: initiator: %w", ErrKeyMismatch, err)
		}
		responder, err := noise.NewHandshakeState(noise.Config{
			CipherSuite:   suite,
			Pattern:       noise.HandshakeNK,
			Initiator:     false,
			StaticKeypair: static,
		})
		if err != nil {
			return fmt.Errorf("%w: responder: %w", ErrKeyMismatch, err)
		}

		msg1, _, _, err := initiator.WriteMessage(nil, checkPayload)
		if err != nil {
			return fmt.Errorf("%w: write msg1: %w", ErrKeyMismatch, err)
		}
		payload, _, _, err := responder.ReadMessage(nil, msg1)
		if err != nil {
			return fmt.Errorf("%w: read msg1: %w", ErrKeyMismatch, err)
		}
		if !bytes.Equal(payload, checkPayload) {
			return ErrKeyMismatch
		}

		msg2, _, _, err := responder.WriteMessage(nil, nil)
		if err != nil {
			return fmt.Errorf("%w: write msg2: %w", ErrKeyMismatch, err)
		}
		if _, _, _, err := initiator.ReadMessage(nil, msg2); err != nil {
			return fmt.Errorf("%w: read msg2: %w", ErrKeyMismatch, err)
		}
		return nil
	})
}

// Destroy drops the sealed private key. Destroy is idempotent.
func (k *StaticKey) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.private != nil {
		k.private.Destroy()
		k.private = nil
	}
}

// withPrivate opens the sealed private key into a secure buffer for the
// duration of fn.
func (k *StaticKey) withPrivate(fn func(private []byte) error) error {
	k.mu.Lock()
	sealed := k.private
	k.mu.Unlock()

	if sealed == nil {
		return ErrDestroyed
	}

	private, err := sealed.Open(nil)
	if err != nil {
		return err
	}
	defer private.Close()

	return private.With(fn)
}
