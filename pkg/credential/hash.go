// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

const algorithmID = "argon2id"

type digest struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func (p HashParams) validate() error {
	switch {
	case p.Memory < minMemory || p.Memory > maxMemory:
		return fmt.Errorf("%w: memory %d KiB outside %d-%d", ErrInvalidParams, p.Memory, minMemory, maxMemory)
	case p.Time < minTime || p.Time > maxTime:
		return fmt.Errorf("%w: time %d outside %d-%d", ErrInvalidParams, p.Time, minTime, maxTime)
	case p.Parallelism < minParallelism || p.Parallelism > maxParallelism:
		return fmt.Errorf("%w: parallelism %d outside %d-%d", ErrInvalidParams, p.Parallelism, minParallelism, maxParallelism)
	case p.SaltLength < minSaltLength || p.SaltLength > maxSaltLength:
		return fmt.Errorf("%w: salt length %d outside %d-%d", ErrInvalidParams, p.SaltLength, minSaltLength, maxSaltLength)
	case p.KeyLength < minKeyLength || p.KeyLength > maxKeyLength:
		return fmt.Errorf("%w: key length %d outside %d-%d", ErrInvalidParams, p.KeyLength, minKeyLength, maxKeyLength)
	}
	return nil
}

// params reports the parameters d was derived with.
func (d *digest) params() HashParams {
	return HashParams{
		Memory:      d.memory,
		Time:        d.time,
		Parallelism: d.parallelism,
		SaltLength:  uint32(len(d.salt)),
		KeyLength:   uint32(len(d.key)),
	}
}

// hashSecret derives an argon2id key from secret and encodes it as a PHC
// string. The derived key is wiped once encoded.
func hashSecret(secret *securebuf.Buffer, params HashParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("%w: salt: %w", ErrStoreFailed, err)
	}

	var key []byte
	err := secret.With(func(data []byte) error {
		if len(data) == 0 {
			return ErrEmptySecret
		}
		key = argon2.IDKey(data, salt, params.Time, params.Memory, params.Parallelism, params.KeyLength)
		return nil
	})
	if err != nil {
		return "", err
	}
	defer securebuf.Wipe(key)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		params.Memory,
		params.Time,
		params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// verifyDigest reports whether secret derives to d's key. The comparison
// visits every byte of the key.
func verifyDigest(secret *securebuf.Buffer, d *digest) (bool, error) {
	var match bool
	err := secret.With(func(data []byte) error {
		computed := argon2.IDKey(data, d.salt, d.time, d.memory, d.parallelism, uint32(len(d.key)))
		defer securebuf.Wipe(computed)
		match = subtle.ConstantTimeCompare(computed, d.key) == 1
		return nil
	})
	return match, err
}

// parseDigest decodes a "$argon2id$v=19$m=..,t=..,p=..$salt$key" string.
// Every field must parse completely and lie within the accepted bounds.
func parseDigest(encoded string) (*digest, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, fmt.Errorf("%w: malformed PHC string", ErrInvalidDigest)
	}
	if parts[1] != algorithmID {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidDigest, parts[1])
	}

	version, err := parseField(parts[2], "v", 32)
	if err != nil {
		return nil, err
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrInvalidDigest, version)
	}

	cost := strings.Split(parts[3], ",")
	if len(cost) != 3 {
		return nil, fmt.Errorf("%w: parameters %q", ErrInvalidDigest, parts[3])
	}
	memory, err := parseField(cost[0], "m", 32)
	if err != nil {
		return nil, err
	}
	passes, err := parseField(cost[1], "t", 32)
	if err != nil {
		return nil, err
	}
	lanes, err := parseField(cost[2], "p", 8)
	if err != nil {
		return nil, err
	}

	d := &digest{
		memory:      uint32(memory),
		time:        uint32(passes),
		parallelism: uint8(lanes),
	}
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("%w: salt encoding: %w", ErrInvalidDigest, err)
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("%w: key encoding: %w", ErrInvalidDigest, err)
	}
	if err := d.params().validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDigest, err)
	}

	return d, nil
}

// parseField parses "name=value" where value is an unsigned decimal that
// fits in bits. Anything after the digits is rejected.
func parseField(field, name string, bits int) (uint64, error) {
	value, ok := strings.CutPrefix(field, name+"=")
	if !ok {
		return 0, fmt.Errorf("%w: expected %s= in %q", ErrInvalidDigest, name, field)
	}
	n, err := strconv.ParseUint(value, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidDigest, name, err)
	}
	return n, nil
}
