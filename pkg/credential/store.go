// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package credential

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-secmem/pkg/securebuf"
)

// storeVersion is the on-disk schema version.
const storeVersion = 1

// maxUserLength bounds user names accepted by Enroll.
const maxUserLength = 256

// storeFile is the YAML layout of a credential store.
type storeFile struct {
	Version     int               `yaml:"version"`
	Credentials map[string]string `yaml:"credentials"`
}

// Store maps user names to argon2id digests persisted in a YAML file.
// It is the comparison target for secrets read by a Prompter.
//
// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	path    string
	params  HashParams
	records map[string]*digest
	encoded map[string]string
	dummy   *digest
}

// dummySecretLength is the size of the random secret behind the dummy
// digest. argon2id cost is set by memory, passes and lanes; the secret's
// length only feeds the initial hash, so any typical length will do.
const dummySecretLength = 32

// OpenStore loads the store at path, or starts an empty one if the file
// does not exist. params applies to secrets enrolled through this Store.
// Unknown users are checked against a dummy digest using the parameters
// most enrolled digests were derived with, so that lookups for them cost
// the same whatever params the store is opened with.
func OpenStore(path string, params HashParams) (*Store, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	s := &Store{
		path:    path,
		params:  params,
		records: make(map[string]*digest),
		encoded: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrStoreFailed, err)
	default:
		var file storeFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", ErrStoreFailed, path, err)
		}
		if file.Version != storeVersion {
			return nil, fmt.Errorf("%w: unsupported store version %d", ErrStoreFailed, file.Version)
		}
		for user, encoded := range file.Credentials {
			d, err := parseDigest(encoded)
			if err != nil {
				return nil, fmt.Errorf("%w: user %q: %w", ErrStoreFailed, user, err)
			}
			s.records[user] = d
			s.encoded[user] = encoded
		}
	}

	if err := s.refreshDummy(); err != nil {
		return nil, err
	}
	return s, nil
}

// dummyParams returns the most common parameter set among the enrolled
// digests, preferring the costlier set on a tie, or the store's own
// params when nobody is enrolled. Callers hold s.mu.
func (s *Store) dummyParams() HashParams {
	counts := make(map[HashParams]int)
	for _, d := range s.records {
		counts[d.params()]++
	}

	best, bestCount := s.params, 0
	for p, n := range counts {
		if n > bestCount || (n == bestCount && costlier(p, best)) {
			best, bestCount = p, n
		}
	}
	return best
}

func costlier(a, b HashParams) bool {
	if a.Memory != b.Memory {
		return a.Memory > b.Memory
	}
	if a.Time != b.Time {
		return a.Time > b.Time
	}
	if a.Parallelism != b.Parallelism {
		return a.Parallelism > b.Parallelism
	}
	return a.KeyLength > b.KeyLength
}

// refreshDummy rebuilds the dummy digest when the dominant parameter set
// has changed. Callers hold s.mu for writing, or own s exclusively.
func (s *Store) refreshDummy() error {
	params := s.dummyParams()
	if s.dummy != nil && s.dummy.params() == params {
		return nil
	}
	d, err := newDummyDigest(params)
	if err != nil {
		return err
	}
	s.dummy = d
	return nil
}

// newDummyDigest hashes a random throwaway secret so that verifying an
// unknown user costs the same as verifying a known one.
func newDummyDigest(params HashParams) (*digest, error) {
	var encoded string
	err := securebuf.Use(dummySecretLength, func(b *securebuf.Buffer) error {
		if err := b.Fill(rand.Reader, dummySecretLength); err != nil {
			return err
		}
		var err error
		encoded, err = hashSecret(b, params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: dummy digest: %w", ErrStoreFailed, err)
	}
	return parseDigest(encoded)
}

// Enroll stores a digest of secret for user, replacing any previous one.
// The change is in memory until Save.
func (s *Store) Enroll(user string, secret *securebuf.Buffer) error {
	if err := validateUser(user); err != nil {
		return err
	}

	encoded, err := hashSecret(secret, s.params)
	if err != nil {
		return err
	}
	d, err := parseDigest(encoded)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[user] = d
	s.encoded[user] = encoded
	return s.refreshDummy()
}

// Verify checks secret against user's stored digest. A wrong secret and
// an unknown user both return ErrInvalidCredentials after the same amount
// of work.
func (s *Store) Verify(user string, secret *securebuf.Buffer) error {
	s.mu.RLock()
	d, ok := s.records[user]
	dummy := s.dummy
	s.mu.RUnlock()

	if !ok {
		d = dummy
	}

	match, err := verifyDigest(secret, d)
	if err != nil {
		return err
	}
	if !ok || !match {
		return ErrInvalidCredentials
	}
	return nil
}

// Remove deletes user from the store.
func (s *Store) Remove(user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[user]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUser, user)
	}
	delete(s.records, user)
	delete(s.encoded, user)
	return s.refreshDummy()
}

// Users returns the enrolled user names in sorted order.
func (s *Store) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.records))
	for user := range s.records {
		users = append(users, user)
	}
	slices.Sort(users)
	return users
}

// Save writes the store to its path with mode 0600. The file is replaced
// atomically by renaming a temporary file in the same directory.
func (s *Store) Save() error {
	s.mu.RLock()
	file := storeFile{
		Version:     storeVersion,
		Credentials: make(map[string]string, len(s.encoded)),
	}
	for user, encoded := range s.encoded {
		file.Credentials[user] = encoded
	}
	s.mu.RUnlock()

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrStoreFailed, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".credentials-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	return nil
}

// Path returns the file the store is persisted to.
func (s *Store) Path() string {
	return s.path
}

func validateUser(user string) error {
	if user == "" || len(user) > maxUserLength {
		return fmt.Errorf("%w: length must be 1-%d bytes", ErrInvalidUser, maxUserLength)
	}
	if strings.TrimSpace(user) != user {
		return fmt.Errorf("%w: leading or trailing whitespace", ErrInvalidUser)
	}
	for _, r := range user {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character", ErrInvalidUser)
		}
	}
	return nil
}
