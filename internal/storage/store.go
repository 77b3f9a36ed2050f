package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// TokenKey is the well-known key the auth layer writes the session token to.
const TokenKey = "auth/token"

var ErrClosed = errors.New("store closed")

// Store is a synchronous file-backed key-value store.
type Store struct {
	dir    string
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Open creates the backing directory if needed and returns a Store.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Get returns the value for key, or false if absent.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("storage read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

// Put writes the value for key atomically (write to temp file, then rename).
func (s *Store) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}

// Delete removes the value for key. Removing an absent key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Token returns the stored auth token, or false when the user has not
// logged in yet.
func (s *Store) Token() (string, bool) {
	data, ok := s.Get(TokenKey)
	if !ok || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// SetToken stores the auth token.
func (s *Store) SetToken(token string) error {
	return s.Put(TokenKey, []byte(token))
}

// ClearToken removes the stored auth token.
func (s *Store) ClearToken() error {
	return s.Delete(TokenKey)
}

// Close marks the store closed. Subsequent reads miss and writes fail.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// path maps a key to a file name. Keys contain ':' and '/' so they are
// escaped rather than used as paths directly.
func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key)+".dat")
}
