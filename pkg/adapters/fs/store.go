// Package fs implements the storage ports on a local directory, one file per key.
//
// The same Store type serves as the flat key-value store (typically with a byte
// capacity, mirroring a browser's local storage quota) and as the blob store for
// document payloads (typically unbounded).
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/anotes/pkg/core"
)

// ErrInvalidKey is returned for keys that cannot be mapped to a file name.
var ErrInvalidKey = errors.New("invalid key")

// Config holds the configuration for a directory-backed store.
type Config struct {
	Dir         string
	Capacity    int64 // Total bytes of stored values; zero means unbounded.
	Perm        os.FileMode
	EventBuffer int
	Logger      *slog.Logger
}

// Store implements core.KeyValueStore, core.BlobStore, core.Lister and
// core.Watchable on a directory.
type Store struct {
	config Config
	logger *slog.Logger

	mu            sync.Mutex // serialises writes so capacity checks see a stable directory
	stateMu       sync.RWMutex
	watcherActive bool
}

// NewStore creates a store rooted at config.Dir. Call Initialize before use.
func NewStore(config Config) *Store {
	if config.Perm == 0 {
		config.Perm = 0o600
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 64
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{config: config, logger: logger}
}

// Dir returns the directory holding the values.
func (s *Store) Dir() string {
	return s.config.Dir
}

// Initialize creates the directory and removes temp files left by interrupted writes.
func (s *Store) Initialize(ctx context.Context) error {
	if err := os.MkdirAll(s.config.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	entries, err := os.ReadDir(s.config.Dir)
	if err != nil {
		return fmt.Errorf("failed to read store directory: %w", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tempPrefix) {
			path := filepath.Join(s.config.Dir, e.Name())
			if err := os.Remove(path); err != nil {
				s.logger.Warn("failed to remove stale temp file", "path", path, "error", err)
				continue
			}
			s.logger.Debug("removed stale temp file", "path", path)
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := s.path(key)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", core.ErrNotFound, key)
		}
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}

	st, err := newStage(path, strings.NewReader(value), s.config.Perm)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Capacity > 0 {
		used, err := s.usedExcept(path)
		if err != nil {
			st.Discard()
			return err
		}
		if total := used + st.Size(); total > s.config.Capacity {
			st.Discard()
			return fmt.Errorf("%w: %d of %d bytes", core.ErrCapacity, total, s.config.Capacity)
		}
	}

	if err := st.Commit(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	s.logger.Debug("value written", "key", key, "bytes", st.Size())
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Put implements core.BlobStore.
func (s *Store) Put(ctx context.Context, key, data string) error {
	return s.Set(ctx, key, data)
}

// Delete implements core.BlobStore.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.Remove(ctx, key)
}

// Keys implements core.Lister. Patterns match against keys, not file names.
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	entries, err := os.ReadDir(s.config.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}

	var keys []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key, ok := keyFromName(e)
		if !ok {
			continue
		}
		if match, _ := doublestar.Match(pattern, key); match {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Used returns the number of bytes held by stored values.
func (s *Store) Used() (int64, error) {
	return s.usedExcept("")
}

func (s *Store) usedExcept(skip string) (int64, error) {
	entries, err := os.ReadDir(s.config.Dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read store directory: %w", err)
	}
	var used int64
	for _, e := range entries {
		if _, ok := keyFromName(e); !ok {
			continue
		}
		if filepath.Join(s.config.Dir, e.Name()) == skip {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return 0, err
		}
		used += info.Size()
	}
	return used, nil
}

func (s *Store) path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.config.Dir, url.PathEscape(key)), nil
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func keyFromName(e os.DirEntry) (string, bool) {
	if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
		return "", false
	}
	key, err := url.PathUnescape(e.Name())
	if err != nil {
		return "", false
	}
	return key, true
}

var (
	_ core.KeyValueStore = (*Store)(nil)
	_ core.BlobStore     = (*Store)(nil)
	_ core.Lister        = (*Store)(nil)
	_ core.Watchable     = (*Store)(nil)
)
