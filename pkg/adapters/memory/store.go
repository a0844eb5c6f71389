// Package memory provides a map-backed store implementing both the flat
// key-value port and the blob port. Nothing survives the process.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/anotes/pkg/core"
)

// Store is an in-memory core.KeyValueStore, core.BlobStore and core.Lister.
type Store struct {
	mu       sync.RWMutex
	data     map[string]string
	used     int64
	capacity int64
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity bounds the total number of bytes (keys plus values) the store holds.
// Zero means unbounded.
func WithCapacity(bytes int64) Option {
	return func(s *Store) {
		s.capacity = bytes
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{data: make(map[string]string)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	used := s.used + entrySize(key, value)
	if old, ok := s.data[key]; ok {
		used -= entrySize(key, old)
	}
	if s.capacity > 0 && used > s.capacity {
		return fmt.Errorf("%w: %d of %d bytes", core.ErrCapacity, used, s.capacity)
	}

	s.data[key] = value
	s.used = used
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.data[key]; ok {
		s.used -= entrySize(key, old)
		delete(s.data, key)
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

// Keys implements core.Lister.
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k := range s.data {
		if ok, _ := doublestar.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Used returns the number of bytes currently held.
func (s *Store) Used() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}

func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}

var (
	_ core.KeyValueStore = (*Store)(nil)
	_ core.BlobStore     = (*Store)(nil)
	_ core.Lister        = (*Store)(nil)
)
