package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// KeyValueStore is the flat durable key to string store holding note snapshots,
// the private-space password and document metadata.
type KeyValueStore interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. It returns an error wrapping ErrCapacity
	// when the store cannot hold the value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// BlobStore is the larger-capacity keyed store holding document payloads.
type BlobStore interface {
	// Put stores data under key, replacing any previous value.
	Put(ctx context.Context, key, data string) error

	// Get returns the data stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	// Keys returns the keys matching a doublestar glob pattern, sorted.
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// Watchable is implemented by stores that report changes made outside this process.
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IDFunc generates a fresh unique identifier.
type IDFunc func() string

// NewID is the default IDFunc.
func NewID() string {
	return uuid.NewString()
}
