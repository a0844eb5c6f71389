package anotes

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/anotes/internal/platform"
	"github.com/aretw0/anotes/pkg/core"
	"github.com/aretw0/anotes/pkg/documents"
)

// --- Types ---

// Keeper holds the note and document registries of one data directory.
type Keeper = platform.Keeper

// Note is a public alias for the note entity.
type Note = core.Note

// Document is a public alias for the document entity.
type Document = core.Document

// Limits is a public alias for the document size ceilings.
type Limits = documents.Limits

// --- Configuration ---

// Option defines a functional option for configuring a Keeper.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithAdapter selects the flat store ("fs" or "memory").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithBlobAdapter selects the blob store ("fs", "memory" or "couch").
func WithBlobAdapter(name string) Option {
	return platform.WithBlobAdapter(name)
}

// WithCouchDB configures the "couch" blob adapter.
func WithCouchDB(url, db string) Option {
	return platform.WithCouchDB(url, db)
}

// WithFlatCapacity bounds the flat store in bytes.
func WithFlatCapacity(bytes int64) Option {
	return platform.WithFlatCapacity(bytes)
}

// WithStores allows injecting custom storage adapters.
func WithStores(flat core.KeyValueStore, blobs core.BlobStore) Option {
	return platform.WithStores(flat, blobs)
}

// WithLimits overrides the document size ceilings.
func WithLimits(l Limits) Option {
	return platform.WithLimits(l)
}

// WithRetention sets the trash retention in days and the sweep interval.
func WithRetention(days int, interval time.Duration) Option {
	return platform.WithRetention(days, interval)
}

// WithBackgroundSweep keeps purging the trash while the Open context lives.
func WithBackgroundSweep(enabled bool) Option {
	return platform.WithBackgroundSweep(enabled)
}

// WithMetrics enables Prometheus instrumentation of the stores.
func WithMetrics(enabled bool) Option {
	return platform.WithMetrics(enabled)
}

// WithDevSafety controls the temporary sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// --- Factory ---

// Open loads the notes and documents stored under path.
func Open(ctx context.Context, path string, opts ...Option) (*Keeper, error) {
	return platform.Open(ctx, path, opts...)
}

// DefaultPath returns the nearest project-local .anotes directory, or ~/.anotes.
func DefaultPath() string {
	return platform.DefaultPath()
}
