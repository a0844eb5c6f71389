package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/anotes/pkg/core"
	"github.com/aretw0/anotes/pkg/documents"
	"github.com/aretw0/anotes/pkg/notes"
)

// options holds the internal configuration of a Keeper.
type options struct {
	logger *slog.Logger

	adapter      string // flat store: "fs" or "memory"
	blobAdapter  string // blob store: "fs", "memory" or "couch"
	flatCapacity int64
	couchURL     string
	couchDB      string
	flat         core.KeyValueStore
	blobs        core.BlobStore

	limits        documents.Limits
	retentionDays int
	sweepInterval time.Duration
	background    bool

	clock core.Clock
	newID core.IDFunc

	instrument bool
	devSafety  bool
	forceTemp  bool
}

// Option defines a functional option for configuring a Keeper.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:       "fs",
		limits:        documents.DefaultLimits(),
		retentionDays: notes.DefaultRetentionDays,
		sweepInterval: notes.DefaultSweepInterval,
		devSafety:     true,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAdapter selects the flat store by name ("fs" or "memory"). Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithBlobAdapter selects the blob store by name ("fs", "memory" or "couch").
// Defaults to the flat adapter.
func WithBlobAdapter(name string) Option {
	return func(o *options) {
		o.blobAdapter = name
	}
}

// WithCouchDB points the "couch" blob adapter at a server and database.
func WithCouchDB(url, db string) Option {
	return func(o *options) {
		o.couchURL = url
		o.couchDB = db
	}
}

// WithFlatCapacity bounds the flat store in bytes, like a browser's local storage.
// Zero means unbounded.
func WithFlatCapacity(bytes int64) Option {
	return func(o *options) {
		o.flatCapacity = bytes
	}
}

// WithStores injects both stores, skipping adapter construction.
func WithStores(flat core.KeyValueStore, blobs core.BlobStore) Option {
	return func(o *options) {
		o.flat = flat
		o.blobs = blobs
	}
}

// WithLimits overrides the document size ceilings. Zero fields keep their default.
func WithLimits(l documents.Limits) Option {
	return func(o *options) {
		if l.MaxFileSize > 0 {
			o.limits.MaxFileSize = l.MaxFileSize
		}
		if l.MaxTotalSize > 0 {
			o.limits.MaxTotalSize = l.MaxTotalSize
		}
	}
}

// WithRetention sets how long trashed notes are kept and how often the
// background sweeper runs. Zero values keep the defaults.
func WithRetention(days int, interval time.Duration) Option {
	return func(o *options) {
		if days > 0 {
			o.retentionDays = days
		}
		if interval > 0 {
			o.sweepInterval = interval
		}
	}
}

// WithBackgroundSweep keeps purging the trash on an interval until the
// context given to Open is cancelled. Without it the trash is purged once at open.
func WithBackgroundSweep(enabled bool) Option {
	return func(o *options) {
		o.background = enabled
	}
}

// WithClock overrides the wall clock of both registries.
func WithClock(c core.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithIDFunc overrides the id generator of both registries.
func WithIDFunc(f core.IDFunc) Option {
	return func(o *options) {
		o.newID = f
	}
}

// WithMetrics wraps the stores with Prometheus instrumentation.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.instrument = enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true) data is re-rooted into a temporary directory in that case.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithForceTemp forces the use of a temporary directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}
