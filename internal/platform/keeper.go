package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/introspection"

	"github.com/aretw0/anotes/internal/metrics"
	"github.com/aretw0/anotes/pkg/adapters/couch"
	"github.com/aretw0/anotes/pkg/adapters/fs"
	"github.com/aretw0/anotes/pkg/adapters/memory"
	"github.com/aretw0/anotes/pkg/core"
	"github.com/aretw0/anotes/pkg/documents"
	"github.com/aretw0/anotes/pkg/notes"
)

// ErrNotWatchable is returned by Watch when the flat store cannot report changes.
var ErrNotWatchable = errors.New("store does not support watching")

// Keeper wires the stores to both registries and owns their lifetime.
type Keeper struct {
	Notes     *notes.Registry
	Documents *documents.Registry
	Sweeper   *notes.Sweeper

	path        string
	flat        core.KeyValueStore
	blobs       core.BlobStore
	persistence *documents.Persistence
	closers     []func() error
	logger      *slog.Logger
}

// Open resolves path, builds the selected stores, loads both registries and
// purges expired trash. With WithBackgroundSweep the purge keeps running until
// ctx is cancelled.
func Open(ctx context.Context, path string, opts ...Option) (*Keeper, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.blobAdapter == "" {
		o.blobAdapter = o.adapter
	}

	k := &Keeper{logger: o.logger}
	if o.flat != nil && o.blobs != nil {
		k.flat, k.blobs = o.flat, o.blobs
	} else {
		k.path = resolvePath(path, o)
		if err := k.openStores(ctx, o); err != nil {
			_ = k.Close()
			return nil, err
		}
	}

	if o.instrument {
		k.flat = metrics.KeyValueStore("flat", k.flat)
		k.blobs = metrics.BlobStore("blobs", k.blobs)
	}

	if err := k.openRegistries(ctx, o); err != nil {
		_ = k.Close()
		return nil, err
	}
	k.startSweeper(ctx, o)

	return k, nil
}

func resolvePath(path string, o *options) string {
	useTemp := o.forceTemp || (IsDevRun() && o.devSafety)
	resolved := ResolveDataPath(path, useTemp)
	if useTemp {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
	} else if IsDevRun() {
		o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
	}
	return resolved
}

func (k *Keeper) openStores(ctx context.Context, o *options) error {
	switch o.adapter {
	case "fs":
		s := fs.NewStore(fs.Config{Dir: filepath.Join(k.path, "data"), Capacity: o.flatCapacity, Logger: o.logger})
		if err := s.Initialize(ctx); err != nil {
			return err
		}
		k.flat = s
	case "memory":
		k.flat = memory.New(memory.WithCapacity(o.flatCapacity))
	default:
		return fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	switch o.blobAdapter {
	case "fs":
		s := fs.NewStore(fs.Config{Dir: filepath.Join(k.path, "blobs"), Logger: o.logger})
		if err := s.Initialize(ctx); err != nil {
			return err
		}
		k.blobs = s
	case "memory":
		k.blobs = memory.New()
	case "couch":
		b, err := couch.Open(ctx, couch.Config{URL: o.couchURL, DB: o.couchDB, Logger: o.logger})
		if err != nil {
			return err
		}
		k.blobs = b
		k.closers = append(k.closers, b.Close)
	default:
		return fmt.Errorf("unknown blob adapter: %s", o.blobAdapter)
	}

	o.logger.Debug("stores ready", "adapter", o.adapter, "blob_adapter", o.blobAdapter, "path", k.path)
	return nil
}

func (k *Keeper) openRegistries(ctx context.Context, o *options) error {
	var noteOpts []notes.Option
	var docOpts []documents.Option
	if o.clock != nil {
		noteOpts = append(noteOpts, notes.WithClock(o.clock))
		docOpts = append(docOpts, documents.WithClock(o.clock))
	}
	if o.newID != nil {
		noteOpts = append(noteOpts, notes.WithIDFunc(o.newID))
		docOpts = append(docOpts, documents.WithIDFunc(o.newID))
	}
	noteOpts = append(noteOpts, notes.WithLogger(o.logger.With("component", "notes")))
	docOpts = append(docOpts, documents.WithLogger(o.logger.With("component", "documents")))

	nr, err := notes.Open(ctx, k.flat, noteOpts...)
	if err != nil {
		return err
	}
	k.Notes = nr

	k.persistence = documents.NewPersistence(k.flat, k.blobs,
		documents.WithLimits(o.limits),
		documents.WithPersistenceLogger(o.logger.With("component", "documents")),
	)
	dr, err := documents.Open(ctx, k.persistence, docOpts...)
	if err != nil {
		return err
	}
	k.Documents = dr

	metrics.DocumentsDropped.Add(float64(len(k.persistence.Stats().Dropped)))
	k.refreshGauges()
	return nil
}

func (k *Keeper) startSweeper(ctx context.Context, o *options) {
	k.Sweeper = notes.NewSweeper(k.Notes,
		notes.WithRetentionDays(o.retentionDays),
		notes.WithInterval(o.sweepInterval),
		notes.WithSweepHook(func(removed int, err error) {
			if removed > 0 {
				metrics.NotesPurged.Add(float64(removed))
				k.refreshGauges()
			}
		}),
	)

	if o.background {
		k.Sweeper.Start(ctx)
		return
	}
	if _, err := k.Sweeper.Sweep(ctx); err != nil {
		o.logger.Error("trash sweep failed", "error", err)
	}
}

// Path returns the resolved data directory, or "" when stores were injected
// or held in memory only.
func (k *Keeper) Path() string {
	return k.path
}

// AddDocument admits and persists a document in one step.
func (k *Keeper) AddDocument(ctx context.Context, draft core.DocumentDraft) (core.Document, error) {
	d, commit, err := k.Documents.Add(draft)
	if err != nil {
		metrics.ObserveRejection(err)
		return core.Document{}, err
	}
	if err := commit(ctx); err != nil {
		metrics.ObserveRejection(err)
		return d, err
	}
	k.refreshGauges()
	return d, nil
}

// DeleteDocument removes a document from the stores and the registry.
func (k *Keeper) DeleteDocument(ctx context.Context, id string) error {
	if err := k.Documents.Delete(ctx, id); err != nil {
		return err
	}
	k.refreshGauges()
	return nil
}

// Vacuum removes payloads no document refers to.
func (k *Keeper) Vacuum(ctx context.Context) ([]string, error) {
	return k.persistence.Vacuum(ctx)
}

// Watch reports changes made to the flat store by other processes.
func (k *Keeper) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	w, ok := unwrapFlat(k.flat).(core.Watchable)
	if !ok {
		return nil, ErrNotWatchable
	}
	return w.Watch(ctx, pattern)
}

// Close releases connections held by the stores.
func (k *Keeper) Close() error {
	var errs []error
	for _, c := range k.closers {
		errs = append(errs, c())
	}
	k.closers = nil
	return errors.Join(errs...)
}

// State reports the state of every component.
func (k *Keeper) State() any {
	state := map[string]any{"path": k.path}
	if k.Notes != nil {
		state["notes"] = k.Notes.State()
	}
	if k.Documents != nil {
		state["documents"] = k.Documents.State()
	}
	if s, ok := unwrapFlat(k.flat).(interface{ State() any }); ok {
		state["flat"] = s.State()
	}
	return state
}

// ComponentType implements introspection.Component.
func (k *Keeper) ComponentType() string {
	return "keeper"
}

var _ introspection.Component = (*Keeper)(nil)

func (k *Keeper) refreshGauges() {
	if s, ok := k.Notes.State().(notes.RegistryState); ok {
		metrics.Notes.Set(float64(s.Notes))
	}
	metrics.DocumentBytes.Set(float64(k.Documents.TotalSize()))
}

func unwrapFlat(s core.KeyValueStore) core.KeyValueStore {
	if u, ok := s.(interface{ Unwrap() core.KeyValueStore }); ok {
		return u.Unwrap()
	}
	return s
}

// DefaultPath is the per-user data directory, or a project-local .anotes
// directory when one exists above the working directory.
func DefaultPath() string {
	if wd, err := os.Getwd(); err == nil {
		if dir, err := FindDataDir(wd); err == nil {
			return dir
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DataDirName
	}
	return filepath.Join(home, DataDirName)
}
