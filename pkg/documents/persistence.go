// Package documents stores uploaded files with their metadata split from their
// payloads: metadata lives in a small flat key-value store, payloads in a larger
// blob store. Loading reconciles the two so no document ever surfaces without
// its payload.
package documents

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/anotes/pkg/core"
)

// MetadataKey is the flat-store key holding the metadata of every document.
const MetadataKey = "documents-metadata"

// Default size ceilings.
const (
	DefaultMaxFileSize  int64 = 5 * 1024 * 1024
	DefaultMaxTotalSize int64 = 50 * 1024 * 1024
)

var (
	// ErrNotListable is returned by Vacuum when the blob store cannot enumerate keys.
	ErrNotListable = errors.New("blob store cannot list keys")
	// ErrSharedStore is returned by Vacuum when metadata and payloads live in the
	// same store, where every flat key would look like an orphaned payload.
	ErrSharedStore = errors.New("metadata and blob stores are the same store")
)

// Limits are the admission ceilings for new content.
type Limits struct {
	MaxFileSize  int64
	MaxTotalSize int64
}

// DefaultLimits returns the 5 MiB per-file and 50 MiB aggregate ceilings.
func DefaultLimits() Limits {
	return Limits{MaxFileSize: DefaultMaxFileSize, MaxTotalSize: DefaultMaxTotalSize}
}

// ReconcileStats describes the most recent Load.
type ReconcileStats struct {
	Loaded  int      `json:"loaded"`
	Dropped []string `json:"dropped,omitempty"`
}

// PersistenceOption configures a Persistence.
type PersistenceOption func(*Persistence)

// WithLimits overrides DefaultLimits. Zero fields keep their default.
func WithLimits(l Limits) PersistenceOption {
	return func(p *Persistence) {
		if l.MaxFileSize > 0 {
			p.limits.MaxFileSize = l.MaxFileSize
		}
		if l.MaxTotalSize > 0 {
			p.limits.MaxTotalSize = l.MaxTotalSize
		}
	}
}

// WithConcurrency bounds the number of blob operations in flight. Values below
// one are ignored.
func WithConcurrency(n int) PersistenceOption {
	return func(p *Persistence) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithPersistenceLogger sets the logger.
func WithPersistenceLogger(l *slog.Logger) PersistenceOption {
	return func(p *Persistence) {
		p.logger = l
	}
}

// Persistence moves documents between memory and the two stores.
type Persistence struct {
	meta        core.KeyValueStore
	blobs       core.BlobStore
	limits      Limits
	concurrency int
	logger      *slog.Logger

	mu    sync.Mutex
	stats ReconcileStats
}

// NewPersistence writes metadata to meta and payloads to blobs. Vacuum refuses
// to run when both are the same store.
func NewPersistence(meta core.KeyValueStore, blobs core.BlobStore, opts ...PersistenceOption) *Persistence {
	p := &Persistence{
		meta:        meta,
		blobs:       blobs,
		limits:      DefaultLimits(),
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// Limits returns the configured ceilings.
func (p *Persistence) Limits() Limits {
	return p.limits
}

// ValidateFileSize rejects a single file larger than the per-file ceiling.
func (p *Persistence) ValidateFileSize(size int64) error {
	if size > p.limits.MaxFileSize {
		return &core.QuotaError{Scope: core.QuotaFile, Limit: p.limits.MaxFileSize, Requested: size}
	}
	return nil
}

// ValidateTotalSize rejects an addition that would push the total past the
// aggregate ceiling.
func (p *Persistence) ValidateTotalSize(currentTotal, incoming int64) error {
	if currentTotal+incoming > p.limits.MaxTotalSize {
		return &core.QuotaError{Scope: core.QuotaTotal, Limit: p.limits.MaxTotalSize, Requested: currentTotal + incoming}
	}
	return nil
}

// Save writes the metadata of docs, then every payload.
//
// Metadata goes first; if a payload write then fails, the next Load drops the
// entry whose payload is missing.
func (p *Persistence) Save(ctx context.Context, docs []core.Document) error {
	if err := p.writeMetadata(ctx, docs); err != nil {
		return err
	}

	// One failed payload must not cancel the others.
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, d := range docs {
		g.Go(func() error {
			if err := p.blobs.Put(ctx, d.ID, d.URL); err != nil {
				return storeError("write", d.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	p.logger.Debug("documents saved", "count", len(docs))
	return nil
}

// Load returns every document whose payload is available, in metadata order.
// Entries whose payload cannot be read are dropped and logged.
func (p *Persistence) Load(ctx context.Context) ([]core.Document, error) {
	meta, err := p.readMetadata(ctx)
	if err != nil {
		return nil, err
	}

	found := make([]bool, len(meta))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range meta {
		g.Go(func() error {
			data, err := p.blobs.Get(gctx, meta[i].ID)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				p.logger.Warn("dropping document with unreadable payload", "id", meta[i].ID, "error", err)
				return nil
			}
			meta[i].URL = data
			found[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &core.PersistenceError{Op: "load", Err: err}
	}

	docs := make([]core.Document, 0, len(meta))
	stats := ReconcileStats{}
	for i, d := range meta {
		if found[i] {
			docs = append(docs, d)
		} else {
			stats.Dropped = append(stats.Dropped, d.ID)
		}
	}
	stats.Loaded = len(docs)

	p.mu.Lock()
	p.stats = stats
	p.mu.Unlock()

	return docs, nil
}

// Delete removes the payload of id, then rewrites the metadata without it.
// If the payload cannot be removed the metadata is left untouched.
func (p *Persistence) Delete(ctx context.Context, id string) error {
	if err := p.blobs.Delete(ctx, id); err != nil {
		return &core.PersistenceError{Op: "delete", Key: id, Err: err}
	}

	meta, err := p.readMetadata(ctx)
	if err != nil {
		return err
	}
	remaining := slices.DeleteFunc(meta, func(d core.Document) bool { return d.ID == id })
	return p.writeMetadata(ctx, remaining)
}

// Vacuum deletes payloads that no metadata entry refers to and returns their keys.
func (p *Persistence) Vacuum(ctx context.Context) ([]string, error) {
	if sameStore(p.meta, p.blobs) {
		return nil, ErrSharedStore
	}
	lister, ok := p.blobs.(core.Lister)
	if !ok {
		return nil, ErrNotListable
	}

	keys, err := lister.Keys(ctx, "*")
	if err != nil {
		return nil, &core.PersistenceError{Op: "list", Err: err}
	}
	meta, err := p.readMetadata(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(meta))
	for _, d := range meta {
		known[d.ID] = struct{}{}
	}

	var removed []string
	for _, k := range keys {
		if _, ok := known[k]; ok || k == MetadataKey {
			continue
		}
		if err := p.blobs.Delete(ctx, k); err != nil {
			return removed, &core.PersistenceError{Op: "delete", Key: k, Err: err}
		}
		removed = append(removed, k)
	}

	if len(removed) > 0 {
		p.logger.Info("removed orphaned payloads", "count", len(removed))
	}
	return removed, nil
}

// Stats returns the reconcile outcome of the last Load.
func (p *Persistence) Stats() ReconcileStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ReconcileStats{Loaded: p.stats.Loaded, Dropped: slices.Clone(p.stats.Dropped)}
}

// TotalSize sums the sizes of docs.
func TotalSize(docs []core.Document) int64 {
	var total int64
	for _, d := range docs {
		total += d.Size
	}
	return total
}

func (p *Persistence) readMetadata(ctx context.Context) ([]core.Document, error) {
	raw, err := p.meta.Get(ctx, MetadataKey)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return []core.Document{}, nil
		}
		return nil, &core.PersistenceError{Op: "read", Key: MetadataKey, Err: err}
	}
	if raw == "" {
		return []core.Document{}, nil
	}

	var meta []core.Document
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, &core.PersistenceError{Op: "decode", Key: MetadataKey, Err: err}
	}
	return meta, nil
}

func (p *Persistence) writeMetadata(ctx context.Context, docs []core.Document) error {
	meta := make([]core.Document, len(docs))
	for i, d := range docs {
		meta[i] = d.Metadata()
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return &core.PersistenceError{Op: "encode", Key: MetadataKey, Err: err}
	}
	if err := p.meta.Set(ctx, MetadataKey, string(data)); err != nil {
		return storeError("write", MetadataKey, err)
	}
	return nil
}

// unwrap strips instrumenting wrappers that expose the store they wrap.
func unwrap(s any) any {
	for {
		switch u := s.(type) {
		case interface{ Unwrap() core.KeyValueStore }:
			s = u.Unwrap()
		case interface{ Unwrap() core.BlobStore }:
			s = u.Unwrap()
		default:
			return s
		}
	}
}

func sameStore(meta core.KeyValueStore, blobs core.BlobStore) bool {
	a, b := unwrap(meta), unwrap(blobs)
	t := reflect.TypeOf(a)
	return t != nil && t == reflect.TypeOf(b) && t.Comparable() && a == b
}

// storeError maps capacity exhaustion to a storage QuotaError and everything
// else to a PersistenceError.
func storeError(op, key string, err error) error {
	if errors.Is(err, core.ErrCapacity) {
		return &core.QuotaError{Scope: core.QuotaStorage, Err: err}
	}
	return &core.PersistenceError{Op: op, Key: key, Err: err}
}
