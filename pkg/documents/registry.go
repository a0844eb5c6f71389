package documents

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/anotes/pkg/core"
)

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the wall clock.
func WithClock(c core.Clock) Option {
	return func(r *Registry) {
		r.clock = c
	}
}

// WithIDFunc overrides the id generator.
func WithIDFunc(f core.IDFunc) Option {
	return func(r *Registry) {
		r.newID = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// Registry holds the documents of one session and admits new ones against the
// size ceilings of its Persistence.
//
// Admission is checked against this registry's collection only. Two registries
// sharing the same stores each admit against their own view and can jointly
// exceed the aggregate ceiling.
type Registry struct {
	mu      sync.RWMutex
	p       *Persistence
	clock   core.Clock
	newID   core.IDFunc
	logger  *slog.Logger
	docs    []core.Document
	lastErr error
}

// Open loads the reconciled document set through p.
func Open(ctx context.Context, p *Persistence, opts ...Option) (*Registry, error) {
	r := &Registry{
		p:     p,
		clock: core.SystemClock{},
		newID: core.NewID,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}

	docs, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	r.docs = docs

	if dropped := p.Stats().Dropped; len(dropped) > 0 {
		r.logger.Warn("documents without payload were dropped", "count", len(dropped))
	}
	r.logger.Debug("documents loaded", "count", len(docs))
	return r, nil
}

// Add admits a new document. A rejected draft leaves the collection unchanged
// and is kept as the last error.
func (r *Registry) Add(draft core.DocumentDraft) (core.Document, core.Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.admit(draft); err != nil {
		r.lastErr = err
		r.logger.Warn("document rejected", "name", draft.Name, "size", draft.Size, "error", err)
		return core.Document{}, nil, err
	}

	now := r.clock.Now()
	d := core.Document{
		ID:        r.newID(),
		Name:      draft.Name,
		MimeType:  draft.MimeType,
		Size:      draft.Size,
		URL:       draft.URL,
		IsPinned:  draft.IsPinned,
		IsStarred: draft.IsStarred,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.docs = append(r.docs, d)
	r.lastErr = nil

	r.logger.Debug("document added", "id", d.ID, "size", d.Size)
	return d, r.commit, nil
}

func (r *Registry) admit(draft core.DocumentDraft) error {
	if err := core.ValidateDocumentDraft(draft); err != nil {
		return err
	}
	if err := r.p.ValidateFileSize(draft.Size); err != nil {
		return err
	}
	return r.p.ValidateTotalSize(TotalSize(r.docs), draft.Size)
}

// Update merges patch into the document with id and refreshes UpdatedAt.
// An unknown id is a no-op. An invalid result leaves the document untouched.
func (r *Registry) Update(id string, patch core.DocumentPatch) (core.Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id)
	if i < 0 {
		return r.commit, nil
	}

	d := r.docs[i]
	patch.Apply(&d)
	if err := core.ValidateDocument(d); err != nil {
		return nil, err
	}
	d.UpdatedAt = r.clock.Now()
	r.docs[i] = d
	return r.commit, nil
}

// Delete removes the document from the stores and, only if that succeeds, from memory.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.p.Delete(ctx, id); err != nil {
		r.setErr(err)
		r.logger.Error("failed to delete document", "id", id, "error", err)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.index(id); i >= 0 {
		r.docs = slices.Delete(r.docs, i, i+1)
	}
	r.lastErr = nil
	return nil
}

// Get returns the document with id.
func (r *Registry) Get(id string) (core.Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.index(id); i >= 0 {
		return r.docs[i], true
	}
	return core.Document{}, false
}

// Documents returns the collection in insertion order.
func (r *Registry) Documents() []core.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.docs)
}

// Sorted returns the collection for display: pinned first, then starred, then
// most recently updated.
func (r *Registry) Sorted() []core.Document {
	docs := r.Documents()
	slices.SortStableFunc(docs, func(a, b core.Document) int {
		if a.IsPinned != b.IsPinned {
			if a.IsPinned {
				return -1
			}
			return 1
		}
		if a.IsStarred != b.IsStarred {
			if a.IsStarred {
				return -1
			}
			return 1
		}
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return docs
}

// TotalSize is the sum of the sizes of every held document.
func (r *Registry) TotalSize() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return TotalSize(r.docs)
}

// Limits returns the admission ceilings.
func (r *Registry) Limits() Limits {
	return r.p.Limits()
}

// Err returns the last rejection or persistence failure, or nil once a later
// operation succeeds.
func (r *Registry) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

func (r *Registry) index(id string) int {
	return slices.IndexFunc(r.docs, func(d core.Document) bool { return d.ID == id })
}

func (r *Registry) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastErr = err
}

func (r *Registry) commit(ctx context.Context) error {
	docs := r.Documents()
	err := r.p.Save(ctx, docs)
	r.setErr(err)
	if err != nil {
		r.logger.Error("failed to save documents", "error", err)
	}
	return err
}
