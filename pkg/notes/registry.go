// Package notes keeps the in-memory note collection, its trash lifecycle and the
// private-space session, and persists snapshots to a flat key-value store.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/anotes/pkg/core"
)

// Keys under which the registry persists its state.
const (
	NotesKey    = "notes"
	PasswordKey = "privateSpacePassword"
)

// DefaultRetentionDays is how long a trashed note survives before it is purged.
const DefaultRetentionDays = 30

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

// Registry owns the note collection of one session.
//
// Mutations apply to memory immediately and return a core.Commit that writes the
// current snapshot. A failed commit is kept as the last error and is not rolled
// back in memory.
type Registry struct {
	mu      sync.RWMutex
	store   core.KeyValueStore
	clock   core.Clock
	newID   core.IDFunc
	logger  *slog.Logger
	notes   []core.Note
	space   *PrivateSpace
	lastErr error
	saves   int
	purged  int
}

// Open loads the note snapshot and the private-space password from store.
// Missing keys mean an empty registry. The private space always starts locked.
func Open(ctx context.Context, store core.KeyValueStore, opts ...Option) (*Registry, error) {
	r := &Registry{
		store: store,
		clock: core.SystemClock{},
		newID: core.NewID,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}

	if err := r.load(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload discards in-memory state and re-reads the snapshot. The session is locked.
func (r *Registry) Reload(ctx context.Context) error {
	return r.load(ctx)
}

func (r *Registry) load(ctx context.Context) error {
	notes, err := r.readNotes(ctx)
	if err != nil {
		return err
	}
	password, err := r.store.Get(ctx, PasswordKey)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return &core.PersistenceError{Op: "read", Key: PasswordKey, Err: err}
		}
		password = ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = notes
	r.space = newPrivateSpace(password)
	r.lastErr = nil

	r.logger.Debug("notes loaded", "count", len(notes), "private_space", r.space.State().String())
	return nil
}

func (r *Registry) readNotes(ctx context.Context) ([]core.Note, error) {
	raw, err := r.store.Get(ctx, NotesKey)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		return nil, &core.PersistenceError{Op: "read", Key: NotesKey, Err: err}
	}
	if raw == "" {
		return nil, nil
	}

	var notes []core.Note
	if err := json.Unmarshal([]byte(raw), &notes); err != nil {
		return nil, &core.PersistenceError{Op: "decode", Key: NotesKey, Err: err}
	}
	return notes, nil
}

// Create appends a new note built from draft.
func (r *Registry) Create(draft core.NoteDraft) (core.Note, core.Commit, error) {
	now := r.clock.Now()
	n := core.Note{
		ID:         r.newID(),
		Title:      draft.Title,
		Content:    draft.Content,
		Tags:       slices.Clone(draft.Tags),
		Color:      draft.Color,
		IsPinned:   draft.IsPinned,
		IsFavorite: draft.IsFavorite,
		IsPrivate:  draft.IsPrivate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if err := core.ValidateNote(n); err != nil {
		return core.Note{}, nil, err
	}

	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()

	r.logger.Debug("note created", "id", n.ID)
	return n.Clone(), r.commitNotes, nil
}

// Update merges patch into the note with id and refreshes UpdatedAt.
// An unknown id is a no-op. An invalid result leaves the note untouched.
// A trashed note stays unpinned and not favorite whatever the patch says.
func (r *Registry) Update(id string, patch core.NotePatch) (core.Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexVisible(id)
	if i < 0 {
		return r.commitNotes, nil
	}

	n := r.notes[i].Clone()
	patch.Apply(&n)
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.IsDeleted {
		n.IsPinned = false
		n.IsFavorite = false
	}
	if err := core.ValidateNote(n); err != nil {
		return nil, err
	}
	n.UpdatedAt = r.clock.Now()
	r.notes[i] = n
	return r.commitNotes, nil
}

// IncrementViewCount records one more view of the note. UpdatedAt is left alone.
func (r *Registry) IncrementViewCount(id string) core.Commit {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexVisible(id); i >= 0 {
		r.notes[i].ViewCount++
	}
	return r.commitNotes
}

// MoveToTrash soft-deletes a note. Trashed notes are never pinned or favorite.
// UpdatedAt is left alone.
func (r *Registry) MoveToTrash(id string) core.Commit {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexVisible(id); i >= 0 {
		now := r.clock.Now()
		n := &r.notes[i]
		n.IsDeleted = true
		n.DeletedAt = &now
		n.IsPinned = false
		n.IsFavorite = false
	}
	return r.commitNotes
}

// RestoreFromTrash brings a trashed note back. UpdatedAt is left alone.
func (r *Registry) RestoreFromTrash(id string) core.Commit {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexVisible(id); i >= 0 {
		r.notes[i].IsDeleted = false
		r.notes[i].DeletedAt = nil
	}
	return r.commitNotes
}

// PermanentlyDelete removes a note whether or not it is in the trash.
func (r *Registry) PermanentlyDelete(id string) core.Commit {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexVisible(id); i >= 0 {
		r.notes = slices.Delete(r.notes, i, i+1)
	}
	return r.commitNotes
}

// PurgeExpired removes trashed notes whose DeletedAt is strictly older than
// retentionDays. A note trashed exactly retentionDays ago survives.
// Private notes are purged even while the space is locked.
func (r *Registry) PurgeExpired(retentionDays int) (int, core.Commit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clock.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	before := len(r.notes)
	r.notes = slices.DeleteFunc(r.notes, func(n core.Note) bool {
		return n.IsDeleted && n.DeletedAt != nil && n.DeletedAt.Before(cutoff)
	})
	removed := before - len(r.notes)
	r.purged += removed

	if removed > 0 {
		r.logger.Info("purged expired notes", "count", removed, "retention_days", retentionDays)
	}
	return removed, r.commitNotes
}

// Get returns a copy of the visible note with id.
func (r *Registry) Get(id string) (core.Note, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexVisible(id); i >= 0 {
		return r.notes[i].Clone(), true
	}
	return core.Note{}, false
}

// Notes returns copies of every note the session may see, in collection order.
func (r *Registry) Notes() []core.Note {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Note, 0, len(r.notes))
	for _, n := range r.notes {
		if r.space.visible(n) {
			out = append(out, n.Clone())
		}
	}
	return out
}

// Tags returns the distinct tags of visible notes, sorted.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tags []string
	for _, n := range r.notes {
		if !r.space.visible(n) {
			continue
		}
		for _, t := range n.Tags {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}
	slices.Sort(tags)
	return tags
}

// View filters and sorts the visible notes for display.
func (r *Registry) View(q Query) []core.Note {
	return Filter(r.Notes(), q)
}

// Err returns the error of the most recent failed commit, or nil once a later
// commit succeeds.
func (r *Registry) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// indexVisible returns the index of id, or -1 when absent or hidden by a locked space.
func (r *Registry) indexVisible(id string) int {
	i := slices.IndexFunc(r.notes, func(n core.Note) bool { return n.ID == id })
	if i < 0 || !r.space.visible(r.notes[i]) {
		return -1
	}
	return i
}

func (r *Registry) commitNotes(ctx context.Context) error {
	r.mu.RLock()
	snapshot := make([]core.Note, len(r.notes))
	copy(snapshot, r.notes)
	r.mu.RUnlock()

	return r.record(r.writeNotes(ctx, snapshot))
}

func (r *Registry) commitAll(ctx context.Context) error {
	r.mu.RLock()
	snapshot := make([]core.Note, len(r.notes))
	copy(snapshot, r.notes)
	password := r.space.password
	r.mu.RUnlock()

	if err := r.writeNotes(ctx, snapshot); err != nil {
		return r.record(err)
	}
	return r.record(r.writePassword(ctx, password))
}

func (r *Registry) writeNotes(ctx context.Context, notes []core.Note) error {
	if notes == nil {
		notes = []core.Note{}
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return &core.PersistenceError{Op: "encode", Key: NotesKey, Err: err}
	}
	if err := r.store.Set(ctx, NotesKey, string(data)); err != nil {
		return &core.PersistenceError{Op: "write", Key: NotesKey, Err: err}
	}
	return nil
}

func (r *Registry) writePassword(ctx context.Context, password string) error {
	var err error
	if password == "" {
		err = r.store.Remove(ctx, PasswordKey)
	} else {
		err = r.store.Set(ctx, PasswordKey, password)
	}
	if err != nil {
		return &core.PersistenceError{Op: "write", Key: PasswordKey, Err: err}
	}
	return nil
}

func (r *Registry) record(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastErr = err
	if err != nil {
		r.logger.Error("failed to persist notes", "error", err)
		return err
	}
	r.saves++
	return nil
}

// String implements fmt.Stringer for log output.
func (r *Registry) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("notes.Registry(%d notes, space %s)", len(r.notes), r.space.State())
}
