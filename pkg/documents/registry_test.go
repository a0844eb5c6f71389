package documents_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/anotes/internal/testutil"
	"github.com/aretw0/anotes/pkg/adapters/memory"
	"github.com/aretw0/anotes/pkg/core"
	"github.com/aretw0/anotes/pkg/documents"
)

type fixture struct {
	ctx   context.Context
	clock *testutil.Clock
	meta  *memory.Store
	blobs *testutil.FaultyStore
	p     *documents.Persistence
	reg   *documents.Registry
}

func setup(t *testing.T, limits documents.Limits) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		clock: testutil.NewClock(),
		meta:  memory.New(),
		blobs: testutil.NewFaultyStore(memory.New()),
	}
	f.p = documents.NewPersistence(f.meta, f.blobs, documents.WithLimits(limits))
	f.reg = f.open(t)
	return f
}

func (f *fixture) open(t *testing.T) *documents.Registry {
	t.Helper()
	r, err := documents.Open(f.ctx, f.p, documents.WithClock(f.clock), documents.WithIDFunc(testutil.SeqIDs("doc")))
	require.NoError(t, err)
	return r
}

func draft(name string, size int64) core.DocumentDraft {
	return core.DocumentDraft{Name: name, MimeType: "application/pdf", Size: size, URL: "data:application/pdf;base64,JVBER"}
}

func TestRegistry_Add(t *testing.T) {
	f := setup(t, documents.Limits{})

	d, commit, err := f.reg.Add(draft("report.pdf", 1024))
	require.NoError(t, err)
	require.NoError(t, commit(f.ctx))

	assert.Equal(t, "doc-1", d.ID)
	assert.Equal(t, f.clock.Now(), d.CreatedAt)
	assert.Equal(t, int64(1024), f.reg.TotalSize())

	got, ok := f.reg.Get(d.ID)
	require.True(t, ok)
	assert.Equal(t, d, got)
}

func TestRegistry_AddAppends(t *testing.T) {
	f := setup(t, documents.Limits{})
	for _, name := range []string{"a", "b", "c"} {
		_, _, err := f.reg.Add(draft(name, 1))
		require.NoError(t, err)
	}

	var names []string
	for _, d := range f.reg.Documents() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestRegistry_AddRejectsOversizedFile(t *testing.T) {
	f := setup(t, documents.Limits{})
	_, _, err := f.reg.Add(draft("small", 1))
	require.NoError(t, err)
	before := f.reg.Documents()

	_, commit, err := f.reg.Add(draft("huge", 6*mib))
	var qe *core.QuotaError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, core.QuotaFile, qe.Scope)
	assert.Nil(t, commit)

	assert.Equal(t, before, f.reg.Documents())
	assert.Equal(t, err, f.reg.Err())
}

func TestRegistry_AddRejectsOverTotal(t *testing.T) {
	f := setup(t, documents.Limits{MaxTotalSize: 5 * mib})

	first, _, err := f.reg.Add(draft("first", 3*mib))
	require.NoError(t, err)

	_, _, err = f.reg.Add(draft("second", 3*mib))
	var qe *core.QuotaError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, core.QuotaTotal, qe.Scope)

	docs := f.reg.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, first.ID, docs[0].ID)

	// A later successful add clears the error.
	_, _, err = f.reg.Add(draft("third", mib))
	require.NoError(t, err)
	assert.NoError(t, f.reg.Err())
}

func TestRegistry_AddRejectsInvalidDraft(t *testing.T) {
	f := setup(t, documents.Limits{})
	_, _, err := f.reg.Add(core.DocumentDraft{Size: 1})
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
	assert.Empty(t, f.reg.Documents())
}

func TestRegistry_Update(t *testing.T) {
	f := setup(t, documents.Limits{})
	d, _, err := f.reg.Add(draft("a", 1))
	require.NoError(t, err)
	f.clock.Advance(testutil.Days(1))

	pinned := true
	name := "renamed"
	commit, err := f.reg.Update(d.ID, core.DocumentPatch{IsPinned: &pinned, Name: &name})
	require.NoError(t, err)
	require.NoError(t, commit(f.ctx))

	got, _ := f.reg.Get(d.ID)
	assert.True(t, got.IsPinned)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, d.Size, got.Size)
	assert.Equal(t, f.clock.Now(), got.UpdatedAt)
	assert.Equal(t, d.CreatedAt, got.CreatedAt)
}

func TestRegistry_UpdateRejectsEmptyName(t *testing.T) {
	f := setup(t, documents.Limits{})
	d, commit, err := f.reg.Add(draft("a", 1))
	require.NoError(t, err)
	require.NoError(t, commit(f.ctx))

	empty := ""
	pinned := true
	_, err = f.reg.Update(d.ID, core.DocumentPatch{Name: &empty, IsPinned: &pinned})
	assert.ErrorIs(t, err, core.ErrInvalidDocument)

	got, _ := f.reg.Get(d.ID)
	assert.Equal(t, "a", got.Name)
	assert.False(t, got.IsPinned)
	assert.Equal(t, d.UpdatedAt, got.UpdatedAt)
}

func TestRegistry_RoundTrip(t *testing.T) {
	f := setup(t, documents.Limits{})
	var commit core.Commit
	for _, name := range []string{"x", "y", "z"} {
		var err error
		_, commit, err = f.reg.Add(draft(name, 100))
		require.NoError(t, err)
	}
	require.NoError(t, commit(f.ctx))

	assert.Equal(t, f.reg.Documents(), f.open(t).Documents())
}

func TestRegistry_FailedBlobIsExcludedOnReload(t *testing.T) {
	f := setup(t, documents.Limits{})
	_, _, err := f.reg.Add(draft("ok", 1))
	require.NoError(t, err)
	bad, commit, err := f.reg.Add(draft("bad", 1))
	require.NoError(t, err)

	f.blobs.Fail("put", bad.ID, errors.New("io error"))
	require.Error(t, commit(f.ctx))
	assert.Error(t, f.reg.Err())

	reopened := f.open(t)
	docs := reopened.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "ok", docs[0].Name)

	state := reopened.State().(documents.RegistryState)
	assert.Equal(t, documents.ReconcileStats{Loaded: 1, Dropped: []string{bad.ID}}, state.Reconcile)
}

func TestRegistry_Delete(t *testing.T) {
	f := setup(t, documents.Limits{})
	a, _, err := f.reg.Add(draft("a", 1))
	require.NoError(t, err)
	_, commit, err := f.reg.Add(draft("b", 1))
	require.NoError(t, err)
	require.NoError(t, commit(f.ctx))

	require.NoError(t, f.reg.Delete(f.ctx, a.ID))
	_, ok := f.reg.Get(a.ID)
	assert.False(t, ok)
	assert.Len(t, f.open(t).Documents(), 1)
}

func TestRegistry_DeleteFailureKeepsDocument(t *testing.T) {
	f := setup(t, documents.Limits{})
	a, commit, err := f.reg.Add(draft("a", 1))
	require.NoError(t, err)
	require.NoError(t, commit(f.ctx))

	f.blobs.Fail("delete", a.ID, errors.New("busy"))
	err = f.reg.Delete(f.ctx, a.ID)
	var pe *core.PersistenceError
	require.ErrorAs(t, err, &pe)

	_, ok := f.reg.Get(a.ID)
	assert.True(t, ok)
	assert.Equal(t, err, f.reg.Err())
}

func TestRegistry_Sorted(t *testing.T) {
	f := setup(t, documents.Limits{})
	add := func(name string, pinned, starred bool) {
		t.Helper()
		_, _, err := f.reg.Add(core.DocumentDraft{Name: name, Size: 1, IsPinned: pinned, IsStarred: starred})
		require.NoError(t, err)
		f.clock.Advance(testutil.Days(1))
	}
	add("old", false, false)
	add("starred", false, true)
	add("new", false, false)
	add("pinned", true, false)

	var names []string
	for _, d := range f.reg.Sorted() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"pinned", "starred", "new", "old"}, names)
}
