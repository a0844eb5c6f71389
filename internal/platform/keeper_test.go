package platform_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/anotes/internal/platform"
	"github.com/aretw0/anotes/internal/testutil"
	"github.com/aretw0/anotes/pkg/adapters/memory"
	"github.com/aretw0/anotes/pkg/core"
	"github.com/aretw0/anotes/pkg/documents"
)

func TestOpen_PurgesExpiredTrash(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock()
	flat, blobs := memory.New(), memory.New()
	opts := []platform.Option{
		platform.WithStores(flat, blobs),
		platform.WithClock(clock),
		platform.WithIDFunc(testutil.SeqIDs("id")),
	}

	k, err := platform.Open(ctx, "", opts...)
	require.NoError(t, err)

	old, commit, err := k.Notes.Create(core.NoteDraft{Title: "old"})
	require.NoError(t, err)
	require.NoError(t, commit(ctx))
	require.NoError(t, k.Notes.MoveToTrash(old.ID)(ctx))

	clock.Advance(testutil.Days(20))
	recent, commit, err := k.Notes.Create(core.NoteDraft{Title: "recent"})
	require.NoError(t, err)
	require.NoError(t, commit(ctx))
	require.NoError(t, k.Notes.MoveToTrash(recent.ID)(ctx))

	clock.Advance(testutil.Days(11))
	k, err = platform.Open(ctx, "", opts...)
	require.NoError(t, err)

	_, ok := k.Notes.Get(old.ID)
	assert.False(t, ok, "trashed 31 days ago")
	_, ok = k.Notes.Get(recent.ID)
	assert.True(t, ok, "trashed 11 days ago")

	raw, err := flat.Get(ctx, "notes")
	require.NoError(t, err)
	assert.NotContains(t, raw, old.ID)
}

func TestOpen_CustomRetention(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock()
	flat, blobs := memory.New(), memory.New()
	opts := []platform.Option{platform.WithStores(flat, blobs), platform.WithClock(clock)}

	k, err := platform.Open(ctx, "", opts...)
	require.NoError(t, err)
	n, commit, err := k.Notes.Create(core.NoteDraft{Title: "short-lived"})
	require.NoError(t, err)
	require.NoError(t, commit(ctx))
	require.NoError(t, k.Notes.MoveToTrash(n.ID)(ctx))

	clock.Advance(testutil.Days(8))
	k, err = platform.Open(ctx, "", append(opts, platform.WithRetention(7, 0))...)
	require.NoError(t, err)
	assert.Empty(t, k.Notes.Notes())
}

func TestOpen_FilesystemRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	k, err := platform.Open(ctx, dir, platform.WithDevSafety(false))
	require.NoError(t, err)
	assert.Equal(t, dir, k.Path())

	n, commit, err := k.Notes.Create(core.NoteDraft{Title: "hello", Tags: []string{"a"}})
	require.NoError(t, err)
	require.NoError(t, commit(ctx))

	d, err := k.AddDocument(ctx, core.DocumentDraft{Name: "a.txt", MimeType: "text/plain", Size: 5, URL: "data:text/plain;base64,aGVsbG8="})
	require.NoError(t, err)
	require.NoError(t, k.Close())

	k, err = platform.Open(ctx, dir, platform.WithDevSafety(false))
	require.NoError(t, err)

	got, ok := k.Notes.Get(n.ID)
	require.True(t, ok)
	assert.Equal(t, "hello", got.Title)

	doc, ok := k.Documents.Get(d.ID)
	require.True(t, ok)
	assert.Equal(t, d.URL, doc.URL)
}

func TestKeeper_AddDocumentRejected(t *testing.T) {
	ctx := context.Background()
	k, err := platform.Open(ctx, "",
		platform.WithStores(memory.New(), memory.New()),
		platform.WithLimits(documents.Limits{MaxFileSize: 10, MaxTotalSize: 15}),
	)
	require.NoError(t, err)

	_, err = k.AddDocument(ctx, core.DocumentDraft{Name: "big", Size: 11})
	var qe *core.QuotaError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, core.QuotaFile, qe.Scope)

	_, err = k.AddDocument(ctx, core.DocumentDraft{Name: "one", Size: 8, URL: strings.Repeat("x", 8)})
	require.NoError(t, err)

	_, err = k.AddDocument(ctx, core.DocumentDraft{Name: "two", Size: 8, URL: strings.Repeat("y", 8)})
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, core.QuotaTotal, qe.Scope)
	assert.Len(t, k.Documents.Documents(), 1)
}

func TestKeeper_DeleteAndVacuum(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New()
	k, err := platform.Open(ctx, "", platform.WithStores(memory.New(), blobs), platform.WithMetrics(true))
	require.NoError(t, err)

	d, err := k.AddDocument(ctx, core.DocumentDraft{Name: "a", Size: 1, URL: "a"})
	require.NoError(t, err)
	require.NoError(t, blobs.Put(ctx, "orphan", "zzz"))

	removed, err := k.Vacuum(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orphan"}, removed)

	require.NoError(t, k.DeleteDocument(ctx, d.ID))
	assert.Empty(t, k.Documents.Documents())
	_, err = blobs.Get(ctx, d.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestOpen_UnknownAdapter(t *testing.T) {
	_, err := platform.Open(context.Background(), t.TempDir(), platform.WithAdapter("sqlite"))
	assert.ErrorContains(t, err, "unknown adapter")

	_, err = platform.Open(context.Background(), t.TempDir(), platform.WithAdapter("memory"), platform.WithBlobAdapter("s3"))
	assert.ErrorContains(t, err, "unknown blob adapter")
}

func TestKeeper_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mem, err := platform.Open(ctx, "", platform.WithAdapter("memory"))
	require.NoError(t, err)
	_, err = mem.Watch(ctx, "*")
	assert.ErrorIs(t, err, platform.ErrNotWatchable)

	k, err := platform.Open(ctx, t.TempDir(), platform.WithMetrics(true))
	require.NoError(t, err)
	events, err := k.Watch(ctx, "notes")
	require.NoError(t, err)

	_, commit, err := k.Notes.Create(core.NoteDraft{Title: "watched"})
	require.NoError(t, err)
	require.NoError(t, commit(ctx))

	select {
	case e := <-events:
		assert.Equal(t, "notes", e.Key)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for notes key")
	}
}

func TestOpen_BackgroundSweep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	k, err := platform.Open(ctx, "",
		platform.WithStores(memory.New(), memory.New()),
		platform.WithBackgroundSweep(true),
		platform.WithRetention(0, time.Millisecond),
	)
	require.NoError(t, err)

	cancel()
	select {
	case <-k.Sweeper.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestKeeper_State(t *testing.T) {
	k, err := platform.Open(context.Background(), t.TempDir())
	require.NoError(t, err)

	state, ok := k.State().(map[string]any)
	require.True(t, ok)
	assert.Contains(t, state, "notes")
	assert.Contains(t, state, "documents")
	assert.Contains(t, state, "flat")
	assert.Equal(t, "keeper", k.ComponentType())
}

func TestKeeper_VacuumRefusesSharedStore(t *testing.T) {
	ctx := context.Background()
	shared := memory.New()
	k, err := platform.Open(ctx, "", platform.WithStores(shared, shared), platform.WithMetrics(true))
	require.NoError(t, err)

	commit, err := k.Notes.SetupPrivateSpace("pw")
	require.NoError(t, err)
	require.NoError(t, commit(ctx))

	_, err = k.Vacuum(ctx)
	assert.ErrorIs(t, err, documents.ErrSharedStore)

	_, err = shared.Get(ctx, "privateSpacePassword")
	assert.NoError(t, err)
}
