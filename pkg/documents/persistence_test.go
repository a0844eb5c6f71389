package documents_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/anotes/internal/testutil"
	"github.com/aretw0/anotes/pkg/adapters/memory"
	"github.com/aretw0/anotes/pkg/core"
	"github.com/aretw0/anotes/pkg/documents"
)

const mib = 1024 * 1024

func doc(id string, size int64) core.Document {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return core.Document{
		ID:        id,
		Name:      id + ".txt",
		MimeType:  "text/plain",
		Size:      size,
		URL:       "data:text/plain;base64," + id,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestPersistence_ValidateSizes(t *testing.T) {
	p := documents.NewPersistence(memory.New(), memory.New())

	assert.NoError(t, p.ValidateFileSize(5*mib))
	err := p.ValidateFileSize(5*mib + 1)
	var qe *core.QuotaError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, core.QuotaFile, qe.Scope)
	assert.Equal(t, "file size exceeds maximum limit of 5MB", err.Error())

	assert.NoError(t, p.ValidateTotalSize(45*mib, 5*mib))
	err = p.ValidateTotalSize(45*mib, 5*mib+1)
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, core.QuotaTotal, qe.Scope)
	assert.Equal(t, int64(50*mib+1), qe.Requested)
}

func TestPersistence_WithLimits(t *testing.T) {
	p := documents.NewPersistence(memory.New(), memory.New(), documents.WithLimits(documents.Limits{MaxTotalSize: 10}))
	assert.Equal(t, documents.DefaultMaxFileSize, p.Limits().MaxFileSize)
	assert.Equal(t, int64(10), p.Limits().MaxTotalSize)
}

func TestPersistence_RoundTrip(t *testing.T) {
	ctx := context.Background()
	meta, blobs := memory.New(), memory.New()
	p := documents.NewPersistence(meta, blobs)

	saved := []core.Document{doc("b", 10), doc("a", 20), doc("c", 30)}
	require.NoError(t, p.Save(ctx, saved))

	raw, err := meta.Get(ctx, documents.MetadataKey)
	require.NoError(t, err)
	assert.NotContains(t, raw, "base64", "payload never reaches the metadata store")
	assert.Contains(t, raw, `"type":"text/plain"`)

	loaded, err := documents.NewPersistence(meta, blobs).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestPersistence_LoadEmpty(t *testing.T) {
	docs, err := documents.NewPersistence(memory.New(), memory.New()).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestPersistence_LoadCorruptMetadata(t *testing.T) {
	ctx := context.Background()
	meta := memory.New()
	require.NoError(t, meta.Set(ctx, documents.MetadataKey, "[{"))

	_, err := documents.NewPersistence(meta, memory.New()).Load(ctx)
	var pe *core.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "decode", pe.Op)
}

func TestPersistence_LoadDropsMissingPayload(t *testing.T) {
	ctx := context.Background()
	meta := memory.New()
	blobs := testutil.NewFaultyStore(memory.New())
	p := documents.NewPersistence(meta, blobs)

	blobs.Fail("put", "b", errors.New("quota"))
	err := p.Save(ctx, []core.Document{doc("a", 1), doc("b", 2), doc("c", 3)})
	var pe *core.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "b", pe.Key)

	loaded, err := p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "a", loaded[0].ID)
	assert.Equal(t, "c", loaded[1].ID)

	stats := p.Stats()
	assert.Equal(t, 2, stats.Loaded)
	assert.Equal(t, []string{"b"}, stats.Dropped)
}

func TestPersistence_SaveCapacityIsQuotaError(t *testing.T) {
	ctx := context.Background()
	p := documents.NewPersistence(memory.New(memory.WithCapacity(32)), memory.New())

	err := p.Save(ctx, []core.Document{doc("a", 1), doc("b", 1)})
	var qe *core.QuotaError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, core.QuotaStorage, qe.Scope)
	assert.ErrorIs(t, err, core.ErrCapacity)
	assert.Contains(t, err.Error(), "delete some documents")
}

func TestPersistence_Delete(t *testing.T) {
	ctx := context.Background()
	meta, blobs := memory.New(), memory.New()
	p := documents.NewPersistence(meta, blobs)
	require.NoError(t, p.Save(ctx, []core.Document{doc("a", 1), doc("b", 2)}))

	require.NoError(t, p.Delete(ctx, "a"))

	_, err := blobs.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrNotFound)
	loaded, err := p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "b", loaded[0].ID)
}

func TestPersistence_DeleteBlobFailureKeepsMetadata(t *testing.T) {
	ctx := context.Background()
	meta := memory.New()
	blobs := testutil.NewFaultyStore(memory.New())
	p := documents.NewPersistence(meta, blobs)
	require.NoError(t, p.Save(ctx, []core.Document{doc("a", 1)}))
	before, err := meta.Get(ctx, documents.MetadataKey)
	require.NoError(t, err)

	blobs.Fail("delete", "a", errors.New("locked"))
	err = p.Delete(ctx, "a")
	var pe *core.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "delete", pe.Op)

	after, err := meta.Get(ctx, documents.MetadataKey)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPersistence_Vacuum(t *testing.T) {
	ctx := context.Background()
	meta, blobs := memory.New(), memory.New()
	p := documents.NewPersistence(meta, blobs)
	require.NoError(t, p.Save(ctx, []core.Document{doc("a", 1)}))
	require.NoError(t, blobs.Put(ctx, "orphan", "data:"))

	removed, err := p.Vacuum(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orphan"}, removed)
	assert.Equal(t, 1, blobs.Len())
}

func TestPersistence_VacuumNeedsLister(t *testing.T) {
	blobs := testutil.NewFaultyStore(memory.New())
	_, err := documents.NewPersistence(memory.New(), blobs).Vacuum(context.Background())
	assert.ErrorIs(t, err, documents.ErrNotListable)
}

func TestPersistence_VacuumRefusesSharedStore(t *testing.T) {
	ctx := context.Background()
	shared := memory.New()
	require.NoError(t, shared.Set(ctx, "notes", "[]"))
	require.NoError(t, shared.Set(ctx, "privateSpacePassword", "secret"))

	p := documents.NewPersistence(shared, shared)
	require.NoError(t, p.Save(ctx, []core.Document{doc("a", 1)}))

	removed, err := p.Vacuum(ctx)
	assert.ErrorIs(t, err, documents.ErrSharedStore)
	assert.Empty(t, removed)

	got, err := shared.Get(ctx, "privateSpacePassword")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)
}
