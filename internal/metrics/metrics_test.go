package metrics_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/anotes/internal/metrics"
	"github.com/aretw0/anotes/pkg/adapters/memory"
	"github.com/aretw0/anotes/pkg/core"
)

func TestKeyValueStore_CountsResults(t *testing.T) {
	ctx := context.Background()
	kv := metrics.KeyValueStore("flat-test", memory.New(memory.WithCapacity(8)))

	ok := metrics.StoreOperations.WithLabelValues("flat-test", "set", "ok")
	capacity := metrics.StoreOperations.WithLabelValues("flat-test", "set", "capacity")
	missing := metrics.StoreOperations.WithLabelValues("flat-test", "get", "not_found")
	okBefore, capBefore, missBefore := testutil.ToFloat64(ok), testutil.ToFloat64(capacity), testutil.ToFloat64(missing)

	require.NoError(t, kv.Set(ctx, "a", "1"))
	assert.ErrorIs(t, kv.Set(ctx, "b", "123456789"), core.ErrCapacity)
	_, err := kv.Get(ctx, "zzz")
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, capBefore+1, testutil.ToFloat64(capacity))
	assert.Equal(t, missBefore+1, testutil.ToFloat64(missing))
}

func TestBlobStore_PreservesLister(t *testing.T) {
	b := metrics.BlobStore("blobs-test", memory.New())
	_, ok := b.(core.Lister)
	assert.True(t, ok)
}

func TestObserveRejection(t *testing.T) {
	c := metrics.DocumentsRejected.WithLabelValues("file")
	before := testutil.ToFloat64(c)

	metrics.ObserveRejection(&core.QuotaError{Scope: core.QuotaFile})
	metrics.ObserveRejection(core.ErrInvalidDocument)

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
