package metrics

import (
	"context"
	"time"

	"github.com/aretw0/anotes/pkg/core"
)

func observe(store, op string, start time.Time, err error) {
	StoreOperations.WithLabelValues(store, op, result(err)).Inc()
	StoreOperationDuration.WithLabelValues(store, op).Observe(time.Since(start).Seconds())
}

type kvStore struct {
	name  string
	inner core.KeyValueStore
}

// KeyValueStore counts and times every call made to kv.
func KeyValueStore(name string, kv core.KeyValueStore) core.KeyValueStore {
	return &kvStore{name: name, inner: kv}
}

// Unwrap returns the instrumented store.
func (s *kvStore) Unwrap() core.KeyValueStore {
	return s.inner
}

func (s *kvStore) Get(ctx context.Context, key string) (v string, err error) {
	defer func(start time.Time) { observe(s.name, "get", start, err) }(time.Now())
	return s.inner.Get(ctx, key)
}

func (s *kvStore) Set(ctx context.Context, key, value string) (err error) {
	defer func(start time.Time) { observe(s.name, "set", start, err) }(time.Now())
	return s.inner.Set(ctx, key, value)
}

func (s *kvStore) Remove(ctx context.Context, key string) (err error) {
	defer func(start time.Time) { observe(s.name, "remove", start, err) }(time.Now())
	return s.inner.Remove(ctx, key)
}

type blobStore struct {
	name  string
	inner core.BlobStore
}

type listingBlobStore struct {
	*blobStore
	lister core.Lister
}

// BlobStore counts and times every call made to b. The result implements
// core.Lister when b does.
func BlobStore(name string, b core.BlobStore) core.BlobStore {
	s := &blobStore{name: name, inner: b}
	if l, ok := b.(core.Lister); ok {
		return &listingBlobStore{blobStore: s, lister: l}
	}
	return s
}

// Unwrap returns the instrumented store.
func (s *blobStore) Unwrap() core.BlobStore {
	return s.inner
}

func (s *blobStore) Put(ctx context.Context, key, data string) (err error) {
	defer func(start time.Time) { observe(s.name, "put", start, err) }(time.Now())
	return s.inner.Put(ctx, key, data)
}

func (s *blobStore) Get(ctx context.Context, key string) (v string, err error) {
	defer func(start time.Time) { observe(s.name, "get", start, err) }(time.Now())
	return s.inner.Get(ctx, key)
}

func (s *blobStore) Delete(ctx context.Context, key string) (err error) {
	defer func(start time.Time) { observe(s.name, "delete", start, err) }(time.Now())
	return s.inner.Delete(ctx, key)
}

func (s *listingBlobStore) Keys(ctx context.Context, pattern string) (keys []string, err error) {
	defer func(start time.Time) { observe(s.name, "keys", start, err) }(time.Now())
	return s.lister.Keys(ctx, pattern)
}
