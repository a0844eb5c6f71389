// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/anotes/pkg/core"
)

// Clock is a manually advanced core.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Days is shorthand for n whole days.
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// SeqIDs returns a deterministic core.IDFunc yielding prefix-1, prefix-2, ...
func SeqIDs(prefix string) core.IDFunc {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// Store is the union of the flat and blob ports, as implemented by memory.Store.
type Store interface {
	core.KeyValueStore
	Put(ctx context.Context, key, data string) error
	Delete(ctx context.Context, key string) error
}

// FaultyStore wraps a Store and fails operations on chosen keys.
type FaultyStore struct {
	Store

	mu       sync.Mutex
	failures map[string]error
}

// NewFaultyStore wraps s with no failures configured.
func NewFaultyStore(s Store) *FaultyStore {
	return &FaultyStore{Store: s, failures: make(map[string]error)}
}

// Fail makes op ("get", "set", "remove", "put", "delete") on key return err.
// A nil err clears the fault.
func (f *FaultyStore) Fail(op, key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op+":"+key)
		return
	}
	f.failures[op+":"+key] = err
}

func (f *FaultyStore) fault(op, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[op+":"+key]
}

func (f *FaultyStore) Get(ctx context.Context, key string) (string, error) {
	if err := f.fault("get", key); err != nil {
		return "", err
	}
	return f.Store.Get(ctx, key)
}

func (f *FaultyStore) Set(ctx context.Context, key, value string) error {
	if err := f.fault("set", key); err != nil {
		return err
	}
	return f.Store.Set(ctx, key, value)
}

func (f *FaultyStore) Remove(ctx context.Context, key string) error {
	if err := f.fault("remove", key); err != nil {
		return err
	}
	return f.Store.Remove(ctx, key)
}

func (f *FaultyStore) Put(ctx context.Context, key, data string) error {
	if err := f.fault("put", key); err != nil {
		return err
	}
	return f.Store.Put(ctx, key, data)
}

func (f *FaultyStore) Delete(ctx context.Context, key string) error {
	if err := f.fault("delete", key); err != nil {
		return err
	}
	return f.Store.Delete(ctx, key)
}
