package notes_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/anotes/internal/testutil"
	"github.com/aretw0/anotes/pkg/adapters/memory"
	"github.com/aretw0/anotes/pkg/core"
	"github.com/aretw0/anotes/pkg/notes"
)

func TestSweeper_Sweep(t *testing.T) {
	f := setup(t)
	n := f.create(t, core.NoteDraft{Title: "old"})
	require.NoError(t, f.reg.MoveToTrash(n.ID)(f.ctx))
	f.clock.Advance(testutil.Days(8))

	s := notes.NewSweeper(f.reg, notes.WithRetentionDays(7))
	removed, err := s.Sweep(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.Empty(t, f.open(t).Notes(), "purge was committed")
}

func TestSweeper_SweepReportsCommitFailure(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock()
	store := testutil.NewFaultyStore(memory.New())
	reg, err := notes.Open(ctx, store, notes.WithClock(clock))
	require.NoError(t, err)

	n, _, err := reg.Create(core.NoteDraft{})
	require.NoError(t, err)
	reg.MoveToTrash(n.ID)
	clock.Advance(testutil.Days(31))

	cause := errors.New("read-only")
	store.Fail("set", notes.NotesKey, cause)

	var hookErr error
	s := notes.NewSweeper(reg, notes.WithSweepHook(func(_ int, err error) { hookErr = err }))
	_, err = s.Sweep(ctx)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, hookErr, cause)
	assert.ErrorIs(t, reg.Err(), cause)
}

func TestSweeper_StartSweepsImmediatelyAndStops(t *testing.T) {
	f := setup(t)
	n := f.create(t, core.NoteDraft{Title: "expired"})
	require.NoError(t, f.reg.MoveToTrash(n.ID)(f.ctx))
	f.clock.Advance(testutil.Days(31))

	var sweeps atomic.Int32
	s := notes.NewSweeper(f.reg,
		notes.WithInterval(10*time.Millisecond),
		notes.WithSweepHook(func(int, error) { sweeps.Add(1) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	require.Eventually(t, func() bool { return sweeps.Load() >= 2 }, 5*time.Second, 5*time.Millisecond)
	_, ok := f.reg.Get(n.ID)
	assert.False(t, ok)

	cancel()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
