package notes

import (
	"context"
	"time"

	"github.com/aretw0/lifecycle"
)

// DefaultSweepInterval is how often a running Sweeper purges the trash.
const DefaultSweepInterval = time.Hour

// Sweeper purges expired trash in the background.
type Sweeper struct {
	registry      *Registry
	retentionDays int
	interval      time.Duration
	onSweep       func(removed int, err error)
	done          chan struct{}
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithRetentionDays overrides DefaultRetentionDays.
func WithRetentionDays(days int) SweeperOption {
	return func(s *Sweeper) {
		s.retentionDays = days
	}
}

// WithInterval overrides DefaultSweepInterval.
func WithInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.interval = d
	}
}

// WithSweepHook is called after every sweep.
func WithSweepHook(fn func(removed int, err error)) SweeperOption {
	return func(s *Sweeper) {
		s.onSweep = fn
	}
}

// NewSweeper creates a sweeper for r. It does nothing until Start.
func NewSweeper(r *Registry, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		registry:      r,
		retentionDays: DefaultRetentionDays,
		interval:      DefaultSweepInterval,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep purges once and commits when anything was removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	removed, commit := s.registry.PurgeExpired(s.retentionDays)
	var err error
	if removed > 0 {
		err = commit(ctx)
	}
	if s.onSweep != nil {
		s.onSweep(removed, err)
	}
	return removed, err
}

// Start sweeps immediately and then on every interval until ctx is done.
// Start must be called at most once.
func (s *Sweeper) Start(ctx context.Context) {
	logger := s.registry.logger

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			if _, err := s.Sweep(ctx); err != nil {
				logger.Error("trash sweep failed", "error", err)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		logger.Error("trash sweeper stopped", "error", err)
	}))
}

// Done is closed once a started sweeper has stopped.
func (s *Sweeper) Done() <-chan struct{} {
	return s.done
}
