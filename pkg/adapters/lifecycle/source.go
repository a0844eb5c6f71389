// Package lifecycle exposes store change events as a lifecycle.Source.
package lifecycle

import (
	"context"
	"slices"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/anotes/pkg/core"
)

// Option configures a Source.
type Option func(*source)

// WithTypes only forwards events of the given types.
func WithTypes(types ...core.EventType) Option {
	return func(s *source) {
		s.types = types
	}
}

type source struct {
	events <-chan core.Event
	types  []core.EventType
	out    chan lifecycle.Event
}

// NewSource bridges a store's event channel to lifecycle.Source.
// The returned channel closes when events closes or the context given to Start ends.
func NewSource(events <-chan core.Event, opts ...Option) lifecycle.Source {
	s := &source{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *source) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *source) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if len(s.types) > 0 && !slices.Contains(s.types, e.Type) {
					continue
				}
				// core.Event satisfies lifecycle.Event through String.
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
