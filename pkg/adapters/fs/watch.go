package fs

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/anotes/pkg/core"
)

// Watch reports changes to keys matching pattern until ctx is cancelled, at
// which point the returned channel is closed. Writes made through this Store are
// reported too; callers that only care about foreign changes must filter them.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.config.Dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.config.Dir, err)
	}

	events := make(chan core.Event, s.config.EventBuffer)
	s.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer watcher.Close()
		defer s.setWatcherActive(false)

		for {
			select {
			case <-ctx.Done():
				return nil

			case ev, ok := <-watcher.Events:
				if !ok {
					if ctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("watcher events channel closed")
				}
				e, ok := s.translate(ev, pattern)
				if !ok {
					continue
				}
				select {
				case events <- e:
				case <-ctx.Done():
					return nil
				}

			case werr, ok := <-watcher.Errors:
				if !ok {
					if ctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("watcher errors channel closed")
				}
				s.logger.Error("fsnotify error", "error", werr)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("watch loop failed", "dir", s.config.Dir, "error", err)
	}))

	return events, nil
}

// translate maps a raw filesystem event to a key event. Temp files, hidden
// files and keys outside pattern are dropped.
func (s *Store) translate(ev fsnotify.Event, pattern string) (core.Event, bool) {
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return core.Event{}, false
	}
	key, err := url.PathUnescape(name)
	if err != nil {
		s.logger.Debug("ignoring undecodable file name", "name", name, "error", err)
		return core.Event{}, false
	}
	if match, _ := doublestar.Match(pattern, key); !match {
		return core.Event{}, false
	}

	var typ core.EventType
	switch {
	case ev.Has(fsnotify.Create):
		typ = core.EventCreate
	case ev.Has(fsnotify.Write):
		typ = core.EventModify
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		typ = core.EventDelete
	default:
		return core.Event{}, false
	}

	s.logger.Debug("key changed", "key", key, "type", typ)
	return core.Event{Type: typ, Key: key, Timestamp: time.Now().Unix()}, true
}
