package fs

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Dir           string `json:"dir"`
	Capacity      int64  `json:"capacity,omitempty"`
	Used          int64  `json:"used"`
	WatcherActive bool   `json:"watcher_active"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	used, err := s.Used()
	if err != nil {
		s.logger.Debug("failed to measure store usage", "error", err)
	}

	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	return StoreState{
		Dir:           s.config.Dir,
		Capacity:      s.config.Capacity,
		Used:          used,
		WatcherActive: s.watcherActive,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "fs-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

func (s *Store) setWatcherActive(active bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.watcherActive = active
}
