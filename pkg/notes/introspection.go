package notes

import (
	"github.com/aretw0/introspection"
)

// RegistryState exposes internal state for observability.
type RegistryState struct {
	Notes        int    `json:"notes"`
	Trashed      int    `json:"trashed"`
	Private      int    `json:"private"`
	PrivateSpace string `json:"private_space"`
	ShowPrivate  bool   `json:"show_private"`
	Saves        int    `json:"saves"`
	Purged       int    `json:"purged"`
	LastError    string `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable. Counts cover hidden notes too.
func (r *Registry) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state := RegistryState{
		Notes:        len(r.notes),
		PrivateSpace: r.space.State().String(),
		ShowPrivate:  r.space.showPrivate,
		Saves:        r.saves,
		Purged:       r.purged,
	}
	for _, n := range r.notes {
		if n.IsDeleted {
			state.Trashed++
		}
		if n.IsPrivate {
			state.Private++
		}
	}
	if r.lastErr != nil {
		state.LastError = r.lastErr.Error()
	}
	return state
}

// ComponentType implements introspection.Component.
func (r *Registry) ComponentType() string {
	return "note-registry"
}

var _ introspection.Introspectable = (*Registry)(nil)
var _ introspection.Component = (*Registry)(nil)
