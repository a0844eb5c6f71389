package documents

import (
	"github.com/aretw0/introspection"
)

// RegistryState exposes internal state for observability.
type RegistryState struct {
	Documents    int            `json:"documents"`
	TotalSize    int64          `json:"total_size"`
	MaxFileSize  int64          `json:"max_file_size"`
	MaxTotalSize int64          `json:"max_total_size"`
	Reconcile    ReconcileStats `json:"reconcile"`
	LastError    string         `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Registry) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limits := r.p.Limits()
	state := RegistryState{
		Documents:    len(r.docs),
		TotalSize:    TotalSize(r.docs),
		MaxFileSize:  limits.MaxFileSize,
		MaxTotalSize: limits.MaxTotalSize,
		Reconcile:    r.p.Stats(),
	}
	if r.lastErr != nil {
		state.LastError = r.lastErr.Error()
	}
	return state
}

// ComponentType implements introspection.Component.
func (r *Registry) ComponentType() string {
	return "document-registry"
}

var _ introspection.Introspectable = (*Registry)(nil)
var _ introspection.Component = (*Registry)(nil)
