package notes

import (
	"crypto/subtle"
	"slices"

	"github.com/aretw0/anotes/pkg/core"
)

// SpaceState is the lifecycle position of a private space.
type SpaceState int

const (
	// SpaceAbsent means no password has been set up.
	SpaceAbsent SpaceState = iota
	// SpaceLocked means a password exists but the session has not presented it.
	SpaceLocked
	// SpaceUnlocked means the session may see private notes.
	SpaceUnlocked
)

func (s SpaceState) String() string {
	switch s {
	case SpaceLocked:
		return "locked"
	case SpaceUnlocked:
		return "unlocked"
	default:
		return "absent"
	}
}

// PrivateSpace is the password-gated visibility session of one Registry.
// It is not safe for concurrent use on its own; the owning Registry guards it.
//
// A space is always locked when loaded; unlocking lasts for the session only.
type PrivateSpace struct {
	password    string
	unlocked    bool
	showPrivate bool
}

func newPrivateSpace(password string) *PrivateSpace {
	return &PrivateSpace{password: password}
}

// State reports where the space is in its lifecycle.
func (p *PrivateSpace) State() SpaceState {
	switch {
	case p.password == "":
		return SpaceAbsent
	case p.unlocked:
		return SpaceUnlocked
	default:
		return SpaceLocked
	}
}

func (p *PrivateSpace) setup(password string) error {
	if p.password != "" {
		return core.ErrPrivateSpaceExists
	}
	if password == "" {
		return core.ErrEmptyPassword
	}
	p.password = password
	p.unlocked = true
	return nil
}

func (p *PrivateSpace) unlock(password string) bool {
	if !p.matches(password) {
		return false
	}
	p.unlocked = true
	p.showPrivate = true
	return true
}

func (p *PrivateSpace) lock() {
	p.unlocked = false
	p.showPrivate = false
}

func (p *PrivateSpace) reset() {
	p.password = ""
	p.lock()
}

// matches never succeeds for an absent space.
func (p *PrivateSpace) matches(password string) bool {
	if p.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(p.password), []byte(password)) == 1
}

// visible reports whether the session may see n at all.
func (p *PrivateSpace) visible(n core.Note) bool {
	return !n.IsPrivate || p.unlocked
}

// PrivateSpaceExists reports whether a password has been set up.
func (r *Registry) PrivateSpaceExists() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.space.State() != SpaceAbsent
}

// IsPrivateSpaceUnlocked reports whether this session may see private notes.
func (r *Registry) IsPrivateSpaceUnlocked() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.space.unlocked
}

// ShowPrivateNotes reports whether the private view is selected.
func (r *Registry) ShowPrivateNotes() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.space.showPrivate
}

// SetShowPrivateNotes switches between the private and the regular view.
// Selecting the private view requires an unlocked space; it returns false otherwise.
func (r *Registry) SetShowPrivateNotes(show bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if show && !r.space.unlocked {
		return false
	}
	r.space.showPrivate = show
	return true
}

// SpaceState reports the private-space lifecycle position.
func (r *Registry) SpaceState() SpaceState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.space.State()
}

// SetupPrivateSpace creates the private space and unlocks it for this session.
func (r *Registry) SetupPrivateSpace(password string) (core.Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.space.setup(password); err != nil {
		return nil, err
	}
	r.logger.Info("private space created")
	return r.commitAll, nil
}

// UnlockPrivateSpace unlocks the space and selects the private view when
// password matches. A mismatch changes nothing.
func (r *Registry) UnlockPrivateSpace(password string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	ok := r.space.unlock(password)
	if !ok {
		r.logger.Warn("private space unlock rejected")
	}
	return ok
}

// LockPrivateSpace hides private notes again and leaves the private view.
func (r *Registry) LockPrivateSpace() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.space.lock()
}

// DeletePrivateSpace permanently removes every private note and the password.
func (r *Registry) DeletePrivateSpace() core.Commit {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.notes)
	r.notes = slices.DeleteFunc(r.notes, func(n core.Note) bool { return n.IsPrivate })
	r.space.reset()

	r.logger.Info("private space deleted", "notes_removed", before-len(r.notes))
	return r.commitAll
}

// ValidateNotePassword checks password against the private space guarding the
// note with id. Every private note shares the single space password.
func (r *Registry) ValidateNotePassword(id, password string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !slices.ContainsFunc(r.notes, func(n core.Note) bool { return n.ID == id }) {
		return false
	}
	return r.space.matches(password)
}
