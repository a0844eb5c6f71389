// Package core holds the domain entities, storage ports and error kinds shared by
// the note and document registries.
package core

import (
	"context"
	"time"
)

// Document is a stored file. URL holds the binary content encoded as a data URI.
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required"`
	MimeType  string    `json:"type"`
	Size      int64     `json:"size" validate:"gte=0"`
	URL       string    `json:"url,omitempty"`
	IsPinned  bool      `json:"isPinned"`
	IsStarred bool      `json:"isStarred"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Metadata returns the document without its payload.
func (d Document) Metadata() Document {
	d.URL = ""
	return d
}

// DocumentDraft carries the caller-provided fields of a new document.
type DocumentDraft struct {
	Name      string `validate:"required"`
	MimeType  string
	Size      int64 `validate:"gte=0"`
	URL       string
	IsPinned  bool
	IsStarred bool
}

// DocumentPatch is a partial update. Nil fields are left untouched.
// Size and payload are immutable once accepted.
type DocumentPatch struct {
	Name      *string
	IsPinned  *bool
	IsStarred *bool
}

// Apply merges the patch into d.
func (p DocumentPatch) Apply(d *Document) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.IsPinned != nil {
		d.IsPinned = *p.IsPinned
	}
	if p.IsStarred != nil {
		d.IsStarred = *p.IsStarred
	}
}

// Commit attempts durability for a mutation already applied in memory.
// It is idempotent and safe to retry; it always writes the latest state.
type Commit func(ctx context.Context) error

// EventType represents the type of change observed on a store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a single key of a store.
type Event struct {
	Type      EventType
	Key       string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return string(e.Type) + " " + e.Key
}
