package core

import (
	"slices"
	"time"
)

// Color is a note label from a closed palette. The zero value means no color.
type Color string

const (
	ColorNone   Color = ""
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPurple Color = "purple"
	ColorPink   Color = "pink"
	ColorGray   Color = "gray"
)

// Palette lists every selectable color in display order.
var Palette = []Color{ColorRed, ColorOrange, ColorYellow, ColorGreen, ColorBlue, ColorPurple, ColorPink, ColorGray}

// MaxTagLength is the maximum number of characters in a single tag.
const MaxTagLength = 50

// Note is the central entity of the note store.
//
// DeletedAt is set if and only if IsDeleted is true.
type Note struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Tags       []string   `json:"tags" validate:"unique,dive,max=50"`
	Color      Color      `json:"color" validate:"omitempty,oneof=red orange yellow green blue purple pink gray"`
	IsPinned   bool       `json:"isPinned"`
	IsFavorite bool       `json:"isFavorite"`
	IsPrivate  bool       `json:"isPrivate"`
	IsDeleted  bool       `json:"isDeleted,omitempty"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
	ViewCount  int        `json:"viewCount,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Clone returns a deep copy so callers can never alias registry state.
func (n Note) Clone() Note {
	n.Tags = slices.Clone(n.Tags)
	if n.DeletedAt != nil {
		t := *n.DeletedAt
		n.DeletedAt = &t
	}
	return n
}

// HasTag reports whether the note carries the exact tag.
func (n Note) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}

// NoteDraft carries the caller-provided fields of a new note.
type NoteDraft struct {
	Title      string
	Content    string
	Tags       []string
	Color      Color
	IsPinned   bool
	IsFavorite bool
	IsPrivate  bool
}

// NotePatch is a partial update. Nil fields are left untouched.
// Identity, creation time and trash state are not patchable.
type NotePatch struct {
	Title      *string
	Content    *string
	Tags       *[]string
	Color      *Color
	IsPinned   *bool
	IsFavorite *bool
	IsPrivate  *bool
}

// Apply merges the patch into n.
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Tags != nil {
		n.Tags = slices.Clone(*p.Tags)
	}
	if p.Color != nil {
		n.Color = *p.Color
	}
	if p.IsPinned != nil {
		n.IsPinned = *p.IsPinned
	}
	if p.IsFavorite != nil {
		n.IsFavorite = *p.IsFavorite
	}
	if p.IsPrivate != nil {
		n.IsPrivate = *p.IsPrivate
	}
}
