package core_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/anotes/pkg/core"
)

func TestValidateNote(t *testing.T) {
	tests := []struct {
		name    string
		note    core.Note
		wantErr bool
	}{
		{name: "empty note", note: core.Note{}},
		{name: "tags and color", note: core.Note{Tags: []string{"work", "home"}, Color: core.ColorBlue}},
		{name: "tag at limit", note: core.Note{Tags: []string{strings.Repeat("a", core.MaxTagLength)}}},
		{name: "multibyte tag at limit", note: core.Note{Tags: []string{strings.Repeat("é", core.MaxTagLength)}}},
		{name: "tag too long", note: core.Note{Tags: []string{strings.Repeat("a", core.MaxTagLength+1)}}, wantErr: true},
		{name: "duplicate tags", note: core.Note{Tags: []string{"work", "work"}}, wantErr: true},
		{name: "unknown color", note: core.Note{Color: "teal"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.ValidateNote(tt.note)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, core.ErrInvalidNote)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateDocumentDraft(t *testing.T) {
	assert.NoError(t, core.ValidateDocumentDraft(core.DocumentDraft{Name: "a.pdf", Size: 10}))
	assert.ErrorIs(t, core.ValidateDocumentDraft(core.DocumentDraft{Size: 10}), core.ErrInvalidDocument)
	assert.ErrorIs(t, core.ValidateDocumentDraft(core.DocumentDraft{Name: "a.pdf", Size: -1}), core.ErrInvalidDocument)
}

func TestNotePatch_Apply(t *testing.T) {
	title := "new title"
	tags := []string{"x"}
	pinned := true

	n := core.Note{Title: "old", Content: "body", Tags: []string{"a"}}
	core.NotePatch{Title: &title, Tags: &tags, IsPinned: &pinned}.Apply(&n)

	assert.Equal(t, "new title", n.Title)
	assert.Equal(t, "body", n.Content)
	assert.Equal(t, []string{"x"}, n.Tags)
	assert.True(t, n.IsPinned)

	tags[0] = "mutated"
	assert.Equal(t, []string{"x"}, n.Tags, "patch tags must be copied")
}

func TestNote_Clone(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	n := core.Note{Tags: []string{"a"}, IsDeleted: true, DeletedAt: &at}

	c := n.Clone()
	c.Tags[0] = "b"
	*c.DeletedAt = at.Add(time.Hour)

	assert.Equal(t, "a", n.Tags[0])
	assert.Equal(t, at, *n.DeletedAt)
}

func TestQuotaError(t *testing.T) {
	err := &core.QuotaError{Scope: core.QuotaFile, Limit: 5 * 1024 * 1024, Requested: 6 * 1024 * 1024}
	assert.Equal(t, "file size exceeds maximum limit of 5MB", err.Error())

	err = &core.QuotaError{Scope: core.QuotaTotal, Limit: 50 * 1024 * 1024}
	assert.Equal(t, "total storage would exceed maximum limit of 50MB", err.Error())

	err = &core.QuotaError{Scope: core.QuotaStorage, Err: core.ErrCapacity}
	assert.Contains(t, err.Error(), "free up space")
	assert.ErrorIs(t, err, core.ErrCapacity)
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("disk on fire")
	err := &core.PersistenceError{Op: "write", Key: "notes", Err: cause}

	assert.Equal(t, `failed to write "notes": disk on fire`, err.Error())
	assert.ErrorIs(t, err, cause)

	var pe *core.PersistenceError
	require.ErrorAs(t, error(err), &pe)
	assert.Equal(t, "write", pe.Op)
}

func TestDocument_Metadata(t *testing.T) {
	d := core.Document{ID: "1", Name: "a", URL: "data:text/plain;base64,aGk="}
	m := d.Metadata()
	assert.Empty(t, m.URL)
	assert.Equal(t, "a", m.Name)
	assert.NotEmpty(t, d.URL)
}
