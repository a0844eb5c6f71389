// Package export renders notes into files a user can download, and reads
// Markdown notes back in.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/anotes/pkg/core"
)

// Format encodes a single note.
type Format interface {
	// Ext is the file extension, without the dot.
	Ext() string
	Encode(n core.Note) ([]byte, error)
}

// ByName returns the format registered under name ("txt", "md" or "json").
func ByName(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "txt", "text":
		return Text{}, nil
	case "md", "markdown":
		return Markdown{}, nil
	case "json":
		return JSON{}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q", name)
	}
}

// FileName builds "<base>.<ext>", falling back to a timestamped name when base is empty.
func FileName(base string, f Format, now time.Time) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = fmt.Sprintf("note-%d", now.UnixMilli())
	}
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, base)
	return base + "." + f.Ext()
}

// Text is the plain download format: title, blank line, content, then the tag line.
type Text struct{}

func (Text) Ext() string { return "txt" }

func (Text) Encode(n core.Note) ([]byte, error) {
	var b strings.Builder
	b.WriteString(n.Title)
	b.WriteString("\n\n")
	b.WriteString(n.Content)
	if len(n.Tags) > 0 {
		b.WriteString("\n\nTags: ")
		b.WriteString(strings.Join(n.Tags, ", "))
	}
	return []byte(b.String()), nil
}

// frontMatter is the YAML header of a Markdown note.
type frontMatter struct {
	Title     string     `yaml:"title"`
	Tags      []string   `yaml:"tags,omitempty"`
	Color     core.Color `yaml:"color,omitempty"`
	Pinned    bool       `yaml:"pinned,omitempty"`
	Favorite  bool       `yaml:"favorite,omitempty"`
	Private   bool       `yaml:"private,omitempty"`
	CreatedAt *time.Time `yaml:"created,omitempty"`
	UpdatedAt *time.Time `yaml:"updated,omitempty"`
}

// Markdown writes the note content under a YAML front matter block.
type Markdown struct{}

func (Markdown) Ext() string { return "md" }

func (Markdown) Encode(n core.Note) ([]byte, error) {
	fm := frontMatter{
		Title:    n.Title,
		Tags:     n.Tags,
		Color:    n.Color,
		Pinned:   n.IsPinned,
		Favorite: n.IsFavorite,
		Private:  n.IsPrivate,
	}
	if !n.CreatedAt.IsZero() {
		fm.CreatedAt = &n.CreatedAt
	}
	if !n.UpdatedAt.IsZero() && !n.UpdatedAt.Equal(n.CreatedAt) {
		fm.UpdatedAt = &n.UpdatedAt
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("---\n")
	buf.WriteString(n.Content)
	return buf.Bytes(), nil
}

// JSON writes the note as stored.
type JSON struct{}

func (JSON) Ext() string { return "json" }

func (JSON) Encode(n core.Note) ([]byte, error) {
	return json.MarshalIndent(n, "", "  ")
}

// ErrUnterminatedFrontMatter is returned when a front matter block is opened but never closed.
var ErrUnterminatedFrontMatter = errors.New("front matter started but no closing delimiter found")

// ParseMarkdown reads a Markdown note into a draft. Without front matter the
// whole input becomes the content.
func ParseMarkdown(r io.Reader) (core.NoteDraft, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return core.NoteDraft{}, err
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))

	if !bytes.HasPrefix(data, []byte("---\n")) {
		return core.NoteDraft{Content: string(data)}, nil
	}

	header, body, ok := bytes.Cut(data[4:], []byte("\n---\n"))
	if !ok {
		if !bytes.HasSuffix(data, []byte("\n---")) {
			return core.NoteDraft{}, ErrUnterminatedFrontMatter
		}
		header, body = data[4:len(data)-4], nil
	}

	var fm frontMatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return core.NoteDraft{}, fmt.Errorf("failed to parse front matter: %w", err)
	}
	return core.NoteDraft{
		Title:      fm.Title,
		Content:    string(body),
		Tags:       fm.Tags,
		Color:      fm.Color,
		IsPinned:   fm.Pinned,
		IsFavorite: fm.Favorite,
		IsPrivate:  fm.Private,
	}, nil
}
