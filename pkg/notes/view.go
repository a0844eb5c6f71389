package notes

import (
	"slices"
	"strings"
	"time"

	"github.com/aretw0/anotes/pkg/core"
)

// Query selects the notes shown by a view.
type Query struct {
	Trash         bool     // trash view instead of live notes
	Private       bool     // private view instead of regular notes
	FavoritesOnly bool     // only notes marked favorite
	Search        string   // case-insensitive substring of title, content or any tag
	Tags          []string // every tag must be present
}

// Filter returns the notes matching q, sorted for display. It does not modify notes.
//
// Pinned notes come first. The trash view is ordered by most recently trashed,
// other views keep creation order.
func Filter(notes []core.Note, q Query) []core.Note {
	search := strings.ToLower(q.Search)

	out := make([]core.Note, 0, len(notes))
	for _, n := range notes {
		if n.IsDeleted != q.Trash || n.IsPrivate != q.Private {
			continue
		}
		if q.FavoritesOnly && !n.IsFavorite {
			continue
		}
		if search != "" && !matchesSearch(n, search) {
			continue
		}
		if !slices.ContainsFunc(q.Tags, func(t string) bool { return !n.HasTag(t) }) {
			out = append(out, n)
		}
	}

	slices.SortStableFunc(out, func(a, b core.Note) int {
		if a.IsPinned != b.IsPinned {
			if a.IsPinned {
				return -1
			}
			return 1
		}
		if q.Trash {
			return deletedAt(b).Compare(deletedAt(a))
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

func matchesSearch(n core.Note, lowered string) bool {
	if strings.Contains(strings.ToLower(n.Title), lowered) ||
		strings.Contains(strings.ToLower(n.Content), lowered) {
		return true
	}
	return slices.ContainsFunc(n.Tags, func(t string) bool {
		return strings.Contains(strings.ToLower(t), lowered)
	})
}

func deletedAt(n core.Note) time.Time {
	if n.DeletedAt != nil {
		return *n.DeletedAt
	}
	return time.Time{}
}
