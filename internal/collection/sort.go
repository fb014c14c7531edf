// Package collection holds the pure functions over item collections: the
// pinned-first policy, merge, filter view and reorder projection.
// Nothing here touches storage.
package collection

import (
	"slices"

	"github.com/kexin94yyds/RI-Flow/internal/models"
)

// SortPinnedFirst returns a copy of items with every pinned item before every
// unpinned one. Relative order inside each partition is kept.
func SortPinnedFirst(items []models.Item) []models.Item {
	out := slices.Clone(items)
	slices.SortStableFunc(out, comparePinned)
	return out
}

// IsPinnedFirst reports whether no unpinned item precedes a pinned one.
func IsPinnedFirst(items []models.Item) bool {
	seenUnpinned := false
	for _, it := range items {
		if !it.Pinned {
			seenUnpinned = true
			continue
		}
		if seenUnpinned {
			return false
		}
	}
	return true
}

func comparePinned(a, b models.Item) int {
	switch {
	case a.Pinned == b.Pinned:
		return 0
	case a.Pinned:
		return -1
	default:
		return 1
	}
}
