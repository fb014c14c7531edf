package collection

import (
	"cmp"
	"slices"
	"time"

	"github.com/araddon/dateparse"

	"github.com/kexin94yyds/RI-Flow/internal/models"
)

// Merge combines the local collection with an imported one.
//
// Items are keyed by id. Imported items are inserted first, so the imported
// version wins on collision (and the last duplicate inside imported wins).
// Local items are added only when their id is absent. The result is ordered
// pinned first, then newest createdAt first (unparseable timestamps last),
// then by id so that the same input set always yields the same order.
func Merge(local, imported []models.Item) []models.Item {
	byID := make(map[string]int, len(local)+len(imported))
	out := make([]models.Item, 0, len(local)+len(imported))

	for _, it := range imported {
		if i, ok := byID[it.ID]; ok {
			out[i] = it
			continue
		}
		byID[it.ID] = len(out)
		out = append(out, it)
	}
	for _, it := range local {
		if _, ok := byID[it.ID]; ok {
			continue
		}
		byID[it.ID] = len(out)
		out = append(out, it)
	}

	stamps := make(map[string]time.Time, len(out))
	for _, it := range out {
		if ts, err := dateparse.ParseAny(it.CreatedAt); err == nil {
			stamps[it.ID] = ts
		}
	}

	slices.SortStableFunc(out, func(a, b models.Item) int {
		if c := comparePinned(a, b); c != 0 {
			return c
		}
		if c := compareCreatedDesc(a, b, stamps); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// compareCreatedDesc orders newer items first. Items whose createdAt parses
// come before those whose createdAt does not; parsed values compare as
// instants, unparsed ones as strings (descending).
func compareCreatedDesc(a, b models.Item, stamps map[string]time.Time) int {
	ta, okA := stamps[a.ID]
	tb, okB := stamps[b.ID]
	switch {
	case okA && okB:
		return tb.Compare(ta)
	case okA:
		return -1
	case okB:
		return 1
	}
	return cmp.Compare(b.CreatedAt, a.CreatedAt)
}
