package collection

import "github.com/kexin94yyds/RI-Flow/internal/models"

// FilterAll is the filter value that selects every platform.
const FilterAll = "all"

// Filter returns the display subset for platform. FilterAll (or an empty
// value) returns items as is. The input is never modified.
func Filter(items []models.Item, platform string) []models.Item {
	if platform == FilterAll || platform == "" {
		return items
	}
	out := make([]models.Item, 0, len(items))
	for _, it := range items {
		if it.Platform == platform {
			out = append(out, it)
		}
	}
	return out
}
