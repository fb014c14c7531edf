package collection

import "github.com/kexin94yyds/RI-Flow/internal/models"

// ApplyReorder projects a reordering of the visible (filtered) view back onto
// the full collection.
//
// With FilterAll the result is the visible ids in their new order followed by
// any items that were not listed, in their prior order. With any other filter
// the full collection is walked in order and each visible slot is filled with
// the next item of the reordered view, so hidden items keep their exact
// positions. Unknown and repeated ids in visibleOrderedIDs are ignored.
func ApplyReorder(full []models.Item, visibleOrderedIDs []string, activeFilter string) []models.Item {
	byID := make(map[string]models.Item, len(full))
	for _, it := range full {
		byID[it.ID] = it
	}

	visible := make([]models.Item, 0, len(visibleOrderedIDs))
	inVisible := make(map[string]struct{}, len(visibleOrderedIDs))
	for _, id := range visibleOrderedIDs {
		it, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := inVisible[id]; dup {
			continue
		}
		inVisible[id] = struct{}{}
		visible = append(visible, it)
	}

	out := make([]models.Item, 0, len(full))
	if activeFilter == FilterAll || activeFilter == "" {
		out = append(out, visible...)
		for _, it := range full {
			if _, ok := inVisible[it.ID]; !ok {
				out = append(out, it)
			}
		}
		return out
	}

	queue := visible
	for _, it := range full {
		if _, ok := inVisible[it.ID]; !ok || len(queue) == 0 {
			out = append(out, it)
			continue
		}
		out = append(out, queue[0])
		queue = queue[1:]
	}
	return out
}
