package itemservice

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/kexin94yyds/RI-Flow/internal/models"
)

// DefaultSearchLimit caps search results when the caller gives no limit.
const DefaultSearchLimit = 20

// searchSource exposes item titles (falling back to the URL) to the fuzzy matcher.
type searchSource []models.Item

func (s searchSource) String(i int) string {
	if t := strings.TrimSpace(s[i].Title); t != "" {
		return t
	}
	return s[i].URL
}

func (s searchSource) Len() int { return len(s) }

// Search fuzzy-matches query against item titles, best match first.
func (s *Service) Search(ctx context.Context, query string, limit int) []models.Item {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Item{}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	items := s.store.GetAll(ctx)
	matches := fuzzy.FindFrom(query, searchSource(items))

	out := make([]models.Item, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, items[m.Index])
	}
	return out
}
