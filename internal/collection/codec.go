package collection

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fastjson"

	"github.com/kexin94yyds/RI-Flow/internal/apperr"
	"github.com/kexin94yyds/RI-Flow/internal/models"
)

// BackupFilename returns the export file name for the given day.
func BackupFilename(now time.Time) string {
	return fmt.Sprintf("info-filter-backup-%s.json", now.UTC().Format("2006-01-02"))
}

// Encode renders a collection as a pretty-printed JSON array. A nil
// collection encodes as [].
func Encode(items []models.Item) ([]byte, error) {
	if items == nil {
		items = []models.Item{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("collection: encode: %w", err)
	}
	return data, nil
}

// DecodeImport parses an imported collection. The whole payload is rejected
// with apperr.ErrFormat unless it is a JSON array of objects that each carry a
// non-empty string id and url.
func DecodeImport(data []byte) ([]models.Item, error) {
	v, err := fastjson.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrFormat, err)
	}
	if v.Type() != fastjson.TypeArray {
		return nil, fmt.Errorf("%w: expected a JSON array, got %s", apperr.ErrFormat, v.Type())
	}
	entries, _ := v.Array()
	for i, e := range entries {
		if e.Type() != fastjson.TypeObject {
			return nil, fmt.Errorf("%w: entry %d is not an object", apperr.ErrFormat, i)
		}
		for _, field := range []string{"id", "url"} {
			f := e.Get(field)
			if f == nil || f.Type() != fastjson.TypeString || len(f.GetStringBytes()) == 0 {
				return nil, fmt.Errorf("%w: entry %d lacks %q", apperr.ErrFormat, i, field)
			}
		}
	}

	items := make([]models.Item, 0, len(entries))
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrFormat, err)
	}
	return items, nil
}
