// Package itemservice coordinates the item store with metadata scraping,
// desktop sync and change notifications.
package itemservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kexin94yyds/RI-Flow/internal/apperr"
	"github.com/kexin94yyds/RI-Flow/internal/checksum"
	"github.com/kexin94yyds/RI-Flow/internal/collection"
	"github.com/kexin94yyds/RI-Flow/internal/itemstore"
	"github.com/kexin94yyds/RI-Flow/internal/metadata"
	"github.com/kexin94yyds/RI-Flow/internal/models"
	"github.com/kexin94yyds/RI-Flow/internal/sse"
)

// Publisher receives collection change notifications.
type Publisher interface {
	PublishChange(eventType string, data map[string]any)
}

// Fetcher scrapes page metadata. It must not fail.
type Fetcher interface {
	Fetch(ctx context.Context, url string) metadata.Metadata
}

// Desktop pulls snapshots from a desktop host.
type Desktop interface {
	Pull(ctx context.Context, host string) ([]models.Item, error)
	Discover(ctx context.Context, candidates []string) (string, error)
}

// ConfirmFunc is asked before an import is merged. Returning false cancels it.
type ConfirmFunc func(incoming int, source string) bool

// AddParams are the user inputs of the add flow.
type AddParams struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Note     string `json:"note"`
	Image    string `json:"image"`
}

// ImportResult reports how many items came in and the resulting collection size.
type ImportResult struct {
	Imported int    `json:"imported"`
	Total    int    `json:"total"`
	Host     string `json:"host,omitempty"`
}

// Preview is a metadata lookup tagged with its per-client sequence number.
type Preview struct {
	Title string `json:"title"`
	Image string `json:"image"`
	Seq   uint64 `json:"seq"`
	Stale bool   `json:"stale"`
}

// Service implements the item use cases on top of an itemstore.Store.
type Service struct {
	store     *itemstore.Store
	fetcher   Fetcher
	desktop   Desktop
	publisher Publisher
	seq       *metadata.Sequencer
	hosts     []string
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithFetcher enables metadata prefill and previews.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithDesktop enables desktop pulls; hosts are the discovery candidates.
func WithDesktop(d Desktop, hosts []string) Option {
	return func(s *Service) {
		s.desktop = d
		s.hosts = hosts
	}
}

// WithPublisher sends change events to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source used for export filenames.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service over store.
func New(store *itemstore.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		seq:    metadata.NewSequencer(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the view for filter together with an ETag of the full collection.
func (s *Service) List(ctx context.Context, filter string) ([]models.Item, string) {
	full := s.store.GetAll(ctx)
	return collection.Filter(full, filter), etag(full)
}

// Add validates params, prefills missing title/image from the page and saves a new item.
func (s *Service) Add(ctx context.Context, p AddParams) (models.Item, []models.Item, error) {
	p.URL = strings.TrimSpace(p.URL)
	if p.URL == "" {
		return models.Item{}, nil, fmt.Errorf("itemservice: url is required: %w", apperr.ErrInvalid)
	}

	if s.fetcher != nil && (strings.TrimSpace(p.Title) == "" || p.Image == "") {
		md := s.fetcher.Fetch(ctx, p.URL)
		if strings.TrimSpace(p.Title) == "" {
			p.Title = md.Title
		}
		if p.Image == "" {
			p.Image = md.Image
		}
	}

	item := models.NewItem(models.NewItemParams{
		URL:      p.URL,
		Title:    p.Title,
		Category: p.Category,
		Note:     p.Note,
		Image:    p.Image,
	})
	full, err := s.store.Save(ctx, item)
	if err != nil {
		return models.Item{}, full, err
	}
	s.publish(sse.TypeItemCreated, map[string]any{"id": item.ID, "total": len(full)})
	return item, full, nil
}

// Delete removes id.
func (s *Service) Delete(ctx context.Context, id string) ([]models.Item, error) {
	full, err := s.store.Delete(ctx, id)
	if err != nil {
		return full, err
	}
	s.publish(sse.TypeItemDeleted, map[string]any{"id": id, "total": len(full)})
	return full, nil
}

// TogglePin flips the pinned flag of id.
func (s *Service) TogglePin(ctx context.Context, id string) ([]models.Item, error) {
	full, err := s.store.TogglePin(ctx, id)
	if err != nil {
		return full, err
	}
	pinned := false
	for _, it := range full {
		if it.ID == id {
			pinned = it.Pinned
			break
		}
	}
	s.publish(sse.TypeItemPinned, map[string]any{"id": id, "pinned": pinned})
	return full, nil
}

// Replace overwrites the collection.
func (s *Service) Replace(ctx context.Context, items []models.Item) ([]models.Item, error) {
	full, err := s.store.ReplaceAll(ctx, items)
	if err != nil {
		return full, err
	}
	s.publish(sse.TypeCollectionReplaced, map[string]any{"total": len(full)})
	return full, nil
}

// Reorder applies a drag gesture made in the view for filter and returns the
// new full collection and the re-filtered view.
func (s *Service) Reorder(ctx context.Context, visibleIDs []string, filter string) ([]models.Item, []models.Item, error) {
	full, err := s.store.Update(ctx, func(current []models.Item) ([]models.Item, error) {
		return collection.ApplyReorder(current, visibleIDs, filter), nil
	})
	view := collection.Filter(full, filter)
	if err != nil {
		return full, view, err
	}
	s.publish(sse.TypeCollectionReordered, map[string]any{"filter": filter, "total": len(full)})
	return full, view, nil
}

// Import decodes an exported backup and merges it into the collection.
// Nothing is written when data is malformed or confirm declines.
func (s *Service) Import(ctx context.Context, data []byte, confirm ConfirmFunc) (ImportResult, error) {
	incoming, err := collection.DecodeImport(data)
	if err != nil {
		return ImportResult{}, err
	}
	return s.merge(ctx, incoming, "file", confirm)
}

// PullDesktop fetches the collection of a desktop host and merges it. An
// empty host is resolved by probing the configured candidates.
func (s *Service) PullDesktop(ctx context.Context, host string, confirm ConfirmFunc) (ImportResult, error) {
	if s.desktop == nil {
		return ImportResult{}, fmt.Errorf("itemservice: desktop sync not configured: %w", apperr.ErrUnavailable)
	}

	host = strings.TrimSpace(host)
	if host == "" {
		found, err := s.desktop.Discover(ctx, s.hosts)
		if err != nil {
			return ImportResult{}, err
		}
		host = found
	}

	incoming, err := s.desktop.Pull(ctx, host)
	if err != nil {
		s.logger.Warn("itemservice: desktop pull failed", slog.String("host", host), slog.String("error", err.Error()))
		return ImportResult{Host: host}, err
	}

	res, err := s.merge(ctx, incoming, host, confirm)
	res.Host = host
	return res, err
}

func (s *Service) merge(ctx context.Context, incoming []models.Item, source string, confirm ConfirmFunc) (ImportResult, error) {
	if confirm != nil && !confirm(len(incoming), source) {
		return ImportResult{}, fmt.Errorf("itemservice: import from %s: %w", source, apperr.ErrCancelled)
	}

	full, err := s.store.Update(ctx, func(current []models.Item) ([]models.Item, error) {
		return collection.Merge(current, incoming), nil
	})
	if err != nil {
		return ImportResult{Total: len(full)}, err
	}

	s.logger.Info("itemservice: merged import",
		slog.String("source", source),
		slog.Int("imported", len(incoming)),
		slog.Int("total", len(full)))
	s.publish(sse.TypeCollectionImported, map[string]any{"imported": len(incoming), "total": len(full)})
	return ImportResult{Imported: len(incoming), Total: len(full)}, nil
}

// Export returns the backup filename for today and the pretty-printed collection.
func (s *Service) Export(ctx context.Context) (string, []byte, error) {
	data, err := collection.Encode(s.store.GetAll(ctx))
	if err != nil {
		return "", nil, err
	}
	return collection.BackupFilename(s.now()), data, nil
}

// Preview scrapes url for the add form of client. Only the newest request
// of a client carries data; superseded ones come back stale and empty.
func (s *Service) Preview(ctx context.Context, client, url string) Preview {
	n := s.seq.Begin(client)
	if s.fetcher == nil {
		return Preview{Seq: n, Stale: !s.seq.IsLatest(client, n)}
	}

	md := s.fetcher.Fetch(ctx, url)
	if !s.seq.IsLatest(client, n) {
		return Preview{Seq: n, Stale: true}
	}
	return Preview{Title: md.Title, Image: md.Image, Seq: n}
}

// NotifyExternalChange reports that the stored collection was changed by another process.
func (s *Service) NotifyExternalChange(key string) {
	s.publish(sse.TypeCollectionChanged, map[string]any{"key": key})
}

func (s *Service) publish(eventType string, data map[string]any) {
	if s.publisher != nil {
		s.publisher.PublishChange(eventType, data)
	}
}

func etag(items []models.Item) string {
	data, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return checksum.Sum(data)
}
