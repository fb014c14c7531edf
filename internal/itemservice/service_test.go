package itemservice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kexin94yyds/RI-Flow/internal/apperr"
	"github.com/kexin94yyds/RI-Flow/internal/collection"
	"github.com/kexin94yyds/RI-Flow/internal/itemstore"
	"github.com/kexin94yyds/RI-Flow/internal/metadata"
	"github.com/kexin94yyds/RI-Flow/internal/models"
	"github.com/kexin94yyds/RI-Flow/internal/sse"
	"github.com/kexin94yyds/RI-Flow/internal/testutil"
)

type stubFetcher struct {
	md    metadata.Metadata
	calls int
	hook  func()
}

func (f *stubFetcher) Fetch(_ context.Context, _ string) metadata.Metadata {
	f.calls++
	if f.hook != nil {
		f.hook()
	}
	return f.md
}

type stubDesktop struct {
	items     []models.Item
	err       error
	found     string
	pulledFor string
}

func (d *stubDesktop) Pull(_ context.Context, host string) ([]models.Item, error) {
	d.pulledFor = host
	return d.items, d.err
}

func (d *stubDesktop) Discover(_ context.Context, candidates []string) (string, error) {
	if d.found == "" {
		return "", apperr.ErrUnavailable
	}
	return d.found, nil
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) PublishChange(eventType string, _ map[string]any) {
	r.mu.Lock()
	r.events = append(r.events, eventType)
	r.mu.Unlock()
}

func newService(t *testing.T, opts ...Option) (*Service, *testutil.FlakyProvider, *recorder) {
	t.Helper()
	p := testutil.NewFlakyProvider()
	rec := &recorder{}
	opts = append([]Option{WithPublisher(rec), WithLogger(testutil.Logger())}, opts...)
	return New(itemstore.New(p, testutil.Logger()), opts...), p, rec
}

func TestAdd_RequiresURL(t *testing.T) {
	s, p, _ := newService(t)
	_, _, err := s.Add(context.Background(), AddParams{URL: "   "})
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	if p.SetCalled != 0 {
		t.Error("nothing should be written")
	}
}

func TestAdd_PrefillsFromMetadata(t *testing.T) {
	f := &stubFetcher{md: metadata.Metadata{Title: "Scraped", Image: "https://img.example/a.png"}}
	s, _, rec := newService(t, WithFetcher(f))

	item, full, err := s.Add(context.Background(), AddParams{URL: "https://www.youtube.com/watch?v=1"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if item.Title != "Scraped" || item.Image != "https://img.example/a.png" {
		t.Errorf("item = %+v", item)
	}
	if item.Platform != models.PlatformYouTube || item.Category != models.CategoryReadLater {
		t.Errorf("derived fields = %+v", item)
	}
	if len(full) != 1 || full[0].ID != item.ID {
		t.Errorf("full = %+v", full)
	}
	if len(rec.events) != 1 || rec.events[0] != sse.TypeItemCreated {
		t.Errorf("events = %v", rec.events)
	}
}

func TestAdd_UserInputWins(t *testing.T) {
	f := &stubFetcher{md: metadata.Metadata{Title: "Scraped", Image: "scraped.png"}}
	s, _, _ := newService(t, WithFetcher(f))

	item, _, err := s.Add(context.Background(), AddParams{URL: "https://go.dev", Title: "Mine", Image: "mine.png"})
	if err != nil {
		t.Fatal(err)
	}
	if item.Title != "Mine" || item.Image != "mine.png" {
		t.Errorf("item = %+v", item)
	}
	if f.calls != 0 {
		t.Error("fetch should be skipped when nothing is missing")
	}
}

func TestAdd_EmptyMetadataFallsBackToURL(t *testing.T) {
	s, _, _ := newService(t, WithFetcher(&stubFetcher{}))
	item, _, err := s.Add(context.Background(), AddParams{URL: "https://go.dev"})
	if err != nil {
		t.Fatal(err)
	}
	if item.Title != "https://go.dev" {
		t.Errorf("title = %q", item.Title)
	}
}

func TestList_FilterAndETag(t *testing.T) {
	s, _, _ := newService(t)
	ctx := context.Background()
	_, _, _ = s.Add(ctx, AddParams{URL: "https://x.com/a"})
	_, _, _ = s.Add(ctx, AddParams{URL: "https://go.dev"})

	all, tag1 := s.List(ctx, collection.FilterAll)
	tw, tag2 := s.List(ctx, models.PlatformTwitter)
	if len(all) != 2 || len(tw) != 1 {
		t.Fatalf("all=%d twitter=%d", len(all), len(tw))
	}
	if tag1 == "" || tag1 != tag2 {
		t.Errorf("etag should describe the full collection: %q vs %q", tag1, tag2)
	}

	_, _, _ = s.Add(ctx, AddParams{URL: "https://youtu.be/z"})
	if _, tag3 := s.List(ctx, collection.FilterAll); tag3 == tag1 {
		t.Error("etag did not change after add")
	}
}

func TestReorder_ReturnsFullAndView(t *testing.T) {
	s, _, rec := newService(t)
	ctx := context.Background()
	_, err := s.Replace(ctx, []models.Item{
		{ID: "a", Platform: models.PlatformWeb},
		{ID: "b", Platform: models.PlatformTwitter},
		{ID: "c", Platform: models.PlatformWeb},
		{ID: "d", Platform: models.PlatformTwitter},
	})
	if err != nil {
		t.Fatal(err)
	}

	full, view, err := s.Reorder(ctx, []string{"d", "b"}, models.PlatformTwitter)
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if got := strings.Join(models.IDs(full), ""); got != "adcb" {
		t.Errorf("full = %s, want adcb", got)
	}
	if got := strings.Join(models.IDs(view), ""); got != "db" {
		t.Errorf("view = %s, want db", got)
	}
	if rec.events[len(rec.events)-1] != sse.TypeCollectionReordered {
		t.Errorf("events = %v", rec.events)
	}
}

func TestImport_MergeAndCounts(t *testing.T) {
	s, _, _ := newService(t)
	ctx := context.Background()
	_, _ = s.Replace(ctx, []models.Item{{ID: "1", URL: "u", CreatedAt: "2024-01-01"}})

	res, err := s.Import(ctx, []byte(`[
		{"id":"1","url":"u","createdAt":"2024-02-01","pinned":true},
		{"id":"2","url":"v","createdAt":"2024-01-15"}
	]`), nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Imported != 2 || res.Total != 2 {
		t.Errorf("result = %+v", res)
	}

	full, _ := s.List(ctx, collection.FilterAll)
	if full[0].ID != "1" || !full[0].Pinned || full[0].CreatedAt != "2024-02-01" {
		t.Errorf("imported id 1 should win: %+v", full[0])
	}
}

func TestImport_FormatErrorLeavesStoreIdentical(t *testing.T) {
	s, p, rec := newService(t)
	ctx := context.Background()
	_, _ = s.Replace(ctx, []models.Item{{ID: "1", URL: "u"}})
	before := string(p.Raw(itemstore.Key))
	writes := p.SetCalled
	events := len(rec.events)

	_, err := s.Import(ctx, []byte(`{"not":"an array"}`), nil)
	if !errors.Is(err, apperr.ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
	if string(p.Raw(itemstore.Key)) != before || p.SetCalled != writes {
		t.Error("store was modified by a rejected import")
	}
	if len(rec.events) != events {
		t.Error("rejected import published an event")
	}
}

func TestImport_Declined(t *testing.T) {
	s, p, _ := newService(t)
	writes := p.SetCalled

	var asked int
	_, err := s.Import(context.Background(), []byte(`[{"id":"1","url":"u"}]`), func(n int, _ string) bool {
		asked = n
		return false
	})
	if !errors.Is(err, apperr.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if asked != 1 || p.SetCalled != writes {
		t.Errorf("asked=%d writes=%d", asked, p.SetCalled-writes)
	}
}

func TestPullDesktop(t *testing.T) {
	d := &stubDesktop{
		items: []models.Item{{ID: "remote", URL: "https://go.dev", CreatedAt: "2024-01-01T00:00:00.000Z"}},
		found: "192.168.1.5",
	}
	s, _, _ := newService(t, WithDesktop(d, []string{"192.168.1.5"}))

	res, err := s.PullDesktop(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("PullDesktop: %v", err)
	}
	if res.Host != "192.168.1.5" || d.pulledFor != "192.168.1.5" {
		t.Errorf("host = %q pulled = %q", res.Host, d.pulledFor)
	}
	if res.Imported != 1 || res.Total != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestPullDesktop_Failures(t *testing.T) {
	s, _, _ := newService(t)
	if _, err := s.PullDesktop(context.Background(), "h", nil); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("no desktop: err = %v", err)
	}

	d := &stubDesktop{err: apperr.ErrUnavailable}
	s, p, _ := newService(t, WithDesktop(d, nil))
	if _, err := s.PullDesktop(context.Background(), "10.0.0.2", nil); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("unreachable: err = %v", err)
	}
	if _, err := s.PullDesktop(context.Background(), "", nil); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("discovery: err = %v", err)
	}
	if p.SetCalled != 0 {
		t.Error("failed pulls must not write")
	}
}

func TestDeleteAndPin_NotFound(t *testing.T) {
	s, _, rec := newService(t)
	ctx := context.Background()
	if _, err := s.Delete(ctx, "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Delete err = %v", err)
	}
	if _, err := s.TogglePin(ctx, "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("TogglePin err = %v", err)
	}
	if len(rec.events) != 0 {
		t.Errorf("events = %v", rec.events)
	}
}

func TestExport(t *testing.T) {
	day := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	s, _, _ := newService(t, WithClock(func() time.Time { return day }))
	_, _ = s.Replace(context.Background(), []models.Item{{ID: "1", URL: "u"}})

	name, data, err := s.Export(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if name != "info-filter-backup-2024-03-09.json" {
		t.Errorf("name = %q", name)
	}
	items, err := collection.DecodeImport(data)
	if err != nil || len(items) != 1 {
		t.Errorf("export not importable: %v %v", items, err)
	}
}

func TestPreview_StaleDiscarded(t *testing.T) {
	f := &stubFetcher{md: metadata.Metadata{Title: "T", Image: "I"}}
	s, _, _ := newService(t, WithFetcher(f))

	// A newer request for the same client arrives while this one is in flight.
	f.hook = func() {
		f.hook = nil
		s.seq.Begin("tab")
	}
	stale := s.Preview(context.Background(), "tab", "https://go.dev")
	if !stale.Stale || stale.Title != "" || stale.Image != "" {
		t.Errorf("stale preview = %+v", stale)
	}

	fresh := s.Preview(context.Background(), "tab", "https://go.dev")
	if fresh.Stale || fresh.Title != "T" || fresh.Seq <= stale.Seq {
		t.Errorf("fresh preview = %+v", fresh)
	}
}

func TestSearch(t *testing.T) {
	s, _, _ := newService(t)
	ctx := context.Background()
	_, _ = s.Replace(ctx, []models.Item{
		{ID: "1", Title: "Effective Go"},
		{ID: "2", Title: "Rust book"},
		{ID: "3", Title: "", URL: "https://go.dev/doc/effective_go"},
	})

	got := s.Search(ctx, "effgo", 0)
	ids := strings.Join(models.IDs(got), ",")
	if !strings.Contains(ids, "1") {
		t.Fatalf("search = %s, want item 1", ids)
	}
	if strings.Contains(ids, "2") {
		t.Errorf("unrelated item matched: %s", ids)
	}
	if len(s.Search(ctx, "  ", 0)) != 0 {
		t.Error("empty query should match nothing")
	}
	if len(s.Search(ctx, "e", 1)) != 1 {
		t.Error("limit not applied")
	}
}

func TestNotifyExternalChange(t *testing.T) {
	s, _, rec := newService(t)
	s.NotifyExternalChange(itemstore.Key)
	if len(rec.events) != 1 || rec.events[0] != sse.TypeCollectionChanged {
		t.Errorf("events = %v", rec.events)
	}
}
