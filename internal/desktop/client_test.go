package desktop

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kexin94yyds/RI-Flow/internal/apperr"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func hostOf(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

func newDesktop(t *testing.T, body string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	mux.HandleFunc("/api/items", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPull_Success(t *testing.T) {
	srv := newDesktop(t, `[{"id":"1","url":"https://go.dev","pinned":true},{"id":"2","url":"https://x.com/a"}]`)
	c := NewClient(DefaultPort, time.Second, discardLogger())

	items, err := c.Pull(context.Background(), hostOf(srv))
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if len(items) != 2 || items[0].ID != "1" || !items[0].Pinned {
		t.Errorf("items = %+v", items)
	}
}

func TestPull_FormatError(t *testing.T) {
	srv := newDesktop(t, `{"not":"an array"}`)
	c := NewClient(DefaultPort, time.Second, discardLogger())

	_, err := c.Pull(context.Background(), hostOf(srv))
	if !errors.Is(err, apperr.ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
}

func TestPull_Unavailable(t *testing.T) {
	c := NewClient(DefaultPort, 300*time.Millisecond, discardLogger())

	for _, host := range []string{"", "127.0.0.1:1"} {
		if _, err := c.Pull(context.Background(), host); !errors.Is(err, apperr.ErrUnavailable) {
			t.Errorf("Pull(%q) err = %v, want ErrUnavailable", host, err)
		}
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer broken.Close()
	if _, err := c.Pull(context.Background(), hostOf(broken)); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestBaseURL(t *testing.T) {
	c := NewClient(0, 0, discardLogger())
	tests := map[string]string{
		"192.168.1.20":            "http://192.168.1.20:3000",
		"desk.local:8080":         "http://desk.local:8080",
		"http://desk.local:3001/": "http://desk.local:3001",
	}
	for in, want := range tests {
		if got := c.BaseURL(in); got != want {
			t.Errorf("BaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDiscover(t *testing.T) {
	srv := newDesktop(t, `[]`)
	c := NewClient(DefaultPort, 300*time.Millisecond, discardLogger())

	host, err := c.Discover(context.Background(), []string{"127.0.0.1:1", hostOf(srv)})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if host != hostOf(srv) {
		t.Errorf("host = %q", host)
	}
}

func TestDiscover_NoneAnswer(t *testing.T) {
	c := NewClient(DefaultPort, 300*time.Millisecond, discardLogger())

	if _, err := c.Discover(context.Background(), nil); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("empty candidates err = %v", err)
	}
	if _, err := c.Discover(context.Background(), []string{"127.0.0.1:1"}); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("dead host err = %v", err)
	}
}
