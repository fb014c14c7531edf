// Package testutil provides shared test helpers for setting up storage backends.
package testutil

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kexin94yyds/RI-Flow/internal/apperr"
	"github.com/kexin94yyds/RI-Flow/internal/storage"
)

// TestSQLite creates a temporary SQLite-backed provider that is automatically closed.
func TestSQLite(t *testing.T) storage.Provider {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "infofilter-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDataDir creates a temporary data directory with a file provider.
func TestDataDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// Logger returns a logger that discards all output.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// ErrInjected is returned by FlakyProvider when a failure is switched on.
var ErrInjected = errors.New("injected failure")

// FlakyProvider is an in-memory Provider whose reads and writes can be made to fail.
type FlakyProvider struct {
	mu        sync.Mutex
	data      map[string][]byte
	FailGet   bool
	FailSet   bool
	SetCalled int
}

// NewFlakyProvider returns an empty in-memory provider.
func NewFlakyProvider() *FlakyProvider {
	return &FlakyProvider{data: make(map[string][]byte)}
}

func (p *FlakyProvider) Name() string { return "memory" }

func (p *FlakyProvider) Get(_ context.Context, key string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailGet {
		return nil, ErrInjected
	}
	v, ok := p.data[key]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (p *FlakyProvider) Set(_ context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SetCalled++
	if p.FailSet {
		return ErrInjected
	}
	p.data[key] = append([]byte(nil), value...)
	return nil
}

// Raw returns the stored bytes for key, or nil.
func (p *FlakyProvider) Raw(key string) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data[key]
}

// SetFail switches injected failures on or off.
func (p *FlakyProvider) SetFail(get, set bool) {
	p.mu.Lock()
	p.FailGet, p.FailSet = get, set
	p.mu.Unlock()
}

func (p *FlakyProvider) Close() error { return nil }
