package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatch(t *testing.T, s *FS) (*sync.Mutex, *[]string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var mu sync.Mutex
	var keys []string
	go Watch(ctx, s, 50*time.Millisecond, discardLogger(), func(key string) {
		mu.Lock()
		keys = append(keys, key)
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)
	return &mu, &keys
}

func TestWatch_ReportsExternalEdit(t *testing.T) {
	s := tempDataDir(t)
	mu, keys := startWatch(t, s)

	_ = os.WriteFile(filepath.Join(s.Root(), "items.json"), []byte(`[{"id":"x","url":"u"}]`), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, k := range *keys {
			if k == "items" {
				return true
			}
		}
		return false
	}, "external edit not reported")
}

func TestWatch_IgnoresOwnWrites(t *testing.T) {
	s := tempDataDir(t)
	mu, keys := startWatch(t, s)

	if err := s.Set(context.Background(), "items", []byte("[]")); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(s.Root(), "notes.txt"), []byte("ignored"), 0o644)

	time.Sleep(500 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(*keys) != 0 {
		t.Errorf("unexpected change callbacks: %v", *keys)
	}
}
