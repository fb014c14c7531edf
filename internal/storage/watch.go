package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"github.com/kexin94yyds/RI-Flow/internal/checksum"
)

// ChangeCallback is called with the key whose file was changed outside this process.
type ChangeCallback func(key string)

// Watch observes the FS data directory until ctx is cancelled and reports
// keys whose files were edited externally (another process, a sync tool, a
// hand edit). Bursts of events are coalesced with a debounce of delay, and
// changes whose content matches this process's own last write are dropped.
func Watch(ctx context.Context, f *FS, delay time.Duration, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(f.root); err != nil {
		return err
	}
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	logger.Info("watcher: started", slog.String("root", f.root))

	var mu sync.Mutex
	pending := make(map[string]struct{})
	debounced := debounce.New(delay)

	flush := func() {
		mu.Lock()
		keys := pending
		pending = make(map[string]struct{})
		mu.Unlock()

		for key := range keys {
			if ctx.Err() != nil {
				return
			}
			p, err := f.Path(key)
			if err != nil {
				continue
			}
			data, err := os.ReadFile(p)
			if err != nil {
				logger.Debug("watcher: read failed", slog.String("key", key), slog.String("error", err.Error()))
				continue
			}
			if checksum.Sum(data) == f.lastWritten(key) {
				continue
			}
			logger.Info("watcher: external change",
				slog.String("key", key),
				slog.String("checksum", checksum.Short(data)))
			if cb != nil {
				cb(key)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			mu.Lock()
			pending[strings.TrimSuffix(name, ".json")] = struct{}{}
			mu.Unlock()
			debounced(flush)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
