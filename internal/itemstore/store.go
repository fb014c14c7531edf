// Package itemstore owns the persisted item collection.
//
// The whole collection lives as one JSON array under a single key of a
// storage.Provider. Every operation is a read-modify-write of that blob
// under one mutex and returns the resulting full collection.
package itemstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kexin94yyds/RI-Flow/internal/apperr"
	"github.com/kexin94yyds/RI-Flow/internal/collection"
	"github.com/kexin94yyds/RI-Flow/internal/models"
	"github.com/kexin94yyds/RI-Flow/internal/storage"
)

// Key is the storage key holding the collection.
const Key = "items"

// Store persists the item collection.
type Store struct {
	mu       sync.Mutex
	provider storage.Provider
	logger   *slog.Logger
}

// New creates a Store over provider.
func New(provider storage.Provider, logger *slog.Logger) *Store {
	return &Store{provider: provider, logger: logger}
}

// GetAll returns the stored collection. Read failures yield an empty collection.
func (s *Store) GetAll(ctx context.Context) []models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Save prepends item and returns the new collection.
func (s *Store) Save(ctx context.Context, item models.Item) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.load(ctx)
	next := make([]models.Item, 0, len(prev)+1)
	next = append(next, item)
	next = append(next, prev...)
	return s.commit(ctx, prev, collection.SortPinnedFirst(next))
}

// Delete removes the item with id.
func (s *Store) Delete(ctx context.Context, id string) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.load(ctx)
	next := make([]models.Item, 0, len(prev))
	for _, it := range prev {
		if it.ID != id {
			next = append(next, it)
		}
	}
	if len(next) == len(prev) {
		return prev, fmt.Errorf("itemstore: delete %s: %w", id, apperr.ErrNotFound)
	}
	return s.commit(ctx, prev, next)
}

// ReplaceAll persists items as the new collection, re-applying the pinned-first order.
func (s *Store) ReplaceAll(ctx context.Context, items []models.Item) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.load(ctx)
	return s.commit(ctx, prev, collection.SortPinnedFirst(items))
}

// Update applies fn to the current collection and persists its result in the
// same critical section. Used for merges that must read and write atomically.
func (s *Store) Update(ctx context.Context, fn func(current []models.Item) ([]models.Item, error)) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.load(ctx)
	next, err := fn(prev)
	if err != nil {
		return prev, err
	}
	return s.commit(ctx, prev, collection.SortPinnedFirst(next))
}

// TogglePin flips the pinned flag of id and moves it to its partition.
func (s *Store) TogglePin(ctx context.Context, id string) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.load(ctx)
	next := make([]models.Item, len(prev))
	copy(next, prev)

	found := false
	for i := range next {
		if next[i].ID == id {
			next[i].Pinned = !next[i].Pinned
			found = true
			break
		}
	}
	if !found {
		return prev, fmt.Errorf("itemstore: toggle pin %s: %w", id, apperr.ErrNotFound)
	}
	return s.commit(ctx, prev, collection.SortPinnedFirst(next))
}

func (s *Store) load(ctx context.Context) []models.Item {
	data, err := s.provider.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("itemstore: read failed, using empty collection",
				slog.String("backend", s.provider.Name()),
				slog.String("error", err.Error()))
		}
		return []models.Item{}
	}

	var items []models.Item
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("itemstore: stored collection unreadable, using empty collection",
			slog.String("error", err.Error()))
		return []models.Item{}
	}
	if items == nil {
		items = []models.Item{}
	}
	return items
}

func (s *Store) commit(ctx context.Context, prev, next []models.Item) ([]models.Item, error) {
	if next == nil {
		next = []models.Item{}
	}
	data, err := json.Marshal(next)
	if err != nil {
		return prev, fmt.Errorf("itemstore: encode: %w", errors.Join(apperr.ErrStorage, err))
	}
	if err := s.provider.Set(ctx, Key, data); err != nil {
		s.logger.Error("itemstore: write failed",
			slog.String("backend", s.provider.Name()),
			slog.String("error", err.Error()))
		return prev, fmt.Errorf("itemstore: write: %w", errors.Join(apperr.ErrStorage, err))
	}
	return next, nil
}
