package kv

import (
	"context"
	"sync"

	"github.com/linkdeck/linkdeck/internal/domain/links"
	"github.com/linkdeck/linkdeck/internal/domain/shared"
)

// MemoryLinkRepository implements links.LinkRepository using an in-memory map.
// This is suitable for single-instance deployments and testing. State is lost
// on restart.
type MemoryLinkRepository struct {
	mu    sync.RWMutex
	items map[string]links.Link
	order []string // keys in creation order
}

// NewMemoryLinkRepository creates a new in-memory link repository
func NewMemoryLinkRepository() *MemoryLinkRepository {
	return &MemoryLinkRepository{
		items: make(map[string]links.Link),
	}
}

// FindByKey retrieves a link by its key
func (r *MemoryLinkRepository) FindByKey(ctx context.Context, key string) (*links.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, exists := r.items[key]
	if !exists {
		return nil, shared.ErrNotFound
	}
	// Return a copy so callers cannot mutate stored state
	return &link, nil
}

// FindAll returns all links in creation order
func (r *MemoryLinkRepository) FindAll(ctx context.Context) ([]*links.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*links.Link, 0, len(r.order))
	for _, key := range r.order {
		if link, exists := r.items[key]; exists {
			l := link
			result = append(result, &l)
		}
	}
	return result, nil
}

// Save inserts or updates a link. Updates keep the original position.
func (r *MemoryLinkRepository) Save(ctx context.Context, link *links.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[link.Key]; !exists {
		r.order = append(r.order, link.Key)
	}
	r.items[link.Key] = *link
	return nil
}

// Delete removes a link by key
func (r *MemoryLinkRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[key]; !exists {
		return shared.ErrNotFound
	}
	delete(r.items, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ExistsByKey checks whether a link with the given key exists
func (r *MemoryLinkRepository) ExistsByKey(ctx context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.items[key]
	return exists, nil
}

// Count returns the number of stored links
func (r *MemoryLinkRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.items)), nil
}

// Ensure MemoryLinkRepository implements LinkRepository
var _ links.LinkRepository = (*MemoryLinkRepository)(nil)
