package scheduled

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.Mutex
	items map[string]PendingUpload
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]PendingUpload)}
}

// Enqueue stores a pending upload.
func (r *MemoryRepo) Enqueue(ctx context.Context, item PendingUpload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

// ClaimDue removes and returns all due items under one lock acquisition.
func (r *MemoryRepo) ClaimDue(ctx context.Context, now time.Time) ([]PendingUpload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []PendingUpload
	for id, item := range r.items {
		if !item.DueAt.After(now) {
			out = append(out, item)
			delete(r.items, id)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DueAt.Before(out[j].DueAt)
	})
	return out, nil
}

// Count returns the number of queued items.
func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items), nil
}

var _ Repo = (*MemoryRepo)(nil)
