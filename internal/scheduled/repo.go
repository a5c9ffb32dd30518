package scheduled

import (
	"context"
	"time"
)

// Repo persists the pending-upload queue.
type Repo interface {
	Enqueue(ctx context.Context, item PendingUpload) error
	// ClaimDue atomically removes and returns every item whose due time is at
	// or before now, oldest due first. The scheduler loop is the sole caller;
	// the claim-and-remove step is the single point of truth for "still
	// pending", so no item can be claimed twice.
	ClaimDue(ctx context.Context, now time.Time) ([]PendingUpload, error)
	Count(ctx context.Context) (int, error)
}
