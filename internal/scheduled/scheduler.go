package scheduled

import (
	"context"
	"errors"
	"time"

	"docintake-backend/internal/ingest"
	"docintake-backend/internal/shared/auth"
	"docintake-backend/internal/shared/metrics"
	"docintake-backend/internal/shared/telemetry"
)

// DefaultInterval is how often the scheduler polls for due items.
const DefaultInterval = 60 * time.Second

// Scheduler is the single recurring background task. Each tick it claims all
// due pending uploads and feeds them through the ingestion pipeline. Ticks do
// not overlap: the next poll waits for the previous batch to finish.
type Scheduler struct {
	Repo     Repo
	Pipeline *ingest.Pipeline
	Interval time.Duration
}

// Run polls until the context is cancelled. In-flight items finish; items not
// yet claimed stay queued for the next start.
func (s *Scheduler) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	telemetry.Info("scheduler.started", map[string]any{
		"interval_seconds": interval.Seconds(),
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			telemetry.Info("scheduler.stopped", nil)
			return
		case now := <-ticker.C:
			s.RunOnce(ctx, now)
		}
	}
}

// RunOnce claims everything due at the given instant and processes it.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) {
	items, err := s.Repo.ClaimDue(ctx, now)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			telemetry.Error("scheduler.claim_failed", map[string]any{"error": err.Error()})
		}
		return
	}
	if len(items) == 0 {
		return
	}

	telemetry.Info("scheduler.claimed", map[string]any{"count": len(items)})

	for _, item := range items {
		metrics.IncScheduledClaimed()
		s.process(ctx, item)
	}
}

// process feeds one claimed item to the pipeline. The item has already left
// the queue: on failure it is dropped, with the pipeline's own failure record
// and notification as the only trace.
func (s *Scheduler) process(ctx context.Context, item PendingUpload) {
	var identity *auth.Identity
	if item.UserID != "" || item.UserEmail != "" {
		identity = &auth.Identity{UserID: item.UserID, Email: item.UserEmail}
	}

	doc, err := s.Pipeline.Ingest(ctx, ingest.IngestInput{
		FileName:         item.FileName,
		ContentType:      item.ContentType,
		Data:             item.Data,
		CategoryOverride: item.Category,
		Identity:         identity,
	})
	if err != nil {
		metrics.IncScheduledDropped()
		telemetry.Warn("scheduler.item_dropped", map[string]any{
			"pending_id": item.ID,
			"file_name":  item.FileName,
			"error":      err.Error(),
		})
		return
	}

	metrics.IncScheduledCommitted()
	telemetry.Info("scheduler.item_committed", map[string]any{
		"pending_id": item.ID,
		"object_id":  doc.ID,
		"file_name":  doc.FileName,
		"category":   doc.Category,
	})
}
