package failures

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"docintake-backend/internal/ingest"
	"docintake-backend/internal/shared/auth"
	"docintake-backend/internal/shared/storage/object"
	"docintake-backend/internal/shared/telemetry"
)

// Service owns the failure ledger: recording, listing, retry, and cancel.
type Service struct {
	Repo     Repo
	Store    object.ObjectStore
	Pipeline *ingest.Pipeline
}

// RecordFailure appends a failure record. It never fails the operation that
// produced the report; persistence errors are logged and swallowed.
func (s *Service) RecordFailure(ctx context.Context, report ingest.FailureReport) {
	rec := Record{
		ID:           uuid.NewString(),
		FileName:     report.FileName,
		Action:       report.Action,
		ErrorMessage: report.ErrorMessage,
		StagingKey:   report.StagingKey,
		Status:       StatusOpen,
		CreatedAt:    time.Now().UTC(),
	}
	if report.Identity != nil {
		rec.UserID = report.Identity.UserID
		rec.UserEmail = report.Identity.Email
	}
	if err := s.Repo.Insert(ctx, rec); err != nil {
		telemetry.Error("failures.record_failed", map[string]any{
			"file_name": report.FileName,
			"error":     err.Error(),
		})
	}
}

// ListOpen returns the caller's open failure records, newest first.
func (s *Service) ListOpen(ctx context.Context, identity *auth.Identity) ([]Record, error) {
	return s.Repo.ListOpenByUser(ctx, identity.UserID)
}

// Retry re-runs the ingestion pipeline from the record's staged payload and
// resolves the record on success. Records that do not exist, belong to another
// user, are already terminal, or retained no payload all surface as ErrNotFound.
func (s *Service) Retry(ctx context.Context, id string, identity *auth.Identity) (ingest.Document, error) {
	rec, err := s.owned(ctx, id, identity)
	if err != nil {
		return ingest.Document{}, err
	}
	if rec.StagingKey == "" {
		return ingest.Document{}, ErrNotFound
	}

	info, err := s.Store.Stat(ctx, rec.StagingKey)
	if err != nil {
		return ingest.Document{}, fmt.Errorf("staged payload: %w", err)
	}
	body, err := s.Store.Open(ctx, rec.StagingKey)
	if err != nil {
		return ingest.Document{}, fmt.Errorf("staged payload: %w", err)
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return ingest.Document{}, fmt.Errorf("read staged payload: %w", err)
	}

	// Run without the failure sink so a failed retry does not append a
	// duplicate record; the original stays open for another attempt.
	pl := *s.Pipeline
	pl.Failures = nil

	doc, err := pl.Ingest(ctx, ingest.IngestInput{
		FileName:         rec.FileName,
		ContentType:      info.Metadata[object.MetaContentType],
		Data:             data,
		CategoryOverride: info.Metadata[object.MetaCategory],
		Identity:         identity,
	})
	if err != nil {
		return ingest.Document{}, err
	}

	if _, err := s.Repo.Transition(ctx, rec.ID, StatusOpen, StatusResolved); err != nil {
		telemetry.Error("failures.resolve_failed", map[string]any{
			"failure_id": rec.ID,
			"error":      err.Error(),
		})
	}
	if err := s.Store.Delete(ctx, rec.StagingKey); err != nil {
		telemetry.Warn("failures.staging_cleanup_failed", map[string]any{
			"failure_id":  rec.ID,
			"staging_key": rec.StagingKey,
			"error":       err.Error(),
		})
	}
	return doc, nil
}

// Cancel moves an open record to the cancelled state. Same ownership rules as
// Retry; cancelling a terminal record is an error, not a no-op.
func (s *Service) Cancel(ctx context.Context, id string, identity *auth.Identity) error {
	rec, err := s.owned(ctx, id, identity)
	if err != nil {
		return err
	}
	updated, err := s.Repo.Transition(ctx, rec.ID, StatusOpen, StatusCancelled)
	if err != nil {
		return err
	}
	if !updated {
		return ErrNotFound
	}
	if rec.StagingKey != "" {
		if err := s.Store.Delete(ctx, rec.StagingKey); err != nil {
			telemetry.Warn("failures.staging_cleanup_failed", map[string]any{
				"failure_id":  rec.ID,
				"staging_key": rec.StagingKey,
				"error":       err.Error(),
			})
		}
	}
	return nil
}

func (s *Service) owned(ctx context.Context, id string, identity *auth.Identity) (Record, error) {
	if identity == nil || identity.UserID == "" {
		return Record{}, ErrNotFound
	}
	rec, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.UserID != identity.UserID || rec.Status != StatusOpen {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

var _ ingest.FailureSink = (*Service)(nil)
