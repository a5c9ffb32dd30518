package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docintake-backend/internal/audit"
	"docintake-backend/internal/classify"
	"docintake-backend/internal/extract"
	"docintake-backend/internal/notify"
	"docintake-backend/internal/shared/auth"
	"docintake-backend/internal/shared/metrics"
	"docintake-backend/internal/shared/storage/object"
	"docintake-backend/internal/shared/telemetry"
)

// ErrInvalidFileType marks uploads rejected by the intake validator.
var ErrInvalidFileType = errors.New("invalid file type")

// ErrEmptyFileName marks uploads with no file name. Rejected before any
// reporting: every failure record names a real file.
var ErrEmptyFileName = errors.New("file name is required")

// FailureReport describes a failed ingest step for the failure ledger.
type FailureReport struct {
	FileName     string
	Action       string
	ErrorMessage string
	StagingKey   string
	Identity     *auth.Identity
}

// FailureSink receives failure reports. Recording must never fail the ingest
// that produced the report.
type FailureSink interface {
	RecordFailure(ctx context.Context, report FailureReport)
}

// IngestInput is one file to run through the pipeline.
type IngestInput struct {
	FileName         string
	ContentType      string
	Data             []byte
	CategoryOverride string
	Identity         *auth.Identity
}

// Document is the committed artifact produced by a successful ingest.
type Document struct {
	ID          string
	FileName    string
	ContentType string
	Category    string
	SizeBytes   int64
	UploadedAt  time.Time
}

// Pipeline runs validate → extract → classify → store → audit for one file.
// Each file is independent: a failure here never aborts sibling files in the
// same request.
type Pipeline struct {
	Store      object.ObjectStore
	Extractor  extract.TextExtractor
	Classifier *classify.Classifier
	Failures   FailureSink
	Audit      *audit.Service
	Notifier   notify.Notifier
}

// Ingest processes one file. On validation or extraction failure it records a
// FailureRecord, triggers the notifier when the caller is known, and returns
// the step error. Storage failures additionally land in the audit ledger.
func (p *Pipeline) Ingest(ctx context.Context, in IngestInput) (Document, error) {
	metrics.IncIngestStarted()
	start := time.Now()
	defer func() {
		metrics.ObserveIngestDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if strings.TrimSpace(in.FileName) == "" {
		metrics.IncIngestRejected()
		return Document{}, ErrEmptyFileName
	}

	if !ValidatePDF(in.ContentType, in.FileName) {
		p.reportFailure(ctx, in, InvalidFileTypeMessage, "")
		metrics.IncIngestRejected()
		return Document{}, fmt.Errorf("%w: %s", ErrInvalidFileType, in.FileName)
	}

	text, err := p.Extractor.Extract(ctx, in.Data, in.FileName)
	if err != nil {
		stagingKey := p.stagePayload(ctx, in)
		p.reportFailure(ctx, in, diagnostic(err), stagingKey)
		metrics.IncIngestFailed()
		return Document{}, err
	}

	category := p.Classifier.Resolve(in.CategoryOverride, text)

	userID := ""
	if in.Identity != nil {
		userID = in.Identity.UserID
	}

	meta := object.Metadata{
		object.MetaContentType:   in.ContentType,
		object.MetaExtractedText: text,
		object.MetaCategory:      category,
	}
	id, size, err := p.Store.Save(ctx, in.FileName, meta, bytes.NewReader(in.Data))
	if err != nil {
		p.recordAudit(ctx, in.FileName, audit.StatusFailed, err.Error(), userID)
		metrics.IncIngestFailed()
		return Document{}, fmt.Errorf("store %s: %w", in.FileName, err)
	}

	p.recordAudit(ctx, in.FileName, audit.StatusSuccess, "", userID)
	metrics.IncIngestCompleted()

	telemetry.Info("ingest.committed", map[string]any{
		"file_name": in.FileName,
		"object_id": id,
		"category":  category,
		"bytes":     size,
	})

	return Document{
		ID:          id,
		FileName:    in.FileName,
		ContentType: in.ContentType,
		Category:    category,
		SizeBytes:   size,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// stagePayload keeps the raw bytes so a later retry can re-run the pipeline.
// Best effort: staging failure only means the record is not retryable.
func (p *Pipeline) stagePayload(ctx context.Context, in IngestInput) string {
	meta := object.Metadata{
		object.MetaContentType: in.ContentType,
		object.MetaStaging:     "true",
	}
	if in.CategoryOverride != "" {
		meta[object.MetaCategory] = in.CategoryOverride
	}
	id, _, err := p.Store.Save(ctx, in.FileName, meta, bytes.NewReader(in.Data))
	if err != nil {
		telemetry.Error("ingest.stage_failed", map[string]any{
			"file_name": in.FileName,
			"error":     err.Error(),
		})
		return ""
	}
	return id
}

func (p *Pipeline) recordAudit(ctx context.Context, fileName, status, message, userID string) {
	if p.Audit != nil {
		p.Audit.Record(ctx, fileName, audit.ActionUpload, status, message, userID)
	}
}

func (p *Pipeline) reportFailure(ctx context.Context, in IngestInput, message, stagingKey string) {
	if p.Failures != nil {
		p.Failures.RecordFailure(ctx, FailureReport{
			FileName:     in.FileName,
			Action:       audit.ActionUpload,
			ErrorMessage: message,
			StagingKey:   stagingKey,
			Identity:     in.Identity,
		})
	}
	if in.Identity != nil && in.Identity.Email != "" {
		notify.Trigger(ctx, p.Notifier, in.Identity.Email, in.FileName, message)
	}
}

func diagnostic(err error) string {
	var extractionErr *extract.ExtractionError
	if errors.As(err, &extractionErr) {
		return extractionErr.Diagnostic()
	}
	return err.Error()
}
