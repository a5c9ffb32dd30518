package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docintake-backend/internal/shared/telemetry"
)

// Service records and lists audit entries. Recording never fails the caller's
// primary operation: persistence errors are logged and swallowed.
type Service struct {
	Repo Repo
}

// Record appends an entry for a completed action.
func (s *Service) Record(ctx context.Context, fileName, action, status, errorMessage, userID string) {
	entry := Entry{
		ID:           uuid.NewString(),
		FileName:     fileName,
		Action:       action,
		Status:       status,
		ErrorMessage: errorMessage,
		UserID:       userID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Repo.Insert(ctx, entry); err != nil {
		telemetry.Error("audit.record_failed", map[string]any{
			"file_name": fileName,
			"action":    action,
			"status":    status,
			"error":     err.Error(),
		})
	}
}

// List returns entries newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	return s.Repo.List(ctx, limit, offset)
}
