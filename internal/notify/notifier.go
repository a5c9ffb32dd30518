package notify

import (
	"context"

	"docintake-backend/internal/shared/telemetry"
)

// Notifier delivers a failure notice to a destination address. Delivery is
// fire-and-forget: a notifier error never fails the operation that triggered it.
type Notifier interface {
	Notify(ctx context.Context, email, fileName, errorMessage string) error
}

// LogNotifier records the notice in the process log instead of delivering mail.
// It stands in for the real delivery channel in dev and tests.
type LogNotifier struct{}

// Notify logs the notice.
func (LogNotifier) Notify(ctx context.Context, email, fileName, errorMessage string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	telemetry.Info("notify.failure", map[string]any{
		"email":     email,
		"file_name": fileName,
		"error":     errorMessage,
	})
	return nil
}

// Trigger invokes the notifier and swallows its errors, logging them to the
// operational channel. Safe to call with an empty email (no-op).
func Trigger(ctx context.Context, n Notifier, email, fileName, errorMessage string) {
	if n == nil || email == "" {
		return
	}
	if err := n.Notify(ctx, email, fileName, errorMessage); err != nil {
		telemetry.Error("notify.failed", map[string]any{
			"email":     email,
			"file_name": fileName,
			"error":     err.Error(),
		})
	}
}

var _ Notifier = LogNotifier{}
