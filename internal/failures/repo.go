package failures

import "context"

// Repo persists failure records.
type Repo interface {
	Insert(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, id string) (Record, error)
	// ListOpenByUser returns the user's open records, newest first.
	ListOpenByUser(ctx context.Context, userID string) ([]Record, error)
	// Transition moves a record from one status to another and reports whether
	// the record was in the expected state. Guards retry/cancel races.
	Transition(ctx context.Context, id, fromStatus, toStatus string) (bool, error)
}
