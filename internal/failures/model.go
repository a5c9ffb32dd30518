package failures

import (
	"errors"
	"time"
)

// Lifecycle states. A record starts open and reaches exactly one terminal state.
const (
	StatusOpen      = "open"
	StatusResolved  = "resolved" // resolved by a successful retry
	StatusCancelled = "cancelled"
)

var (
	// ErrNotFound covers both missing records and records the caller may not
	// act on (wrong owner, already terminal). Retry and cancel are not
	// silent no-ops.
	ErrNotFound = errors.New("failure record not found")
)

// Record is one logged failed attempt, retryable or cancellable by its owner.
type Record struct {
	ID           string
	UserID       string // empty for anonymous failures
	UserEmail    string
	FileName     string
	Action       string
	ErrorMessage string
	StagingKey   string // blob store id of the staged payload, if retained
	Status       string
	CreatedAt    time.Time
}
