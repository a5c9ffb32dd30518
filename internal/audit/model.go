package audit

import "time"

// Action identifies the operation an audit entry records.
const (
	ActionUpload = "upload"
	ActionDelete = "delete"
	ActionRename = "rename"
)

// Entry statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Entry is one immutable record of a completed action, success or failure.
type Entry struct {
	ID           string
	FileName     string
	Action       string
	Status       string
	ErrorMessage string
	UserID       string // empty for anonymous callers
	CreatedAt    time.Time
}
