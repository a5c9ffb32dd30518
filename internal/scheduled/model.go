package scheduled

import "time"

// PendingUpload is a file staged for processing at a future time. The queue
// owns it exclusively until the scheduler claims and removes it; a successful
// commit converts it into a stored document and leaves no other trace.
type PendingUpload struct {
	ID          string
	FileName    string
	ContentType string
	Data        []byte
	Category    string // requested override; empty or "all" means auto-classify
	DueAt       time.Time
	UserID      string
	UserEmail   string
	CreatedAt   time.Time
}
