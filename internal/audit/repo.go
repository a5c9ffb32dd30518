package audit

import "context"

// Repo persists audit entries. The log is append-only: entries are never
// mutated or deleted.
type Repo interface {
	Insert(ctx context.Context, entry Entry) error
	List(ctx context.Context, limit, offset int) ([]Entry, error)
}
