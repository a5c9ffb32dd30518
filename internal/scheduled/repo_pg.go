package scheduled

import (
	"context"
	"database/sql"
	"sort"
	"time"
)

// PGRepo implements Repo using Postgres. The payload travels in the row so a
// claimed item needs no second fetch.
type PGRepo struct {
	DB *sql.DB
}

// Enqueue stores a pending upload.
func (r *PGRepo) Enqueue(ctx context.Context, item PendingUpload) error {
	const query = `
INSERT INTO pending_uploads (
    id,
    file_name,
    content_type,
    payload,
    category,
    due_at,
    user_id,
    user_email,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		item.ID,
		item.FileName,
		item.ContentType,
		item.Data,
		nullString(item.Category),
		item.DueAt,
		nullString(item.UserID),
		nullString(item.UserEmail),
		item.CreatedAt,
	)
	return err
}

// ClaimDue deletes and returns all due items in one statement, so a claimed
// item can never be observed as pending again.
func (r *PGRepo) ClaimDue(ctx context.Context, now time.Time) ([]PendingUpload, error) {
	const query = `
DELETE FROM pending_uploads
WHERE due_at <= $1
RETURNING id, file_name, content_type, payload, category, due_at, user_id, user_email, created_at`

	rows, err := r.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingUpload
	for rows.Next() {
		var item PendingUpload
		var category, userID, userEmail sql.NullString
		if err := rows.Scan(
			&item.ID,
			&item.FileName,
			&item.ContentType,
			&item.Data,
			&category,
			&item.DueAt,
			&userID,
			&userEmail,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		if category.Valid {
			item.Category = category.String
		}
		if userID.Valid {
			item.UserID = userID.String
		}
		if userEmail.Valid {
			item.UserEmail = userEmail.String
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// DELETE..RETURNING row order is unspecified; the contract is oldest due
	// first.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueAt.Before(out[j].DueAt)
	})
	return out, nil
}

// Count returns the number of queued items.
func (r *PGRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_uploads`).Scan(&count)
	return count, err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
