package audit

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Insert appends an audit entry.
func (r *PGRepo) Insert(ctx context.Context, entry Entry) error {
	const query = `
INSERT INTO audit_entries (
    id,
    file_name,
    action,
    status,
    error_message,
    user_id,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var userID sql.NullString
	if entry.UserID != "" {
		userID = sql.NullString{String: entry.UserID, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.FileName,
		entry.Action,
		entry.Status,
		entry.ErrorMessage,
		userID,
		entry.CreatedAt,
	)
	return err
}

// List returns entries newest first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, file_name, action, status, error_message, user_id, created_at
FROM audit_entries
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		var userID sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.FileName,
			&entry.Action,
			&entry.Status,
			&entry.ErrorMessage,
			&userID,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if userID.Valid {
			entry.UserID = userID.String
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
