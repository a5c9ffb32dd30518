package failures

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Insert stores a new failure record.
func (r *PGRepo) Insert(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO failure_records (
    id,
    user_id,
    user_email,
    file_name,
    action,
    error_message,
    staging_key,
    status,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		rec.ID,
		nullString(rec.UserID),
		nullString(rec.UserEmail),
		rec.FileName,
		rec.Action,
		rec.ErrorMessage,
		nullString(rec.StagingKey),
		rec.Status,
		rec.CreatedAt,
	)
	return err
}

// GetByID fetches a record by id.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Record, error) {
	const query = `
SELECT id, user_id, user_email, file_name, action, error_message, staging_key, status, created_at
FROM failure_records
WHERE id = $1`

	var rec Record
	var userID, userEmail, stagingKey sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&userID,
		&userEmail,
		&rec.FileName,
		&rec.Action,
		&rec.ErrorMessage,
		&stagingKey,
		&rec.Status,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	if userID.Valid {
		rec.UserID = userID.String
	}
	if userEmail.Valid {
		rec.UserEmail = userEmail.String
	}
	if stagingKey.Valid {
		rec.StagingKey = stagingKey.String
	}
	return rec, nil
}

// ListOpenByUser returns the user's open records, newest first.
func (r *PGRepo) ListOpenByUser(ctx context.Context, userID string) ([]Record, error) {
	const query = `
SELECT id, user_id, user_email, file_name, action, error_message, staging_key, status, created_at
FROM failure_records
WHERE user_id = $1 AND status = $2
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, userID, StatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var uid, userEmail, stagingKey sql.NullString
		if err := rows.Scan(
			&rec.ID,
			&uid,
			&userEmail,
			&rec.FileName,
			&rec.Action,
			&rec.ErrorMessage,
			&stagingKey,
			&rec.Status,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if uid.Valid {
			rec.UserID = uid.String
		}
		if userEmail.Valid {
			rec.UserEmail = userEmail.String
		}
		if stagingKey.Valid {
			rec.StagingKey = stagingKey.String
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Transition updates a record's status only if it is currently in fromStatus.
func (r *PGRepo) Transition(ctx context.Context, id, fromStatus, toStatus string) (bool, error) {
	const query = `
UPDATE failure_records
SET status = $1
WHERE id = $2 AND status = $3`

	res, err := r.DB.ExecContext(ctx, query, toStatus, id, fromStatus)
	if err != nil {
		return false, err
	}
	updated, _ := res.RowsAffected()
	return updated > 0, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
