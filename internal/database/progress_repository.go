package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reelay/models"
)

// ProgressRepository persists the single latest playback position per
// (user, content, type) key.
type ProgressRepository struct {
	db *sql.DB
}

func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

const progressColumns = "id, user_id, content_id, content_type, progress_seconds, total_seconds, last_watched_at"

// Upsert inserts the record or overwrites the existing row for the same key.
// The caller decides whether an overwrite is permitted; the repository applies
// it unconditionally.
func (r *ProgressRepository) Upsert(ctx context.Context, rec models.ProgressRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watch_progress (`+progressColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, content_id, content_type) DO UPDATE SET
			progress_seconds = excluded.progress_seconds,
			total_seconds = excluded.total_seconds,
			last_watched_at = excluded.last_watched_at`,
		rec.ID, rec.UserID, rec.ContentID, string(rec.ContentType),
		rec.ProgressSeconds, rec.TotalSeconds, rec.LastWatchedAt)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// Get returns the record for the key, or nil when absent.
func (r *ProgressRepository) Get(ctx context.Context, userID, contentID string, contentType models.ContentType) (*models.ProgressRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+progressColumns+` FROM watch_progress
		WHERE user_id = ? AND content_id = ? AND content_type = ?`,
		userID, contentID, string(contentType))
	return scanProgress(row)
}

// GetByID returns the record with the given id, or nil when absent.
func (r *ProgressRepository) GetByID(ctx context.Context, id string) (*models.ProgressRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+progressColumns+` FROM watch_progress WHERE id = ?`, id)
	return scanProgress(row)
}

// ListByUser returns records ordered by last watched time, newest first.
// A non-positive limit returns all records.
func (r *ProgressRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.ProgressRecord, error) {
	query := `
		SELECT ` + progressColumns + ` FROM watch_progress
		WHERE user_id = ?
		ORDER BY last_watched_at DESC, id`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	records := make([]models.ProgressRecord, 0, 16)
	for rows.Next() {
		var rec models.ProgressRecord
		var ct string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ContentID, &ct,
			&rec.ProgressSeconds, &rec.TotalSeconds, &rec.LastWatchedAt); err != nil {
			return nil, fmt.Errorf("scan progress row: %w", err)
		}
		rec.ContentType = models.ContentType(ct)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteByID removes the record and returns it, or nil when no row matched.
func (r *ProgressRepository) DeleteByID(ctx context.Context, id string) (*models.ProgressRecord, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM watch_progress WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete progress: %w", err)
	}
	return existing, nil
}

func scanProgress(row *sql.Row) (*models.ProgressRecord, error) {
	var rec models.ProgressRecord
	var ct string
	err := row.Scan(&rec.ID, &rec.UserID, &rec.ContentID, &ct,
		&rec.ProgressSeconds, &rec.TotalSeconds, &rec.LastWatchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan progress: %w", err)
	}
	rec.ContentType = models.ContentType(ct)
	return &rec, nil
}
