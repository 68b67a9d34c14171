package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"reelay/models"
)

// HistoryRepository is the append-only watch history log. Rows are never
// updated; the only delete path is the administrative purge.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Insert appends one history snapshot.
func (r *HistoryRepository) Insert(ctx context.Context, entry models.HistoryEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watch_history
			(id, user_id, content_id, content_type, title, poster_ref, watched_at, progress_seconds, total_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.ContentID, string(entry.ContentType),
		entry.Title, entry.PosterRef, entry.WatchedAt,
		entry.ProgressSeconds, entry.TotalSeconds)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// ListByUser returns entries with watched_at >= since, newest first,
// optionally filtered by content type, along with the total matching count.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, since time.Time, contentType models.ContentType, limit, offset int) ([]models.HistoryEntry, int, error) {
	where := "user_id = ? AND watched_at >= ?"
	args := []any{userID, since}
	if contentType != "" {
		where += " AND content_type = ?"
		args = append(args, string(contentType))
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM watch_history WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	query := `
		SELECT id, user_id, content_id, content_type, title, poster_ref, watched_at, progress_seconds, total_seconds
		FROM watch_history
		WHERE ` + where + `
		ORDER BY watched_at DESC, id`
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0, 16)
	for rows.Next() {
		var entry models.HistoryEntry
		var ct string
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.ContentID, &ct,
			&entry.Title, &entry.PosterRef, &entry.WatchedAt,
			&entry.ProgressSeconds, &entry.TotalSeconds); err != nil {
			return nil, 0, fmt.Errorf("scan history row: %w", err)
		}
		entry.ContentType = models.ContentType(ct)
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}

// PurgeUser removes all history rows for a user and reports how many were
// deleted.
func (r *HistoryRepository) PurgeUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM watch_history WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("purge history: %w", err)
	}
	return res.RowsAffected()
}
