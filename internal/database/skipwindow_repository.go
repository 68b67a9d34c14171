package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reelay/models"
)

// SkipWindowRepository stores the configured intro/outro ranges, keyed
// uniquely on (content_id, content_type).
type SkipWindowRepository struct {
	db *sql.DB
}

func NewSkipWindowRepository(db *sql.DB) *SkipWindowRepository {
	return &SkipWindowRepository{db: db}
}

const skipColumns = "id, content_id, content_type, intro_start, intro_end, outro_start, outro_end, updated_at"

// Save writes the full row, replacing any existing row for the same content.
// Merge semantics for partial updates live in the service layer.
func (r *SkipWindowRepository) Save(ctx context.Context, window models.SkipWindow) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO skip_windows (`+skipColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (content_id, content_type) DO UPDATE SET
			intro_start = excluded.intro_start,
			intro_end = excluded.intro_end,
			outro_start = excluded.outro_start,
			outro_end = excluded.outro_end,
			updated_at = excluded.updated_at`,
		window.ID, window.ContentID, string(window.ContentType),
		window.IntroStart, window.IntroEnd, window.OutroStart, window.OutroEnd,
		window.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save skip window: %w", err)
	}
	return nil
}

// GetByContent returns the window for a content item, or nil when none is
// configured. Absence is the normal case for most content.
func (r *SkipWindowRepository) GetByContent(ctx context.Context, contentID string, contentType models.ContentType) (*models.SkipWindow, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+skipColumns+` FROM skip_windows
		WHERE content_id = ? AND content_type = ?`,
		contentID, string(contentType))
	return scanSkipWindow(row)
}

// GetByID returns the window with the given id, or nil when absent.
func (r *SkipWindowRepository) GetByID(ctx context.Context, id string) (*models.SkipWindow, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+skipColumns+` FROM skip_windows WHERE id = ?`, id)
	return scanSkipWindow(row)
}

// DeleteByID removes the window and returns it, or nil when no row matched.
func (r *SkipWindowRepository) DeleteByID(ctx context.Context, id string) (*models.SkipWindow, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM skip_windows WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete skip window: %w", err)
	}
	return existing, nil
}

func scanSkipWindow(row *sql.Row) (*models.SkipWindow, error) {
	var window models.SkipWindow
	var ct string
	err := row.Scan(&window.ID, &window.ContentID, &ct,
		&window.IntroStart, &window.IntroEnd, &window.OutroStart, &window.OutroEnd,
		&window.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan skip window: %w", err)
	}
	window.ContentType = models.ContentType(ct)
	return &window, nil
}
