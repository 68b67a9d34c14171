package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelay/models"
)

// DefaultSinceDays bounds a history listing when the caller does not supply
// a window.
const DefaultSinceDays = 30

// Log is the persistence surface the service needs. Satisfied by
// *database.HistoryRepository.
type Log interface {
	Insert(ctx context.Context, entry models.HistoryEntry) error
	ListByUser(ctx context.Context, userID string, since time.Time, contentType models.ContentType, limit, offset int) ([]models.HistoryEntry, int, error)
	PurgeUser(ctx context.Context, userID string) (int64, error)
}

// Service is the append-only watch history log.
type Service struct {
	repo Log
	now  func() time.Time
}

func NewService(repo Log) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// AppendHistory records one viewing session snapshot. It always inserts a
// new row; WatchedAt defaults to the time of the call.
func (s *Service) AppendHistory(ctx context.Context, a models.HistoryAppend) (models.HistoryEntry, error) {
	a.UserID = strings.TrimSpace(a.UserID)
	a.ContentID = strings.TrimSpace(a.ContentID)
	a.Title = strings.TrimSpace(a.Title)

	if err := validateAppend(a); err != nil {
		return models.HistoryEntry{}, err
	}

	watchedAt := a.WatchedAt
	if watchedAt.IsZero() {
		watchedAt = s.now()
	}

	entry := models.HistoryEntry{
		ID:              uuid.NewString(),
		UserID:          a.UserID,
		ContentID:       a.ContentID,
		ContentType:     a.ContentType,
		Title:           a.Title,
		PosterRef:       a.PosterRef,
		WatchedAt:       watchedAt,
		ProgressSeconds: a.ProgressSeconds,
		TotalSeconds:    a.TotalSeconds,
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		return models.HistoryEntry{}, err
	}
	return entry, nil
}

// ListHistory returns entries newer than now minus SinceDays, newest first,
// optionally filtered by content type, with a total count for pagination.
func (s *Service) ListHistory(ctx context.Context, q models.HistoryQuery) (models.HistoryPage, error) {
	q.UserID = strings.TrimSpace(q.UserID)
	if q.UserID == "" {
		return models.HistoryPage{}, models.NewValidationError(models.CodeUserIDRequired, "user id is required")
	}
	if q.ContentType != "" && !q.ContentType.Valid() {
		return models.HistoryPage{}, models.NewValidationError(models.CodeInvalidContentType, fmt.Sprintf("invalid content type %q", q.ContentType))
	}
	if q.SinceDays <= 0 {
		q.SinceDays = DefaultSinceDays
	}

	since := s.now().AddDate(0, 0, -q.SinceDays)
	entries, total, err := s.repo.ListByUser(ctx, q.UserID, since, q.ContentType, q.Limit, q.Offset)
	if err != nil {
		return models.HistoryPage{}, err
	}

	return models.HistoryPage{
		Entries: entries,
		Pagination: models.Pagination{
			Limit:   q.Limit,
			Offset:  q.Offset,
			Total:   total,
			HasMore: q.Limit > 0 && q.Offset+len(entries) < total,
		},
	}, nil
}

// PurgeHistory removes every entry for a user. This is the only delete path;
// normal operation never mutates the log.
func (s *Service) PurgeHistory(ctx context.Context, userID string) (int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, models.NewValidationError(models.CodeUserIDRequired, "user id is required")
	}
	return s.repo.PurgeUser(ctx, userID)
}

func validateAppend(a models.HistoryAppend) error {
	if a.UserID == "" {
		return models.NewValidationError(models.CodeUserIDRequired, "user id is required")
	}
	if a.ContentID == "" {
		return models.NewValidationError(models.CodeContentIDRequired, "content id is required")
	}
	if a.Title == "" {
		return models.NewValidationError(models.CodeTitleRequired, "title is required")
	}
	if !a.ContentType.Valid() {
		return models.NewValidationError(models.CodeInvalidContentType, fmt.Sprintf("invalid content type %q", a.ContentType))
	}
	if a.ProgressSeconds < 0 {
		return models.NewValidationError(models.CodeInvalidProgress, "progress seconds must not be negative")
	}
	if a.TotalSeconds <= 0 {
		return models.NewValidationError(models.CodeInvalidDuration, "total seconds must be positive")
	}
	if a.ProgressSeconds > a.TotalSeconds {
		return models.NewValidationError(models.CodeProgressExceeds, "progress seconds must not exceed total seconds")
	}
	return nil
}
