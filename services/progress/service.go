package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelay/models"
)

var (
	ErrNotFound = errors.New("progress record not found")
)

// Store is the persistence surface the service needs. Satisfied by
// *database.ProgressRepository.
type Store interface {
	Upsert(ctx context.Context, rec models.ProgressRecord) error
	Get(ctx context.Context, userID, contentID string, contentType models.ContentType) (*models.ProgressRecord, error)
	GetByID(ctx context.Context, id string) (*models.ProgressRecord, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.ProgressRecord, error)
	DeleteByID(ctx context.Context, id string) (*models.ProgressRecord, error)
}

// Service is the progress store: one row per (user, content, type), writes
// are upserts. Whether an existing row may be overwritten is decided by the
// configured ConflictPolicy.
type Service struct {
	repo                Store
	policy              ConflictPolicy
	completionThreshold float64
	now                 func() time.Time
}

// NewService constructs a progress service. A nil policy falls back to
// last-writer-wins; a non-positive threshold falls back to 0.95.
func NewService(repo Store, policy ConflictPolicy, completionThreshold float64) *Service {
	if policy == nil {
		policy = LastWriterWins()
	}
	if completionThreshold <= 0 || completionThreshold > 1 {
		completionThreshold = DefaultCompletionThreshold
	}
	return &Service{
		repo:                repo,
		policy:              policy,
		completionThreshold: completionThreshold,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

// DefaultCompletionThreshold is the progress fraction at or above which a
// title counts as finished and drops out of continue watching.
const DefaultCompletionThreshold = 0.95

// UpsertProgress validates and writes a position report. It returns the
// resulting record and whether a new row was created. When the conflict
// policy refuses the overwrite the stored record is returned unchanged.
func (s *Service) UpsertProgress(ctx context.Context, up models.ProgressUpsert) (models.ProgressRecord, bool, error) {
	up.UserID = strings.TrimSpace(up.UserID)
	up.ContentID = strings.TrimSpace(up.ContentID)

	if err := validateUpsert(up); err != nil {
		return models.ProgressRecord{}, false, err
	}

	existing, err := s.repo.Get(ctx, up.UserID, up.ContentID, up.ContentType)
	if err != nil {
		return models.ProgressRecord{}, false, err
	}

	if existing != nil && !s.policy.ShouldReplace(*existing, up) {
		return *existing, false, nil
	}

	rec := models.ProgressRecord{
		ID:              uuid.NewString(),
		UserID:          up.UserID,
		ContentID:       up.ContentID,
		ContentType:     up.ContentType,
		ProgressSeconds: up.ProgressSeconds,
		TotalSeconds:    up.TotalSeconds,
		LastWatchedAt:   s.now(),
	}
	if existing != nil {
		rec.ID = existing.ID
	}

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return models.ProgressRecord{}, false, err
	}
	return rec, existing == nil, nil
}

// GetProgress is a point lookup by key.
func (s *Service) GetProgress(ctx context.Context, userID, contentID string, contentType models.ContentType) (*models.ProgressRecord, error) {
	userID = strings.TrimSpace(userID)
	contentID = strings.TrimSpace(contentID)
	if userID == "" {
		return nil, models.NewValidationError(models.CodeUserIDRequired, "user id is required")
	}
	if contentID == "" {
		return nil, models.NewValidationError(models.CodeContentIDRequired, "content id is required")
	}
	if !contentType.Valid() {
		return nil, models.NewValidationError(models.CodeInvalidContentType, fmt.Sprintf("invalid content type %q", contentType))
	}

	rec, err := s.repo.Get(ctx, userID, contentID, contentType)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// ListProgress returns the user's records, newest first. A non-positive
// limit returns everything.
func (s *Service) ListProgress(ctx context.Context, userID string, limit, offset int) ([]models.ProgressRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, models.NewValidationError(models.CodeUserIDRequired, "user id is required")
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// ListInProgress filters out completed records (fraction >= threshold) before
// applying limit/offset, and returns the completion-filtered total.
func (s *Service) ListInProgress(ctx context.Context, userID string, limit, offset int) ([]models.ProgressRecord, int, error) {
	all, err := s.ListProgress(ctx, userID, 0, 0)
	if err != nil {
		return nil, 0, err
	}

	inProgress := make([]models.ProgressRecord, 0, len(all))
	for _, rec := range all {
		if rec.PercentWatched() >= s.completionThreshold {
			continue
		}
		inProgress = append(inProgress, rec)
	}

	total := len(inProgress)
	if offset > 0 {
		if offset >= total {
			inProgress = nil
		} else {
			inProgress = inProgress[offset:]
		}
	}
	if limit > 0 && len(inProgress) > limit {
		inProgress = inProgress[:limit]
	}
	return inProgress, total, nil
}

// DeleteProgress removes a record by id ("remove from continue watching").
// Deleting an unknown id reports ErrNotFound; repeating a delete is safe.
func (s *Service) DeleteProgress(ctx context.Context, id string) (*models.ProgressRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		return nil, ErrNotFound
	}
	return deleted, nil
}

func validateUpsert(up models.ProgressUpsert) error {
	if up.UserID == "" {
		return models.NewValidationError(models.CodeUserIDRequired, "user id is required")
	}
	if up.ContentID == "" {
		return models.NewValidationError(models.CodeContentIDRequired, "content id is required")
	}
	if !up.ContentType.Valid() {
		return models.NewValidationError(models.CodeInvalidContentType, fmt.Sprintf("invalid content type %q", up.ContentType))
	}
	if up.ProgressSeconds < 0 {
		return models.NewValidationError(models.CodeInvalidProgress, "progress seconds must not be negative")
	}
	if up.TotalSeconds <= 0 {
		return models.NewValidationError(models.CodeInvalidDuration, "total seconds must be positive")
	}
	if up.ProgressSeconds > up.TotalSeconds {
		return models.NewValidationError(models.CodeProgressExceeds, "progress seconds must not exceed total seconds")
	}
	return nil
}
