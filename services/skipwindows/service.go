package skipwindows

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
	ErrNotFound = errors.New("skip window not found")
)

// Registry is the persistence surface the service needs. Satisfied by
// *database.SkipWindowRepository.
type Registry interface {
	Save(ctx context.Context, window models.SkipWindow) error
	GetByContent(ctx context.Context, contentID string, contentType models.ContentType) (*models.SkipWindow, error)
	GetByID(ctx context.Context, id string) (*models.SkipWindow, error)
	DeleteByID(ctx context.Context, id string) (*models.SkipWindow, error)
}

// Service manages per-content intro/outro skip ranges. Lookups vastly
// outnumber writes; most content has no configured window at all.
type Service struct {
	repo Registry
	now  func() time.Time
}

func NewService(repo Registry) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// GetWindow is a point lookup by content. ErrNotFound is the expected result
// for unconfigured content.
func (s *Service) GetWindow(ctx context.Context, contentID string, contentType models.ContentType) (*models.SkipWindow, error) {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return nil, models.NewValidationError(models.CodeContentIDRequired, "content id is required")
	}
	if !contentType.Valid() {
		return nil, models.NewValidationError(models.CodeInvalidContentType, fmt.Sprintf("invalid content type %q", contentType))
	}

	window, err := s.repo.GetByContent(ctx, contentID, contentType)
	if err != nil {
		return nil, err
	}
	if window == nil {
		return nil, ErrNotFound
	}
	return window, nil
}

// UpsertWindow merges the partial update into any existing row for the same
// content and validates the merged result. It returns the stored window and
// whether a new row was created.
func (s *Service) UpsertWindow(ctx context.Context, up models.SkipWindowUpsert) (models.SkipWindow, bool, error) {
	up.ContentID = strings.TrimSpace(up.ContentID)
	if up.ContentID == "" {
		return models.SkipWindow{}, false, models.NewValidationError(models.CodeContentIDRequired, "content id is required")
	}
	if !up.ContentType.Valid() {
		return models.SkipWindow{}, false, models.NewValidationError(models.CodeInvalidContentType, fmt.Sprintf("invalid content type %q", up.ContentType))
	}

	existing, err := s.repo.GetByContent(ctx, up.ContentID, up.ContentType)
	if err != nil {
		return models.SkipWindow{}, false, err
	}

	window := models.SkipWindow{
		ID:          uuid.NewString(),
		ContentID:   up.ContentID,
		ContentType: up.ContentType,
	}
	if existing != nil {
		window = *existing
	}
	merge(&window, up)
	window.UpdatedAt = s.now()

	if err := validateBounds(window); err != nil {
		return models.SkipWindow{}, false, err
	}

	if err := s.repo.Save(ctx, window); err != nil {
		return models.SkipWindow{}, false, err
	}
	return window, existing == nil, nil
}

// UpdateWindow applies a partial update to the row with the given id.
func (s *Service) UpdateWindow(ctx context.Context, id string, up models.SkipWindowUpsert) (models.SkipWindow, error) {
	existing, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return models.SkipWindow{}, err
	}
	if existing == nil {
		return models.SkipWindow{}, ErrNotFound
	}

	window := *existing
	merge(&window, up)
	window.UpdatedAt = s.now()

	if err := validateBounds(window); err != nil {
		return models.SkipWindow{}, err
	}

	if err := s.repo.Save(ctx, window); err != nil {
		return models.SkipWindow{}, err
	}
	return window, nil
}

// DeleteWindow removes the row with the given id.
func (s *Service) DeleteWindow(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if deleted == nil {
		return ErrNotFound
	}
	return nil
}

func merge(window *models.SkipWindow, up models.SkipWindowUpsert) {
	if up.IntroStart != nil {
		window.IntroStart = up.IntroStart
	}
	if up.IntroEnd != nil {
		window.IntroEnd = up.IntroEnd
	}
	if up.OutroStart != nil {
		window.OutroStart = up.OutroStart
	}
	if up.OutroEnd != nil {
		window.OutroEnd = up.OutroEnd
	}
}

// validateBounds checks each fully specified pair after the merge: ends are
// strictly greater than starts, offsets are not negative. A half-specified
// pair is stored but never evaluated.
func validateBounds(window models.SkipWindow) error {
	for _, bound := range []*int{window.IntroStart, window.IntroEnd, window.OutroStart, window.OutroEnd} {
		if bound != nil && *bound < 0 {
			return models.NewValidationError(models.CodeNegativeBound, "window bounds must not be negative")
		}
	}
	if window.HasIntro() && *window.IntroEnd <= *window.IntroStart {
		return models.NewValidationError(models.CodeInvalidIntroWindow, "intro end must be greater than intro start")
	}
	if window.HasOutro() && *window.OutroEnd <= *window.OutroStart {
		return models.NewValidationError(models.CodeInvalidOutroWindow, "outro end must be greater than outro start")
	}
	return nil
}
