package continuewatching

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"reelay/models"
	"reelay/services/catalog"
)

// maxEnrichWorkers bounds the catalog fan-out per request.
const maxEnrichWorkers = 4

// ProgressLister is the slice of the progress service the aggregator needs.
type ProgressLister interface {
	ListInProgress(ctx context.Context, userID string, limit, offset int) ([]models.ProgressRecord, int, error)
}

// Service builds the continue-watching shelf: the user's in-progress records,
// enriched with display metadata from the external catalog.
type Service struct {
	progress ProgressLister
	catalog  catalog.Provider
	logger   *slog.Logger
}

func NewService(progress ProgressLister, provider catalog.Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{progress: progress, catalog: provider, logger: logger}
}

// List returns one page of in-progress items with the completion-filtered
// total. Per-item catalog lookups run concurrently; a failed lookup degrades
// that item to a minimal row instead of failing the page.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) (models.ContinueWatchingPage, error) {
	records, total, err := s.progress.ListInProgress(ctx, userID, limit, offset)
	if err != nil {
		return models.ContinueWatchingPage{}, err
	}

	items := make([]models.ContinueWatchingItem, len(records))
	p := pool.New().WithMaxGoroutines(maxEnrichWorkers)
	for i, rec := range records {
		p.Go(func() {
			items[i] = s.enrich(ctx, rec)
		})
	}
	p.Wait()

	return models.ContinueWatchingPage{
		Items: items,
		Pagination: models.Pagination{
			Limit:   limit,
			Offset:  offset,
			Total:   total,
			HasMore: limit > 0 && offset+len(items) < total,
		},
	}, nil
}

func (s *Service) enrich(ctx context.Context, rec models.ProgressRecord) models.ContinueWatchingItem {
	item := models.ContinueWatchingItem{
		Progress:       rec,
		PercentWatched: rec.PercentWatched(),
	}

	if s.catalog == nil {
		return item
	}

	title, err := s.catalog.Details(ctx, rec.ContentID, rec.ContentType)
	if err != nil {
		s.logger.Debug("continue watching enrichment failed",
			"content_id", rec.ContentID,
			"content_type", rec.ContentType,
			"error", err,
		)
		return item
	}

	item.Title = title.Name
	item.Poster = title.Poster
	return item
}
