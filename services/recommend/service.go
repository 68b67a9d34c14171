package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"reelay/models"
	"reelay/services/catalog"
)

const (
	// maxGroupItems caps every suggestion group.
	maxGroupItems = 10
	// historyDepth bounds how many recent history entries feed the genre
	// statistics.
	historyDepth = 50
	// historySinceDays is the lookback window for habit analysis.
	historySinceDays = 365

	maxGenreWorkers = 4
	topGenreCount   = 2
)

// HistoryReader is the slice of the history service the recommender needs.
type HistoryReader interface {
	ListHistory(ctx context.Context, q models.HistoryQuery) (models.HistoryPage, error)
}

// Service builds ranked suggestion groups from the user's watch history and
// the external catalog. Catalog failures degrade individual groups, never
// the whole response.
type Service struct {
	history HistoryReader
	catalog catalog.Provider
	logger  *slog.Logger
}

func NewService(history HistoryReader, provider catalog.Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{history: history, catalog: provider, logger: logger}
}

// TrendingGroupTitle names the generic trending group.
const TrendingGroupTitle = "Trending now"

// Recommend assembles the suggestion groups for a user. A user with no
// history gets a single trending group; otherwise a because-you-watched
// group, a genre-frequency group, and a trailing trending group, all
// deduplicated against history.
func (s *Service) Recommend(ctx context.Context, userID string) ([]models.SuggestionGroup, error) {
	page, err := s.history.ListHistory(ctx, models.HistoryQuery{
		UserID:    userID,
		SinceDays: historySinceDays,
		Limit:     historyDepth,
	})
	if err != nil {
		return nil, err
	}
	entries := page.Entries

	if len(entries) == 0 {
		group := s.trendingGroup(ctx, nil)
		return []models.SuggestionGroup{group}, nil
	}

	watched := watchedIDs(entries)
	groups := make([]models.SuggestionGroup, 0, 3)

	if group, ok := s.becauseYouWatched(ctx, entries[0], watched); ok {
		groups = append(groups, group)
	}
	if group, ok := s.genreGroup(ctx, entries, watched); ok {
		groups = append(groups, group)
	}
	groups = append(groups, s.trendingGroup(ctx, watched))

	return groups, nil
}

// becauseYouWatched builds a group from the most recent entry's primary
// genre, excluding the watched item itself.
func (s *Service) becauseYouWatched(ctx context.Context, recent models.HistoryEntry, watched map[string]struct{}) (models.SuggestionGroup, bool) {
	title, err := s.catalog.Details(ctx, recent.ContentID, recent.ContentType)
	if err != nil || title == nil || len(title.Genres) == 0 {
		if err != nil {
			s.logger.Debug("suggestion group skipped", "group", "becauseYouWatched", "error", err)
		}
		return models.SuggestionGroup{}, false
	}

	items, err := s.catalog.DiscoverByGenre(ctx, title.Genres[0], recent.ContentType)
	if err != nil {
		s.logger.Debug("suggestion group skipped", "group", "becauseYouWatched", "error", err)
		return models.SuggestionGroup{}, false
	}

	exclude := map[string]struct{}{recent.ContentID: {}}
	filtered := excludeTitles(items, exclude)
	if len(filtered) == 0 {
		return models.SuggestionGroup{}, false
	}

	return models.SuggestionGroup{
		Title: fmt.Sprintf("Because you watched %s", recent.Title),
		Items: capItems(filtered),
	}, true
}

// genreGroup computes genre frequency across the history window, takes the
// top genres, and merges movie and series discoveries into one group.
func (s *Service) genreGroup(ctx context.Context, entries []models.HistoryEntry, watched map[string]struct{}) (models.SuggestionGroup, bool) {
	genreLists := s.resolveGenres(ctx, entries)
	top := TopGenres(genreLists, topGenreCount)
	if len(top) == 0 {
		return models.SuggestionGroup{}, false
	}

	merged := make([]models.Title, 0, maxGroupItems*2)
	seen := make(map[string]struct{})
	for _, genre := range top {
		for _, contentType := range []models.ContentType{models.ContentTypeMovie, models.ContentTypeSeries} {
			items, err := s.catalog.DiscoverByGenre(ctx, genre, contentType)
			if err != nil {
				s.logger.Debug("genre discovery failed", "genre", genre, "content_type", contentType, "error", err)
				continue
			}
			for _, item := range items {
				if _, dup := seen[item.ID]; dup {
					continue
				}
				if _, done := watched[item.ID]; done {
					continue
				}
				seen[item.ID] = struct{}{}
				merged = append(merged, item)
			}
		}
	}

	if len(merged) == 0 {
		return models.SuggestionGroup{}, false
	}
	return models.SuggestionGroup{
		Title: "More like what you watch",
		Items: capItems(merged),
	}, true
}

// trendingGroup returns the generic trending group, movie and series merged,
// minus anything the user already watched. Failures leave the group empty
// rather than failing the aggregation.
func (s *Service) trendingGroup(ctx context.Context, watched map[string]struct{}) models.SuggestionGroup {
	merged := make([]models.Title, 0, maxGroupItems*2)
	for _, contentType := range []models.ContentType{models.ContentTypeMovie, models.ContentTypeSeries} {
		items, err := s.catalog.Trending(ctx, contentType)
		if err != nil {
			s.logger.Debug("trending lookup failed", "content_type", contentType, "error", err)
			continue
		}
		merged = append(merged, items...)
	}

	if watched != nil {
		merged = excludeTitles(merged, watched)
	}
	return models.SuggestionGroup{
		Title: TrendingGroupTitle,
		Items: capItems(merged),
	}
}

// resolveGenres fetches each distinct history item's genre list from the
// catalog with bounded concurrency. Individual failures contribute an empty
// list, which the pure ranking simply ignores.
func (s *Service) resolveGenres(ctx context.Context, entries []models.HistoryEntry) [][]string {
	type key struct {
		id string
		ct models.ContentType
	}

	distinct := make([]key, 0, len(entries))
	index := make(map[key]int)
	for _, entry := range entries {
		k := key{id: entry.ContentID, ct: entry.ContentType}
		if _, ok := index[k]; ok {
			continue
		}
		index[k] = len(distinct)
		distinct = append(distinct, k)
	}

	resolved := make([][]string, len(distinct))
	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(maxGenreWorkers)
	for i, k := range distinct {
		p.Go(func() {
			title, err := s.catalog.Details(ctx, k.id, k.ct)
			if err != nil || title == nil {
				return
			}
			mu.Lock()
			resolved[i] = title.Genres
			mu.Unlock()
		})
	}
	p.Wait()

	// Expand back to one genre list per history entry so repeat watches
	// weigh the ranking the way the log records them.
	lists := make([][]string, 0, len(entries))
	for _, entry := range entries {
		k := key{id: entry.ContentID, ct: entry.ContentType}
		lists = append(lists, resolved[index[k]])
	}
	return lists
}

func watchedIDs(entries []models.HistoryEntry) map[string]struct{} {
	ids := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		ids[entry.ContentID] = struct{}{}
	}
	return ids
}

func excludeTitles(items []models.Title, exclude map[string]struct{}) []models.Title {
	filtered := make([]models.Title, 0, len(items))
	for _, item := range items {
		if _, skip := exclude[item.ID]; skip {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

func capItems(items []models.Title) []models.Title {
	if len(items) > maxGroupItems {
		return items[:maxGroupItems]
	}
	return items
}
