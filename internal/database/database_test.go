package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"reelay/internal/database"
	"reelay/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(database.Config{
		DatabasePath: filepath.Join(t.TempDir(), "telemetry.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func progressRecord(userID, contentID string) models.ProgressRecord {
	return models.ProgressRecord{
		ID:              uuid.NewString(),
		UserID:          userID,
		ContentID:       contentID,
		ContentType:     models.ContentTypeMovie,
		ProgressSeconds: 600,
		TotalSeconds:    8520,
		LastWatchedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func TestProgressUpsertRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec := progressRecord("u", "tt1")
	require.NoError(t, db.Progress.Upsert(ctx, rec))

	got, err := db.Progress.Get(ctx, "u", "tt1", models.ContentTypeMovie)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, rec.ID, got.ID)
	require.Equal(t, 600, got.ProgressSeconds)

	// Conflicting write on the same key updates in place.
	rec.ProgressSeconds = 1200
	rec.LastWatchedAt = rec.LastWatchedAt.Add(time.Minute)
	require.NoError(t, db.Progress.Upsert(ctx, rec))

	list, err := db.Progress.ListByUser(ctx, "u", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 1200, list[0].ProgressSeconds)
}

func TestProgressGetMissingReturnsNil(t *testing.T) {
	db := newTestDB(t)

	got, err := db.Progress.Get(context.Background(), "u", "missing", models.ContentTypeMovie)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestProgressListOrdersByRecency(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	older := progressRecord("u", "older")
	older.LastWatchedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	newer := progressRecord("u", "newer")

	require.NoError(t, db.Progress.Upsert(ctx, older))
	require.NoError(t, db.Progress.Upsert(ctx, newer))

	list, err := db.Progress.ListByUser(ctx, "u", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "newer", list[0].ContentID)

	page, err := db.Progress.ListByUser(ctx, "u", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "older", page[0].ContentID)
}

func TestProgressDeleteByID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec := progressRecord("u", "tt1")
	require.NoError(t, db.Progress.Upsert(ctx, rec))

	deleted, err := db.Progress.DeleteByID(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	require.Equal(t, rec.ID, deleted.ID)

	// Repeating the delete reports nothing removed.
	deleted, err = db.Progress.DeleteByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Nil(t, deleted)
}

func historyEntry(userID, contentID string, watchedAt time.Time) models.HistoryEntry {
	return models.HistoryEntry{
		ID:              uuid.NewString(),
		UserID:          userID,
		ContentID:       contentID,
		ContentType:     models.ContentTypeMovie,
		Title:           "Some Title",
		PosterRef:       "/posters/p.jpg",
		WatchedAt:       watchedAt,
		ProgressSeconds: 40,
		TotalSeconds:    8520,
	}
}

func TestHistoryInsertAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, db.History.Insert(ctx, historyEntry("u", "recent", now.Add(-time.Hour))))
	require.NoError(t, db.History.Insert(ctx, historyEntry("u", "stale", now.AddDate(0, 0, -60))))
	require.NoError(t, db.History.Insert(ctx, historyEntry("other", "recent", now)))

	entries, total, err := db.History.ListByUser(ctx, "u", now.AddDate(0, 0, -30), "", 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, entries, 1)
	require.Equal(t, "recent", entries[0].ContentID)
	require.Equal(t, "/posters/p.jpg", entries[0].PosterRef)
}

func TestHistoryListWithTypeFilterAndPaging(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		entry := historyEntry("u", "movie", now.Add(-time.Duration(i)*time.Minute))
		require.NoError(t, db.History.Insert(ctx, entry))
	}
	series := historyEntry("u", "show", now)
	series.ContentType = models.ContentTypeSeries
	require.NoError(t, db.History.Insert(ctx, series))

	entries, total, err := db.History.ListByUser(ctx, "u", now.AddDate(0, 0, -1), models.ContentTypeMovie, 2, 1)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Equal(t, models.ContentTypeMovie, e.ContentType)
	}
}

func TestHistoryPurgeUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, db.History.Insert(ctx, historyEntry("u", "a", now)))
	require.NoError(t, db.History.Insert(ctx, historyEntry("u", "b", now)))
	require.NoError(t, db.History.Insert(ctx, historyEntry("other", "a", now)))

	removed, err := db.History.PurgeUser(ctx, "u")
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	_, total, err := db.History.ListByUser(ctx, "other", now.AddDate(0, 0, -1), "", 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestSkipWindowSaveAndLookup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	introStart, introEnd := 10, 95
	window := models.SkipWindow{
		ID:          uuid.NewString(),
		ContentID:   "ep-101",
		ContentType: models.ContentTypeSeries,
		IntroStart:  &introStart,
		IntroEnd:    &introEnd,
		UpdatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, db.SkipWindows.Save(ctx, window))

	got, err := db.SkipWindows.GetByContent(ctx, "ep-101", models.ContentTypeSeries)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.HasIntro())
	require.False(t, got.HasOutro())
	require.Equal(t, 10, *got.IntroStart)

	// A second save for the same content replaces the row.
	outroStart, outroEnd := 2500, 2600
	window.IntroStart, window.IntroEnd = nil, nil
	window.OutroStart, window.OutroEnd = &outroStart, &outroEnd
	require.NoError(t, db.SkipWindows.Save(ctx, window))

	got, err = db.SkipWindows.GetByContent(ctx, "ep-101", models.ContentTypeSeries)
	require.NoError(t, err)
	require.False(t, got.HasIntro())
	require.True(t, got.HasOutro())
}

func TestSkipWindowDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	introStart, introEnd := 10, 95
	window := models.SkipWindow{
		ID:          uuid.NewString(),
		ContentID:   "ep-101",
		ContentType: models.ContentTypeSeries,
		IntroStart:  &introStart,
		IntroEnd:    &introEnd,
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, db.SkipWindows.Save(ctx, window))

	deleted, err := db.SkipWindows.DeleteByID(ctx, window.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted)

	deleted, err = db.SkipWindows.DeleteByID(ctx, window.ID)
	require.NoError(t, err)
	require.Nil(t, deleted)

	got, err := db.SkipWindows.GetByContent(ctx, "ep-101", models.ContentTypeSeries)
	require.NoError(t, err)
	require.Nil(t, got)
}
