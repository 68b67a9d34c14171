package progress_test

import (
	"context"
	"errors"
	"testing"

	"reelay/models"
	"reelay/services/progress"
)

type fakeStore struct {
	records map[string]models.ProgressRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]models.ProgressRecord)}
}

func key(userID, contentID string, ct models.ContentType) string {
	return userID + "|" + contentID + "|" + string(ct)
}

func (f *fakeStore) Upsert(_ context.Context, rec models.ProgressRecord) error {
	f.records[key(rec.UserID, rec.ContentID, rec.ContentType)] = rec
	return nil
}

func (f *fakeStore) Get(_ context.Context, userID, contentID string, ct models.ContentType) (*models.ProgressRecord, error) {
	rec, ok := f.records[key(userID, contentID, ct)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*models.ProgressRecord, error) {
	for _, rec := range f.records {
		if rec.ID == id {
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.ProgressRecord, error) {
	var out []models.ProgressRecord
	for _, rec := range f.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteByID(_ context.Context, id string) (*models.ProgressRecord, error) {
	for k, rec := range f.records {
		if rec.ID == id {
			delete(f.records, k)
			return &rec, nil
		}
	}
	return nil, nil
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	svc := progress.NewService(newFakeStore(), nil, 0)

	first, created, err := svc.UpsertProgress(context.Background(), models.ProgressUpsert{
		UserID:          "user-1",
		ContentID:       "tt0111161",
		ContentType:     models.ContentTypeMovie,
		ProgressSeconds: 120,
		TotalSeconds:    8520,
	})
	if err != nil {
		t.Fatalf("first upsert returned error: %v", err)
	}
	if !created {
		t.Fatal("expected first upsert to create a record")
	}
	if first.ID == "" {
		t.Fatal("expected created record to have an id")
	}

	second, created, err := svc.UpsertProgress(context.Background(), models.ProgressUpsert{
		UserID:          "user-1",
		ContentID:       "tt0111161",
		ContentType:     models.ContentTypeMovie,
		ProgressSeconds: 600,
		TotalSeconds:    8520,
	})
	if err != nil {
		t.Fatalf("second upsert returned error: %v", err)
	}
	if created {
		t.Fatal("expected second upsert to update in place")
	}
	if second.ID != first.ID {
		t.Fatalf("expected stable id %q across upserts, got %q", first.ID, second.ID)
	}
	if second.ProgressSeconds != 600 {
		t.Fatalf("expected progress 600, got %d", second.ProgressSeconds)
	}
}

func TestUpsertKeysIncludeContentType(t *testing.T) {
	svc := progress.NewService(newFakeStore(), nil, 0)

	_, created, err := svc.UpsertProgress(context.Background(), models.ProgressUpsert{
		UserID: "user-1", ContentID: "id-1", ContentType: models.ContentTypeMovie,
		ProgressSeconds: 100, TotalSeconds: 1000,
	})
	if err != nil || !created {
		t.Fatalf("movie upsert: created=%v err=%v", created, err)
	}

	_, created, err = svc.UpsertProgress(context.Background(), models.ProgressUpsert{
		UserID: "user-1", ContentID: "id-1", ContentType: models.ContentTypeSeries,
		ProgressSeconds: 100, TotalSeconds: 1000,
	})
	if err != nil {
		t.Fatalf("series upsert returned error: %v", err)
	}
	if !created {
		t.Fatal("expected same content id with different type to create a separate record")
	}
}

func TestUpsertValidation(t *testing.T) {
	svc := progress.NewService(newFakeStore(), nil, 0)

	cases := []struct {
		name string
		up   models.ProgressUpsert
		code string
	}{
		{
			name: "missing user",
			up:   models.ProgressUpsert{ContentID: "c", ContentType: models.ContentTypeMovie, ProgressSeconds: 1, TotalSeconds: 10},
			code: models.CodeUserIDRequired,
		},
		{
			name: "missing content",
			up:   models.ProgressUpsert{UserID: "u", ContentType: models.ContentTypeMovie, ProgressSeconds: 1, TotalSeconds: 10},
			code: models.CodeContentIDRequired,
		},
		{
			name: "bad content type",
			up:   models.ProgressUpsert{UserID: "u", ContentID: "c", ContentType: "episode", ProgressSeconds: 1, TotalSeconds: 10},
			code: models.CodeInvalidContentType,
		},
		{
			name: "negative progress",
			up:   models.ProgressUpsert{UserID: "u", ContentID: "c", ContentType: models.ContentTypeMovie, ProgressSeconds: -1, TotalSeconds: 10},
			code: models.CodeInvalidProgress,
		},
		{
			name: "zero duration",
			up:   models.ProgressUpsert{UserID: "u", ContentID: "c", ContentType: models.ContentTypeMovie, ProgressSeconds: 0, TotalSeconds: 0},
			code: models.CodeInvalidDuration,
		},
		{
			name: "progress past duration",
			up:   models.ProgressUpsert{UserID: "u", ContentID: "c", ContentType: models.ContentTypeMovie, ProgressSeconds: 11, TotalSeconds: 10},
			code: models.CodeProgressExceeds,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.UpsertProgress(context.Background(), tc.up)
			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, verr.Code)
			}
		})
	}
}

func TestUpsertAllowsProgressEqualToDuration(t *testing.T) {
	svc := progress.NewService(newFakeStore(), nil, 0)

	rec, _, err := svc.UpsertProgress(context.Background(), models.ProgressUpsert{
		UserID: "u", ContentID: "c", ContentType: models.ContentTypeMovie,
		ProgressSeconds: 500, TotalSeconds: 500,
	})
	if err != nil {
		t.Fatalf("expected progress == duration to be accepted, got %v", err)
	}
	if rec.PercentWatched() != 1 {
		t.Fatalf("expected fully watched record, got fraction %v", rec.PercentWatched())
	}
}

func TestOnlyAdvancePolicyRefusesRegression(t *testing.T) {
	svc := progress.NewService(newFakeStore(), progress.OnlyAdvance(), 0)

	_, _, err := svc.UpsertProgress(context.Background(), models.ProgressUpsert{
		UserID: "u", ContentID: "c", ContentType: models.ContentTypeMovie,
		ProgressSeconds: 600, TotalSeconds: 1000,
	})
	if err != nil {
		t.Fatalf("seed upsert returned error: %v", err)
	}

	rec, created, err := svc.UpsertProgress(context.Background(), models.ProgressUpsert{
		UserID: "u", ContentID: "c", ContentType: models.ContentTypeMovie,
		ProgressSeconds: 100, TotalSeconds: 1000,
	})
	if err != nil {
		t.Fatalf("regressing upsert returned error: %v", err)
	}
	if created {
		t.Fatal("refused overwrite must not report a create")
	}
	if rec.ProgressSeconds != 600 {
		t.Fatalf("expected stored position to stay at 600, got %d", rec.ProgressSeconds)
	}

	rec, _, err = svc.UpsertProgress(context.Background(), models.ProgressUpsert{
		UserID: "u", ContentID: "c", ContentType: models.ContentTypeMovie,
		ProgressSeconds: 900, TotalSeconds: 1000,
	})
	if err != nil {
		t.Fatalf("advancing upsert returned error: %v", err)
	}
	if rec.ProgressSeconds != 900 {
		t.Fatalf("expected advancing write to land, got %d", rec.ProgressSeconds)
	}
}

func TestPolicyFromName(t *testing.T) {
	if got := progress.PolicyFromName(progress.PolicyOnlyAdvance).Name(); got != progress.PolicyOnlyAdvance {
		t.Fatalf("expected onlyAdvance policy, got %q", got)
	}
	if got := progress.PolicyFromName("").Name(); got != progress.PolicyLastWriterWins {
		t.Fatalf("expected default policy lastWriterWins, got %q", got)
	}
	if got := progress.PolicyFromName("nonsense").Name(); got != progress.PolicyLastWriterWins {
		t.Fatalf("expected unknown name to fall back to lastWriterWins, got %q", got)
	}
}

func TestListInProgressExcludesCompleted(t *testing.T) {
	svc := progress.NewService(newFakeStore(), nil, 0)

	seed := []struct {
		contentID string
		progress  int
	}{
		{"just-started", 10},
		{"almost-done", 940}, // 0.94, stays
		{"at-threshold", 950},
		{"finished", 1000},
	}
	for _, s := range seed {
		_, _, err := svc.UpsertProgress(context.Background(), models.ProgressUpsert{
			UserID: "u", ContentID: s.contentID, ContentType: models.ContentTypeMovie,
			ProgressSeconds: s.progress, TotalSeconds: 1000,
		})
		if err != nil {
			t.Fatalf("seed %s: %v", s.contentID, err)
		}
	}

	records, total, err := svc.ListInProgress(context.Background(), "u", 0, 0)
	if err != nil {
		t.Fatalf("ListInProgress returned error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 in-progress records, got %d", total)
	}
	for _, rec := range records {
		if rec.ContentID == "at-threshold" || rec.ContentID == "finished" {
			t.Fatalf("record %s should have been excluded at fraction %v", rec.ContentID, rec.PercentWatched())
		}
	}
}

func TestListInProgressPaginatesFilteredSet(t *testing.T) {
	svc := progress.NewService(newFakeStore(), nil, 0)

	for _, contentID := range []string{"a", "b", "c", "d"} {
		_, _, err := svc.UpsertProgress(context.Background(), models.ProgressUpsert{
			UserID: "u", ContentID: contentID, ContentType: models.ContentTypeMovie,
			ProgressSeconds: 100, TotalSeconds: 1000,
		})
		if err != nil {
			t.Fatalf("seed %s: %v", contentID, err)
		}
	}

	page, total, err := svc.ListInProgress(context.Background(), "u", 3, 2)
	if err != nil {
		t.Fatalf("ListInProgress returned error: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected total 4, got %d", total)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 records after offset, got %d", len(page))
	}

	page, total, err = svc.ListInProgress(context.Background(), "u", 3, 10)
	if err != nil {
		t.Fatalf("ListInProgress returned error: %v", err)
	}
	if total != 4 || len(page) != 0 {
		t.Fatalf("expected empty page with total 4, got %d records total %d", len(page), total)
	}
}

func TestDeleteProgress(t *testing.T) {
	svc := progress.NewService(newFakeStore(), nil, 0)

	rec, _, err := svc.UpsertProgress(context.Background(), models.ProgressUpsert{
		UserID: "u", ContentID: "c", ContentType: models.ContentTypeMovie,
		ProgressSeconds: 100, TotalSeconds: 1000,
	})
	if err != nil {
		t.Fatalf("seed upsert returned error: %v", err)
	}

	deleted, err := svc.DeleteProgress(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if deleted.ID != rec.ID {
		t.Fatalf("expected deleted record %q, got %q", rec.ID, deleted.ID)
	}

	if _, err := svc.DeleteProgress(context.Background(), rec.ID); !errors.Is(err, progress.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeated delete, got %v", err)
	}
	if _, err := svc.DeleteProgress(context.Background(), "never-existed"); !errors.Is(err, progress.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on unknown id, got %v", err)
	}
}

func TestGetProgressNotFound(t *testing.T) {
	svc := progress.NewService(newFakeStore(), nil, 0)

	_, err := svc.GetProgress(context.Background(), "u", "missing", models.ContentTypeMovie)
	if !errors.Is(err, progress.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
