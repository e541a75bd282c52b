package interview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/repository"
)

type mockInterviewRepo struct {
	listLatestFn func(ctx context.Context, userID string, limit int) ([]*model.Interview, error)
}

func (m *mockInterviewRepo) FindByID(ctx context.Context, id string) (*model.Interview, error) {
	return nil, errors.New("unavailable")
}

func (m *mockInterviewRepo) ListFinalizedExcludingUser(ctx context.Context, userID string, limit int) ([]*model.Interview, error) {
	return m.listLatestFn(ctx, userID, limit)
}

func (m *mockInterviewRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Interview, error) {
	return nil, errors.New("unavailable")
}

func newSeededService(t *testing.T) (*Service, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store.AddInterview(&model.Interview{ID: "mine-old", UserID: "me", Finalized: true, CreatedAt: base})
	store.AddInterview(&model.Interview{ID: "mine-new", UserID: "me", Finalized: false, CreatedAt: base.Add(time.Hour)})
	store.AddInterview(&model.Interview{ID: "theirs", UserID: "them", Finalized: true, CreatedAt: base.Add(2 * time.Hour)})
	store.AddInterview(&model.Interview{ID: "theirs-draft", UserID: "them", Finalized: false, CreatedAt: base.Add(3 * time.Hour)})
	return NewService(store.Interviews(), store), store
}

func TestGetInterview(t *testing.T) {
	svc, _ := newSeededService(t)
	ctx := context.Background()

	iv, err := svc.GetInterview(ctx, "theirs")
	if err != nil || iv == nil || iv.ID != "theirs" {
		t.Fatalf("GetInterview = %+v, %v", iv, err)
	}

	iv, err = svc.GetInterview(ctx, "missing")
	if err != nil || iv != nil {
		t.Errorf("missing interview = %+v, %v", iv, err)
	}
}

func TestListLatest_ExcludesOwnAndDrafts(t *testing.T) {
	svc, _ := newSeededService(t)

	ivs, err := svc.ListLatest(context.Background(), "me", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ivs) != 1 || ivs[0].ID != "theirs" {
		t.Errorf("unexpected result: %+v", ivs)
	}
}

func TestListLatest_DefaultLimitPassedToRepository(t *testing.T) {
	var gotLimit int
	repo := &mockInterviewRepo{
		listLatestFn: func(ctx context.Context, userID string, limit int) ([]*model.Interview, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	svc := NewService(repo, repository.NewMemoryStore())

	if _, err := svc.ListLatest(context.Background(), "me", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != 20 {
		t.Errorf("limit = %d, want 20", gotLimit)
	}
}

func TestListForUser_NewestFirst(t *testing.T) {
	svc, _ := newSeededService(t)

	ivs, err := svc.ListForUser(context.Background(), "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ivs) != 2 || ivs[0].ID != "mine-new" || ivs[1].ID != "mine-old" {
		t.Errorf("unexpected order: %+v", ivs)
	}
}

func TestListForUser_RepositoryError(t *testing.T) {
	svc := NewService(&mockInterviewRepo{}, repository.NewMemoryStore())

	if _, err := svc.ListForUser(context.Background(), "me"); err == nil {
		t.Error("expected error")
	}
}

func TestGetFeedback(t *testing.T) {
	svc, store := newSeededService(t)
	ctx := context.Background()

	fb, err := svc.GetFeedback(ctx, "theirs", "me")
	if err != nil || fb != nil {
		t.Fatalf("expected none, got %+v, %v", fb, err)
	}

	if _, err := store.Upsert(ctx, &model.Feedback{InterviewID: "theirs", UserID: "me", TotalScore: 75}, ""); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	fb, err = svc.GetFeedback(ctx, "theirs", "me")
	if err != nil || fb == nil || fb.TotalScore != 75 {
		t.Errorf("GetFeedback = %+v, %v", fb, err)
	}
}
