package user

import (
	"context"
	"errors"
	"testing"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/repository"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/security"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn  func(ctx context.Context, id string) (*model.User, error)
	createFn    func(ctx context.Context, user *model.User) error
	createCalls int
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func TestRegisterUser_OnceThenAlreadyExists(t *testing.T) {
	store := repository.NewMemoryStore()
	d := NewDirectory(store, security.NewTextSanitizer())
	ctx := context.Background()

	if err := d.RegisterUser(ctx, "uid-1", "Alice", "alice@example.com"); err != nil {
		t.Fatalf("first RegisterUser: %v", err)
	}
	err := d.RegisterUser(ctx, "uid-1", "Alice Again", "alice2@example.com")
	if !errors.Is(err, model.ErrUserAlreadyExists) {
		t.Fatalf("second RegisterUser error = %v, want ErrUserAlreadyExists", err)
	}

	u, _ := d.FindUser(ctx, "uid-1")
	if u.Name != "Alice" || u.Email != "alice@example.com" {
		t.Errorf("record changed by second call: %+v", u)
	}
	if store.UserCount() != 1 {
		t.Errorf("UserCount = %d, want 1", store.UserCount())
	}
}

func TestRegisterUser_ExistingRecord_PerformsNoWrite(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	d := NewDirectory(repo, nil)

	err := d.RegisterUser(context.Background(), "uid-1", "Alice", "alice@example.com")
	if !errors.Is(err, model.ErrUserAlreadyExists) {
		t.Fatalf("error = %v", err)
	}
	if repo.createCalls != 0 {
		t.Errorf("Create calls = %d, want 0", repo.createCalls)
	}
}

func TestRegisterUser_EmailInUse(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error { return model.ErrEmailInUse },
	}
	d := NewDirectory(repo, nil)

	err := d.RegisterUser(context.Background(), "uid-2", "Bob", "alice@example.com")
	if !errors.Is(err, model.ErrEmailInUse) {
		t.Errorf("error = %v, want ErrEmailInUse", err)
	}
}

func TestRegisterUser_SanitizesName(t *testing.T) {
	store := repository.NewMemoryStore()
	d := NewDirectory(store, security.NewTextSanitizer())

	if err := d.RegisterUser(context.Background(), "uid-1", "<b>Alice</b>", "alice@example.com"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	u, _ := d.FindUser(context.Background(), "uid-1")
	if u.Name != "Alice" {
		t.Errorf("Name = %q, want Alice", u.Name)
	}
}

func TestEnsureUserRecord_Idempotent(t *testing.T) {
	store := repository.NewMemoryStore()
	d := NewDirectory(store, security.NewTextSanitizer())
	ctx := context.Background()

	first, err := d.EnsureUserRecord(ctx, "uid-1", "Alice", "alice@example.com")
	if err != nil {
		t.Fatalf("first EnsureUserRecord: %v", err)
	}
	second, err := d.EnsureUserRecord(ctx, "uid-1", "Someone Else", "other@example.com")
	if err != nil {
		t.Fatalf("second EnsureUserRecord: %v", err)
	}

	if store.UserCount() != 1 {
		t.Errorf("UserCount = %d, want 1", store.UserCount())
	}
	if second.Name != first.Name || second.Email != first.Email || !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("record changed: first=%+v second=%+v", first, second)
	}
}

func TestEnsureUserRecord_FallsBackToEmailLocalPart(t *testing.T) {
	store := repository.NewMemoryStore()
	d := NewDirectory(store, nil)

	u, err := d.EnsureUserRecord(context.Background(), "uid-1", "", "jane.doe@example.com")
	if err != nil {
		t.Fatalf("EnsureUserRecord: %v", err)
	}
	if u.Name != "jane.doe" {
		t.Errorf("Name = %q, want jane.doe", u.Name)
	}
}

func TestEnsureUserRecord_ConcurrentCreateReturnsStoredRecord(t *testing.T) {
	stored := &model.User{ID: "uid-1", Name: "Winner", Email: "alice@example.com"}
	lookups := 0
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			lookups++
			if lookups == 1 {
				return nil, nil
			}
			return stored, nil
		},
		createFn: func(ctx context.Context, user *model.User) error { return model.ErrUserAlreadyExists },
	}
	d := NewDirectory(repo, nil)

	u, err := d.EnsureUserRecord(context.Background(), "uid-1", "Alice", "alice@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != stored {
		t.Errorf("got %+v, want stored record", u)
	}
}

func TestEmailLocalPart(t *testing.T) {
	tests := map[string]string{
		"alice@example.com": "alice",
		"no-at-sign":        "no-at-sign",
		"":                  "",
	}
	for in, want := range tests {
		if got := EmailLocalPart(in); got != want {
			t.Errorf("EmailLocalPart(%q) = %q, want %q", in, got, want)
		}
	}
}
