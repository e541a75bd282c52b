package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/auth"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// --- モック定義 ---

type mockUserResolver struct {
	currentUserFn func(ctx context.Context, token string) *model.User
}

func (m *mockUserResolver) CurrentUser(ctx context.Context, token string) *model.User {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, token)
	}
	return nil
}

func resolverFor(token string, user *model.User) *mockUserResolver {
	return &mockUserResolver{
		currentUserFn: func(ctx context.Context, got string) *model.User {
			if got == token {
				return user
			}
			return nil
		},
	}
}

// --- テスト ---

func TestSessionMiddleware_ValidSession_InjectsUser(t *testing.T) {
	resolver := resolverFor("valid-token", &model.User{ID: "user-123", Name: "Ada", Email: "ada@example.com"})
	mw := NewSessionMiddleware(resolver)

	var captured *model.User
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			t.Error("expected user in context")
		}
		captured = user
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "valid-token"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if captured == nil || captured.ID != "user-123" {
		t.Errorf("user = %+v, want user-123", captured)
	}
}

func TestSessionMiddleware_Unauthenticated_Returns401(t *testing.T) {
	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"Cookieなし", nil},
		{"空のCookie", &http.Cookie{Name: auth.SessionCookieName, Value: ""}},
		{"無効なトークン", &http.Cookie{Name: auth.SessionCookieName, Value: "forged"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewSessionMiddleware(resolverFor("valid-token", &model.User{ID: "u"}))
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/interviews", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if got := w.Header().Values("Set-Cookie"); len(got) != 0 {
				t.Errorf("invalid session must not touch cookies, got %v", got)
			}
		})
	}
}

func TestPageGuard_RedirectsToSignIn(t *testing.T) {
	mw := NewPageGuard(resolverFor("valid-token", &model.User{ID: "u"}), "/sign-in")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "expired"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/sign-in" {
		t.Errorf("Location = %q, want /sign-in", loc)
	}
	if got := w.Header().Values("Set-Cookie"); len(got) != 0 {
		t.Errorf("Set-Cookie = %v, want none", got)
	}
}

func TestPageGuard_ValidSession_PassesThrough(t *testing.T) {
	mw := NewPageGuard(resolverFor("valid-token", &model.User{ID: "u-1"}), "/sign-in")
	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if id, err := UserIDFromContext(r.Context()); err != nil || id != "u-1" {
			t.Errorf("UserIDFromContext = %q, %v", id, err)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "valid-token"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("handler should be called")
	}
}

func TestOptionalSession(t *testing.T) {
	mw := NewOptionalSession(resolverFor("valid-token", &model.User{ID: "u-1"}))

	var withUser, withoutUser bool
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); ok {
			withUser = true
		} else {
			withoutUser = true
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/sign-in", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "valid-token"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sign-in", nil))

	if !withUser || !withoutUser {
		t.Errorf("withUser = %v, withoutUser = %v, want both true", withUser, withoutUser)
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context")
	}
}
