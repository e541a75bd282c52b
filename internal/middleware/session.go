// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/auth"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
	userContextKey = contextKey("user")
	// userHolderKey はログ出力用にユーザーIDを外側のミドルウェアへ渡すためのキー。
	userHolderKey = contextKey("user_holder")
)

// userHolder は内側で解決されたユーザーIDを保持する。
type userHolder struct {
	userID string
}

func contextWithUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, userHolderKey, h)
}

// UserResolver はセッショントークンから現在のユーザーを解決する。
// auth.Serviceの部分集合として定義する。無効なトークンにはnilを返す。
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) *model.User
}

// resolveUser はCookieのセッションからユーザーを解決する。
// 検証に失敗してもCookieは削除しない。
func resolveUser(r *http.Request, resolver UserResolver) *model.User {
	token := auth.SessionTokenFromRequest(r)
	if token == "" {
		return nil
	}
	return resolver.CurrentUser(r.Context(), token)
}

// NewSessionMiddleware はAPI向けのセッション検証ミドルウェアを返す。
// 認証済みユーザーをリクエストコンテキストに注入し、未認証リクエストには401を返す。
func NewSessionMiddleware(resolver UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := resolveUser(r, resolver)
			if user == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// NewPageGuard はページ向けのセッション検証ミドルウェアを返す。
// 未認証リクエストはredirectToへ303でリダイレクトする。
func NewPageGuard(resolver UserResolver, redirectTo string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := resolveUser(r, resolver)
			if user == nil {
				http.Redirect(w, r, redirectTo, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// NewOptionalSession はセッションがあればユーザーを注入し、なければそのまま通す。
func NewOptionalSession(resolver UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := resolveUser(r, resolver); user != nil {
				r = r.WithContext(ContextWithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	return user, ok && user != nil
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	user, ok := UserFromContext(ctx)
	if !ok || user.ID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return user.ID, nil
}

// ContextWithUser はコンテキストにユーザーを注入する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	if h, ok := ctx.Value(userHolderKey).(*userHolder); ok && user != nil {
		h.userID = user.ID
	}
	return context.WithValue(ctx, userContextKey, user)
}
