package handler

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/auth"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

const oauthStateCookie = "oauth_state"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	SignUp(ctx context.Context, p auth.SignUpParams) auth.Result
	SignIn(ctx context.Context, p auth.SignInParams) (auth.Result, *model.Session)
	SignInWithIDToken(ctx context.Context, idToken string) (auth.Result, *model.Session)
	CurrentUser(ctx context.Context, token string) *model.User
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	Cookie auth.CookieConfig
	// OAuthProviderがnilの場合、Googleリダイレクトログインは無効。
	OAuthProvider auth.OAuthProvider
}

// AuthHandler はサインアップ・サインイン・サインアウトのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

type signUpRequest struct {
	IDToken string `json:"idToken"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

type signInRequest struct {
	IDToken string `json:"idToken"`
	Email   string `json:"email"`
}

type userResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Initial string `json:"initial"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Initial: u.Initial()}
}

// SignUp はユーザーを登録する。結果は常に{success, message}で返す。
// POST /api/auth/sign-up
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError("malformed JSON body"))
		return
	}

	res := h.service.SignUp(r.Context(), auth.SignUpParams{
		IDToken: req.IDToken,
		Name:    req.Name,
		Email:   req.Email,
	})
	writeJSON(w, http.StatusOK, res)
}

// SignIn はセッションを発行してCookieに保存する。
// POST /api/auth/sign-in
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError("malformed JSON body"))
		return
	}

	res, session := h.service.SignIn(r.Context(), auth.SignInParams{
		Email:   req.Email,
		IDToken: req.IDToken,
	})
	if session != nil {
		auth.PersistSession(w, session.Token, h.config.Cookie)
	}
	writeJSON(w, http.StatusOK, res)
}

// SignOut はセッションCookieを削除してサインインページへリダイレクトする。
// POST /api/auth/sign-out, POST /sign-out
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	auth.DestroySession(w, h.config.Cookie)
	http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
}

// Me は現在のログインユーザー情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := h.service.CurrentUser(r.Context(), auth.SessionTokenFromRequest(r))
	if user == nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// GoogleLogin はGoogle OAuthフローを開始する。
// GET /auth/google/login
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.config.OAuthProvider == nil {
		http.NotFound(w, r)
		return
	}

	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		handleServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.config.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.config.OAuthProvider.LoginURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback はOAuthコールバックを処理し、IDトークンでサインインする。
// GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.config.OAuthProvider == nil {
		http.NotFound(w, r)
		return
	}

	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(stateCookie.Value), []byte(state)) != 1 {
		slog.Warn("oauth state mismatch")
		handleServiceError(w, model.NewInvalidRequestError("invalid state parameter"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		handleServiceError(w, model.NewInvalidRequestError("missing authorization code"))
		return
	}

	idToken, err := h.config.OAuthProvider.ExchangeCode(r.Context(), code)
	if err != nil {
		slog.Error("oauth code exchange failed", slog.String("error", err.Error()))
		http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
		return
	}

	res, session := h.service.SignInWithIDToken(r.Context(), idToken)
	if session == nil {
		slog.Warn("oauth sign-in rejected", slog.String("message", res.Message))
		http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
		return
	}

	auth.PersistSession(w, session.Token, h.config.Cookie)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
