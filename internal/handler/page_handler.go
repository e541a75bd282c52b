package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/middleware"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/web"
)

// PageRenderer はページ描画のインターフェース。
type PageRenderer interface {
	Render(w http.ResponseWriter, status int, page string, data any) error
}

// PageHandlerConfig はページハンドラーの設定。
type PageHandlerConfig struct {
	GoogleClientID     string
	GoogleLoginEnabled bool
}

// PageHandler はサーバー描画ページのHTTPハンドラー。
type PageHandler struct {
	renderer   PageRenderer
	interviews InterviewServiceInterface
	config     PageHandlerConfig
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(renderer PageRenderer, interviews InterviewServiceInterface, config PageHandlerConfig) *PageHandler {
	return &PageHandler{renderer: renderer, interviews: interviews, config: config}
}

// SignIn はサインインページを表示する。認証済みの場合はホームへリダイレクトする。
// GET /sign-in
func (h *PageHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	h.authPage(w, r, web.PageSignIn)
}

// SignUp はサインアップページを表示する。認証済みの場合はホームへリダイレクトする。
// GET /sign-up
func (h *PageHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	h.authPage(w, r, web.PageSignUp)
}

func (h *PageHandler) authPage(w http.ResponseWriter, r *http.Request, page string) {
	if _, ok := middleware.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, page, web.AuthPageData{
		CSRFToken:          middleware.CSRFTokenFromContext(r.Context()),
		GoogleClientID:     h.config.GoogleClientID,
		GoogleLoginEnabled: h.config.GoogleLoginEnabled,
	})
}

// Home はユーザー情報と面接一覧を表示する。
// GET /
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
		return
	}

	mine, err := h.interviews.ListForUser(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to list user interviews", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	latest, err := h.interviews.ListLatest(r.Context(), user.ID, 0)
	if err != nil {
		slog.Error("failed to list latest interviews", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.render(w, http.StatusOK, web.PageHome, web.HomePageData{
		User:             user,
		CSRFToken:        middleware.CSRFTokenFromContext(r.Context()),
		MyInterviews:     mine,
		LatestInterviews: latest,
	})
}

// Feedback は面接のフィードバックを表示する。
// GET /interview/{id}/feedback
func (h *PageHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
		return
	}

	id := chi.URLParam(r, "id")
	iv, err := h.interviews.GetInterview(r.Context(), id)
	if err != nil {
		slog.Error("failed to load interview", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if iv == nil {
		h.NotFound(w, r)
		return
	}

	fb, err := h.interviews.GetFeedback(r.Context(), id, user.ID)
	if err != nil {
		slog.Error("failed to load feedback", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.render(w, http.StatusOK, web.PageFeedback, web.FeedbackPageData{
		User:      user,
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		Interview: iv,
		Feedback:  fb,
	})
}

// NotFound は404ページを表示する。
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusNotFound, web.PageNotFound, nil)
}

func (h *PageHandler) render(w http.ResponseWriter, status int, page string, data any) {
	if err := h.renderer.Render(w, status, page, data); err != nil {
		slog.Error("failed to render page",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
	}
}
