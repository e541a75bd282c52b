package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/metrics"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/middleware"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/web"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	UserResolver      middleware.UserResolver
	CORSAllowedOrigin string
	CSRF              middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	HSTS              bool

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 面接・フィードバック
	InterviewService InterviewServiceInterface
	FeedbackCreator  FeedbackCreator

	// ページ
	Renderer   PageRenderer
	PageConfig PageHandlerConfig

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Logging → Recovery → SecurityHeaders → CORS → CSRF → (Session/PageGuard) → RateLimit
//
// /health、/metrics、/static/* はCSRFの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTS))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	interviewHandler := NewInterviewHandler(deps.InterviewService, deps.FeedbackCreator)
	pageHandler := NewPageHandler(deps.Renderer, deps.InterviewService, deps.PageConfig)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Handle("/static/*", web.StaticHandler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF))

		r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF))

		// --- ページ ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewOptionalSession(deps.UserResolver))
			r.Get("/sign-in", pageHandler.SignIn)
			r.Get("/sign-up", pageHandler.SignUp)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewPageGuard(deps.UserResolver, "/sign-in"))
			r.Get("/", pageHandler.Home)
			r.Get("/interview/{id}/feedback", pageHandler.Feedback)
		})
		r.Post("/sign-out", authHandler.SignOut)

		// --- 認証（セッション不要） ---
		r.Route("/auth/google", func(r chi.Router) {
			r.Get("/login", authHandler.GoogleLogin)
			r.Get("/callback", authHandler.GoogleCallback)
		})
		r.Route("/api/auth", func(r chi.Router) {
			r.Use(deps.RateLimiter.GeneralMiddleware())
			r.Post("/sign-up", authHandler.SignUp)
			r.Post("/sign-in", authHandler.SignIn)
			r.Post("/sign-out", authHandler.SignOut)
			r.Get("/me", authHandler.Me)
		})

		// --- 認証が必要なAPI ---
		// ミドルウェアスタック: Session → RateLimit(General)
		r.Route("/api/interviews", func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.UserResolver))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Get("/", interviewHandler.ListMine)
			r.Get("/latest", interviewHandler.ListLatest)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", interviewHandler.GetInterview)
				r.Get("/feedback", interviewHandler.GetFeedback)
				r.With(deps.RateLimiter.GenerationMiddleware()).Post("/feedback", interviewHandler.CreateFeedback)
			})
		})
	})

	r.NotFound(pageHandler.NotFound)

	return r
}
