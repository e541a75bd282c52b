// Package app はサブコマンドの解析、依存関係のワイヤリング、HTTPサーバーの起動と停止を行う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/auth"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/config"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/database"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/feedback"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/handler"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/interview"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/logger"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/metrics"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/middleware"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/repository"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/security"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/user"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/web"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
	startupTimeout  = 15 * time.Second
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、実行環境に応じたレベルでJSON構造化ログをセットアップする。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w, slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, logger.LevelForEnv(cfg.AppEnv))
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("env", cfg.AppEnv),
		slog.String("store", cfg.StoreDriver),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// Stores はストレージ実装ごとのリポジトリ一式。
type Stores struct {
	Users      repository.UserRepository
	Interviews repository.InterviewRepository
	Feedback   repository.FeedbackRepository
	Health     handler.HealthChecker
	close      func() error
}

// Close はストレージ接続を閉じる。
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// NewMemoryStores はインメモリのStoresを生成する。開発とテスト用。
func NewMemoryStores(store *repository.MemoryStore) *Stores {
	return &Stores{
		Users:      store,
		Interviews: store.Interviews(),
		Feedback:   store,
	}
}

// OpenStores はSTORE_DRIVERに応じてストレージへ接続する。
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established",
			slog.String("database_url", maskURL(cfg.DatabaseURL)),
		)
		return postgresStores(db), nil

	case config.StoreDriverMongo:
		client, db, err := database.OpenMongo(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to open mongo: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		slog.Info("mongo connection established",
			slog.String("mongo_uri", maskURL(cfg.MongoURI)),
			slog.String("database", cfg.MongoDatabase),
		)
		return mongoStores(client, db), nil

	case config.StoreDriverMemory:
		slog.Warn("using in-memory store; data is lost on restart")
		return NewMemoryStores(repository.NewMemoryStore()), nil

	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.StoreDriver)
	}
}

func postgresStores(db *sql.DB) *Stores {
	return &Stores{
		Users:      repository.NewPostgresUserRepo(db),
		Interviews: repository.NewPostgresInterviewRepo(db),
		Feedback:   repository.NewPostgresFeedbackRepo(db),
		Health:     db,
		close:      db.Close,
	}
}

func mongoStores(client *mongo.Client, db *mongo.Database) *Stores {
	return &Stores{
		Users:      repository.NewMongoUserRepo(db),
		Interviews: repository.NewMongoInterviewRepo(db),
		Feedback:   repository.NewMongoFeedbackRepo(db),
		Health: handler.HealthCheckerFunc(func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}),
		close: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		},
	}
}

// External は外部サービス（IdP、生成モデル、OAuth）のクライアント。
// テストではフェイクに差し替える。
type External struct {
	Identity  auth.IdentityVerifier
	Generator feedback.Generator
	// OAuthがnilの場合、Googleリダイレクトログインは無効。
	OAuth auth.OAuthProvider
}

// ConnectExternal は設定から外部サービスのクライアントを生成する。
func ConnectExternal(ctx context.Context, cfg *config.Config) (*External, error) {
	identity, err := auth.NewOIDCIdentityVerifier(ctx, cfg.OIDCIssuerURL, cfg.OIDCClientID)
	if err != nil {
		return nil, err
	}

	generator, err := feedback.NewGeminiGenerator(ctx, feedback.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	})
	if err != nil {
		return nil, err
	}

	ext := &External{Identity: identity, Generator: generator}
	if cfg.GoogleLoginEnabled() {
		ext.OAuth = auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
	}
	return ext, nil
}

// NewHandler は全依存関係をワイヤリングしたHTTPハンドラーを返す。
// 返り値のstopはバックグラウンド処理を停止する。
func NewHandler(cfg *config.Config, stores *Stores, ext *External, reg *prometheus.Registry) (http.Handler, func(), error) {
	mc := metrics.NewCollector(reg)
	sanitizer := security.NewTextSanitizer()

	directory := user.NewDirectory(stores.Users, sanitizer)
	sessions := auth.NewJWTSessionVerifier(ext.Identity, auth.JWTSessionConfig{
		Secret: []byte(cfg.SessionSecret),
		Issuer: cfg.SessionIssuer,
	})
	authService := auth.NewService(ext.Identity, sessions, directory, mc)

	interviewService := interview.NewService(stores.Interviews, stores.Feedback)
	feedbackService := feedback.NewService(ext.Generator, stores.Feedback, sanitizer, mc, feedback.ServiceConfig{
		GenerationTimeout: cfg.GenerationTimeout,
	})

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, nil, err
	}

	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitGeneration))
	cookie := auth.CookieConfig{Secure: cfg.CookieSecure, Domain: cfg.CookieDomain}

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		Metrics:           mc,
		UserResolver:      authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRF:              middleware.CSRFConfig{CookieSecure: cfg.CookieSecure, CookieDomain: cfg.CookieDomain},
		RateLimiter:       rateLimiter,
		HSTS:              cfg.IsProduction(),

		AuthService: authService,
		AuthConfig:  handler.AuthHandlerConfig{Cookie: cookie, OAuthProvider: ext.OAuth},

		InterviewService: interviewService,
		FeedbackCreator:  feedbackService,

		Renderer: renderer,
		PageConfig: handler.PageHandlerConfig{
			GoogleClientID:     cfg.OIDCClientID,
			GoogleLoginEnabled: ext.OAuth != nil,
		},

		HealthChecker:  stores.Health,
		MetricsHandler: metrics.Handler(reg),
	})

	return router, rateLimiter.Stop, nil
}

// newRegistry はプロセスとランタイムのメトリクスを含むレジストリを生成する。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// runServe はHTTPサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	stores, err := OpenStores(startCtx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	ext, err := ConnectExternal(startCtx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect external services: %w", err)
	}

	router, stop, err := NewHandler(cfg, stores, ext, newRegistry())
	if err != nil {
		return fmt.Errorf("failed to build handler: %w", err)
	}
	defer stop()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: serverWriteTimeout(cfg.GenerationTimeout),
		IdleTimeout:  idleTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-sigCh:
	}

	slog.Info("shutting down HTTP server...")
	ctx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("HTTP server stopped gracefully")
	return nil
}

// serverWriteTimeout はフィードバック生成の待ち時間を含む書き込みタイムアウトを返す。
func serverWriteTimeout(generationTimeout time.Duration) time.Duration {
	if d := generationTimeout + 10*time.Second; d > writeTimeout {
		return d
	}
	return writeTimeout
}

// runMigrate はストレージのスキーマを適用する。
// Postgresはマイグレーション、MongoDBはインデックス作成を行う。
func runMigrate(cfg *config.Config) error {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		slog.Info("running database migrations",
			slog.String("database_url", maskURL(cfg.DatabaseURL)),
		)
		version, err := database.RunMigrations(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))

	case config.StoreDriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		client, db, err := database.OpenMongo(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return fmt.Errorf("failed to open mongo: %w", err)
		}
		defer client.Disconnect(context.Background())

		if err := database.EnsureIndexes(ctx, db); err != nil {
			return fmt.Errorf("index creation failed: %w", err)
		}
		slog.Info("mongo indexes ensured", slog.String("database", cfg.MongoDatabase))

	default:
		slog.Info("nothing to migrate", slog.String("store", cfg.StoreDriver))
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskURL は接続URLのパスワードをマスクする。解析できない場合は全体を伏せる。
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
