package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/metrics"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// ユーザー向けメッセージ
const (
	MsgUserAlreadyExists = "User already exists. Please sign in."
	MsgEmailInUse        = "This email is already in use"
	MsgSignUpSuccess     = "Account created successfully. Please sign in."
	MsgSignUpFailed      = "Failed to create account. Please try again."
	MsgUserDoesNotExist  = "User does not exist. Create an account."
	MsgSignInSuccess     = "Signed in successfully."
	MsgSignInFailed      = "Failed to log into account. Please try again."
	MsgInvalidName       = "Name must be at least 3 characters."
	MsgInvalidEmail      = "Please enter a valid email address."
)

// MinNameLength はサインアップ時の名前の最小文字数。
const MinNameLength = 3

// UserDirectory はユーザーディレクトリのインターフェース。
type UserDirectory interface {
	RegisterUser(ctx context.Context, id, name, email string) error
	EnsureUserRecord(ctx context.Context, id, fallbackName, email string) (*model.User, error)
	FindUser(ctx context.Context, id string) (*model.User, error)
}

// Result は認証操作の結果を表す。エラーは境界を越えずメッセージとして返す。
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SignUpParams はサインアップの入力。
type SignUpParams struct {
	IDToken string `json:"idToken"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

// SignInParams はサインインの入力。
type SignInParams struct {
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

// Service はサインアップ/サインインと現在ユーザーの取得を提供する。
type Service struct {
	identity IdentityVerifier
	sessions SessionVerifier
	users    UserDirectory
	metrics  metrics.MetricsCollector
}

// NewService はServiceを生成する。mcがnilの場合はメトリクスを記録しない。
func NewService(identity IdentityVerifier, sessions SessionVerifier, users UserDirectory, mc metrics.MetricsCollector) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		identity: identity,
		sessions: sessions,
		users:    users,
		metrics:  mc,
	}
}

// SignUp はIDトークンで本人確認したうえでユーザーを登録する。
// ユーザーIDはクライアント入力ではなく検証済みIDトークンのsubjectを使用する。
func (s *Service) SignUp(ctx context.Context, p SignUpParams) Result {
	name := strings.TrimSpace(p.Name)
	if utf8.RuneCountInString(name) < MinNameLength {
		return s.signUpResult(Result{Message: MsgInvalidName}, "invalid_input")
	}
	email, ok := normalizeEmail(p.Email)
	if !ok {
		return s.signUpResult(Result{Message: MsgInvalidEmail}, "invalid_input")
	}

	ident, err := s.identity.VerifyIDToken(ctx, p.IDToken)
	if err != nil {
		slog.Warn("sign-up identity verification failed", slog.String("error", err.Error()))
		return s.signUpResult(Result{Message: MsgSignUpFailed}, "provider_error")
	}
	if ident.Email == "" || !strings.EqualFold(ident.Email, email) {
		slog.Warn("sign-up email does not match identity token",
			slog.String("user_id", ident.Subject),
		)
		return s.signUpResult(Result{Message: MsgSignUpFailed}, "email_mismatch")
	}

	err = s.users.RegisterUser(ctx, ident.Subject, name, email)
	switch {
	case err == nil:
		slog.Info("user signed up", slog.String("user_id", ident.Subject))
		return s.signUpResult(Result{Success: true, Message: MsgSignUpSuccess}, "success")
	case errors.Is(err, model.ErrUserAlreadyExists):
		return s.signUpResult(Result{Message: MsgUserAlreadyExists}, "already_exists")
	case errors.Is(err, model.ErrEmailInUse):
		return s.signUpResult(Result{Message: MsgEmailInUse}, "email_in_use")
	default:
		slog.Error("sign-up failed",
			slog.String("user_id", ident.Subject),
			slog.String("error", err.Error()),
		)
		return s.signUpResult(Result{Message: MsgSignUpFailed}, "error")
	}
}

func (s *Service) signUpResult(r Result, outcome string) Result {
	s.metrics.RecordAuthAttempt("sign_up", outcome)
	return r
}

// SignIn はIDトークンからセッションを発行し、ディレクトリにユーザーレコードを確保する。
// 成功時のみセッションを返す。Cookieへの保存は呼び出し側が行う。
func (s *Service) SignIn(ctx context.Context, p SignInParams) (Result, *model.Session) {
	email, ok := normalizeEmail(p.Email)
	if !ok {
		s.metrics.RecordAuthAttempt("sign_in", "invalid_input")
		return Result{Message: MsgInvalidEmail}, nil
	}

	session, err := s.sessions.Issue(ctx, p.IDToken)
	if err != nil {
		slog.Warn("sign-in session issue failed", slog.String("error", err.Error()))
		s.metrics.RecordAuthAttempt("sign_in", "provider_error")
		return Result{Message: MsgSignInFailed}, nil
	}

	if !strings.EqualFold(session.Email, email) {
		s.metrics.RecordAuthAttempt("sign_in", "unknown_user")
		return Result{Message: MsgUserDoesNotExist}, nil
	}

	if _, err := s.users.EnsureUserRecord(ctx, session.UserID, session.Name, session.Email); err != nil {
		slog.Error("sign-in user record failed",
			slog.String("user_id", session.UserID),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordAuthAttempt("sign_in", "error")
		return Result{Message: MsgSignInFailed}, nil
	}

	slog.Info("user signed in", slog.String("user_id", session.UserID))
	s.metrics.RecordAuthAttempt("sign_in", "success")
	return Result{Success: true, Message: MsgSignInSuccess}, session
}

// SignInWithIDToken はOAuthコールバック用のサインイン。
// メールアドレスの照合はIDトークン自身の値で行う。
func (s *Service) SignInWithIDToken(ctx context.Context, idToken string) (Result, *model.Session) {
	ident, err := s.identity.VerifyIDToken(ctx, idToken)
	if err != nil {
		slog.Warn("oauth sign-in verification failed", slog.String("error", err.Error()))
		s.metrics.RecordAuthAttempt("sign_in", "provider_error")
		return Result{Message: MsgSignInFailed}, nil
	}
	return s.SignIn(ctx, SignInParams{Email: ident.Email, IDToken: idToken})
}

// CurrentUser はセッショントークンから現在のユーザーを返す。
// トークンが空の場合は検証を行わずnilを返す。
// 検証失敗やユーザーレコード未作成の場合もエラーにせずnilを返す。Cookieは変更しない。
func (s *Service) CurrentUser(ctx context.Context, token string) *model.User {
	if token == "" {
		return nil
	}

	session, err := s.sessions.Verify(ctx, token)
	if err != nil {
		s.metrics.RecordSessionVerification(false)
		slog.Debug("session verification failed", slog.String("error", err.Error()))
		return nil
	}
	s.metrics.RecordSessionVerification(true)

	user, err := s.users.FindUser(ctx, session.UserID)
	if err != nil {
		slog.Error("failed to load current user",
			slog.String("user_id", session.UserID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return user
}

// IsAuthenticated は現在ユーザーが取得できるかどうかを返す。
func (s *Service) IsAuthenticated(ctx context.Context, token string) bool {
	return s.CurrentUser(ctx, token) != nil
}

// normalizeEmail はメールアドレスの形式を検証し、前後の空白を除いた値を返す。
// 表示名付きの形式（"Name <a@b>"）は受け付けない。
func normalizeEmail(raw string) (string, bool) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}
