package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/auth"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/feedback"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/middleware"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	signUpFn            func(ctx context.Context, p auth.SignUpParams) auth.Result
	signInFn            func(ctx context.Context, p auth.SignInParams) (auth.Result, *model.Session)
	signInWithIDTokenFn func(ctx context.Context, idToken string) (auth.Result, *model.Session)
	currentUserFn       func(ctx context.Context, token string) *model.User
}

func (m *mockAuthService) SignUp(ctx context.Context, p auth.SignUpParams) auth.Result {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, p)
	}
	return auth.Result{}
}

func (m *mockAuthService) SignIn(ctx context.Context, p auth.SignInParams) (auth.Result, *model.Session) {
	if m.signInFn != nil {
		return m.signInFn(ctx, p)
	}
	return auth.Result{}, nil
}

func (m *mockAuthService) SignInWithIDToken(ctx context.Context, idToken string) (auth.Result, *model.Session) {
	if m.signInWithIDTokenFn != nil {
		return m.signInWithIDTokenFn(ctx, idToken)
	}
	return auth.Result{}, nil
}

func (m *mockAuthService) CurrentUser(ctx context.Context, token string) *model.User {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, token)
	}
	return nil
}

type mockInterviewService struct {
	getInterviewFn func(ctx context.Context, id string) (*model.Interview, error)
	listLatestFn   func(ctx context.Context, userID string, limit int) ([]*model.Interview, error)
	listForUserFn  func(ctx context.Context, userID string) ([]*model.Interview, error)
	getFeedbackFn  func(ctx context.Context, interviewID, userID string) (*model.Feedback, error)
}

func (m *mockInterviewService) GetInterview(ctx context.Context, id string) (*model.Interview, error) {
	if m.getInterviewFn != nil {
		return m.getInterviewFn(ctx, id)
	}
	return nil, nil
}

func (m *mockInterviewService) ListLatest(ctx context.Context, userID string, limit int) ([]*model.Interview, error) {
	if m.listLatestFn != nil {
		return m.listLatestFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockInterviewService) ListForUser(ctx context.Context, userID string) ([]*model.Interview, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockInterviewService) GetFeedback(ctx context.Context, interviewID, userID string) (*model.Feedback, error) {
	if m.getFeedbackFn != nil {
		return m.getFeedbackFn(ctx, interviewID, userID)
	}
	return nil, nil
}

type mockFeedbackCreator struct {
	createFn func(ctx context.Context, p feedback.CreateParams) feedback.Result
	calls    int
}

func (m *mockFeedbackCreator) CreateFeedback(ctx context.Context, p feedback.CreateParams) feedback.Result {
	m.calls++
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return feedback.Result{}
}

type mockOAuthProvider struct {
	loginURLFn     func(state string) string
	exchangeCodeFn func(ctx context.Context, code string) (string, error)
}

func (m *mockOAuthProvider) LoginURL(state string) string {
	if m.loginURLFn != nil {
		return m.loginURLFn(state)
	}
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (m *mockOAuthProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	if m.exchangeCodeFn != nil {
		return m.exchangeCodeFn(ctx, code)
	}
	return "", nil
}

// --- ヘルパー ---

// withURLParam はchiのURLパラメータをリクエストに設定する。
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withUser はリクエストコンテキストに認証済みユーザーを設定する。
func withUser(r *http.Request, user *model.User) *http.Request {
	return r.WithContext(middleware.ContextWithUser(r.Context(), user))
}
