// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, interview, feedback, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInterviewNotFound = "INTERVIEW_NOT_FOUND"
	ErrCodeFeedbackNotFound  = "FEEDBACK_NOT_FOUND"
	ErrCodeGenerationFailed  = "GENERATION_FAILED"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeCSRF              = "CSRF_VALIDATION_FAILED"
	ErrCodeRateLimited       = "RATE_LIMIT_EXCEEDED"
)

// ドメインの番兵エラー
var (
	// ErrUserAlreadyExists は同一IDのユーザーが既に存在することを示す。
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrEmailInUse はメールアドレスが別ユーザーで使用済みであることを示す。
	ErrEmailInUse = errors.New("email already in use")
	// ErrAuthProvider はIDトークンが無効または期限切れであることを示す。
	ErrAuthProvider = errors.New("auth provider rejected identity token")
	// ErrInvalidSession はセッショントークンの検証失敗を示す。
	ErrInvalidSession = errors.New("invalid session")
)

// ErrorKind はフィードバック生成失敗の原因種別。
type ErrorKind string

const (
	KindNone    ErrorKind = ""
	KindFormat  ErrorKind = "format"
	KindModel   ErrorKind = "model"
	KindStorage ErrorKind = "storage"
)

// KindError は原因種別付きのエラー。
type KindError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *KindError) Unwrap() error { return e.Err }

// NewKindError はKindErrorを生成する。
func NewKindError(kind ErrorKind, op string, err error) error {
	return &KindError{Kind: kind, Op: op, Err: err}
}

// KindOf はエラーチェーンから原因種別を取り出す。該当しない場合はKindNone。
func KindOf(err error) ErrorKind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindNone
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication required.",
		Category: "auth",
		Action:   "Please sign in again.",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("Invalid request: %s", reason),
		Category: "validation",
		Action:   "Check the request body and try again.",
	}
}

// NewInterviewNotFoundError は面接未検出エラーを生成する。
func NewInterviewNotFoundError(interviewID string) *APIError {
	return &APIError{
		Code:     ErrCodeInterviewNotFound,
		Message:  fmt.Sprintf("Interview not found: %s", interviewID),
		Category: "interview",
		Action:   "Check the interview ID.",
	}
}

// NewFeedbackNotFoundError はフィードバック未検出エラーを生成する。
func NewFeedbackNotFoundError(interviewID string) *APIError {
	return &APIError{
		Code:     ErrCodeFeedbackNotFound,
		Message:  fmt.Sprintf("Feedback not found for interview: %s", interviewID),
		Category: "feedback",
		Action:   "Generate feedback for this interview first.",
	}
}

// NewGenerationFailedError はフィードバック生成失敗エラーを生成する。
func NewGenerationFailedError(kind ErrorKind) *APIError {
	return &APIError{
		Code:     ErrCodeGenerationFailed,
		Message:  fmt.Sprintf("Failed to generate feedback (%s).", kind),
		Category: "feedback",
		Action:   "Please try again later.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found.",
		Category: "auth",
		Action:   "Please sign in again.",
	}
}

// NewCSRFError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRF,
		Message:  "CSRF token validation failed.",
		Category: "auth",
		Action:   "Reload the page and try again.",
	}
}

// NewRateLimitError はレート制限超過エラーを生成する。
func NewRateLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Please wait and retry after the specified time.",
	}
}
