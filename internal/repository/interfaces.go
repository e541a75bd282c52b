// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// 面接一覧の件数制限
const (
	DefaultInterviewLimit = 20
	MaxInterviewLimit     = 100
)

// NormalizeLimit は一覧取得の件数をデフォルト値と上限に丸める。
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultInterviewLimit
	}
	if limit > MaxInterviewLimit {
		return MaxInterviewLimit
	}
	return limit
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成する。
	// 同一IDが存在する場合は書き込みを行わずmodel.ErrUserAlreadyExistsを返す。
	// メールアドレスが重複する場合はmodel.ErrEmailInUseを返す。
	Create(ctx context.Context, user *model.User) error
}

// InterviewRepository は面接データの参照インターフェース。
type InterviewRepository interface {
	// FindByID は指定IDの面接を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Interview, error)

	// ListFinalizedExcludingUser は指定ユーザー以外の確定済み面接をcreated_at降順で返す。
	ListFinalizedExcludingUser(ctx context.Context, userID string, limit int) ([]*model.Interview, error)

	// ListByUserID は指定ユーザーの面接をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Interview, error)
}

// FeedbackRepository はフィードバックデータの永続化インターフェース。
type FeedbackRepository interface {
	// FindByInterviewAndUser は面接IDとユーザーIDでフィードバックを取得する。
	// 見つからない場合はnilを返す。複数存在する場合は最初の1件を返す。
	FindByInterviewAndUser(ctx context.Context, interviewID, userID string) (*model.Feedback, error)

	// Upsert はフィードバックを保存し、保存先のIDを返す。
	// existingIDは同じ(interview_id, user_id)の文書を指す場合のみ上書き先として使う。
	// それ以外は(interview_id, user_id)の一意制約で既存レコードへ上書きし、
	// 存在しなければ新規IDで作成する。他のペアの文書は変更しない。
	Upsert(ctx context.Context, feedback *model.Feedback, existingID string) (string, error)
}
