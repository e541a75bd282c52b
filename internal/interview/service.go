// Package interview は面接とフィードバックの参照系ユースケースを提供する。
package interview

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/repository"
)

// Service は面接一覧・詳細とフィードバックの取得を提供する。
type Service struct {
	interviews repository.InterviewRepository
	feedback   repository.FeedbackRepository
}

// NewService はServiceを生成する。
func NewService(interviews repository.InterviewRepository, feedback repository.FeedbackRepository) *Service {
	return &Service{interviews: interviews, feedback: feedback}
}

// GetInterview は指定IDの面接を返す。見つからない場合はnilを返す。
func (s *Service) GetInterview(ctx context.Context, id string) (*model.Interview, error) {
	iv, err := s.interviews.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("面接の取得に失敗しました: %w", err)
	}
	return iv, nil
}

// ListLatest は他ユーザーの確定済み面接を新しい順に返す。limitが0以下の場合は20件。
func (s *Service) ListLatest(ctx context.Context, userID string, limit int) ([]*model.Interview, error) {
	limit = repository.NormalizeLimit(limit)
	ivs, err := s.interviews.ListFinalizedExcludingUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("最新面接一覧の取得に失敗しました: %w", err)
	}
	slog.Debug("latest interviews listed",
		slog.String("user_id", userID),
		slog.Int("limit", limit),
		slog.Int("results", len(ivs)),
	)
	return ivs, nil
}

// ListForUser は指定ユーザーの面接を新しい順に返す。
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*model.Interview, error) {
	ivs, err := s.interviews.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("面接一覧の取得に失敗しました: %w", err)
	}
	slog.Debug("user interviews listed",
		slog.String("user_id", userID),
		slog.Int("results", len(ivs)),
	)
	return ivs, nil
}

// GetFeedback は面接とユーザーに対応するフィードバックを返す。見つからない場合はnilを返す。
func (s *Service) GetFeedback(ctx context.Context, interviewID, userID string) (*model.Feedback, error) {
	fb, err := s.feedback.FindByInterviewAndUser(ctx, interviewID, userID)
	if err != nil {
		return nil, fmt.Errorf("フィードバックの取得に失敗しました: %w", err)
	}
	slog.Debug("feedback queried",
		slog.String("interview_id", interviewID),
		slog.String("user_id", userID),
		slog.Bool("found", fb != nil),
	)
	return fb, nil
}
