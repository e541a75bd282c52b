package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// PostgresFeedbackRepo はPostgreSQLを使用したフィードバックリポジトリ。
type PostgresFeedbackRepo struct {
	db *sql.DB
}

// NewPostgresFeedbackRepo はPostgresFeedbackRepoを生成する。
func NewPostgresFeedbackRepo(db *sql.DB) *PostgresFeedbackRepo {
	return &PostgresFeedbackRepo{db: db}
}

// FindByInterviewAndUser は面接IDとユーザーIDでフィードバックを取得する。見つからない場合はnilを返す。
func (r *PostgresFeedbackRepo) FindByInterviewAndUser(ctx context.Context, interviewID, userID string) (*model.Feedback, error) {
	fb := &model.Feedback{}
	var categoryScores []byte
	var strengths, areas pq.StringArray

	err := r.db.QueryRowContext(ctx,
		`SELECT id, interview_id, user_id, total_score, category_scores,
		        strengths, areas_for_improvement, final_assessment, created_at
		 FROM feedback
		 WHERE interview_id = $1 AND user_id = $2
		 ORDER BY created_at DESC
		 LIMIT 1`,
		interviewID, userID,
	).Scan(
		&fb.ID, &fb.InterviewID, &fb.UserID, &fb.TotalScore, &categoryScores,
		&strengths, &areas, &fb.FinalAssessment, &fb.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find feedback: %w", err)
	}

	if err := json.Unmarshal(categoryScores, &fb.CategoryScores); err != nil {
		return nil, fmt.Errorf("failed to decode category scores: %w", err)
	}
	fb.Strengths = []string(strengths)
	fb.AreasForImprovement = []string(areas)
	return fb, nil
}

// Upsert はフィードバックを保存し、保存先のIDを返す。
// existingIDは同じ(interview_id, user_id)の行を指す場合のみ上書き先として使う。
// 一致しない場合はUNIQUE(interview_id, user_id)の衝突で上書きまたは新規作成する。
func (r *PostgresFeedbackRepo) Upsert(ctx context.Context, fb *model.Feedback, existingID string) (string, error) {
	categoryScores, err := json.Marshal(fb.CategoryScores)
	if err != nil {
		return "", fmt.Errorf("failed to encode category scores: %w", err)
	}

	var storedID string
	if existingID != "" {
		err = r.db.QueryRowContext(ctx,
			`UPDATE feedback SET
			     total_score = $4,
			     category_scores = $5,
			     strengths = $6,
			     areas_for_improvement = $7,
			     final_assessment = $8,
			     created_at = $9
			 WHERE id = $1 AND interview_id = $2 AND user_id = $3
			 RETURNING id`,
			existingID, fb.InterviewID, fb.UserID, fb.TotalScore, categoryScores,
			pq.Array(fb.Strengths), pq.Array(fb.AreasForImprovement),
			fb.FinalAssessment, fb.CreatedAt,
		).Scan(&storedID)
		switch {
		case err == nil:
			return storedID, nil
		case err != sql.ErrNoRows:
			return "", fmt.Errorf("failed to update feedback: %w", err)
		}
		slog.Debug("feedback id does not match interview and user, upserting by pair",
			slog.String("feedback_id", existingID),
			slog.String("interview_id", fb.InterviewID),
		)
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO feedback (id, interview_id, user_id, total_score, category_scores,
		                       strengths, areas_for_improvement, final_assessment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (interview_id, user_id) DO UPDATE SET
		     total_score = EXCLUDED.total_score,
		     category_scores = EXCLUDED.category_scores,
		     strengths = EXCLUDED.strengths,
		     areas_for_improvement = EXCLUDED.areas_for_improvement,
		     final_assessment = EXCLUDED.final_assessment,
		     created_at = EXCLUDED.created_at
		 RETURNING id`,
		uuid.New().String(), fb.InterviewID, fb.UserID, fb.TotalScore, categoryScores,
		pq.Array(fb.Strengths), pq.Array(fb.AreasForImprovement),
		fb.FinalAssessment, fb.CreatedAt,
	).Scan(&storedID)
	if err != nil {
		return "", fmt.Errorf("failed to upsert feedback: %w", err)
	}

	return storedID, nil
}

// compile-time interface check
var _ FeedbackRepository = (*PostgresFeedbackRepo)(nil)
