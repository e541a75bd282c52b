package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// PostgresInterviewRepo はPostgreSQLを使用した面接リポジトリ。
type PostgresInterviewRepo struct {
	db *sql.DB
}

// NewPostgresInterviewRepo はPostgresInterviewRepoを生成する。
func NewPostgresInterviewRepo(db *sql.DB) *PostgresInterviewRepo {
	return &PostgresInterviewRepo{db: db}
}

const interviewColumns = `id, user_id, role, level, type, techstack, questions, finalized, created_at`

// FindByID は指定IDの面接を取得する。見つからない場合はnilを返す。
func (r *PostgresInterviewRepo) FindByID(ctx context.Context, id string) (*model.Interview, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE id = $1`,
		id,
	)
	iv, err := scanInterview(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find interview by ID: %w", err)
	}
	return iv, nil
}

// ListFinalizedExcludingUser は指定ユーザー以外の確定済み面接をcreated_at降順で返す。
func (r *PostgresInterviewRepo) ListFinalizedExcludingUser(ctx context.Context, userID string, limit int) ([]*model.Interview, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews
		 WHERE finalized = TRUE AND user_id <> $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, NormalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest interviews: %w", err)
	}
	defer rows.Close()
	return collectInterviews(rows)
}

// ListByUserID は指定ユーザーの面接をcreated_at降順で返す。
func (r *PostgresInterviewRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Interview, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews by user ID: %w", err)
	}
	defer rows.Close()
	return collectInterviews(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterview(s rowScanner) (*model.Interview, error) {
	iv := &model.Interview{}
	var techstack, questions pq.StringArray
	if err := s.Scan(
		&iv.ID, &iv.UserID, &iv.Role, &iv.Level, &iv.Type,
		&techstack, &questions, &iv.Finalized, &iv.CreatedAt,
	); err != nil {
		return nil, err
	}
	iv.TechStack = []string(techstack)
	iv.Questions = []string(questions)
	return iv, nil
}

func collectInterviews(rows *sql.Rows) ([]*model.Interview, error) {
	interviews := []*model.Interview{}
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		interviews = append(interviews, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interviews: %w", err)
	}
	return interviews, nil
}

// compile-time interface check
var _ InterviewRepository = (*PostgresInterviewRepo)(nil)
