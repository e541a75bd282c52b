package feedback

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/metrics"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/repository"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/security"
)

// ErrEmptyTranscript は面接記録が空であることを示す。
var ErrEmptyTranscript = errors.New("transcript is empty")

// CreateParams はフィードバック生成の入力。
type CreateParams struct {
	InterviewID string                 `json:"interviewId"`
	UserID      string                 `json:"userId"`
	Transcript  []model.TranscriptTurn `json:"transcript"`
	FeedbackID  string                 `json:"feedbackId,omitempty"`
}

// Result はフィードバック生成の結果。
// 失敗時はKindに原因種別を設定するが、利用者にはSuccessのみを示す。
type Result struct {
	Success    bool            `json:"success"`
	FeedbackID string          `json:"feedbackId,omitempty"`
	Kind       model.ErrorKind `json:"-"`
}

// ServiceConfig はフィードバック生成サービスの設定。
type ServiceConfig struct {
	// GenerationTimeout は生成モデル呼び出しのタイムアウト。0の場合は呼び出し元のcontextに従う。
	GenerationTimeout time.Duration
}

// Service は面接記録の整形、生成モデルによる評価、保存を順に行う。
// 再試行は行わず、いずれかの段階で失敗した場合は何も保存しない。
type Service struct {
	generator Generator
	repo      repository.FeedbackRepository
	sanitizer security.Sanitizer
	metrics   metrics.MetricsCollector
	config    ServiceConfig
	now       func() time.Time
}

// NewService はServiceを生成する。mcがnilの場合はメトリクスを記録しない。
func NewService(
	generator Generator,
	repo repository.FeedbackRepository,
	sanitizer security.Sanitizer,
	mc metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		generator: generator,
		repo:      repo,
		sanitizer: sanitizer,
		metrics:   mc,
		config:    config,
		now:       time.Now,
	}
}

// CreateFeedback は面接記録からフィードバックを生成して保存する。
// 保存は(面接, ユーザー)単位で1件とし、FeedbackIDは同じペアのフィードバックを指す場合のみ上書き先として使う。
func (s *Service) CreateFeedback(ctx context.Context, p CreateParams) Result {
	start := s.now()
	fb, err := s.generate(ctx, p)
	if err == nil {
		var id string
		id, err = s.repo.Upsert(ctx, fb, p.FeedbackID)
		if err != nil {
			err = model.NewKindError(model.KindStorage, "upsert feedback", err)
		} else {
			s.metrics.RecordGenerationLatency(s.now().Sub(start))
			s.metrics.RecordFeedbackGenerated()
			slog.Info("feedback generated",
				slog.String("interview_id", p.InterviewID),
				slog.String("user_id", p.UserID),
				slog.String("feedback_id", id),
				slog.Int("total_score", fb.TotalScore),
			)
			return Result{Success: true, FeedbackID: id}
		}
	}

	kind := model.KindOf(err)
	s.metrics.RecordFeedbackFailure(string(kind))
	slog.Error("feedback generation failed",
		slog.String("interview_id", p.InterviewID),
		slog.String("user_id", p.UserID),
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	)
	return Result{Success: false, Kind: kind}
}

// generate は整形から正規化までを行い、保存前のフィードバックを返す。
func (s *Service) generate(ctx context.Context, p CreateParams) (*model.Feedback, error) {
	if p.InterviewID == "" || p.UserID == "" {
		return nil, model.NewKindError(model.KindFormat, "validate params", errors.New("interview id and user id are required"))
	}
	if len(p.Transcript) == 0 {
		return nil, model.NewKindError(model.KindFormat, "format transcript", ErrEmptyTranscript)
	}

	transcript := FormatTranscript(p.Transcript)
	slog.Debug("transcript formatted",
		slog.String("interview_id", p.InterviewID),
		slog.Int("turns", len(p.Transcript)),
		slog.Int("length", len(transcript)),
	)

	genCtx := ctx
	if s.config.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.config.GenerationTimeout)
		defer cancel()
	}

	a, err := s.generator.Generate(genCtx, BuildPrompt(transcript), SystemInstruction)
	if err != nil {
		return nil, model.NewKindError(model.KindModel, "generate assessment", err)
	}

	categories, err := orderedCategories(a.CategoryScores)
	if err != nil {
		return nil, model.NewKindError(model.KindModel, "map assessment", err)
	}
	for i := range categories {
		categories[i].Comment = s.clean(categories[i].Comment)
	}

	return &model.Feedback{
		InterviewID:         p.InterviewID,
		UserID:              p.UserID,
		TotalScore:          toScore(a.TotalScore),
		CategoryScores:      categories,
		Strengths:           s.cleanAll(a.Strengths),
		AreasForImprovement: s.cleanAll(a.AreasForImprovement),
		FinalAssessment:     s.clean(a.FinalAssessment),
		CreatedAt:           s.now().UTC(),
	}, nil
}

func (s *Service) clean(v string) string {
	if s.sanitizer == nil {
		return strings.TrimSpace(v)
	}
	return s.sanitizer.Sanitize(v)
}

func (s *Service) cleanAll(vs []string) []string {
	if s.sanitizer == nil {
		out := make([]string, 0, len(vs))
		for _, v := range vs {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return s.sanitizer.SanitizeAll(vs)
}
