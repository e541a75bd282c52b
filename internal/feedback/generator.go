package feedback

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// ErrMissingCategory は生成結果に必須カテゴリが欠けていることを示す。
var ErrMissingCategory = errors.New("assessment is missing a required category")

// Assessment は生成モデルが返す構造化出力。
type Assessment struct {
	TotalScore          float64              `json:"totalScore"`
	CategoryScores      []AssessmentCategory `json:"categoryScores"`
	Strengths           []string             `json:"strengths"`
	AreasForImprovement []string             `json:"areasForImprovement"`
	FinalAssessment     string               `json:"finalAssessment"`
}

// AssessmentCategory はカテゴリ別の構造化出力。
type AssessmentCategory struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Comment string  `json:"comment"`
}

// Generator は評価プロンプトから構造化された評価を生成するインターフェース。
type Generator interface {
	Generate(ctx context.Context, prompt, systemInstruction string) (*Assessment, error)
}

// orderedCategories はカテゴリを固定順に並べ、スコアを0〜100に丸める。
// 名前の照合は大文字小文字と前後の空白を無視する。いずれかが欠けている場合はエラー。
func orderedCategories(in []AssessmentCategory) ([]model.CategoryScore, error) {
	byName := make(map[string]AssessmentCategory, len(in))
	for _, c := range in {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if _, dup := byName[key]; !dup {
			byName[key] = c
		}
	}

	names := model.CategoryNames()
	out := make([]model.CategoryScore, 0, len(names))
	for _, name := range names {
		c, ok := byName[strings.ToLower(name)]
		if !ok {
			return nil, errors.Join(ErrMissingCategory, errors.New(name))
		}
		out = append(out, model.CategoryScore{
			Name:    name,
			Score:   toScore(c.Score),
			Comment: c.Comment,
		})
	}
	return out, nil
}

func toScore(v float64) int {
	switch {
	case math.IsNaN(v), v < model.MinScore:
		return model.MinScore
	case v > model.MaxScore:
		return model.MaxScore
	}
	return model.ClampScore(int(math.Round(v)))
}
