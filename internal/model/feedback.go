package model

import "time"

// 評価カテゴリ。順序は固定。
const (
	CategoryCommunication = "Communication Skills"
	CategoryTechnical     = "Technical Knowledge"
	CategoryProblemSolve  = "Problem Solving"
	CategoryCulturalFit   = "Cultural Fit"
	CategoryConfidence    = "Confidence and Clarity"
)

// CategoryNames は評価カテゴリを固定順で返す。
func CategoryNames() []string {
	return []string{
		CategoryCommunication,
		CategoryTechnical,
		CategoryProblemSolve,
		CategoryCulturalFit,
		CategoryConfidence,
	}
}

// スコアの範囲
const (
	MinScore = 0
	MaxScore = 100
)

// CategoryScore はカテゴリ別の評価を表す。
type CategoryScore struct {
	Name    string `json:"name" bson:"name"`
	Score   int    `json:"score" bson:"score"`
	Comment string `json:"comment" bson:"comment"`
}

// Feedback は面接に対する評価結果を表す。
// (InterviewID, UserID) ごとに最新の1件のみを保持する。
type Feedback struct {
	ID                  string          `json:"id" bson:"_id"`
	InterviewID         string          `json:"interviewId" bson:"interviewId"`
	UserID              string          `json:"userId" bson:"userId"`
	TotalScore          int             `json:"totalScore" bson:"totalScore"`
	CategoryScores      []CategoryScore `json:"categoryScores" bson:"categoryScores"`
	Strengths           []string        `json:"strengths" bson:"strengths"`
	AreasForImprovement []string        `json:"areasForImprovement" bson:"areasForImprovement"`
	FinalAssessment     string          `json:"finalAssessment" bson:"finalAssessment"`
	CreatedAt           time.Time       `json:"createdAt" bson:"createdAt"`
}

// ClampScore はスコアを0〜100に丸める。
func ClampScore(s int) int {
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}
