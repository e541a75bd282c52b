package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// GeminiConfig はGeminiGeneratorの設定。
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string // テスト用に上書き可能
	HTTPClient *http.Client
}

// GeminiGenerator はGemini APIの構造化出力で評価を生成する。
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator はGeminiGeneratorを生成する。
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: cfg.Model}, nil
}

// Generate は評価プロンプトを送信し、スキーマに沿ったJSONをAssessmentに変換する。
func (g *GeminiGenerator) Generate(ctx context.Context, prompt, systemInstruction string) (*Assessment, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    assessmentSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("generate content: empty response")
	}

	var a Assessment
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}
	return &a, nil
}

func assessmentSchema() *genai.Schema {
	minScore, maxScore := float64(model.MinScore), float64(model.MaxScore)
	categoryCount := int64(len(model.CategoryNames()))

	score := &genai.Schema{Type: genai.TypeNumber, Minimum: &minScore, Maximum: &maxScore}
	stringList := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"totalScore": score,
			"categoryScores": {
				Type:     genai.TypeArray,
				MinItems: &categoryCount,
				MaxItems: &categoryCount,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":    {Type: genai.TypeString, Enum: model.CategoryNames()},
						"score":   score,
						"comment": {Type: genai.TypeString},
					},
					Required:         []string{"name", "score", "comment"},
					PropertyOrdering: []string{"name", "score", "comment"},
				},
			},
			"strengths":           stringList,
			"areasForImprovement": stringList,
			"finalAssessment":     {Type: genai.TypeString},
		},
		Required: []string{"totalScore", "categoryScores", "strengths", "areasForImprovement", "finalAssessment"},
		PropertyOrdering: []string{
			"totalScore", "categoryScores", "strengths", "areasForImprovement", "finalAssessment",
		},
	}
}

var _ Generator = (*GeminiGenerator)(nil)
