// Package feedback は面接記録から生成モデルで評価を作成し、保存するユースケースを提供する。
package feedback

import (
	"fmt"
	"strings"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// SystemInstruction は生成モデルに与えるシステム指示。
const SystemInstruction = "You are a professional interviewer analyzing a mock interview. Your task is to evaluate the candidate based on structured categories"

// categoryDescriptions はプロンプトに列挙するカテゴリの説明。model.CategoryNamesと同じ順序。
var categoryDescriptions = map[string]string{
	model.CategoryCommunication: "Clarity, articulation, structured responses",
	model.CategoryTechnical:     "Understanding of key concepts for the role",
	model.CategoryProblemSolve:  "Ability to analyze problems and propose solutions",
	model.CategoryCulturalFit:   "Alignment with company values and job role",
	model.CategoryConfidence:    "Confidence in responses, engagement, and clarity",
}

// FormatTranscript は発話を "- {role}: {content}\n" の行として連結する。
func FormatTranscript(turns []model.TranscriptTurn) string {
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "- %s: %s\n", t.Role, t.Content)
	}
	return b.String()
}

// BuildPrompt は整形済みの面接記録を埋め込んだ評価プロンプトを返す。
func BuildPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("You are an AI interviewer analyzing a mock interview. ")
	b.WriteString("Your task is to evaluate the candidate based on structured categories. ")
	b.WriteString("Be thorough and detailed in your analysis. Don't be lenient with the candidate. ")
	b.WriteString("If there are mistakes or areas for improvement, point them out.\n")
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	b.WriteString("\nProvide scores and evaluations for EXACTLY these 5 categories in this order:\n")
	for i, name := range model.CategoryNames() {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, name, categoryDescriptions[name])
	}
	b.WriteString("\nEach category should have:\n")
	b.WriteString("- name: The exact category name as shown above\n")
	b.WriteString("- score: A number from 0 to 100\n")
	b.WriteString("- comment: Detailed feedback for that category\n")
	b.WriteString("\nAlso provide:\n")
	b.WriteString("- totalScore: Overall score from 0 to 100\n")
	b.WriteString("- strengths: Array of candidate's strengths\n")
	b.WriteString("- areasForImprovement: Array of areas where they can improve\n")
	b.WriteString("- finalAssessment: Overall summary of the interview\n")
	return b.String()
}
