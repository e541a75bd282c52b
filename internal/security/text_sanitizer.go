// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は生成モデルの出力やフォーム入力からHTMLを除去し、
// プレーンテキストとして保存・表示できる形に整える。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer はテキストのサニタイズ機能のインターフェースを定義する。
type Sanitizer interface {
	// Sanitize は入力からすべてのHTMLタグを除去したプレーンテキストを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(s string) string
	// SanitizeAll は各要素をサニタイズし、空になった要素を取り除く。
	SanitizeAll(ss []string) []string
}

// TextSanitizer はSanitizerの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はタグを除去し、エスケープされた実体参照を元の文字に戻す。
// 出力時のエスケープはテンプレート側で行うため、ここでは二重エスケープを避ける。
func (s *TextSanitizer) Sanitize(in string) string {
	if in == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}

// SanitizeAll は各要素をサニタイズし、空になった要素を取り除く。
func (s *TextSanitizer) SanitizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if c := s.Sanitize(v); c != "" {
			out = append(out, c)
		}
	}
	return out
}

var _ Sanitizer = (*TextSanitizer)(nil)
