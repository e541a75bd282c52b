// Package web はサーバー描画ページのテンプレートと静的ファイルを提供する。
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// ページ名
const (
	PageSignIn   = "sign_in"
	PageSignUp   = "sign_up"
	PageHome     = "home"
	PageFeedback = "feedback"
	PageNotFound = "not_found"
)

var pageNames = []string{PageSignIn, PageSignUp, PageHome, PageFeedback, PageNotFound}

// AuthPageData はサインイン・サインアップページの表示データ。
type AuthPageData struct {
	CSRFToken          string
	GoogleClientID     string
	GoogleLoginEnabled bool
}

// HomePageData はホームページの表示データ。
type HomePageData struct {
	User             *model.User
	CSRFToken        string
	MyInterviews     []*model.Interview
	LatestInterviews []*model.Interview
}

// FeedbackPageData はフィードバックページの表示データ。Feedbackがnilの場合は未生成として表示する。
type FeedbackPageData struct {
	User      *model.User
	CSRFToken string
	Interview *model.Interview
	Feedback  *model.Feedback
}

// Renderer はレイアウトと各ページのテンプレートを保持する。
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
	"title": func(s string) string {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError {
			return s
		}
		return string(unicode.ToUpper(r)) + s[size:]
	},
}

// NewRenderer は埋め込みテンプレートを解析してRendererを生成する。
func NewRenderer() (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages}, nil
}

// Render はページを描画してステータスコードとともに書き込む。
// 描画に失敗した場合は何も書き込まずにエラーを返す。
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler は埋め込み静的ファイルを/static/配下で配信するハンドラーを返す。
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
