package auth

import (
	"net/http"
	"time"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// SessionCookieName はセッションCookieの名前。
const SessionCookieName = "session"

// SessionCookieMaxAge はセッションCookieの有効期間（秒）。
const SessionCookieMaxAge = int(model.SessionDuration / time.Second)

// CookieConfig はセッションCookieの属性設定。
type CookieConfig struct {
	Secure bool
	Domain string
}

// PersistSession はセッショントークンをHttpOnly Cookieとして設定する。
func PersistSession(w http.ResponseWriter, token string, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   SessionCookieMaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// DestroySession はセッションCookieを削除する。
func DestroySession(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionTokenFromRequest はリクエストのCookieからセッショントークンを取り出す。
// Cookieが無い場合は空文字列を返す。
func SessionTokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
