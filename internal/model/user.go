// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// User はサービス利用ユーザーを表す。
// IDはIdPが発行するsubject識別子で、作成後は変更しない。
type User struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Initial はアバター表示用の頭文字を返す。名前が空の場合は "U"。
func (u *User) Initial() string {
	if u == nil {
		return "U"
	}
	name := strings.TrimSpace(u.Name)
	if name == "" {
		return "U"
	}
	r := []rune(name)
	return strings.ToUpper(string(r[0]))
}

// Session はログインセッションを表す。
// Tokenは署名付きの不透明な文字列で、サーバー側には保存しない。
type Session struct {
	Token     string
	UserID    string
	Email     string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionDuration はセッションの有効期間（7日）。
const SessionDuration = 7 * 24 * time.Hour
