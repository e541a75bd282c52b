// Package user はユーザーディレクトリのドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/repository"
	"github.com/jiyanaveed/AI-Mock-Interviews/internal/security"
)

// Directory はIdPのsubjectをキーとするユーザーレコードを管理する。
type Directory struct {
	userRepo  repository.UserRepository
	sanitizer security.Sanitizer
	now       func() time.Time
}

// NewDirectory はDirectoryの新しいインスタンスを生成する。
func NewDirectory(userRepo repository.UserRepository, sanitizer security.Sanitizer) *Directory {
	return &Directory{
		userRepo:  userRepo,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// RegisterUser はユーザーを新規登録する。
// 同一IDのレコードが存在する場合は書き込みを行わずmodel.ErrUserAlreadyExistsを返す。
func (d *Directory) RegisterUser(ctx context.Context, id, name, email string) error {
	if id == "" {
		return fmt.Errorf("user id is required")
	}

	existing, err := d.userRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if existing != nil {
		return model.ErrUserAlreadyExists
	}

	user := &model.User{
		ID:        id,
		Name:      d.cleanName(name, email),
		Email:     email,
		CreatedAt: d.now().UTC(),
	}
	if err := d.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) || errors.Is(err, model.ErrEmailInUse) {
			return err
		}
		return fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("user registered", slog.String("user_id", id))
	return nil
}

// EnsureUserRecord はレコードが無い場合のみユーザーを作成する（冪等）。
// 既存レコードは変更せずそのまま返す。
// fallbackNameが空の場合はメールアドレスのローカル部を名前とする。
func (d *Directory) EnsureUserRecord(ctx context.Context, id, fallbackName, email string) (*model.User, error) {
	existing, err := d.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	user := &model.User{
		ID:        id,
		Name:      d.cleanName(fallbackName, email),
		Email:     email,
		CreatedAt: d.now().UTC(),
	}
	err = d.userRepo.Create(ctx, user)
	if errors.Is(err, model.ErrUserAlreadyExists) {
		// 並行リクエストが先に作成した
		return d.userRepo.FindByID(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("user record created on sign-in", slog.String("user_id", id))
	return user, nil
}

// FindUser は指定IDのユーザーを返す。見つからない場合はnilを返す。
func (d *Directory) FindUser(ctx context.Context, id string) (*model.User, error) {
	return d.userRepo.FindByID(ctx, id)
}

func (d *Directory) cleanName(name, email string) string {
	if d.sanitizer != nil {
		name = d.sanitizer.Sanitize(name)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = EmailLocalPart(email)
	}
	return name
}

// EmailLocalPart はメールアドレスの@より前の部分を返す。
func EmailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
