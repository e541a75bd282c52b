// Package auth はIDトークン検証、セッショントークンの発行と検証、
// セッションCookieの管理、サインアップ/サインインの処理を提供する。
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// Identity はIdPが検証したIDトークンの内容を表す。
type Identity struct {
	Subject  string
	Email    string
	Name     string
	IssuedAt time.Time
}

// IdentityVerifier はIdPが発行したIDトークンを検証するインターフェース。
type IdentityVerifier interface {
	// VerifyIDToken はIDトークンの署名・発行者・audience・有効期限を検証する。
	// 検証に失敗した場合はmodel.ErrAuthProviderをラップしたエラーを返す。
	VerifyIDToken(ctx context.Context, rawIDToken string) (*Identity, error)
}

// OIDCIdentityVerifier はOpenID Connectのディスカバリ情報を用いてIDトークンを検証する。
type OIDCIdentityVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCIdentityVerifier はissuerURLのディスカバリドキュメントを取得してVerifierを生成する。
func NewOIDCIdentityVerifier(ctx context.Context, issuerURL, clientID string) (*OIDCIdentityVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover oidc provider: %w", err)
	}
	return &OIDCIdentityVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// NewOIDCIdentityVerifierWithKeySet は鍵セットを直接指定してVerifierを生成する。
// ディスカバリを行わないため、テストや鍵を固定配布する環境で使用する。
func NewOIDCIdentityVerifierWithKeySet(issuerURL, clientID string, keySet oidc.KeySet, now func() time.Time) *OIDCIdentityVerifier {
	cfg := &oidc.Config{ClientID: clientID}
	if now != nil {
		cfg.Now = now
	}
	return &OIDCIdentityVerifier{
		verifier: oidc.NewVerifier(issuerURL, keySet, cfg),
	}
}

type idTokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// VerifyIDToken はIDトークンを検証し、Identityを返す。
func (v *OIDCIdentityVerifier) VerifyIDToken(ctx context.Context, rawIDToken string) (*Identity, error) {
	token, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAuthProvider, err)
	}

	var claims idTokenClaims
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %v", model.ErrAuthProvider, err)
	}

	return &Identity{
		Subject:  token.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		IssuedAt: token.IssuedAt,
	}, nil
}

var _ IdentityVerifier = (*OIDCIdentityVerifier)(nil)
