package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// MaxIDTokenAge はセッション発行に使用できるIDトークンの最大経過時間。
// 直近にサインインしたIDトークンのみを受け付ける。
const MaxIDTokenAge = 5 * time.Minute

// SessionVerifier はセッショントークンの発行と検証を行うインターフェース。
type SessionVerifier interface {
	// Issue はIDトークンを検証し、有効期間7日のセッションを発行する。
	// IDトークンが無効・期限切れの場合はmodel.ErrAuthProviderをラップしたエラーを返す。
	Issue(ctx context.Context, idToken string) (*model.Session, error)
	// Verify はセッショントークンの署名と有効期限を検証する。
	// 無効な場合はmodel.ErrInvalidSessionをラップしたエラーを返す。
	Verify(ctx context.Context, token string) (*model.Session, error)
}

// JWTSessionConfig はJWTSessionVerifierの設定。
type JWTSessionConfig struct {
	Secret   []byte
	Issuer   string
	Duration time.Duration // 0の場合はmodel.SessionDuration
	Now      func() time.Time
}

// JWTSessionVerifier はHS256署名のJWTをセッショントークンとして扱う。
// サーバー側に状態を持たず、検証は署名と有効期限のみで行う。
type JWTSessionVerifier struct {
	identity IdentityVerifier
	secret   []byte
	issuer   string
	duration time.Duration
	now      func() time.Time
}

// NewJWTSessionVerifier はJWTSessionVerifierを生成する。
func NewJWTSessionVerifier(identity IdentityVerifier, cfg JWTSessionConfig) *JWTSessionVerifier {
	if cfg.Duration == 0 {
		cfg.Duration = model.SessionDuration
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &JWTSessionVerifier{
		identity: identity,
		secret:   cfg.Secret,
		issuer:   cfg.Issuer,
		duration: cfg.Duration,
		now:      cfg.Now,
	}
}

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Issue はIDトークンからセッションを発行する。
func (v *JWTSessionVerifier) Issue(ctx context.Context, idToken string) (*model.Session, error) {
	ident, err := v.identity.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	now := v.now().UTC()
	if !ident.IssuedAt.IsZero() && now.Sub(ident.IssuedAt) > MaxIDTokenAge {
		return nil, fmt.Errorf("%w: id token issued at %s is too old", model.ErrAuthProvider, ident.IssuedAt.Format(time.RFC3339))
	}

	expiresAt := now.Add(v.duration)
	claims := sessionClaims{
		Email: ident.Email,
		Name:  ident.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   ident.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &model.Session{
		Token:     signed,
		UserID:    ident.Subject,
		Email:     ident.Email,
		Name:      ident.Name,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify はセッショントークンを検証する。
func (v *JWTSessionVerifier) Verify(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, model.ErrInvalidSession
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidSession, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, model.ErrInvalidSession
	}

	s := &model.Session{
		Token:  token,
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// IsAuthProviderError はIdP由来のエラーかどうかを返す。
func IsAuthProviderError(err error) bool {
	return errors.Is(err, model.ErrAuthProvider)
}

var _ SessionVerifier = (*JWTSessionVerifier)(nil)
