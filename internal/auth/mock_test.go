package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jiyanaveed/AI-Mock-Interviews/internal/model"
)

// mockIdentityVerifier はIdentityVerifierのテスト用モック。
type mockIdentityVerifier struct {
	verifyFn func(ctx context.Context, raw string) (*Identity, error)
	calls    int
}

func (m *mockIdentityVerifier) VerifyIDToken(ctx context.Context, raw string) (*Identity, error) {
	m.calls++
	return m.verifyFn(ctx, raw)
}

// mockSessionVerifier はSessionVerifierのテスト用モック。
type mockSessionVerifier struct {
	issueFn     func(ctx context.Context, idToken string) (*model.Session, error)
	verifyFn    func(ctx context.Context, token string) (*model.Session, error)
	verifyCalls int
}

func (m *mockSessionVerifier) Issue(ctx context.Context, idToken string) (*model.Session, error) {
	return m.issueFn(ctx, idToken)
}

func (m *mockSessionVerifier) Verify(ctx context.Context, token string) (*model.Session, error) {
	m.verifyCalls++
	return m.verifyFn(ctx, token)
}

// mockUserDirectory はUserDirectoryのテスト用モック。
type mockUserDirectory struct {
	registerFn  func(ctx context.Context, id, name, email string) error
	ensureFn    func(ctx context.Context, id, fallbackName, email string) (*model.User, error)
	findFn      func(ctx context.Context, id string) (*model.User, error)
	findCalls   int
	ensureCalls int
}

func (m *mockUserDirectory) RegisterUser(ctx context.Context, id, name, email string) error {
	return m.registerFn(ctx, id, name, email)
}

func (m *mockUserDirectory) EnsureUserRecord(ctx context.Context, id, fallbackName, email string) (*model.User, error) {
	m.ensureCalls++
	return m.ensureFn(ctx, id, fallbackName, email)
}

func (m *mockUserDirectory) FindUser(ctx context.Context, id string) (*model.User, error) {
	m.findCalls++
	return m.findFn(ctx, id)
}

const (
	testIssuer   = "https://issuer.example.com"
	testClientID = "prepwise-client"
)

func newRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate rsa key: %v", err)
	}
	return key
}

// signIDToken はテスト用のRS256署名IDトークンを生成する。
func signIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign id token: %v", err)
	}
	return signed
}

func defaultIDTokenClaims(now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   testClientID,
		"sub":   "google-uid-123",
		"email": "alice@example.com",
		"name":  "Alice",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}
