package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
)

func newTestAuth(t *testing.T, secret string) *authService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return NewAuthService(logger.Nop(), secret, string(hash), time.Hour).(*authService)
}

func TestLoginAndVerify(t *testing.T) {
	as := newTestAuth(t, "s3cret")
	ctx := context.Background()

	if _, err := as.Login(ctx, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: want ErrInvalidCredentials got %v", err)
	}
	tok, err := as.Login(ctx, "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if d := time.Until(tok.ExpiresAt); d <= 59*time.Minute || d > time.Hour {
		t.Fatalf("expiry: got %v", d)
	}
	rd, err := as.VerifyToken(ctx, "Bearer "+tok.Token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if rd.Subject != AdminSubject || rd.Role != AdminRole {
		t.Fatalf("claims: got %+v", rd)
	}
}

func TestVerifyTokenRejects(t *testing.T) {
	as := newTestAuth(t, "s3cret")
	ctx := context.Background()
	tok, err := as.Login(ctx, "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	other := newTestAuth(t, "another-secret")
	if _, err := other.VerifyToken(ctx, tok.Token); err == nil {
		t.Fatalf("token signed with another key must be rejected")
	}
	if _, err := as.VerifyToken(ctx, ""); err == nil {
		t.Fatalf("empty token must be rejected")
	}

	as.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = as.VerifyToken(ctx, tok.Token)
	wantStatus(t, err, http.StatusUnauthorized, "token_expired")
}

func TestLoginUnconfigured(t *testing.T) {
	as := NewAuthService(logger.Nop(), "", "", 0)
	_, err := as.Login(context.Background(), "anything")
	wantStatus(t, err, http.StatusServiceUnavailable, "auth_unconfigured")
	if as.GetAccessTTL() != DefaultAccessTTL {
		t.Fatalf("default ttl: got %v", as.GetAccessTTL())
	}
}
