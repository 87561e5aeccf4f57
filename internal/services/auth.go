package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/meetingdesk-backend/internal/platform/apierr"
	"github.com/yungbote/meetingdesk-backend/internal/platform/ctxutil"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
)

const (
	AdminSubject     = "admin"
	AdminRole        = "admin"
	DefaultAccessTTL = 12 * time.Hour

	tokenIssuer = "meetingdesk"
)

var ErrInvalidCredentials = apierr.New(http.StatusUnauthorized, "invalid_credentials", errors.New("invalid credentials"))

// AuthService guards the back office with one shared admin password. The
// password itself is never stored, only its bcrypt hash.
type AuthService interface {
	Login(ctx context.Context, password string) (*AccessToken, error)
	VerifyToken(ctx context.Context, token string) (*ctxutil.RequestData, error)
	GetAccessTTL() time.Duration
}

type AccessToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
	passwordHash []byte
	accessTTL    time.Duration
	now          func() time.Time
}

func NewAuthService(log *logger.Logger, jwtSecretKey, adminPasswordHash string, accessTTL time.Duration) AuthService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		jwtSecretKey: jwtSecretKey,
		passwordHash: []byte(strings.TrimSpace(adminPasswordHash)),
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

func (as *authService) Login(ctx context.Context, password string) (*AccessToken, error) {
	if len(as.passwordHash) == 0 || as.jwtSecretKey == "" {
		return nil, apierr.Unavailable("auth_unconfigured", errors.New("login is not configured"))
	}
	if password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(as.passwordHash, []byte(password)); err != nil {
		as.log.Warn("login rejected")
		return nil, ErrInvalidCredentials
	}
	now := as.now()
	exp := now.Add(as.accessTTL)
	claims := accessClaims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   AdminSubject,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &AccessToken{Token: signed, ExpiresAt: exp.UTC()}, nil
}

func (as *authService) VerifyToken(ctx context.Context, token string) (*ctxutil.RequestData, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" || as.jwtSecretKey == "" {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("missing token"))
	}
	var claims accessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(as.now),
	)
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apierr.New(http.StatusUnauthorized, "token_expired", err)
		}
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", fmt.Errorf("invalid token: %w", err))
	}
	return &ctxutil.RequestData{Subject: claims.Subject, Role: claims.Role}, nil
}
