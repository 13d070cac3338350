// Package services holds the business logic between handlers and repositories.
package services

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/equillibrium/synergy406todo/internal/config"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenService issues and verifies the access/refresh token pair. The two
// token kinds are signed with independent secrets so compromise of one cannot
// forge the other.
type TokenService struct {
	accessSecret  config.Secret
	refreshSecret config.Secret
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}
}

// TokenPair is a freshly issued access/refresh credential pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// GenerateTokens issues a new pair bound to the user id.
func (s *TokenService) GenerateTokens(userID int) (*TokenPair, error) {
	access, err := s.sign(userID, s.accessSecret, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(userID, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshTTL returns how long an issued refresh token stays valid.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// VerifyAccess validates an access token and returns the user id it names.
func (s *TokenService) VerifyAccess(token string) (int, error) {
	return s.verify(token, s.accessSecret)
}

// VerifyRefresh validates a refresh token and returns the user id it names.
func (s *TokenService) VerifyRefresh(token string) (int, error) {
	return s.verify(token, s.refreshSecret)
}

func (s *TokenService) sign(userID int, secret config.Secret, ttl time.Duration) (string, error) {
	now := time.Now()
	// The jti keeps tokens unique even when two are issued for the same
	// user within the same second; refresh tokens are stored by value and
	// must never collide.
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret.Bytes())
}

func (s *TokenService) verify(tokenString string, secret config.Secret) (int, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret.Bytes(), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return 0, ErrTokenInvalid
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, ErrTokenInvalid
	}
	return userID, nil
}
