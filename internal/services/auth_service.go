package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/equillibrium/synergy406todo/internal/models"
	"github.com/equillibrium/synergy406todo/internal/repositories"
)

var (
	ErrEmailTaken    = errors.New("user with this email already exists")
	ErrUsernameTaken = errors.New("user with this username already exists")
	// ErrInvalidCredentials deliberately carries the same message for an
	// unknown email and a wrong password so accounts cannot be enumerated.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRefreshInvalid     = errors.New("invalid or expired refresh token")
)

// AuthService orchestrates registration, login and the refresh token lifecycle.
type AuthService struct {
	users   *repositories.UserRepository
	refresh *repositories.RefreshTokenRepository
	tokens  *TokenService
}

func NewAuthService(users *repositories.UserRepository, refresh *repositories.RefreshTokenRepository, tokens *TokenService) *AuthService {
	return &AuthService{users: users, refresh: refresh, tokens: tokens}
}

// AuthResult is the outcome of a successful register or login.
type AuthResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// Register creates a new account and signs it in.
func (s *AuthService) Register(req models.RegisterRequest) (*AuthResult, error) {
	email := strings.ToLower(req.Email)

	if _, err := s.users.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, err
	}
	if _, err := s.users.FindByUsername(req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(user); err != nil {
		// Lost a race against a concurrent registration.
		if errors.Is(err, repositories.ErrDuplicateUser) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return s.startSession(user)
}

// Login authenticates by email and password and opens a new session. Other
// live sessions for the same user are left untouched.
func (s *AuthService) Login(req models.LoginRequest) (*AuthResult, error) {
	user, err := s.users.FindByEmail(strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(user)
}

// Refresh exchanges a refresh token for a fresh pair. Tokens are single-use:
// the presented row is replaced by the new one in the same transaction, so a
// replayed token always fails.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	stored, err := s.refresh.FindByToken(refreshToken)
	if err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrRefreshInvalid
	}

	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		// The row refers to a token that no longer verifies; drop it.
		if delErr := s.refresh.DeleteByToken(refreshToken); delErr != nil {
			log.Printf("failed to clean up invalid refresh token: %v", delErr)
		}
		return nil, ErrRefreshInvalid
	}

	pair, err := s.tokens.GenerateTokens(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	next := &models.RefreshToken{
		Token:     pair.RefreshToken,
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.tokens.RefreshTTL()),
	}
	if err := s.refresh.Rotate(refreshToken, next); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes the given refresh token. An unknown or empty token is not an
// error; the caller ends up logged out either way.
func (s *AuthService) Logout(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refresh.DeleteByToken(refreshToken)
}

// CurrentUser returns the profile for an already-authenticated user id.
func (s *AuthService) CurrentUser(userID int) (*models.User, error) {
	return s.users.FindByID(userID)
}

func (s *AuthService) startSession(user *models.User) (*AuthResult, error) {
	pair, err := s.tokens.GenerateTokens(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	row := &models.RefreshToken{
		Token:     pair.RefreshToken,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.tokens.RefreshTTL()),
	}
	if err := s.refresh.Create(row); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}
