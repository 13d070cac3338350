package client

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/equillibrium/synergy406todo/internal/models"
)

// State is the session lifecycle phase.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
)

// Storage keys, matching what the web frontend keeps in localStorage.
const (
	keyAccessToken  = "accessToken"
	keyRefreshToken = "refreshToken"
	keyUser         = "user"
)

// Session tracks the current identity and token pair, persisting them through
// Storage so a restart resumes the signed-in state without a server round
// trip. Any failure to fetch the current user is treated as token invalidity
// and purges the session.
type Session struct {
	api     *Client
	storage Storage

	mu      sync.Mutex
	state   State
	user    *models.User
	lastErr string
}

// NewSession hydrates the session from storage: when both a stored user and
// access token are present the session starts out authenticated, and the
// tokens are only re-validated when the next authenticated call fails.
func NewSession(api *Client, storage Storage) *Session {
	s := &Session{api: api, storage: storage}
	api.OnTokensRefreshed(s.storeTokens)
	s.hydrate()
	return s
}

func (s *Session) hydrate() {
	storedUser, okUser := s.storage.Get(keyUser)
	access, okAccess := s.storage.Get(keyAccessToken)
	if !okUser || !okAccess {
		return
	}

	var user models.User
	if err := json.Unmarshal([]byte(storedUser), &user); err != nil {
		log.Printf("could not parse stored user, clearing session: %v", err)
		s.purge()
		return
	}

	refresh, _ := s.storage.Get(keyRefreshToken)
	s.api.SetTokens(access, refresh)
	s.user = &user
	s.state = StateAuthenticated
}

// Register creates an account and signs in.
func (s *Session) Register(ctx context.Context, username, email, password string) error {
	return s.authenticate(func() (*AuthResponse, error) {
		return s.api.Register(ctx, username, email, password)
	})
}

// Login signs in with email and password.
func (s *Session) Login(ctx context.Context, email, password string) error {
	return s.authenticate(func() (*AuthResponse, error) {
		return s.api.Login(ctx, email, password)
	})
}

func (s *Session) authenticate(call func() (*AuthResponse, error)) error {
	s.mu.Lock()
	s.state = StateAuthenticating
	s.lastErr = ""
	s.mu.Unlock()

	resp, err := call()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateAnonymous
		s.lastErr = err.Error()
		return err
	}

	s.api.SetTokens(resp.AccessToken, resp.RefreshToken)
	s.user = resp.User
	s.state = StateAuthenticated
	s.persist(resp.User, resp.AccessToken, resp.RefreshToken)
	return nil
}

// Logout revokes the refresh token best-effort and always clears local state.
func (s *Session) Logout(ctx context.Context) {
	_, refresh := s.api.Tokens()
	if refresh != "" {
		if err := s.api.Logout(ctx, refresh); err != nil {
			log.Printf("remote logout failed: %v", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purge()
}

// FetchCurrentUser re-validates the session against the server. Any failure
// is treated as an invalid session and purges local state.
func (s *Session) FetchCurrentUser(ctx context.Context) error {
	access, _ := s.api.Tokens()
	if access == "" {
		return nil
	}

	user, err := s.api.Me(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err.Error()
		s.purge()
		return err
	}

	s.user = user
	access, refresh := s.api.Tokens()
	s.persist(user, access, refresh)
	return nil
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the signed-in user, or nil.
func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// IsAuthenticated reports whether a user is signed in.
func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// Err returns the last authentication error message, if any.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError discards the stored error message.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
}

func (s *Session) persist(user *models.User, access, refresh string) {
	data, err := json.Marshal(user)
	if err != nil {
		log.Printf("could not serialize user for storage: %v", err)
		return
	}
	s.set(keyUser, string(data))
	s.set(keyAccessToken, access)
	s.set(keyRefreshToken, refresh)
}

// storeTokens persists a rotated pair after a silent refresh.
func (s *Session) storeTokens(access, refresh string) {
	s.set(keyAccessToken, access)
	s.set(keyRefreshToken, refresh)
}

func (s *Session) set(key, value string) {
	if err := s.storage.Set(key, value); err != nil {
		log.Printf("could not persist %s: %v", key, err)
	}
}

// purge clears tokens, identity and persisted state. Callers hold s.mu where
// required.
func (s *Session) purge() {
	s.api.SetTokens("", "")
	s.user = nil
	s.state = StateAnonymous
	for _, key := range []string{keyUser, keyAccessToken, keyRefreshToken} {
		if err := s.storage.Delete(key); err != nil {
			log.Printf("could not clear %s: %v", key, err)
		}
	}
}
