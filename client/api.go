// Package client is a Go client for the todo API. Session holds the
// authentication state and TaskStore mirrors the task list with optimistic
// mutations, the way a single-page frontend would.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/equillibrium/synergy406todo/internal/models"
	"github.com/equillibrium/synergy406todo/internal/routes"
)

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Client performs the HTTP calls. It holds the current token pair and
// transparently retries a request once after a silent refresh when the
// server reports an expired access token.
type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	// onTokens is notified whenever a silent refresh rotates the pair, so
	// the session can persist the new tokens.
	onTokens func(access, refresh string)
}

// New creates a client for the API at baseURL (e.g. "http://localhost:3000").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SetTokens replaces the current token pair.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

// Tokens returns the current token pair.
func (c *Client) Tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// OnTokensRefreshed registers a callback fired after a silent refresh.
func (c *Client) OnTokensRefreshed(fn func(access, refresh string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTokens = fn
}

// AuthResponse is the body returned by register and login.
type AuthResponse struct {
	Message      string       `json:"message"`
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Register creates an account and returns the signed-in result.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates by email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the given refresh token server-side.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refreshToken": refreshToken}
	return c.do(ctx, http.MethodPost, "/api/auth/logout", body, nil, false)
}

// Me fetches the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out, true); err != nil {
		return nil, err
	}
	return out.User, nil
}

// ListTodos fetches the full task list, newest first.
func (c *Client) ListTodos(ctx context.Context) ([]models.Todo, error) {
	var out struct {
		Todos []models.Todo `json:"todos"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/todos", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Todos, nil
}

// CreateTodo adds a task. An empty priority lets the server default to medium.
func (c *Client) CreateTodo(ctx context.Context, title, priority string) (*models.Todo, error) {
	body := map[string]string{"title": title}
	if priority != "" {
		body["priority"] = priority
	}
	var out struct {
		Todo *models.Todo `json:"todo"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/todos", body, &out, true); err != nil {
		return nil, err
	}
	return out.Todo, nil
}

// UpdateTodo applies a partial update to a task.
func (c *Client) UpdateTodo(ctx context.Context, id int, upd models.UpdateTodoRequest) (*models.Todo, error) {
	var out struct {
		Todo *models.Todo `json:"todo"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/todos/"+strconv.Itoa(id), upd, &out, true); err != nil {
		return nil, err
	}
	return out.Todo, nil
}

// DeleteTodo removes a task.
func (c *Client) DeleteTodo(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/api/todos/"+strconv.Itoa(id), nil, nil, true)
}

// DeleteCompleted bulk-removes completed tasks and returns the count.
func (c *Client) DeleteCompleted(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/todos/completed", nil, &out, true); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// TodoStats fetches the aggregate view of the list.
func (c *Client) TodoStats(ctx context.Context) (*models.TodoStats, error) {
	var out struct {
		Stats *models.TodoStats `json:"stats"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/todos/stats", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Stats, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	err := c.doOnce(ctx, method, path, body, out, authed)
	if err == nil || !authed {
		return err
	}

	// Expired access token: refresh once and retry the original call.
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == routes.TokenExpiredCode {
		if refreshErr := c.refresh(ctx); refreshErr != nil {
			return err
		}
		return c.doOnce(ctx, method, path, body, out, authed)
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		access, _ := c.Tokens()
		if access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	var errBody struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr != nil || errBody.Error == "" {
		errBody.Error = resp.Status
	}
	return &APIError{Status: resp.StatusCode, Code: errBody.Code, Message: errBody.Error}
}

// refresh exchanges the stored refresh token for a new pair.
func (c *Client) refresh(ctx context.Context) error {
	_, refresh := c.Tokens()
	if refresh == "" {
		return &APIError{Status: http.StatusUnauthorized, Message: "no refresh token"}
	}

	body := map[string]string{"refreshToken": refresh}
	var out struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.doOnce(ctx, http.MethodPost, "/api/auth/refresh", body, &out, false); err != nil {
		return err
	}

	c.mu.Lock()
	c.accessToken = out.AccessToken
	c.refreshToken = out.RefreshToken
	fn := c.onTokens
	c.mu.Unlock()

	if fn != nil {
		fn(out.AccessToken, out.RefreshToken)
	}
	return nil
}
