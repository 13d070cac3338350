// Package testutil provides a hermetic test harness: an in-memory sqlite
// store plus a fully wired router.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/equillibrium/synergy406todo/internal/config"
	"github.com/equillibrium/synergy406todo/internal/database"
	"github.com/equillibrium/synergy406todo/internal/models"
	"github.com/equillibrium/synergy406todo/internal/routes"
)

var dbCounter int64

// NewConfig returns a config suitable for tests.
func NewConfig() *config.Config {
	return &config.Config{
		Port:            "0",
		Env:             "test",
		DBDriver:        "sqlite",
		AccessSecret:    config.Secret("test-access-secret"),
		RefreshSecret:   config.Secret("test-refresh-secret"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		CORSOrigin:      "http://localhost:5173",
	}
}

// OpenTestDB opens a fresh in-memory database with the schema migrated.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Each test gets its own shared-cache memory db so parallel tests
	// cannot see each other's rows.
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Setup returns a migrated test database and the router built on it.
func Setup(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := OpenTestDB(t)
	return db, routes.SetupRouter(db, NewConfig())
}

// DoJSON performs a request against the router and returns the recorder.
// token may be empty for unauthenticated calls.
func DoJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

// AuthTokens holds the result of a test registration.
type AuthTokens struct {
	User         models.User
	AccessToken  string
	RefreshToken string
}

// RegisterUser registers an account through the API and returns its tokens.
func RegisterUser(t *testing.T, router *gin.Engine, username, email, password string) AuthTokens {
	t.Helper()

	resp := DoJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.Code, "registration failed: %s", resp.Body.String())

	var body struct {
		User         models.User `json:"user"`
		AccessToken  string      `json:"accessToken"`
		RefreshToken string      `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return AuthTokens{User: body.User, AccessToken: body.AccessToken, RefreshToken: body.RefreshToken}
}

// CreateTodo creates a todo through the API and returns it.
func CreateTodo(t *testing.T, router *gin.Engine, token, title, priority string) models.Todo {
	t.Helper()

	payload := map[string]string{"title": title}
	if priority != "" {
		payload["priority"] = priority
	}
	resp := DoJSON(t, router, http.MethodPost, "/api/todos", token, payload)
	require.Equal(t, http.StatusCreated, resp.Code, "todo creation failed: %s", resp.Body.String())

	var body struct {
		Todo models.Todo `json:"todo"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body.Todo
}
