package routes_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equillibrium/synergy406todo/internal/models"
	"github.com/equillibrium/synergy406todo/internal/routes"
	"github.com/equillibrium/synergy406todo/internal/services"
	"github.com/equillibrium/synergy406todo/testutil"
)

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	_, router := testutil.Setup(t)

	resp := testutil.DoJSON(t, router, http.MethodGet, "/api/todos", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// A malformed Authorization header counts as no token.
	req, err := http.NewRequest(http.MethodGet, "/api/todos", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Token abcdef")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	_, router := testutil.Setup(t)

	resp := testutil.DoJSON(t, router, http.MethodGet, "/api/todos", "garbage.token.here", nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAuthMiddlewareSignalsExpiredToken(t *testing.T) {
	_, router := testutil.Setup(t)
	tokens := testutil.RegisterUser(t, router, "alice", "alice@x.com", "Passw0rd")

	// Mint an already-expired access token with the same signing secret.
	cfg := testutil.NewConfig()
	cfg.AccessTokenTTL = -time.Minute
	expired, err := services.NewTokenService(cfg).GenerateTokens(tokens.User.ID)
	require.NoError(t, err)

	resp := testutil.DoJSON(t, router, http.MethodGet, "/api/todos", expired.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, routes.TokenExpiredCode, body.Code)
}

func TestAuthMiddlewareRejectsDeletedUser(t *testing.T) {
	db, router := testutil.Setup(t)
	tokens := testutil.RegisterUser(t, router, "alice", "alice@x.com", "Passw0rd")

	require.NoError(t, db.Delete(&models.User{}, tokens.User.ID).Error)

	// The token still verifies, but the account behind it is gone.
	resp := testutil.DoJSON(t, router, http.MethodGet, "/api/todos", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRequestIDHeader(t *testing.T) {
	_, router := testutil.Setup(t)

	resp := testutil.DoJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, resp.Header().Get("X-Request-ID"))
}
