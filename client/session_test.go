package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equillibrium/synergy406todo/client"
	"github.com/equillibrium/synergy406todo/testutil"
)

// startServer runs the real API on an httptest listener.
func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	_, router := testutil.Setup(t)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionRegisterAndPersist(t *testing.T) {
	srv := startServer(t)
	storage := client.NewMemoryStorage()
	session := client.NewSession(client.New(srv.URL), storage)

	assert.Equal(t, client.StateAnonymous, session.State())

	err := session.Register(context.Background(), "alice", "alice@x.com", "Passw0rd")
	require.NoError(t, err)
	assert.Equal(t, client.StateAuthenticated, session.State())
	assert.True(t, session.IsAuthenticated())
	assert.Equal(t, "alice", session.User().Username)

	// Tokens and the user land in persistent storage.
	_, ok := storage.Get("accessToken")
	assert.True(t, ok)
	_, ok = storage.Get("refreshToken")
	assert.True(t, ok)
	_, ok = storage.Get("user")
	assert.True(t, ok)
}

func TestSessionHydratesFromStorage(t *testing.T) {
	srv := startServer(t)
	storage := client.NewMemoryStorage()

	first := client.NewSession(client.New(srv.URL), storage)
	require.NoError(t, first.Register(context.Background(), "alice", "alice@x.com", "Passw0rd"))

	// A new process over the same storage resumes the session without any
	// network traffic.
	second := client.NewSession(client.New(srv.URL), storage)
	assert.True(t, second.IsAuthenticated())
	assert.Equal(t, "alice", second.User().Username)

	// The hydrated tokens really work against the server.
	require.NoError(t, second.FetchCurrentUser(context.Background()))
	assert.Equal(t, "alice", second.User().Username)
}

func TestSessionLoginFailureStaysAnonymous(t *testing.T) {
	srv := startServer(t)
	session := client.NewSession(client.New(srv.URL), client.NewMemoryStorage())

	err := session.Login(context.Background(), "nobody@x.com", "Passw0rd1")
	require.Error(t, err)
	assert.Equal(t, client.StateAnonymous, session.State())
	assert.Equal(t, "invalid email or password", session.Err())

	session.ClearError()
	assert.Empty(t, session.Err())
}

func TestSessionLogoutPurges(t *testing.T) {
	srv := startServer(t)
	storage := client.NewMemoryStorage()
	session := client.NewSession(client.New(srv.URL), storage)
	require.NoError(t, session.Register(context.Background(), "alice", "alice@x.com", "Passw0rd"))

	session.Logout(context.Background())

	assert.Equal(t, client.StateAnonymous, session.State())
	assert.Nil(t, session.User())
	_, ok := storage.Get("accessToken")
	assert.False(t, ok)
	_, ok = storage.Get("user")
	assert.False(t, ok)
}

func TestSessionFetchCurrentUserFailurePurges(t *testing.T) {
	srv := startServer(t)
	storage := client.NewMemoryStorage()
	api := client.New(srv.URL)
	session := client.NewSession(api, storage)
	require.NoError(t, session.Register(context.Background(), "alice", "alice@x.com", "Passw0rd"))

	// Corrupt the access token and drop the refresh token, as if the server
	// had rotated its secrets.
	api.SetTokens("no-longer-valid", "")

	err := session.FetchCurrentUser(context.Background())
	require.Error(t, err)
	assert.Equal(t, client.StateAnonymous, session.State())
	assert.Nil(t, session.User())
	_, ok := storage.Get("user")
	assert.False(t, ok)
}

func TestSessionFetchCurrentUserWithoutTokenIsNoop(t *testing.T) {
	srv := startServer(t)
	session := client.NewSession(client.New(srv.URL), client.NewMemoryStorage())

	require.NoError(t, session.FetchCurrentUser(context.Background()))
	assert.Equal(t, client.StateAnonymous, session.State())
}

func TestClientSilentRefreshOnExpiredToken(t *testing.T) {
	srv := startServer(t)
	storage := client.NewMemoryStorage()
	api := client.New(srv.URL)
	session := client.NewSession(api, storage)
	require.NoError(t, session.Register(context.Background(), "alice", "alice@x.com", "Passw0rd"))

	// Keep the live refresh token but present a token that reads as expired.
	_, refresh := api.Tokens()
	expired := expiredAccessToken(t, session.User().ID)
	api.SetTokens(expired, refresh)

	// The call sees TOKEN_EXPIRED, silently refreshes and retries.
	user, err := api.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	// The rotated pair replaced the expired one, in memory and in storage.
	access, newRefresh := api.Tokens()
	assert.NotEqual(t, expired, access)
	assert.NotEqual(t, refresh, newRefresh)
	stored, ok := storage.Get("refreshToken")
	require.True(t, ok)
	assert.Equal(t, newRefresh, stored)
}

func TestHTTPErrorCheck(t *testing.T) {
	srv := startServer(t)
	api := client.New(srv.URL)

	_, err := api.Login(context.Background(), "nobody@x.com", "Passw0rd1")
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid email or password", apiErr.Message)
}
