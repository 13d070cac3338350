package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equillibrium/synergy406todo/internal/models"
	"github.com/equillibrium/synergy406todo/testutil"
)

func TestTodoLifecycle(t *testing.T) {
	_, router := testutil.Setup(t)
	tokens := testutil.RegisterUser(t, router, "alice", "alice@x.com", "Passw0rd")

	// Create: priority defaults to medium.
	todo := testutil.CreateTodo(t, router, tokens.AccessToken, "Buy milk", "")
	assert.Equal(t, "Buy milk", todo.Title)
	assert.Equal(t, models.PriorityMedium, todo.Priority)
	assert.False(t, todo.Completed)

	// Toggle completed.
	resp := testutil.DoJSON(t, router, http.MethodPut, fmt.Sprintf("/api/todos/%d", todo.ID), tokens.AccessToken,
		map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var updated struct {
		Todo models.Todo `json:"todo"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.True(t, updated.Todo.Completed)
	assert.Equal(t, "Buy milk", updated.Todo.Title)

	// Clear completed: exactly one goes away.
	resp = testutil.DoJSON(t, router, http.MethodDelete, "/api/todos/completed", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var cleared struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &cleared))
	assert.EqualValues(t, 1, cleared.Count)

	// The list is empty now.
	resp = testutil.DoJSON(t, router, http.MethodGet, "/api/todos", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var list struct {
		Todos []models.Todo `json:"todos"`
		Count int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	assert.Empty(t, list.Todos)
	assert.Equal(t, 0, list.Count)
}

func TestTodosAreScopedToOwner(t *testing.T) {
	_, router := testutil.Setup(t)
	alice := testutil.RegisterUser(t, router, "alice", "alice@x.com", "Passw0rd")
	bob := testutil.RegisterUser(t, router, "bobby", "bob@x.com", "Passw0rd")

	todo := testutil.CreateTodo(t, router, alice.AccessToken, "Alice's secret", "")

	// Bob cannot see, update or delete Alice's todo; it looks absent.
	resp := testutil.DoJSON(t, router, http.MethodGet, fmt.Sprintf("/api/todos/%d", todo.ID), bob.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = testutil.DoJSON(t, router, http.MethodPut, fmt.Sprintf("/api/todos/%d", todo.ID), bob.AccessToken,
		map[string]any{"completed": true})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = testutil.DoJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/todos/%d", todo.ID), bob.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// Bob's list does not contain it.
	resp = testutil.DoJSON(t, router, http.MethodGet, "/api/todos", bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Count)
}

func TestCreateTodoValidationOverHTTP(t *testing.T) {
	_, router := testutil.Setup(t)
	tokens := testutil.RegisterUser(t, router, "alice", "alice@x.com", "Passw0rd")

	resp := testutil.DoJSON(t, router, http.MethodPost, "/api/todos", tokens.AccessToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = testutil.DoJSON(t, router, http.MethodPost, "/api/todos", tokens.AccessToken,
		map[string]string{"title": "ok", "priority": "urgent"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = testutil.DoJSON(t, router, http.MethodPost, "/api/todos", tokens.AccessToken,
		map[string]string{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateTodoRequiresAField(t *testing.T) {
	_, router := testutil.Setup(t)
	tokens := testutil.RegisterUser(t, router, "alice", "alice@x.com", "Passw0rd")
	todo := testutil.CreateTodo(t, router, tokens.AccessToken, "task", "")

	resp := testutil.DoJSON(t, router, http.MethodPut, fmt.Sprintf("/api/todos/%d", todo.ID), tokens.AccessToken,
		map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStatsEndpoint(t *testing.T) {
	_, router := testutil.Setup(t)
	tokens := testutil.RegisterUser(t, router, "alice", "alice@x.com", "Passw0rd")

	resp := testutil.DoJSON(t, router, http.MethodGet, "/api/todos/stats", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Stats models.TodoStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "0", body.Stats.CompletionRate)

	a := testutil.CreateTodo(t, router, tokens.AccessToken, "a", "")
	testutil.CreateTodo(t, router, tokens.AccessToken, "b", "high")
	testutil.CreateTodo(t, router, tokens.AccessToken, "c", "low")

	putResp := testutil.DoJSON(t, router, http.MethodPut, fmt.Sprintf("/api/todos/%d", a.ID), tokens.AccessToken,
		map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, putResp.Code)

	resp = testutil.DoJSON(t, router, http.MethodGet, "/api/todos/stats", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body.Stats.Total)
	assert.EqualValues(t, 1, body.Stats.Completed)
	assert.EqualValues(t, 2, body.Stats.Active)
	assert.Equal(t, "33.3", body.Stats.CompletionRate)
}

func TestHealthEndpoint(t *testing.T) {
	_, router := testutil.Setup(t)

	resp := testutil.DoJSON(t, router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Status      string `json:"status"`
		Timestamp   string `json:"timestamp"`
		Environment string `json:"environment"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Environment)
	assert.NotEmpty(t, body.Timestamp)
}

func TestUnknownRoute(t *testing.T) {
	_, router := testutil.Setup(t)

	resp := testutil.DoJSON(t, router, http.MethodGet, "/api/nonsense", "", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "/api/nonsense")
}
