package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/equillibrium/synergy406todo/internal/apperr"
	"github.com/equillibrium/synergy406todo/internal/models"
	"github.com/equillibrium/synergy406todo/internal/repositories"
	"github.com/equillibrium/synergy406todo/internal/services"
)

// TodoHandler serves the /api/todos endpoints. All of them run behind the
// auth middleware, so user_id is always present on the context.
type TodoHandler struct {
	todos *services.TodoService
}

func NewTodoHandler(todos *services.TodoService) *TodoHandler {
	return &TodoHandler{todos: todos}
}

// List handles GET /api/todos.
func (h *TodoHandler) List(c *gin.Context) {
	todos, err := h.todos.List(c.GetInt("user_id"))
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	if todos == nil {
		todos = []models.Todo{}
	}

	c.JSON(http.StatusOK, gin.H{"todos": todos, "count": len(todos)})
}

// GetByID handles GET /api/todos/:id.
func (h *TodoHandler) GetByID(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	todo, err := h.todos.GetByID(id, c.GetInt("user_id"))
	if err != nil {
		abortTodoErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"todo": todo})
}

// Create handles POST /api/todos.
func (h *TodoHandler) Create(c *gin.Context) {
	var req models.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Abort(c, err)
		return
	}

	todo, err := h.todos.Create(c.GetInt("user_id"), req)
	if err != nil {
		abortTodoErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Todo created", "todo": todo})
}

// Update handles PUT /api/todos/:id with partial update semantics.
func (h *TodoHandler) Update(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	var req models.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Abort(c, err)
		return
	}

	todo, err := h.todos.Update(id, c.GetInt("user_id"), req)
	if err != nil {
		abortTodoErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Todo updated", "todo": todo})
}

// Delete handles DELETE /api/todos/:id.
func (h *TodoHandler) Delete(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	if err := h.todos.Delete(id, c.GetInt("user_id")); err != nil {
		abortTodoErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Todo deleted", "id": id})
}

// DeleteCompleted handles DELETE /api/todos/completed.
func (h *TodoHandler) DeleteCompleted(c *gin.Context) {
	count, err := h.todos.DeleteCompleted(c.GetInt("user_id"))
	if err != nil {
		apperr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Completed todos deleted", "count": count})
}

// Stats handles GET /api/todos/stats.
func (h *TodoHandler) Stats(c *gin.Context) {
	stats, err := h.todos.Stats(c.GetInt("user_id"))
	if err != nil {
		apperr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func todoID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apperr.Abort(c, apperr.BadRequest("invalid todo id"))
		return 0, false
	}
	return id, true
}

func abortTodoErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrTodoNotFound):
		apperr.Abort(c, apperr.NotFound("todo not found"))
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleTooLong),
		errors.Is(err, services.ErrEmptyUpdate):
		apperr.Abort(c, apperr.BadRequest(err.Error()))
	default:
		apperr.Abort(c, err)
	}
}
