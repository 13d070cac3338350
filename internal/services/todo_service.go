package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/equillibrium/synergy406todo/internal/models"
	"github.com/equillibrium/synergy406todo/internal/repositories"
)

var (
	ErrTitleRequired = errors.New("title must not be empty")
	ErrTitleTooLong  = errors.New("title must be at most 500 characters")
	ErrEmptyUpdate   = errors.New("at least one field must be provided")
)

const maxTitleLength = 500

// TodoService implements the per-user task operations. Every method takes the
// caller's user id; ownership violations surface as not-found.
type TodoService struct {
	todos *repositories.TodoRepository
}

func NewTodoService(todos *repositories.TodoRepository) *TodoService {
	return &TodoService{todos: todos}
}

func (s *TodoService) List(userID int) ([]models.Todo, error) {
	return s.todos.FindAllByUser(userID)
}

func (s *TodoService) GetByID(id, userID int) (*models.Todo, error) {
	return s.todos.FindByID(id, userID)
}

// Create adds a todo for the user. The title is trimmed and re-validated here
// even though the handler already checked it.
func (s *TodoService) Create(userID int, req models.CreateTodoRequest) (*models.Todo, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, ErrTitleTooLong
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	todo := &models.Todo{
		UserID:   userID,
		Title:    title,
		Priority: priority,
	}
	if err := s.todos.Create(todo); err != nil {
		return nil, err
	}
	return todo, nil
}

// Update applies a partial update; nil fields keep their current value.
func (s *TodoService) Update(id, userID int, req models.UpdateTodoRequest) (*models.Todo, error) {
	if req.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	todo, err := s.todos.FindByID(id, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		if utf8.RuneCountInString(title) > maxTitleLength {
			return nil, ErrTitleTooLong
		}
		todo.Title = title
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}
	if req.Priority != nil {
		todo.Priority = *req.Priority
	}

	if err := s.todos.Save(todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *TodoService) Delete(id, userID int) error {
	return s.todos.Delete(id, userID)
}

// DeleteCompleted bulk-deletes the user's completed todos. Zero deletions is
// a valid outcome, not an error.
func (s *TodoService) DeleteCompleted(userID int) (int64, error) {
	return s.todos.DeleteCompleted(userID)
}

// Stats aggregates the user's list.
func (s *TodoService) Stats(userID int) (*models.TodoStats, error) {
	total, completed, err := s.todos.CountByUser(userID)
	if err != nil {
		return nil, err
	}

	rate := "0"
	if total > 0 {
		rate = fmt.Sprintf("%.1f", float64(completed)/float64(total)*100)
	}

	return &models.TodoStats{
		Total:          total,
		Completed:      completed,
		Active:         total - completed,
		CompletionRate: rate,
	}, nil
}
