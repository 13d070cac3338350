package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/equillibrium/synergy406todo/internal/models"
)

var ErrTodoNotFound = errors.New("todo not found")

// TodoRepository persists todos. Every query is scoped by the owning user id,
// so a missing row and a row owned by someone else are indistinguishable.
type TodoRepository struct {
	db *gorm.DB
}

func NewTodoRepository(db *gorm.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Create(t *models.Todo) error {
	if err := r.db.Create(t).Error; err != nil {
		return fmt.Errorf("could not insert todo: %w", err)
	}
	return nil
}

// FindAllByUser returns the user's todos, newest first.
func (r *TodoRepository) FindAllByUser(userID int) ([]models.Todo, error) {
	var todos []models.Todo
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&todos).Error
	if err != nil {
		return nil, fmt.Errorf("could not query todos: %w", err)
	}
	return todos, nil
}

func (r *TodoRepository) FindByID(id, userID int) (*models.Todo, error) {
	var t models.Todo
	err := r.db.First(&t, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("could not query todo: %w", err)
	}
	return &t, nil
}

func (r *TodoRepository) Save(t *models.Todo) error {
	if err := r.db.Save(t).Error; err != nil {
		return fmt.Errorf("could not update todo: %w", err)
	}
	return nil
}

func (r *TodoRepository) Delete(id, userID int) error {
	res := r.db.Delete(&models.Todo{}, "id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		return fmt.Errorf("could not delete todo: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

// DeleteCompleted removes all of the user's completed todos and returns how
// many rows were deleted.
func (r *TodoRepository) DeleteCompleted(userID int) (int64, error) {
	res := r.db.Delete(&models.Todo{}, "user_id = ? AND completed = ?", userID, true)
	if res.Error != nil {
		return 0, fmt.Errorf("could not delete completed todos: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CountByUser returns total and completed counts for the user's list.
func (r *TodoRepository) CountByUser(userID int) (total, completed int64, err error) {
	err = r.db.Model(&models.Todo{}).Where("user_id = ?", userID).Count(&total).Error
	if err != nil {
		return 0, 0, fmt.Errorf("could not count todos: %w", err)
	}
	err = r.db.Model(&models.Todo{}).Where("user_id = ? AND completed = ?", userID, true).Count(&completed).Error
	if err != nil {
		return 0, 0, fmt.Errorf("could not count completed todos: %w", err)
	}
	return total, completed, nil
}
