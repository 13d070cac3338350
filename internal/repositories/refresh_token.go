package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/equillibrium/synergy406todo/internal/models"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// RefreshTokenRepository persists long-lived session credentials keyed by the
// token string itself.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(t *models.RefreshToken) error {
	if err := r.db.Create(t).Error; err != nil {
		return fmt.Errorf("could not insert refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) FindByToken(token string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := r.db.First(&t, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("could not query refresh token: %w", err)
	}
	return &t, nil
}

// DeleteByToken removes every row matching the token string. Deleting an
// absent token is not an error, which keeps logout idempotent.
func (r *RefreshTokenRepository) DeleteByToken(token string) error {
	if err := r.db.Delete(&models.RefreshToken{}, "token = ?", token).Error; err != nil {
		return fmt.Errorf("could not delete refresh token: %w", err)
	}
	return nil
}

// Rotate atomically replaces oldToken with next. Without the transaction a
// crash between delete and insert would silently drop the session.
func (r *RefreshTokenRepository) Rotate(oldToken string, next *models.RefreshToken) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.RefreshToken{}, "token = ?", oldToken).Error; err != nil {
			return err
		}
		return tx.Create(next).Error
	})
	if err != nil {
		return fmt.Errorf("could not rotate refresh token: %w", err)
	}
	return nil
}
