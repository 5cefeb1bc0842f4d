package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nmarofsky/DatingApp/internal/domain"
	"gorm.io/gorm"
)

// UserRepository user lookup used by the messaging core
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	TouchLastActive(ctx context.Context, username string, at time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByUsername returns nil, nil when no such user exists
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// TouchLastActive records user activity
func (r *userRepository) TouchLastActive(ctx context.Context, username string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("username = ?", username).
		Update("last_active", at.UTC()).Error
}
