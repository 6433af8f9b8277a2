package repository

import (
	"context"
	"errors"
	"fmt"

	"VinylShop/model"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id uint64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteAll(ctx context.Context) (int64, error)
}

// gormUserRepository implements UserRepository on top of GORM.
type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new gormUserRepository.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

// CreateUser validates, hashes the password (model hooks) and inserts the user.
func (r *gormUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *gormUserRepository) GetUserByID(ctx context.Context, id uint64) (*model.User, error) {
	user := &model.User{}
	err := r.db.WithContext(ctx).First(user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *gormUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	err := r.db.WithContext(ctx).Where("email = ?", email).First(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return user, nil
}

// UpdateUser writes every column except created_at. A pending Password is rehashed by the model hook.
func (r *gormUserRepository) UpdateUser(ctx context.Context, user *model.User) error {
	result := r.db.WithContext(ctx).
		Model(user).
		Select("*").
		Omit("id", "created_at").
		Updates(user)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to update user %d: %w", user.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteAll removes every user.
func (r *gormUserRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.User{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete all users: %w", result.Error)
	}
	return result.RowsAffected, nil
}
