// Package users provides database operations for user profile records.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	err := repo.Create(ctx, &entities.User{ID: uid, Name: name, Email: email})
//	user, err := repo.Get(ctx, uid)
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/prepwise/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves the profile stored under id.
// Returns entities.ErrRecordNotFound when no such profile exists.
func (r *Repository) Get(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	return &user, nil
}

// Create stores a new profile. The existence check and the write happen in a
// single statement, so two concurrent creates for the same id cannot both win.
// Returns entities.ErrRecordExists if a profile with the same id is present and
// entities.ErrEmailTaken if another profile already uses the email.
func (r *Repository) Create(ctx context.Context, user *entities.User) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return entities.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user %s: %w", user.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return entities.ErrRecordExists
	}
	return nil
}

// isUniqueViolation covers connections opened without TranslateError.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
