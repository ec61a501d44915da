package store

import (
	"context"
	"errors"

	"notes-service/internal/apperr"
	"notes-service/internal/model"

	"gorm.io/gorm"
)

// UserStore serves the login path. Identity resolution for authenticated
// requests goes through auth.Resolver instead.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// FindByEmail returns the user with their tenant preloaded. Email
// uniqueness is global, so at most one row matches.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Preload("Tenant").
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		return nil, apperr.Wrap(apperr.Transient, "failed to load user", err)
	}
	return &user, nil
}
