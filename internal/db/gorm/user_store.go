package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hollowmoss/keepsake/pkg/models"
)

// UserStore provides the minimal user persistence the foreign keys need.
type UserStore struct {
	store *Store
}

// NewUserStore creates a UserStore on the shared connection.
func NewUserStore(store *Store) *UserStore {
	return &UserStore{store: store}
}

// CreateUser inserts a user and fills in the assigned id.
func (s *UserStore) CreateUser(ctx context.Context, user *models.User, now time.Time) error {
	if user.DateCreated.IsZero() {
		user.DateCreated = now
	}
	rec := &User{DateCreated: user.DateCreated, Username: user.Username}
	if err := s.store.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	user.ID = rec.ID
	return nil
}

// GetUser returns one user by id, models.ErrNotFound when missing.
func (s *UserStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var rec User
	err := s.store.DB.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &models.User{ID: rec.ID, DateCreated: rec.DateCreated, Username: rec.Username}, nil
}
