package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hapo/redmine-reminder/internal/database"
	"github.com/hapo/redmine-reminder/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert mirrors a Redmine user, keyed by its Redmine id.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO users (id, login, firstname, lastname, time_zone) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET login = EXCLUDED.login, firstname = EXCLUDED.firstname,
			lastname = EXCLUDED.lastname, time_zone = EXCLUDED.time_zone`),
		user.ID, user.Login, user.Firstname, user.Lastname, user.TimeZone,
	)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", user.ID, err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	user := &models.User{}
	err := r.db.GetContext(ctx, user, r.db.Rebind(
		`SELECT id, login, firstname, lastname, time_zone FROM users WHERE id = ?`),
		userID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return user, nil
}
