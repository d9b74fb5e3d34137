package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imbuy/marketplace/internal/application"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository reads the users table on behalf of the user responder.
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (application.User, error) {
	query := `SELECT id, username, email, role FROM users WHERE id = $1`

	var user application.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Role,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return application.User{}, ErrUserNotFound
		}
		return application.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}
