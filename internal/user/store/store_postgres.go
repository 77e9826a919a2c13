package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/internal/user/models"
	"inkwell/pkg/platform/sentinel"
)

// PostgresStore is the production user store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a user store over a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const uniqueViolation = "23505"

func translatePgError(err error, context string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", context, sentinel.ErrConflict)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", context, sentinel.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", context, err)
}

func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, username, email, hashed_password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, user.FirstName, user.LastName, user.Username, user.Email, user.HashedPassword).Scan(&user.ID)
	if err != nil {
		return translatePgError(err, "create user")
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, username, email, hashed_password
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &u.HashedPassword)
	if err != nil {
		return nil, translatePgError(err, "get user")
	}
	return &u, nil
}

func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]models.User, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, first_name, last_name, username, email, hashed_password
		FROM users ORDER BY id LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0, limit)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &u.HashedPassword); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (s *PostgresStore) Update(ctx context.Context, user *models.User) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, hashed_password = $5
		WHERE id = $1
	`, user.ID, user.FirstName, user.LastName, user.Email, user.HashedPassword)
	if err != nil {
		return translatePgError(err, "update user")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update user %d: %w", user.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete user %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Credentials(ctx context.Context, username string) (models.Credentials, error) {
	var c models.Credentials
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, hashed_password FROM users WHERE username = $1
	`, username).Scan(&c.ID, &c.Username, &c.PasswordHash)
	if err != nil {
		return models.Credentials{}, translatePgError(err, "get credentials")
	}
	return c, nil
}

func (s *PostgresStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return exists, nil
}
