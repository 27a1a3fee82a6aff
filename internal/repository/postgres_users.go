package repository

import (
	"context"
	"database/sql"
	"errors"

	"clima-data/internal/domain"
)

// PostgresUsersRepository 用户Repository实现
type PostgresUsersRepository struct {
	db *sql.DB
}

// NewPostgresUsersRepository 创建用户Repository
func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

// CreateUser 新建用户
func (r *PostgresUsersRepository) CreateUser(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, role_id)
		VALUES ($1, $2, $3, $4)
		RETURNING user_id, role_id, created_at`

	u := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := r.db.QueryRowContext(ctx, query, username, email, passwordHash, domain.DefaultRoleID).
		Scan(&u.UserID, &u.RoleID, &u.CreatedAt); err != nil {
		err = translateError(err, "failed to create user")
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.WrapError(domain.KindConflict, "username or email already registered", errors.Unwrap(err))
		}
		return nil, err
	}
	return u, nil
}

// GetUserByUsername 按用户名查询
func (r *PostgresUsersRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT user_id, username, email, password_hash, role_id, created_at
		FROM users
		WHERE username = $1`

	var u domain.User
	if err := r.db.QueryRowContext(ctx, query, username).Scan(
		&u.UserID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.RoleID,
		&u.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("user not found")
		}
		return nil, translateError(err, "failed to get user")
	}
	return &u, nil
}
