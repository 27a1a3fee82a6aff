package repository

import (
	"context"

	"clima-data/internal/domain"
)

// UsersRepository 用户Repository接口
type UsersRepository interface {
	// CreateUser 新建用户；username 或 email 重复时返回 Conflict
	CreateUser(ctx context.Context, username, email, passwordHash string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}
