package domain

import "time"

// DefaultRoleID 新注册用户的默认角色
const DefaultRoleID = 2

// User 平台用户（对应 users 表）
type User struct {
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       int       `json:"role_id"`
	CreatedAt    time.Time `json:"created_at"`
}
