package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes bcrypt 只接受前 72 字节，超出直接拒绝
const MaxPasswordBytes = 72

// ErrPasswordTooLong 密码超过 MaxPasswordBytes
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// PasswordHasher 密码哈希
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify 密码不匹配返回 (false, nil)；哈希格式错误返回 error
	Verify(password, hash string) (bool, error)
}

// BcryptHasher bcrypt 实现
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher cost <= 0 时使用 bcrypt.DefaultCost
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

var _ PasswordHasher = (*BcryptHasher)(nil)

func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("verifying password: %w", err)
	}
}
