package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"clima-data/internal/auth"
	"clima-data/internal/domain"
	"clima-data/internal/repository"

	"go.uber.org/zap"
)

const minPasswordLength = 8

// Token 登录成功返回的 access token
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthService 用户注册与登录服务接口
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*Token, error)
	// Authenticate 校验 Bearer token，返回其中的声明
	Authenticate(token string) (*auth.Claims, error)
}

type authService struct {
	usersRepo repository.UsersRepository
	hasher    auth.PasswordHasher
	tokens    auth.TokenIssuer
	timeout   time.Duration
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(usersRepo repository.UsersRepository, hasher auth.PasswordHasher, tokens auth.TokenIssuer, timeout time.Duration, logger *zap.Logger) AuthService {
	return &authService{
		usersRepo: usersRepo,
		hasher:    hasher,
		tokens:    tokens,
		timeout:   timeout,
		logger:    logger,
	}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, domain.NewValidationError("username is required")
	}
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, domain.NewValidationError("email is not valid")
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewValidationError("password must be at least 8 characters")
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, domain.NewValidationError("password must be at most 72 bytes")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, domain.WrapError(domain.KindValidation, "password must be at most 72 bytes", err)
		}
		return nil, domain.WrapError(domain.KindStore, "failed to register user", err)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.usersRepo.CreateUser(ctx, username, email, hash)
	if err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			s.logger.Error("Register failed", zap.String("username", username), zap.Error(err))
		}
		return nil, err
	}
	s.logger.Info("user registered", zap.Int64("user_id", u.UserID))
	return u, nil
}

// Login 用户名或密码错误统一返回同一条 Unauthorized
func (s *authService) Login(ctx context.Context, username, password string) (*Token, error) {
	invalid := domain.NewUnauthorizedError("incorrect username or password")

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.usersRepo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		s.logger.Warn("stored password hash is unreadable", zap.Int64("user_id", u.UserID), zap.Error(err))
		return nil, invalid
	}
	if !ok {
		return nil, invalid
	}

	signed, exp, err := s.tokens.Issue(u.UserID, u.Username, u.RoleID)
	if err != nil {
		return nil, domain.WrapError(domain.KindStore, "failed to issue token", err)
	}
	return &Token{AccessToken: signed, TokenType: "bearer", ExpiresAt: exp}, nil
}

func (s *authService) Authenticate(token string) (*auth.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, domain.WrapError(domain.KindUnauthorized, "invalid or expired token", err)
	}
	return claims, nil
}
