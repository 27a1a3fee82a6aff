package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL ACCESS_TOKEN_EXPIRE_MINUTES 未配置时的有效期
const DefaultTokenTTL = 60 * time.Minute

var ErrTokenInvalid = errors.New("invalid token")

// Claims access token 载荷
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
	RoleID int   `json:"role"`
}

// TokenIssuer 签发与校验 access token
type TokenIssuer interface {
	Issue(userID int64, username string, roleID int) (string, time.Time, error)
	Parse(token string) (*Claims, error)
}

// JWTIssuer HS256 实现
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

var _ TokenIssuer = (*JWTIssuer)(nil)

// Issue 返回签名后的 token 及其过期时间
func (j *JWTIssuer) Issue(userID int64, username string, roleID int) (string, time.Time, error) {
	now := j.now()
	exp := now.Add(j.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		UserID: userID,
		RoleID: roleID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}
	return signed, exp, nil
}

// Parse 校验签名、算法与过期时间
func (j *JWTIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
