package service

import (
	"errors"
	"time"

	"github.com/cardmint/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenSecretMissing = errors.New("jwt secret is not configured")
	ErrTokenInvalid       = errors.New("token invalid")
)

// AuthService 身份令牌服务，账号体系由上游负责
type AuthService struct {
	secret []byte
	ttl    time.Duration
}

// IdentityClaims JWT 声明
type IdentityClaims struct {
	UserID  uint `json:"user_id"`
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

// NewAuthService 创建身份令牌服务
func NewAuthService(cfg config.JWTConfig) *AuthService {
	hours := cfg.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	return &AuthService{
		secret: []byte(cfg.SecretKey),
		ttl:    time.Duration(hours) * time.Hour,
	}
}

// GenerateToken 签发身份令牌
func (s *AuthService) GenerateToken(userID uint, isAdmin bool) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrTokenSecretMissing
	}
	if userID == 0 {
		return "", time.Time{}, ErrClaimantRequired
	}
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := IdentityClaims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken 解析并校验身份令牌
func (s *AuthService) ParseToken(tokenString string) (*IdentityClaims, error) {
	if len(s.secret) == 0 {
		return nil, ErrTokenSecretMissing
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &IdentityClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
