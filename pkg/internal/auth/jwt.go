// Package auth 访问令牌签发与密码哈希.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/model"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token expired")
	ErrInvalidFormat = errors.New("invalid token format")
)

// Claims 访问令牌载荷.
type Claims struct {
	UserID uint       `json:"userId"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens HS256 令牌签发与校验.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokens 按配置创建令牌服务.
func NewTokens(cfg configs.AuthConfig) *Tokens {
	ttl := cfg.JWTExpiration
	if ttl <= 0 {
		ttl = configs.DefaultJWTExpiration
	}

	return &Tokens{
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
		issuer: cfg.JWTIssuer,
		now:    time.Now,
	}
}

// TTL 令牌有效期.
func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue 为用户签发访问令牌.
func (t *Tokens) Issue(user *model.User) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)

	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    t.issuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, exp, nil
}

// Parse 校验令牌并返回载荷.
func (t *Tokens) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidFormat
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(t.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return t.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}

		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ExtractBearerToken 从 Authorization 头中取出令牌.
func ExtractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrInvalidFormat
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found {
		return "", ErrInvalidFormat
	}

	if !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidFormat
	}

	return strings.TrimSpace(token), nil
}
