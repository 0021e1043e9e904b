package types

import (
	"time"

	"github.com/yeisme/notesphere/pkg/internal/model"
)

// RegisterRequest 注册请求.
type RegisterRequest struct {
	Name        string `json:"name"        rule:"required,max=255"`
	Email       string `json:"email"       rule:"required,email,max=255"`
	Password    string `json:"password"    rule:"required,min=6,max=72"`
	Institution string `json:"institution" rule:"required,max=255"`
	Level       string `json:"level"       rule:"required,max=64"`
}

// LoginRequest 登录请求.
type LoginRequest struct {
	Email    string `json:"email"    rule:"required,email"`
	Password string `json:"password" rule:"required"`
}

// UpdateProfileRequest 修改个人资料，未提供的字段保持不变.
type UpdateProfileRequest struct {
	Name        *string `json:"name"        rule:"omitempty,min=1,max=255"`
	Institution *string `json:"institution" rule:"omitempty,min=1,max=255"`
	Level       *string `json:"level"       rule:"omitempty,min=1,max=64"`
	Bio         *string `json:"bio"         rule:"omitempty,max=2000"`
}

// AuthResponse 注册与登录的响应.
type AuthResponse struct {
	ID                 uint       `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Institution        string     `json:"institution"`
	Level              string     `json:"level"`
	Role               model.Role `json:"role"`
	IsPremium          bool       `json:"isPremium"`
	SubscriptionExpiry *time.Time `json:"subscriptionExpiry,omitempty"`
	Bio                string     `json:"bio,omitempty"`
	Token              string     `json:"token"`
	ExpiresAt          time.Time  `json:"expiresAt"`
}

// NoteBrief 个人主页中的笔记概要.
type NoteBrief struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Course    string    `json:"course"`
	Downloads int64     `json:"downloads"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileResponse 当前用户资料.
type ProfileResponse struct {
	*model.User

	Notes []NoteBrief `json:"notes"`
	// RemainingDownloads 本周剩余下载次数，-1 表示不限
	RemainingDownloads int       `json:"remainingDownloads"`
	NextReset          time.Time `json:"nextReset"`
}
