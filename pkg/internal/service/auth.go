package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/auth"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/notes"
	"github.com/yeisme/notesphere/pkg/internal/quota"
	"github.com/yeisme/notesphere/pkg/internal/types"
	"github.com/yeisme/notesphere/pkg/internal/users"
	nlog "github.com/yeisme/notesphere/pkg/log"
)

const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgAccountDeactivated = "Account is deactivated. Contact admin."
)

// AuthService 注册、登录与个人资料.
type AuthService struct {
	users  *users.Store
	notes  *notes.Store
	quota  *quota.Tracker
	tokens *auth.Tokens
	hasher *auth.Hasher
	now    func() time.Time
	logger zerolog.Logger
}

// NewAuthService 使用请求 context 中的存储创建服务.
func NewAuthService(ctx context.Context) *AuthService {
	return NewAuthServiceWith(DepsFromContext(ctx))
}

// NewAuthServiceWith 按给定依赖创建服务.
func NewAuthServiceWith(d Deps) *AuthService {
	cfg := d.config()

	return &AuthService{
		users:  users.NewStore(d.DB),
		notes:  notes.NewStore(d.DB),
		quota:  quota.NewTracker(d.DB, cfg.Quota, quota.WithClock(d.now)),
		tokens: auth.NewTokens(cfg.Auth),
		hasher: auth.NewHasher(cfg.Auth.BcryptCost),
		now:    d.now,
		logger: nlog.Component("auth"),
	}
}

func (s *AuthService) respond(u *model.User) (*types.AuthResponse, error) {
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}

	return &types.AuthResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Institution:        u.Institution,
		Level:              u.Level,
		Role:               u.Role,
		IsPremium:          u.IsPremium,
		SubscriptionExpiry: u.SubscriptionExpiry,
		Bio:                u.Bio,
		Token:              token,
		ExpiresAt:          exp,
	}, nil
}

// CreateAccount 创建账号，角色由调用方决定.
func (s *AuthService) CreateAccount(ctx context.Context, req types.RegisterRequest, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperr.Invalid("unknown role")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, apperr.Invalid(err.Error())
		}

		return nil, err
	}

	u := &model.User{
		Name:              strings.TrimSpace(req.Name),
		Email:             req.Email,
		PasswordHash:      hash,
		Institution:       strings.TrimSpace(req.Institution),
		Level:             strings.TrimSpace(req.Level),
		Role:              role,
		IsActive:          true,
		LastDownloadReset: s.now().UTC(),
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Register 注册学生账号并签发令牌.
func (s *AuthService) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResponse, error) {
	u, err := s.CreateAccount(ctx, req, model.RoleStudent)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint("user_id", u.ID).Str("email", u.Email).Msg("新用户注册")

	return s.respond(u)
}

// Login 校验邮箱与密码，顺带重置到期的下载窗口.
func (s *AuthService) Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated(MsgInvalidCredentials)
		}

		return nil, err
	}

	if !u.IsActive {
		return nil, apperr.Unauthenticated(MsgAccountDeactivated)
	}

	if !s.hasher.Check(u.PasswordHash, req.Password) {
		return nil, apperr.Unauthenticated(MsgInvalidCredentials)
	}

	if _, err := s.quota.Refresh(ctx, u); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", u.ID).Msg("登录时重置下载窗口失败")
	}

	return s.respond(u)
}

// Resolve 把访问令牌解析为调用者.
func (s *AuthService) Resolve(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperr.Unauthenticated("Token expired")
		}

		return nil, apperr.Unauthenticated("Not authorized, token failed")
	}

	u, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated(users.MsgUserNotFound)
		}

		return nil, err
	}

	if !u.IsActive {
		return nil, apperr.Unauthenticated(MsgAccountDeactivated)
	}

	return u, nil
}

// Me 当前用户资料，包含自己的笔记与剩余下载次数.
func (s *AuthService) Me(ctx context.Context, user *model.User) (*types.ProfileResponse, error) {
	if user == nil {
		return nil, apperr.Unauthenticated("Not authorized, no token")
	}

	u, err := s.users.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	own, err := s.notes.ListByUploader(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	briefs := make([]types.NoteBrief, 0, len(own))
	for _, n := range own {
		briefs = append(briefs, types.NoteBrief{
			ID:        n.ID,
			Title:     n.Title,
			Course:    n.Course,
			Downloads: n.Downloads,
			Verified:  n.Verified,
			CreatedAt: n.CreatedAt,
		})
	}

	return &types.ProfileResponse{
		User:               u,
		Notes:              briefs,
		RemainingDownloads: s.quota.Remaining(u, s.now().UTC()),
		NextReset:          s.quota.NextReset(u),
	}, nil
}

// UpdateProfile 修改个人资料，空字符串不覆盖姓名、学校与年级.
func (s *AuthService) UpdateProfile(ctx context.Context, user *model.User, req types.UpdateProfileRequest) (*model.User, error) {
	if user == nil {
		return nil, apperr.Unauthenticated("Not authorized, no token")
	}

	fields := make(map[string]any)

	set := func(column string, v *string) {
		if v == nil {
			return
		}

		if trimmed := strings.TrimSpace(*v); trimmed != "" {
			fields[column] = trimmed
		}
	}

	set("name", req.Name)
	set("institution", req.Institution)
	set("level", req.Level)

	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}

	return s.users.Update(ctx, user.ID, fields)
}
