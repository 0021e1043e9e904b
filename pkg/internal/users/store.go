// Package users 用户记录的持久化.
package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
)

const (
	MsgUserNotFound   = "User not found"
	MsgEmailTaken     = "User already exists with this email"
	MsgCannotDelAdmin = "Cannot delete admin accounts"
)

// Store 用户存储.
type Store struct {
	db *gorm.DB
}

// NewStore 创建用户存储.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(MsgUserNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict(MsgEmailTaken)
	default:
		return apperr.Storage(err)
	}
}

// NormalizeEmail 统一邮箱大小写与空白.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create 写入新用户，邮箱已存在时返回 Conflict.
func (s *Store) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)

	var n int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&model.User{}).Where("email = ?", u.Email).Count(&n).Error; err != nil {
		return apperr.Storage(err)
	}

	if n > 0 {
		return apperr.Conflict(MsgEmailTaken)
	}

	return translate(s.db.WithContext(ctx).Create(u).Error)
}

// Get 按 ID 读取用户.
func (s *Store) Get(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}

	return &u, nil
}

// GetByEmail 按邮箱读取用户.
func (s *Store) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error; err != nil {
		return nil, translate(err)
	}

	return &u, nil
}

// Update 按字段名更新用户，返回更新后的记录.
func (s *Store) Update(ctx context.Context, id uint, fields map[string]any) (*model.User, error) {
	if len(fields) > 0 {
		res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
	}

	return s.Get(ctx, id)
}

// Delete 软删除用户，管理员账号不可删除.
func (s *Store) Delete(ctx context.Context, id uint) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	switch u.Role {
	case model.RoleAdmin:
		return apperr.Forbidden(MsgCannotDelAdmin)
	case model.RoleStudent, model.RoleGuest:
	default:
		return apperr.Forbidden("unknown role")
	}

	return translate(s.db.WithContext(ctx).Delete(&model.User{}, id).Error)
}

// Query 用户检索条件.
type Query struct {
	Search string
	Page   int
	Limit  int
}

// Page 用户分页结果.
type Page struct {
	Users       []model.User `json:"users"`
	TotalPages  int64        `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
	TotalUsers  int64        `json:"totalUsers"`
}

// Search 分页检索用户，search 匹配姓名、邮箱与学校.
func (s *Store) Search(ctx context.Context, q Query) (*Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}

	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	db := s.db.WithContext(ctx).Model(&model.User{})
	if v := strings.TrimSpace(q.Search); v != "" {
		p := "%" + strings.ToLower(v) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(institution) LIKE ?", p, p, p)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, apperr.Storage(err)
	}

	list := make([]model.User, 0, q.Limit)
	if err := db.Order("created_at DESC").Order("id DESC").Offset((q.Page - 1) * q.Limit).Limit(q.Limit).Find(&list).Error; err != nil {
		return nil, apperr.Storage(err)
	}

	return &Page{
		Users:       list,
		TotalPages:  (total + int64(q.Limit) - 1) / int64(q.Limit),
		CurrentPage: q.Page,
		TotalUsers:  total,
	}, nil
}

// Stats 用户数量统计.
type Stats struct {
	TotalUsers   int64 `json:"totalUsers"`
	ActiveUsers  int64 `json:"activeUsers"`
	PremiumUsers int64 `json:"premiumUsers"`
}

// Stats 统计用户总数、活跃数与会员数.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	err := s.db.WithContext(ctx).Model(&model.User{}).
		Select("COUNT(*) AS total_users, " +
			"COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active_users, " +
			"COALESCE(SUM(CASE WHEN is_premium THEN 1 ELSE 0 END), 0) AS premium_users").
		Scan(&st).Error
	if err != nil {
		return Stats{}, apperr.Storage(err)
	}

	return st, nil
}

// ExpireSubscriptions 把到期会员降级为免费用户，返回受影响的用户 ID.
func (s *Store) ExpireSubscriptions(ctx context.Context, now time.Time) ([]uint, error) {
	var ids []uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).
			Where("is_premium = ? AND subscription_expiry IS NOT NULL AND subscription_expiry <= ?", true, now.UTC()).
			Pluck("id", &ids).Error; err != nil {
			return err
		}

		if len(ids) == 0 {
			return nil
		}

		return tx.Model(&model.User{}).Where("id IN ?", ids).Update("is_premium", false).Error
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}

	return ids, nil
}
