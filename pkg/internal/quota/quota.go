// Package quota 实现免费用户的下载配额.
//
// 配额窗口由用户记录上的 LastDownloadReset 与当前时间推导，不依赖定时任务.
// 重置与扣减在同一个事务内通过条件 UPDATE 完成，并发请求不会越过上限.
package quota

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
)

// LimitReachedMessage 配额用尽时返回给用户的提示.
const LimitReachedMessage = "Weekly download limit reached. Upgrade to premium for unlimited downloads."

// Unlimited 表示不受配额约束.
const Unlimited = -1

// Decision 一次配额检查的结果.
type Decision struct {
	Allowed bool
	// Metered 为 false 表示管理员或会员，未计入配额
	Metered bool
	// Reset 本次调用是否开启了新的窗口
	Reset bool
	// Used 调用结束后窗口内已用次数
	Used int
	// Remaining 剩余次数，不计量时为 Unlimited
	Remaining int
	// WindowStart 当前窗口起点
	WindowStart time.Time
}

// Tracker 下载配额跟踪器.
type Tracker struct {
	db     *gorm.DB
	limit  int
	window time.Duration
	now    func() time.Time
}

// Option 配置 Tracker.
type Option func(*Tracker)

// WithClock 替换时间来源.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker 创建配额跟踪器.
func NewTracker(db *gorm.DB, cfg configs.QuotaConfig, opts ...Option) *Tracker {
	t := &Tracker{
		db:     db,
		limit:  cfg.WeeklyLimit,
		window: cfg.GetWindow(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Limit 返回窗口内允许的下载次数.
func (t *Tracker) Limit() int { return t.limit }

// Window 返回窗口长度.
func (t *Tracker) Window() time.Duration { return t.window }

// metered 判断用户是否受配额约束.
func metered(u *model.User) (bool, error) {
	switch u.Role {
	case model.RoleAdmin:
		return false, nil
	case model.RoleStudent, model.RoleGuest:
		return !u.IsPremium, nil
	default:
		return false, apperr.Forbidden("unknown role")
	}
}

// CheckAndConsume 检查并扣减一次下载配额.
// 窗口到期时先重置（即使随后拒绝也会持久化），再在上限内加一.
// 拒绝时返回 apperr.ErrQuotaExceeded.
func (t *Tracker) CheckAndConsume(ctx context.Context, user *model.User) (Decision, error) {
	if user == nil {
		return Decision{}, apperr.Unauthenticated("authentication required")
	}

	isMetered, err := metered(user)
	if err != nil {
		return Decision{}, err
	}

	if !isMetered {
		return Decision{Allowed: true, Remaining: Unlimited, Used: user.WeeklyDownloads, WindowStart: user.LastDownloadReset}, nil
	}

	now := t.now().UTC()

	var (
		d   = Decision{Metered: true}
		row model.User
	)

	err = t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reset, err := resetIfDue(tx, user.ID, now, t.window)
		if err != nil {
			return err
		}

		res := tx.Model(&model.User{}).
			Where("id = ? AND weekly_downloads < ?", user.ID, t.limit).
			UpdateColumn("weekly_downloads", gorm.Expr("weekly_downloads + 1"))
		if res.Error != nil {
			return res.Error
		}

		d.Reset = reset
		d.Allowed = res.RowsAffected == 1

		return tx.Select("id", "weekly_downloads", "last_download_reset").
			Where("id = ?", user.ID).
			Take(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Decision{}, apperr.Unauthenticated("user not found")
		}

		return Decision{}, apperr.Storage(err)
	}

	user.WeeklyDownloads = row.WeeklyDownloads
	user.LastDownloadReset = row.LastDownloadReset

	d.Used = row.WeeklyDownloads
	d.Remaining = max(0, t.limit-row.WeeklyDownloads)
	d.WindowStart = row.LastDownloadReset

	if !d.Allowed {
		return d, apperr.QuotaExceeded(LimitReachedMessage)
	}

	return d, nil
}

// Release 归还一次已扣减的配额，用于扣减后下载记账失败的场景.
func (t *Tracker) Release(ctx context.Context, user *model.User) error {
	if user == nil {
		return nil
	}

	if isMetered, err := metered(user); err != nil || !isMetered {
		return err
	}

	res := t.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND weekly_downloads > 0", user.ID).
		UpdateColumn("weekly_downloads", gorm.Expr("weekly_downloads - 1"))
	if res.Error != nil {
		return apperr.Storage(res.Error)
	}

	if res.RowsAffected == 1 && user.WeeklyDownloads > 0 {
		user.WeeklyDownloads--
	}

	return nil
}

// Refresh 仅执行窗口重置，不扣减，例如登录时.
func (t *Tracker) Refresh(ctx context.Context, user *model.User) (bool, error) {
	if user == nil {
		return false, nil
	}

	now := t.now().UTC()

	reset, err := resetIfDue(t.db.WithContext(ctx), user.ID, now, t.window)
	if err != nil {
		return false, apperr.Storage(err)
	}

	if reset {
		user.WeeklyDownloads = 0
		user.LastDownloadReset = now
	}

	return reset, nil
}

// Remaining 返回用户在 now 时刻的剩余次数，不修改任何状态.
func (t *Tracker) Remaining(user *model.User, now time.Time) int {
	if user == nil {
		return 0
	}

	if isMetered, err := metered(user); err != nil || !isMetered {
		if err != nil {
			return 0
		}

		return Unlimited
	}

	if windowElapsed(user.LastDownloadReset, now, t.window) {
		return t.limit
	}

	return max(0, t.limit-user.WeeklyDownloads)
}

// NextReset 返回当前窗口结束的时间.
func (t *Tracker) NextReset(user *model.User) time.Time {
	return user.LastDownloadReset.Add(t.window)
}

func windowElapsed(last, now time.Time, window time.Duration) bool {
	return now.Sub(last) >= window
}

// resetIfDue 当窗口到期时把计数清零并把起点移到 now.
func resetIfDue(tx *gorm.DB, userID uint, now time.Time, window time.Duration) (bool, error) {
	res := tx.Model(&model.User{}).
		Where("id = ? AND last_download_reset <= ?", userID, now.Add(-window)).
		UpdateColumns(map[string]any{
			"weekly_downloads":    0,
			"last_download_reset": now,
		})

	return res.RowsAffected > 0, res.Error
}
