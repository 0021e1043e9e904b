package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/ledger"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/notes"
	"github.com/yeisme/notesphere/pkg/internal/policy"
	"github.com/yeisme/notesphere/pkg/internal/types"
	"github.com/yeisme/notesphere/pkg/internal/users"
	nlog "github.com/yeisme/notesphere/pkg/log"
	"github.com/yeisme/notesphere/pkg/queue"
)

const (
	dashboardTopN      = 5
	dashboardRecentN   = 10
	dashboardMonths    = 6
	exportSheet        = "Downloads"
	defaultExportLimit = 10000
)

// AdminService 管理后台.
type AdminService struct {
	users  *users.Store
	notes  *notes.Store
	ledger *ledger.Ledger
	policy *policy.Evaluator
	note   *NoteService
	events *queue.Publisher
	now    func() time.Time
	logger zerolog.Logger
}

// NewAdminService 使用请求 context 中的存储创建服务.
func NewAdminService(ctx context.Context) *AdminService {
	return NewAdminServiceWith(DepsFromContext(ctx))
}

// NewAdminServiceWith 按给定依赖创建服务.
func NewAdminServiceWith(d Deps) *AdminService {
	ns := NewNoteServiceWith(d)

	return &AdminService{
		users:  users.NewStore(d.DB),
		notes:  ns.notes,
		ledger: ns.ledger,
		policy: ns.policy,
		note:   ns,
		events: ns.events,
		now:    d.now,
		logger: nlog.Component("admin"),
	}
}

func (s *AdminService) requireAdmin(user *model.User) error {
	return s.policy.CanVerify(user)
}

// monthBuckets 把时间按 UTC 年月归档，返回最近 months 个月，缺失月份计 0.
func monthBuckets(times []time.Time, now time.Time, months int) []types.MonthCount {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	counts := make(map[string]int64, months)
	for _, t := range times {
		counts[t.UTC().Format("2006-01")]++
	}

	out := make([]types.MonthCount, 0, months)
	for i := range months {
		key := start.AddDate(0, i, 0).Format("2006-01")
		out = append(out, types.MonthCount{Month: key, Count: counts[key]})
	}

	return out
}

func toGroupCounts(in []notes.GroupCount) []types.GroupCount {
	out := make([]types.GroupCount, 0, len(in))
	for _, g := range in {
		out = append(out, types.GroupCount{Name: g.Name, NoteCount: g.NoteCount})
	}

	return out
}

// Dashboard 汇总看板数据，各项查询并发执行.
func (s *AdminService) Dashboard(ctx context.Context, user *model.User) (*types.DashboardResponse, error) {
	if err := s.requireAdmin(user); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	trendStart := monthStart.AddDate(0, -(dashboardMonths - 1), 0)

	var (
		resp       types.DashboardResponse
		userStats  users.Stats
		noteStats  notes.Stats
		topInst    []notes.GroupCount
		topCourses []notes.GroupCount
		created    []time.Time
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		userStats, err = s.users.Stats(gctx)
		return err
	})
	g.Go(func() (err error) {
		noteStats, err = s.notes.Stats(gctx)
		return err
	})
	g.Go(func() (err error) {
		resp.Stats.TotalDownloads, err = s.ledger.Count(gctx, ledger.Filter{})
		return err
	})
	g.Go(func() (err error) {
		resp.Stats.DownloadsThisMonth, err = s.ledger.CountSince(gctx, monthStart)
		return err
	})
	g.Go(func() (err error) {
		resp.TopNotes, err = s.notes.Popular(gctx, dashboardTopN)
		return err
	})
	g.Go(func() (err error) {
		topInst, err = s.notes.TopBy(gctx, "institution", dashboardTopN)
		return err
	})
	g.Go(func() (err error) {
		topCourses, err = s.notes.TopBy(gctx, "course", dashboardTopN)
		return err
	})
	g.Go(func() (err error) {
		resp.RecentUploads, err = s.notes.Recent(gctx, dashboardRecentN)
		return err
	})
	g.Go(func() (err error) {
		created, err = s.notes.CreatedSince(gctx, trendStart)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp.Stats.TotalUsers = userStats.TotalUsers
	resp.Stats.ActiveUsers = userStats.ActiveUsers
	resp.Stats.PremiumUsers = userStats.PremiumUsers
	resp.Stats.TotalNotes = noteStats.TotalNotes
	resp.Stats.VerifiedNotes = noteStats.VerifiedNotes
	resp.Stats.PendingNotes = noteStats.PendingNotes
	resp.TopInstitutions = toGroupCounts(topInst)
	resp.TopCourses = toGroupCounts(topCourses)
	resp.MonthlyUploads = monthBuckets(created, now, dashboardMonths)

	return &resp, nil
}

// ListUsers 分页检索用户.
func (s *AdminService) ListUsers(ctx context.Context, user *model.User, q types.ListUsersQuery) (*users.Page, error) {
	if err := s.requireAdmin(user); err != nil {
		return nil, err
	}

	return s.users.Search(ctx, users.Query{Search: q.Search, Page: q.Page, Limit: q.Limit})
}

// UpdateUser 修改账号状态、会员与角色.
func (s *AdminService) UpdateUser(ctx context.Context, user *model.User, id uint, req types.UpdateUserRequest) (*model.User, error) {
	if err := s.requireAdmin(user); err != nil {
		return nil, err
	}

	if _, err := s.users.Get(ctx, id); err != nil {
		return nil, err
	}

	fields := make(map[string]any)

	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	if req.IsPremium != nil {
		fields["is_premium"] = *req.IsPremium
	}

	if req.Role != nil {
		role, err := model.ParseRole(*req.Role)
		if err != nil {
			return nil, apperr.Invalid(err.Error())
		}

		fields["role"] = role
	}

	if req.SubscriptionExpiry != nil {
		fields["subscription_expiry"] = req.SubscriptionExpiry.UTC()
	}

	updated, err := s.users.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint("user_id", id).Uint("by", user.ID).Interface("fields", fields).Msg("管理员修改用户")

	return updated, nil
}

// DeleteUser 删除非管理员账号，下载流水保留.
func (s *AdminService) DeleteUser(ctx context.Context, user *model.User, id uint) error {
	if err := s.requireAdmin(user); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", id).Uint("by", user.ID).Msg("管理员删除用户")

	return nil
}

// VerifyNote 设置笔记审核标记.
func (s *AdminService) VerifyNote(ctx context.Context, user *model.User, noteID uint, verified bool) (*model.Note, error) {
	return s.note.Verify(ctx, user, noteID, verified)
}

// ExpireSubscriptions 降级到期会员并发布事件.
func (s *AdminService) ExpireSubscriptions(ctx context.Context) ([]uint, error) {
	ids, err := s.users.ExpireSubscriptions(ctx, s.now())
	if err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		s.events.SubscriptionsExpired(ctx, ids)
		s.logger.Info().Int("count", len(ids)).Msg("会员已到期降级")
	}

	return ids, nil
}

// ExportDownloads 把下载流水写成 xlsx.
func (s *AdminService) ExportDownloads(ctx context.Context, user *model.User, q types.ExportDownloadsQuery, w io.Writer) (int, error) {
	if err := s.requireAdmin(user); err != nil {
		return 0, err
	}

	f := ledger.Filter{UserID: q.UserID, NoteID: q.NoteID, Since: q.Since, Limit: q.Limit}
	if !q.Until.IsZero() {
		// until 按天给出，包含当天
		f.Until = q.Until.AddDate(0, 0, 1)
	}

	if f.Limit <= 0 {
		f.Limit = defaultExportLimit
	}

	rows, err := s.ledger.Rows(ctx, f)
	if err != nil {
		return 0, err
	}

	book := excelize.NewFile()
	defer func() {
		if cerr := book.Close(); cerr != nil {
			s.logger.Warn().Err(cerr).Msg("关闭导出文件失败")
		}
	}()

	if err := book.SetSheetName("Sheet1", exportSheet); err != nil {
		return 0, fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"ID", "Download Date", "User ID", "User Email", "Note ID", "Note Title", "IP Address"}
	if err := book.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, fmt.Errorf("cell name: %w", err)
		}

		values := []any{
			r.ID,
			r.DownloadDate.UTC().Format(time.RFC3339),
			r.UserID,
			r.UserEmail,
			r.NoteID,
			r.NoteTitle,
			r.IPAddress,
		}
		if err := book.SetSheetRow(exportSheet, cell, &values); err != nil {
			return 0, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := book.WriteTo(w); err != nil {
		return 0, fmt.Errorf("write xlsx: %w", err)
	}

	return len(rows), nil
}
