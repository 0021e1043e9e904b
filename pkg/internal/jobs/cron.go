// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"errors"

	"github.com/yeisme/notesphere/pkg/configs"
	ctxPkg "github.com/yeisme/notesphere/pkg/context"
	"github.com/yeisme/notesphere/pkg/internal/notes"
	"github.com/yeisme/notesphere/pkg/internal/service"
	"github.com/yeisme/notesphere/pkg/internal/storage"
	"github.com/yeisme/notesphere/pkg/internal/users"
	"github.com/yeisme/notesphere/pkg/log"
	"github.com/yeisme/notesphere/pkg/metrics"
	"github.com/yeisme/notesphere/pkg/scheduler"
)

var (
	ErrNilScheduler = errors.New("scheduler is nil")
	ErrNilManager   = errors.New("storage manager is nil")
)

// RegisterCronJobs 注册业务定时任务：
//   - 会员到期降级（配额重置不依赖定时任务，在访问时按时间戳计算）
//   - 刷新目录规模指标
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager, cfg configs.SchedulerConfig) error {
	if sched == nil {
		return ErrNilScheduler
	}

	if mgr == nil {
		return ErrNilManager
	}

	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	if err := sched.AddCron(baseCtx, JobSubscriptionSweep, cfg.SubscriptionSweepCron, func(ctx context.Context) error {
		_, err := ExpireSubscriptions(ctx, service.DepsFromContext(ctx))
		return err
	}); err != nil {
		return err
	}

	return sched.AddCron(baseCtx, JobCatalogRefresh, cfg.GaugeRefreshCron, func(ctx context.Context) error {
		return RefreshCatalog(ctx, service.DepsFromContext(ctx))
	})
}

// ExpireSubscriptions 把到期会员降级，返回被降级的用户数.
func ExpireSubscriptions(ctx context.Context, d service.Deps) (int, error) {
	ids, err := service.NewAdminServiceWith(d).ExpireSubscriptions(ctx)
	if err != nil {
		return 0, err
	}

	return len(ids), nil
}

// RefreshCatalog 统计用户与笔记数量写入 CatalogGauge.
func RefreshCatalog(ctx context.Context, d service.Deps) error {
	l := log.Logger().With().Str("job", JobCatalogRefresh).Logger()

	us, err := users.NewStore(d.DB).Stats(ctx)
	if err != nil {
		l.Error().Err(err).Msg("user stats failed")
		return err
	}

	ns, err := notes.NewStore(d.DB).Stats(ctx)
	if err != nil {
		l.Error().Err(err).Msg("note stats failed")
		return err
	}

	metrics.CatalogGauge.WithLabelValues(kindUsers).Set(float64(us.TotalUsers))
	metrics.CatalogGauge.WithLabelValues(kindPremiumUsers).Set(float64(us.PremiumUsers))
	metrics.CatalogGauge.WithLabelValues(kindNotes).Set(float64(ns.TotalNotes))
	metrics.CatalogGauge.WithLabelValues(kindVerifiedNotes).Set(float64(ns.VerifiedNotes))

	return nil
}
