// Package app 提供应用程序的初始化和配置功能.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/jobs"
	"github.com/yeisme/notesphere/pkg/internal/router"
	"github.com/yeisme/notesphere/pkg/internal/storage"
	"github.com/yeisme/notesphere/pkg/log"
	"github.com/yeisme/notesphere/pkg/metrics"
	"github.com/yeisme/notesphere/pkg/middleware"
	"github.com/yeisme/notesphere/pkg/rule"
	"github.com/yeisme/notesphere/pkg/scheduler"
	"github.com/yeisme/notesphere/pkg/tracing"
)

const (
	shutdownTimeout = 10 * time.Second
	// 上传文件超过该大小时写入临时文件
	multipartMemory = 8 << 20
)

type App struct {
	Engine    *gin.Engine
	Manager   *storage.Manager
	Scheduler *scheduler.Scheduler
	config    *configs.AppConfig
	logger    zerolog.Logger
}

// NewApp 按已加载的配置初始化追踪、监控、存储与定时任务.
func NewApp(ctx context.Context, config *configs.AppConfig) (*App, error) {
	if err := tracing.InitTracer(config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	var sched *scheduler.Scheduler

	if config.Scheduler.Enabled {
		sched, err = scheduler.NewScheduler()
		if err != nil {
			return nil, err
		}

		if err := jobs.RegisterCronJobs(sched, manager, config.Scheduler); err != nil {
			return nil, fmt.Errorf("register jobs: %w", err)
		}
	}

	return New(config, manager, sched), nil
}

// New 用已初始化的依赖组装 gin 引擎，sched 可为 nil.
func New(config *configs.AppConfig, manager *storage.Manager, sched *scheduler.Scheduler) *App {
	// 绑定校验统一使用 rule 标签
	_ = rule.Engine()

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.MaxMultipartMemory = multipartMemory

	if err := engine.SetTrustedProxies(config.Server.TrustedProxies); err != nil {
		l.Warn().Err(err).Msg("invalid trusted proxies, ignoring")
	}

	base := config.Server.BasePath

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		// 文件流不压缩
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
			base + "/notes/download",
			base + "/admin/downloads/export",
		})),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.StorageMiddleware(manager),
	)

	if sched != nil {
		engine.Use(middleware.SchedulerMiddleware(sched))
	}

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	router.RegisterSwaggerRoute(engine, config.Server)
	router.Register(engine, manager, config)

	return &App{
		Engine:    engine,
		Manager:   manager,
		Scheduler: sched,
		config:    config,
		logger:    log.Component("app"),
	}
}

// Run 启动 HTTP 服务与定时任务，ctx 取消后优雅退出.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.config.Server.Addr(),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	if a.Scheduler != nil {
		a.Scheduler.Start()
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", srv.Addr).Msg("NoteSphere API listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		a.Close()
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)

	a.Close()

	if terr := tracing.ShutdownTracer(shutdownCtx); terr != nil {
		a.logger.Warn().Err(terr).Msg("shutdown tracer")
	}

	return err
}

// Close 停止定时任务并关闭存储连接.
func (a *App) Close() {
	if a.Scheduler != nil {
		if err := a.Scheduler.Shutdown(); err != nil {
			a.logger.Warn().Err(err).Msg("shutdown scheduler")
		}
	}

	if a.Manager != nil {
		if err := a.Manager.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close storage")
		}
	}
}
