// Package scheduler 基于 gocron/v2 的定时任务调度，记录每个任务的运行状态供管理接口查看.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yeisme/notesphere/pkg/log"
)

// JobStatus 任务状态.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled"
	StatusRunning   JobStatus = "running"
	StatusError     JobStatus = "error"
)

// JobFunc 任务函数，返回的错误记录在任务信息中.
type JobFunc func(ctx context.Context) error

// JobInfo 任务信息.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CronExpr    string    `json:"cronExpr"`
	NextRun     time.Time `json:"nextRun"`
	LastRun     time.Time `json:"lastRun"`
	LastSuccess time.Time `json:"lastSuccess,omitzero"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	Runs        int64     `json:"runs"`
	Failures    int64     `json:"failures"`
}

// Scheduler 定时任务调度器，任务名唯一.
type Scheduler struct {
	scheduler gocron.Scheduler
	jobs      map[string]gocron.Job
	infos     map[string]*JobInfo
	ids       map[uuid.UUID]string
	mu        sync.RWMutex
	logger    zerolog.Logger
}

// NewScheduler 创建调度器，cron 表达式按 UTC 解释.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		jobs:      make(map[string]gocron.Job),
		infos:     make(map[string]*JobInfo),
		ids:       make(map[uuid.UUID]string),
		logger:    log.Component("scheduler"),
	}, nil
}

// AddCron 注册 cron 任务，同一任务不会并发执行.
func (s *Scheduler) AddCron(ctx context.Context, name, cronExpr string, job JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func(ctx context.Context) { s.run(ctx, name, job) }, ctx),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	nextRun, _ := j.NextRun()

	s.jobs[name] = j
	s.ids[j.ID()] = name
	s.infos[name] = &JobInfo{
		ID:       j.ID().String(),
		Name:     name,
		CronExpr: cronExpr,
		NextRun:  nextRun,
		Status:   StatusScheduled,
	}

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("Added cron job")

	return nil
}

// run 执行任务并记录结果，panic 记为失败.
func (s *Scheduler) run(ctx context.Context, name string, job JobFunc) {
	s.setStatus(name, StatusRunning, nil)

	start := time.Now()

	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in job: %v", r)
			}
		}()

		err = job(ctx)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.infos[name]
	if !ok {
		return
	}

	info.Runs++
	info.LastRun = start

	if j, exists := s.jobs[name]; exists {
		if next, nerr := j.NextRun(); nerr == nil {
			info.NextRun = next
		}
	}

	if err != nil {
		info.Failures++
		info.Status = StatusError
		info.Error = err.Error()
		s.logger.Error().Err(err).Str("job", name).Msg("Job failed")

		return
	}

	info.Status = StatusScheduled
	info.Error = ""
	info.LastSuccess = time.Now()
	s.logger.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("Job finished")
}

func (s *Scheduler) setStatus(name string, status JobStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, ok := s.infos[name]; ok {
		info.Status = status

		if err != nil {
			info.Error = err.Error()
		}
	}
}

// RunNow 立即触发一次任务.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("job %s does not exist", name)
	}

	return j.RunNow()
}

// RemoveJob 按 ID 删除任务.
func (s *Scheduler) RemoveJob(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name, ok := s.ids[id]; ok {
		delete(s.jobs, name)
		delete(s.infos, name)
		delete(s.ids, id)
	}

	return s.scheduler.RemoveJob(id)
}

// GetJobInfos 返回全部任务信息.
func (s *Scheduler) GetJobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.infos))
	for _, info := range s.infos {
		out = append(out, *info)
	}

	return out
}

// GetJobInfo 按名称返回任务信息.
func (s *Scheduler) GetJobInfo(name string) (JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.infos[name]
	if !ok {
		return JobInfo{}, false
	}

	return *info, true
}

// JobsWaitingInQueue 等待执行的任务数.
func (s *Scheduler) JobsWaitingInQueue() int {
	return s.scheduler.JobsWaitingInQueue()
}

// StopJobs 停止执行全部任务，调度器可再次 Start.
func (s *Scheduler) StopJobs() error {
	return s.scheduler.StopJobs()
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Starting scheduler")
	s.scheduler.Start()
}

// Shutdown 停止调度器并等待运行中的任务结束.
func (s *Scheduler) Shutdown() error {
	s.logger.Info().Msg("Stopping scheduler")
	return s.scheduler.Shutdown()
}
