// Package scheduler 封装 gocron/v2，提供按名称管理的 cron 任务调度.
//
// 业务侧通过 AddCron 以名称注册任务，运维接口通过 GetJobInfos
// 观察每个任务的状态与下次执行时间.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yeisme/photovault/pkg/log"
)

// JobStatus 表示任务当前所处的状态.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled" // 等待下次触发
	StatusRunning   JobStatus = "running"   // 正在执行
	StatusFailed    JobStatus = "failed"    // 上次执行 panic 或报错
)

// JobInfo 是单个定时任务的快照，供运维接口序列化输出.
type JobInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CronExpr     string    `json:"cron_expr"`
	NextRun      time.Time `json:"next_run"`
	LastRun      time.Time `json:"last_run"`
	Status       JobStatus `json:"status"`
	LastError    string    `json:"last_error,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// entry 保存任务句柄与运行期状态，受 Scheduler.mu 保护.
type entry struct {
	job          gocron.Job
	cronExpr     string
	status       JobStatus
	lastErr      string
	registeredAt time.Time
}

// Scheduler 以任务名称为主键管理 gocron 任务.
type Scheduler struct {
	inner   gocron.Scheduler
	mu      sync.RWMutex
	entries map[string]*entry
	byID    map[uuid.UUID]string
	logger  *zerolog.Logger
}

// NewScheduler 创建调度器，未启动前注册的任务不会执行.
func NewScheduler() (*Scheduler, error) {
	inner, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		inner:   inner,
		entries: make(map[string]*entry),
		byID:    make(map[uuid.UUID]string),
		logger:  log.Logger(),
	}, nil
}

// AddCron 按 cron 表达式注册任务，名称重复时报错.
// job 执行时收到注册时传入的 ctx；panic 会被捕获并记入任务状态.
func (s *Scheduler) AddCron(name string, cronExpr string, job func(ctx context.Context), ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("job %q already registered", name)
	}

	run := func(ctx context.Context) {
		s.setStatus(name, StatusRunning, "")

		defer func() {
			if r := recover(); r != nil {
				s.setStatus(name, StatusFailed, fmt.Sprintf("panic: %v", r))
				s.logger.Error().Str("job", name).Interface("panic", r).Msg("cron job panicked")
			}
		}()

		job(ctx)
		s.setStatus(name, StatusScheduled, "")
	}

	j, err := s.inner.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(run, ctx),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}

	s.entries[name] = &entry{
		job:          j,
		cronExpr:     cronExpr,
		status:       StatusScheduled,
		registeredAt: time.Now(),
	}
	s.byID[j.ID()] = name

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("registered cron job")

	return nil
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("starting scheduler")
	s.inner.Start()
}

// Stop 关闭调度器，等待在途任务结束.
func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("stopping scheduler")

	return s.inner.Shutdown()
}

// StopJobs 暂停所有任务的触发，调度器本身保持运行.
func (s *Scheduler) StopJobs() error {
	return s.inner.StopJobs()
}

// RemoveJob 按任务 ID 移除任务.
func (s *Scheduler) RemoveJob(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name, ok := s.byID[id]; ok {
		delete(s.entries, name)
		delete(s.byID, id)
	}

	return s.inner.RemoveJob(id)
}

// JobsWaitingInQueue 返回排队等待执行的任务数.
func (s *Scheduler) JobsWaitingInQueue() int {
	return s.inner.JobsWaitingInQueue()
}

// GetJobInfos 返回所有任务的快照，运行时间从 gocron 实时读取.
func (s *Scheduler) GetJobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.entries))

	for name, e := range s.entries {
		info := JobInfo{
			ID:           e.job.ID().String(),
			Name:         name,
			CronExpr:     e.cronExpr,
			Status:       e.status,
			LastError:    e.lastErr,
			RegisteredAt: e.registeredAt,
		}

		if next, err := e.job.NextRun(); err == nil {
			info.NextRun = next
		}

		if last, err := e.job.LastRun(); err == nil {
			info.LastRun = last
		}

		infos = append(infos, info)
	}

	return infos
}

func (s *Scheduler) setStatus(name string, status JobStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok {
		e.status = status
		e.lastErr = errMsg
	}
}
