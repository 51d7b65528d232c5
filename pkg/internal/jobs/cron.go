// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"
	"time"

	ctxPkg "github.com/yeisme/photovault/pkg/context"
	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/internal/storage"
	"github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/scheduler"
)

// 软删除照片的清理宽限期与过期分享链接的保留期.
const (
	photoPurgeGraceHours  = 1
	shareExpiryRetainDays = 30
)

// RegisterCronJobs 配置业务定时任务：
//   - 每天 07:00 和 19:00 清理软删除照片的残留对象（对象删除失败会在下一轮重试）
//   - 每天 02:10 回收过期超过保留期的分享链接
//   - 每月 1 号 03:30 输出上月下载报表日志
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	// 每天 07:00 清理软删除照片
	_ = sched.AddCron(JobPhotoPurgeMorning, CronPhotoPurgeMorning, func(ctx context.Context) {
		runPhotoPurge(ctx)
	}, baseCtx)

	// 每天 19:00 清理软删除照片
	_ = sched.AddCron(JobPhotoPurgeEvening, CronPhotoPurgeEvening, func(ctx context.Context) {
		runPhotoPurge(ctx)
	}, baseCtx)

	// 每天 02:10 回收过期分享链接
	_ = sched.AddCron(JobShareExpirySweep, CronShareExpirySweep, func(ctx context.Context) {
		runShareExpirySweep(ctx)
	}, baseCtx)

	// 每月 1 号 03:30 上月下载报表
	_ = sched.AddCron(JobDownloadReport, CronDownloadReport, func(ctx context.Context) {
		runDownloadReport(ctx, mgr)
	}, baseCtx)

	return nil
}

// runPhotoPurge 清理软删除超过宽限期的照片，重试残留对象删除.
func runPhotoPurge(ctx context.Context) {
	l := log.Logger().With().Str("job", "photo.purge_deleted").Logger()

	svc := service.NewPhotoService(ctx)
	before := time.Now().Add(-photoPurgeGraceHours * time.Hour)

	n, err := svc.PurgeDeleted(ctx, before)
	if err != nil {
		l.Error().Err(err).Msg("purge deleted photos failed")
		return
	}

	if n > 0 {
		l.Info().Int("purged", n).Time("before", before).Msg("purged deleted photos")
	}
}

// runShareExpirySweep 回收过期超过保留期的分享链接.
// 解析路径对过期链接已即时拒绝，保留期内的记录仍可用于统计.
func runShareExpirySweep(ctx context.Context) {
	l := log.Logger().With().Str("job", "share.expiry_sweep").Logger()

	svc := service.NewShareLinkService(ctx)
	before := time.Now().AddDate(0, 0, -shareExpiryRetainDays)

	n, err := svc.SweepExpired(ctx, before)
	if err != nil {
		l.Error().Err(err).Msg("sweep expired share links failed")
		return
	}

	if n > 0 {
		l.Info().Int("swept", n).Time("before", before).Msg("swept expired share links")
	}
}

// runDownloadReport 统计上一个自然月的下载事件并输出报表日志.
func runDownloadReport(ctx context.Context, mgr *storage.Manager) {
	l := log.Logger().With().Str("job", "stats.download_report").Logger()

	if mgr == nil || mgr.GetDBClient() == nil || mgr.GetDBClient().GetDB() == nil {
		l.Error().Msg("db not initialized")
		return
	}

	dbx := mgr.GetDBClient().GetDB().WithContext(ctx)

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevStart := monthStart.AddDate(0, -1, 0)

	var rows []struct {
		GrantType string
		Count     int64
	}

	if err := dbx.Model(&model.DownloadEvent{}).
		Select("grant_type, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", prevStart, monthStart).
		Group("grant_type").
		Scan(&rows).Error; err != nil {
		l.Error().Err(err).Msg("download report query failed")
		return
	}

	var total int64

	ev := l.Info().Str("month", prevStart.Format("2006-01"))
	for _, r := range rows {
		total += r.Count
		ev = ev.Int64(r.GrantType, r.Count)
	}

	ev.Int64("total", total).Msg("monthly download report")
}
