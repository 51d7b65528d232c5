package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobPhotoPurgeMorning = "photo.purge_deleted.morning"
	JobPhotoPurgeEvening = "photo.purge_deleted.evening"
	JobShareExpirySweep  = "share.expiry_sweep"
	JobDownloadReport    = "stats.download_report.monthly"
)

// Cron 表达式常量（可选，但推荐一并集中管理）.
const (
	CronPhotoPurgeMorning = "0 7 * * *"
	CronPhotoPurgeEvening = "0 19 * * *"
	CronShareExpirySweep  = "10 2 * * *"
	CronDownloadReport    = "30 3 1 * *"
)
