package types

// StatsSummary 摄影师维度的总体统计.
type StatsSummary struct {
	TotalGalleries int64 `json:"total_galleries"`
	TotalPhotos    int64 `json:"total_photos"`
	TotalSize      int64 `json:"total_size"`
	TotalShares    int64 `json:"total_shares"`
	// ActiveShares 未过期且配额未耗尽的分享链接数
	ActiveShares   int64 `json:"active_shares"`
	TotalDownloads int64 `json:"total_downloads"`
}

// StatsGalleryItem 按相册聚合的统计项.
type StatsGalleryItem struct {
	GalleryID uint   `json:"gallery_id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Photos    int64  `json:"photos"`
	Size      int64  `json:"size"`
	Downloads int64  `json:"downloads"`
}

// StatsSummaryResponse 总体统计响应体.
type StatsSummaryResponse struct {
	Summary   StatsSummary       `json:"summary"`
	Galleries []StatsGalleryItem `json:"galleries"`
}
