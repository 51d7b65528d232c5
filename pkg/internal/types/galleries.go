package types

import "time"

// CreateGalleryRequest 创建相册请求.
type CreateGalleryRequest struct {
	// Slug URL 友好标识，同一摄影师下唯一
	Slug string `binding:"required" json:"slug" rule:"gallery_slug"`
	// Title 相册标题
	Title string `binding:"required" json:"title"`
	// Description 相册描述，可选
	Description string `json:"description,omitempty"`
	// IsPublic 是否允许匿名访问
	IsPublic bool `json:"is_public"`
	// EventDate 拍摄/活动日期（RFC3339），可选
	EventDate *time.Time `json:"event_date,omitempty"`
}

// UpdateGalleryRequest 更新相册请求，零值字段不变更.
type UpdateGalleryRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	IsPublic    *bool      `json:"is_public,omitempty"`
	EventDate   *time.Time `json:"event_date,omitempty"`
}

// GalleryInfo 相册的公开信息.
type GalleryInfo struct {
	ID             uint       `json:"id"`
	PhotographerID uint       `json:"photographer_id"`
	Slug           string     `json:"slug"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	IsPublic       bool       `json:"is_public"`
	EventDate      *time.Time `json:"event_date,omitempty"`
	PhotoCount     int64      `json:"photo_count"`
	CreatedAt      time.Time  `json:"created_at"`
}

// PublicGalleryResponse 公开相册页响应体：匿名访客通过
// /p/{username}/{slug} 浏览公开相册.
type PublicGalleryResponse struct {
	Photographer string      `json:"photographer"` // 摄影师用户名
	DisplayName  string      `json:"display_name,omitempty"`
	Gallery      GalleryInfo `json:"gallery"`
	Photos       []PhotoInfo `json:"photos"`
}

// ListGalleriesResponse 相册列表响应体.
type ListGalleriesResponse struct {
	Galleries []GalleryInfo `json:"galleries"`
	Total     int64         `json:"total"`
}

// GalleryStatsResponse 相册下载统计响应体.
type GalleryStatsResponse struct {
	GalleryID uint `json:"gallery_id"`
	// TotalDownloads 全部下载事件数
	TotalDownloads int64 `json:"total_downloads"`
	// ByGrant 按授权来源聚合（owner/share/public）
	ByGrant []DownloadGrantItem `json:"by_grant"`
	// Trend 最近 30 天按日趋势
	Trend []DownloadTrendPoint `json:"trend"`
	// TopPhotos 下载最多的照片
	TopPhotos []PhotoDownloadItem `json:"top_photos"`
}

// DownloadGrantItem 按授权来源聚合的下载次数.
type DownloadGrantItem struct {
	Grant string `json:"grant"`
	Count int64  `json:"count"`
}

// DownloadTrendPoint 下载趋势点（按日）.
type DownloadTrendPoint struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}

// PhotoDownloadItem 单张照片的下载次数.
type PhotoDownloadItem struct {
	PhotoID  uint   `json:"photo_id"`
	FileName string `json:"file_name"`
	Count    int64  `json:"count"`
}
