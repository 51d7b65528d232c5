package types

import "time"

// CreateShareLinkRequest 创建分享链接所需参数.
type CreateShareLinkRequest struct {
	// GalleryID 目标相册
	GalleryID uint `binding:"required" json:"gallery_id"`
	// Alias 可选的人类可读标识，跨所有链接全局唯一
	Alias string `json:"alias,omitempty" rule:"omitempty,share_alias"`
	// ExpireDays 有效天数；>0 则按天计算过期时间，为 0 表示不过期
	ExpireDays int `json:"expire_days,omitempty"`
	// DownloadLimit 最大下载次数；为 0 表示不限
	DownloadLimit int `json:"download_limit,omitempty"`
}

// ShareLinkInfo 分享链接的公开信息.
type ShareLinkInfo struct {
	// LinkID 链接唯一标识
	LinkID string `json:"link_id"`
	// GalleryID 目标相册
	GalleryID uint `json:"gallery_id"`
	// Token 系统生成的访问凭据
	Token string `json:"token"`
	// Alias 可选的人类可读凭据
	Alias string `json:"alias,omitempty"`
	// ExpiresAt 过期时间（UTC，可为空表示不过期）
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// DownloadLimit 最大下载次数，为空表示不限
	DownloadLimit *int `json:"download_limit,omitempty"`
	// DownloadCount 已消耗的下载次数
	DownloadCount int `json:"download_count"`
	// CreatedAt 创建时间（UTC）
	CreatedAt time.Time `json:"created_at"`
}

// CreateShareLinkResponse 创建分享链接的响应体.
type CreateShareLinkResponse struct {
	Share ShareLinkInfo `json:"share"`
}

// ListShareLinksResponse 分享链接列表响应体.
type ListShareLinksResponse struct {
	Shares []ShareLinkInfo `json:"shares"`
}

// ResolveShareResponse 访客解析分享链接的响应体：相册信息与照片清单.
type ResolveShareResponse struct {
	Gallery GalleryInfo `json:"gallery"`
	Photos  []PhotoInfo `json:"photos"`
	// ExpiresAt 链接过期时间，可为空
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// RemainingDownloads 剩余下载次数，为空表示不限
	RemainingDownloads *int `json:"remaining_downloads,omitempty"`
}
