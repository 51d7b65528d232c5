package model

import (
	"time"
)

// ShareLink 分享链接模型：授予匿名访客对单个相册的只读访问.
// 访问凭据有两种：系统生成的 Token（始终存在）与可选的人类可读 Alias.
type ShareLink struct {
	// LinkID 形如 sl_<ULID>，创建时生成
	LinkID string `gorm:"primaryKey;size:64" json:"link_id"`
	// 目标相册
	GalleryID uint `gorm:"index" json:"gallery_id"`
	// Token 随机凭据，全局唯一，创建后不可变
	Token string `gorm:"size:64;uniqueIndex" json:"token"`
	// Alias 可选的人类可读凭据，跨所有链接全局唯一
	Alias *string `gorm:"size:64;uniqueIndex" json:"alias,omitempty"`
	// ExpiresAt 为空表示永不过期；过期判定在解析时惰性执行
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	// DownloadLimit 为空表示不限下载次数
	DownloadLimit *int `json:"download_limit,omitempty"`
	// DownloadCount 已消耗的下载次数，递增与校验在同一条 UPDATE 中完成
	DownloadCount int `gorm:"not null;default:0" json:"download_count"`
	// 删除即物理删除：Token 与 Alias 受全局唯一索引约束，
	// 保留已删行会永久占用别名；下载审计由 download_events 承担
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired 判断链接在 now 时刻是否已过期.
func (s *ShareLink) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}

// Exhausted 判断下载配额是否已耗尽.
func (s *ShareLink) Exhausted() bool {
	return s.DownloadLimit != nil && s.DownloadCount >= *s.DownloadLimit
}
