package model

import "time"

// DownloadEvent 下载审计记录，仅追加，不做软删除.
// ShareID 为空表示所有者或公开相册访问.
type DownloadEvent struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	PhotoID   uint   `gorm:"index"      json:"photo_id"`
	GalleryID uint   `gorm:"index"      json:"gallery_id"`
	ShareID   string `gorm:"size:64;index" json:"share_id,omitempty"`
	// Grant 授权来源：owner/share/public；grant 是 SQL 保留字，列名避开
	Grant     string    `gorm:"column:grant_type;size:16" json:"grant"`
	CreatedAt time.Time `gorm:"index"   json:"created_at"`
}
