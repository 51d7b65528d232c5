package model

import (
	"time"
)

// Gallery 相册模型：照片按相册组织，相册归属唯一摄影师.
type Gallery struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// 归属摄影师，slug 在同一摄影师下唯一
	PhotographerID uint   `gorm:"index:idx_owner_slug,unique;index" json:"photographer_id"`
	Slug           string `gorm:"size:128;index:idx_owner_slug,unique" json:"slug"`
	Title          string `gorm:"size:512"  json:"title"`
	Description    string `gorm:"type:text" json:"description"`
	// IsPublic 为 true 时允许匿名访问相册内照片
	IsPublic bool `gorm:"index" json:"is_public"`
	// EventDate 拍摄/活动日期，可选
	EventDate *time.Time `json:"event_date,omitempty"`
	// 删除即物理删除：slug 受 idx_owner_slug 唯一索引约束，
	// 保留已删行会阻止同名相册重建；照片行仍走软删由清理任务回收
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
