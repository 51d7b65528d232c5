package model

import (
	"time"

	"gorm.io/gorm"
)

// Photographer 摄影师账户模型.
// ExternalID 来自上游认证代理的身份标识，首访时幂等建档.
type Photographer struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// 上游身份标识（认证代理传入），全局唯一
	ExternalID string `gorm:"size:255;uniqueIndex" json:"external_id"`
	// 对外展示的用户名，全局唯一
	Username    string `gorm:"size:128;uniqueIndex" json:"username"`
	DisplayName string `gorm:"size:255"             json:"display_name"`
	// 软删除与审计
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
