// Package model 定义 photovault 的数据库模型.
package model

import "gorm.io/gorm"

// AutoMigrate 按依赖顺序迁移全部业务表.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Photographer{},
		&Gallery{},
		&Photo{},
		&ShareLink{},
		&DownloadEvent{},
	)
}
