package model

import (
	"time"

	"gorm.io/gorm"
)

// Photo 照片模型：元数据以 DB 为真源，二进制内容存于对象存储.
type Photo struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// 归属相册
	GalleryID uint `gorm:"index" json:"gallery_id"`
	// 对象键（S3 key），全局唯一：{photographer_id}/{gallery_id}/{uuid}.{ext}
	ObjectKey   string `gorm:"size:1024;uniqueIndex" json:"object_key"`
	Bucket      string `gorm:"size:255"       json:"bucket"`
	FileName    string `gorm:"size:512;index" json:"file_name"`
	ContentType string `gorm:"size:255"       json:"content_type"`
	Size        int64  `gorm:"index"          json:"size"`
	ETag        string `gorm:"size:64"        json:"etag"`
	// 像素尺寸，上传完成确认时写入
	Width  int `json:"width"`
	Height int `json:"height"`
	// 软删除与审计
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
