package types

import "time"

// PhotoInfo 照片的公开元数据.
type PhotoInfo struct {
	ID          uint      `json:"id"`
	GalleryID   uint      `json:"gallery_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListPhotosResponse 照片列表响应体.
type ListPhotosResponse struct {
	Photos []PhotoInfo `json:"photos"`
	Total  int64       `json:"total"`
}

// CompleteUploadRequest 上传完成确认请求：客户端经预签名 PUT 写入对象后，
// 调用本接口将元数据登记入库.
type CompleteUploadRequest struct {
	// ObjectKey 预签名上传时分配的对象键
	ObjectKey string `binding:"required" json:"object_key"`
	FileName  string `binding:"required" json:"file_name"`
	// ContentType 如 image/jpeg
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ETag        string `json:"etag,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// CompleteUploadResponse 上传完成确认响应体.
type CompleteUploadResponse struct {
	Photo PhotoInfo `json:"photo"`
}

// BulkDeletePhotosRequest 批量删除照片请求.
type BulkDeletePhotosRequest struct {
	PhotoIDs []uint `binding:"required,min=1" json:"photo_ids"`
}

// BulkDeletePhotosResponse 批量删除结果：逐项成功/失败.
type BulkDeletePhotosResponse struct {
	Deleted []uint            `json:"deleted"`
	Failed  map[string]string `json:"failed,omitempty"` // photo_id -> 错误原因
	Total   int               `json:"total"`
}

// SignedURLResponse 签名下载 URL 响应体.
type SignedURLResponse struct {
	URL string `json:"url"`
	// ExpiresIn 有效期（秒）
	ExpiresIn int `json:"expires_in"`
	// Grant 本次访问的授权来源：owner/share/public
	Grant string `json:"grant"`
}
