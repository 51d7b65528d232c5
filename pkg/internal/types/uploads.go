package types

// SignUploadRequest 预签名上传请求：为单个待上传照片申请 PUT URL.
type SignUploadRequest struct {
	// GalleryID 目标相册
	GalleryID uint `binding:"required" json:"gallery_id"`
	// FileName 原始文件名，扩展名用于生成对象键
	FileName string `binding:"required" json:"file_name"`
	// ContentType 如 image/jpeg，可选
	ContentType string `json:"content_type,omitempty"`
}

// SignUploadResponse 预签名上传响应体.
type SignUploadResponse struct {
	// ObjectKey 分配的对象键，上传完成确认时原样带回
	ObjectKey string `json:"object_key"`
	PutURL    string `json:"put_url"`
	// ExpiresIn 有效期（秒）
	ExpiresIn int `json:"expires_in"`
}
