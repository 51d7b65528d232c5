package types

// ArchiveRequest 批量打包下载请求.
type ArchiveRequest struct {
	// GalleryID 目标相册
	GalleryID uint `binding:"required" json:"gallery_id"`
	// PhotoIDs 必填，空选择在入口层拒绝
	PhotoIDs []uint `binding:"required,min=1" json:"photo_ids"`
}
