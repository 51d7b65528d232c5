package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 照片领域 --------------------------

// PhotoRef 标识照片在对象存储与数据库中的位置.
type PhotoRef struct {
	PhotoID        uint   `json:"photo_id,omitempty"`
	GalleryID      uint   `json:"gallery_id,omitempty"`
	PhotographerID uint   `json:"photographer_id,omitempty"`
	Bucket         string `json:"bucket"`
	ObjectKey      string `json:"object_key"`
	ContentType    string `json:"content_type,omitempty"`
	Size           int64  `json:"size,omitempty"`
}

// PhotoStoredPayload 照片已写入对象存储并完成元数据入库.
type PhotoStoredPayload struct {
	Photo    PhotoRef `json:"photo"`
	FileName string   `json:"file_name,omitempty"`
	Width    int      `json:"width,omitempty"`
	Height   int      `json:"height,omitempty"`
}

// PhotoDeletedPayload 照片从存储与数据库中删除.
type PhotoDeletedPayload struct {
	Photo PhotoRef `json:"photo"`
	// ObjectRemoved 标记对象存储侧是否已确认删除，失败时由后台任务重试.
	ObjectRemoved bool `json:"object_removed"`
}

// PhotoDownloadedPayload 照片签名下载 URL 已签发.
type PhotoDownloadedPayload struct {
	Photo PhotoRef `json:"photo"`
	// Grant 本次访问的授权来源：owner/share/public.
	Grant   string `json:"grant"`
	ShareID string `json:"share_id,omitempty"`
}

// -------------------------- 相册领域 --------------------------

// GalleryRef 标识相册.
type GalleryRef struct {
	GalleryID      uint   `json:"gallery_id"`
	PhotographerID uint   `json:"photographer_id"`
	Slug           string `json:"slug,omitempty"`
}

// GalleryCreatedPayload 相册创建完成.
type GalleryCreatedPayload struct {
	Gallery GalleryRef `json:"gallery"`
	Title   string     `json:"title,omitempty"`
	Public  bool       `json:"public"`
}

// GalleryDeletedPayload 相册及其照片删除完成.
type GalleryDeletedPayload struct {
	Gallery     GalleryRef `json:"gallery"`
	PhotosCount int        `json:"photos_count"`
}

// -------------------------- 分享链接领域 --------------------------

// ShareCreatedPayload 分享链接创建完成.
type ShareCreatedPayload struct {
	ShareID   string     `json:"share_id"`
	Gallery   GalleryRef `json:"gallery"`
	Alias     string     `json:"alias,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// DownloadLimit 为空表示不限次数.
	DownloadLimit *int `json:"download_limit,omitempty"`
}

// ShareDeletedPayload 分享链接被所有者删除.
type ShareDeletedPayload struct {
	ShareID string     `json:"share_id"`
	Gallery GalleryRef `json:"gallery"`
}

// ShareResolvedPayload 分享链接被成功解析访问.
type ShareResolvedPayload struct {
	ShareID string     `json:"share_id"`
	Gallery GalleryRef `json:"gallery"`
	// ByAlias 标记本次访问使用别名还是令牌.
	ByAlias bool `json:"by_alias"`
}

// -------------------------- 打包下载领域 --------------------------

// ArchiveRequestedPayload 请求批量打包下载.
type ArchiveRequestedPayload struct {
	Gallery  GalleryRef `json:"gallery"`
	PhotoIDs []uint     `json:"photo_ids"`
	Grant    string     `json:"grant"`
}

// ArchiveCompletedPayload 打包流式传输完成.
type ArchiveCompletedPayload struct {
	Gallery      GalleryRef `json:"gallery"`
	Entries      int        `json:"entries"`
	Skipped      int        `json:"skipped"`
	BytesWritten int64      `json:"bytes_written"`
}

// ArchiveFailedPayload 打包中途失败或被取消.
type ArchiveFailedPayload struct {
	Gallery GalleryRef `json:"gallery"`
	Error   string     `json:"error"`
}
