// Package queue 定义消息主题常量与通配模式，供发布/订阅使用.
package queue

// 主题命名规范：pv.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：photo(照片对象)、gallery(相册)、share(分享链接)、archive(打包下载)
// 动作：存储相关(stored/deleted)、访问相关(downloaded/resolved)
// 状态：请求(requested)、完成(ed)、失败(failed)

const (
	// 照片领域.
	TopicPhotoStored     = "pv.photo.stored"     // 照片已写入对象存储并完成元数据入库
	TopicPhotoDeleted    = "pv.photo.deleted"    // 照片从存储与数据库中删除
	TopicPhotoDownloaded = "pv.photo.downloaded" // 照片被下载（签名 URL 已签发）

	// 相册领域.
	TopicGalleryCreated = "pv.gallery.created" // 相册创建完成
	TopicGalleryDeleted = "pv.gallery.deleted" // 相册及其照片删除完成

	// 分享链接领域.
	TopicShareCreated  = "pv.share.created"  // 分享链接创建完成
	TopicShareDeleted  = "pv.share.deleted"  // 分享链接被所有者删除
	TopicShareResolved = "pv.share.resolved" // 分享链接被成功解析访问

	// 打包下载领域.
	TopicArchiveRequested = "pv.archive.requested" // 请求批量打包下载
	TopicArchiveCompleted = "pv.archive.completed" // 打包流式传输完成
	TopicArchiveFailed    = "pv.archive.failed"    // 打包中途失败或被取消
)

// 主题分组，用于批量订阅或权限控制.
var (
	// 照片相关主题集合.
	PhotoTopics = []string{
		TopicPhotoStored, TopicPhotoDeleted, TopicPhotoDownloaded,
	}

	// 相册相关主题集合.
	GalleryTopics = []string{
		TopicGalleryCreated, TopicGalleryDeleted,
	}

	// 分享链接相关主题集合.
	ShareTopics = []string{
		TopicShareCreated, TopicShareDeleted, TopicShareResolved,
	}

	// 打包下载相关主题集合.
	ArchiveTopics = []string{
		TopicArchiveRequested, TopicArchiveCompleted, TopicArchiveFailed,
	}
)
