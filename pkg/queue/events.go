package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// PublishPhotoStored 发布 pv.photo.stored 事件。
// 用于照片写入对象存储并完成元数据入库后，通知下游流程（如统计、通知等）。
// 可通过可选项 opts 注入 TraceID、Producer 等头部信息。
func PublishPhotoStored(pub message.Publisher, payload PhotoStoredPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicPhotoStored, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicPhotoStored, msg)
}

// ParsePhotoStored 将 Watermill 消息解析为强类型 Envelope（PhotoStoredPayload）。
func ParsePhotoStored(msg *message.Message) (Message[PhotoStoredPayload], error) {
	return ParseWatermillMessage[PhotoStoredPayload](msg)
}

// PublishPhotoDeleted 发布 pv.photo.deleted 事件。
func PublishPhotoDeleted(pub message.Publisher, payload PhotoDeletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicPhotoDeleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicPhotoDeleted, msg)
}

// PublishPhotoDownloaded 发布 pv.photo.downloaded 事件。
func PublishPhotoDownloaded(pub message.Publisher, payload PhotoDownloadedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicPhotoDownloaded, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicPhotoDownloaded, msg)
}

// PublishShareCreated 发布 pv.share.created 事件。
func PublishShareCreated(pub message.Publisher, payload ShareCreatedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicShareCreated, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicShareCreated, msg)
}

// PublishShareDeleted 发布 pv.share.deleted 事件。
func PublishShareDeleted(pub message.Publisher, payload ShareDeletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicShareDeleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicShareDeleted, msg)
}

// PublishShareResolved 发布 pv.share.resolved 事件。
func PublishShareResolved(pub message.Publisher, payload ShareResolvedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicShareResolved, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicShareResolved, msg)
}

// PublishArchiveCompleted 发布 pv.archive.completed 事件。
func PublishArchiveCompleted(pub message.Publisher, payload ArchiveCompletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicArchiveCompleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicArchiveCompleted, msg)
}
