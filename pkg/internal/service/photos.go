package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"github.com/yeisme/photovault/pkg/configs"
	ctxPkg "github.com/yeisme/photovault/pkg/context"
	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/storage/db"
	"github.com/yeisme/photovault/pkg/internal/storage/mq"
	"github.com/yeisme/photovault/pkg/internal/storage/s3"
	"github.com/yeisme/photovault/pkg/internal/types"
	nlog "github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/queue"
)

// PhotoService 负责照片的上传登记、列表与删除.
type PhotoService struct {
	dbc *db.Client
	s3c *s3.Client
	mqc *mq.Client
}

// NewPhotoService 创建并返回一个新的 PhotoService 实例.
func NewPhotoService(c context.Context) *PhotoService {
	svc := &PhotoService{
		dbc: ctxPkg.GetDBClient(c),
		s3c: ctxPkg.GetS3Client(c),
		mqc: ctxPkg.GetMQClient(c),
	}

	if svc.dbc == nil {
		nlog.Logger().Warn().Msg("DB client not initialized, PhotoService features limited")
	}

	if svc.s3c == nil {
		nlog.Logger().Warn().Msg("S3 client not initialized, upload/download features will be limited")
	}

	return svc
}

// SignUpload 为待上传照片签发预签名 PUT URL，并分配对象键.
// 对象键格式：{photographer_id}/{gallery_id}/{uuid}.{ext}，与原始文件名解耦.
func (s *PhotoService) SignUpload(ctx context.Context, ownerID uint, req *types.SignUploadRequest) (*types.SignUploadResponse, error) {
	if ownerID == 0 || req == nil {
		return nil, fmt.Errorf("ownerID/req is required")
	}

	if s.s3c == nil {
		return nil, errors.New("s3 not initialized")
	}

	if _, err := s.loadOwnedGallery(ctx, ownerID, req.GalleryID); err != nil {
		return nil, err
	}

	bucket := s.defaultBucket()
	objectKey := buildPhotoObjectKey(ownerID, req.GalleryID, req.FileName)
	expiry := uploadURLTTL()

	u, err := s.s3c.PresignedPutObject(ctx, bucket, objectKey, expiry)
	if err != nil {
		return nil, fmt.Errorf("presign put for %s: %w", objectKey, err)
	}

	return &types.SignUploadResponse{
		ObjectKey: objectKey,
		PutURL:    u.String(),
		ExpiresIn: int(expiry.Seconds()),
	}, nil
}

// CompleteUpload 上传完成确认：校验对象键归属后登记照片元数据.
func (s *PhotoService) CompleteUpload(ctx context.Context, ownerID uint, req *types.CompleteUploadRequest) (*types.CompleteUploadResponse, error) {
	if ownerID == 0 || req == nil {
		return nil, fmt.Errorf("ownerID/req is required")
	}

	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	galleryID, err := galleryIDFromObjectKey(ownerID, req.ObjectKey)
	if err != nil {
		return nil, err
	}

	if _, err := s.loadOwnedGallery(ctx, ownerID, galleryID); err != nil {
		return nil, err
	}

	p := model.Photo{
		GalleryID:   galleryID,
		ObjectKey:   req.ObjectKey,
		Bucket:      s.defaultBucket(),
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        req.Size,
		ETag:        strings.Trim(req.ETag, "\""),
		Width:       req.Width,
		Height:      req.Height,
	}

	if err := s.dbc.GetDB().WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("register photo: %w", err)
	}

	s.publishPhotoStored(&p, ownerID)

	return &types.CompleteUploadResponse{Photo: photoToInfo(&p)}, nil
}

// List 列出相册内的照片（owner 视角）.
func (s *PhotoService) List(ctx context.Context, ownerID, galleryID uint) (*types.ListPhotosResponse, error) {
	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	if _, err := s.loadOwnedGallery(ctx, ownerID, galleryID); err != nil {
		return nil, err
	}

	photos, err := s.ListByGallery(ctx, galleryID)
	if err != nil {
		return nil, err
	}

	infos := make([]types.PhotoInfo, 0, len(photos))
	for i := range photos {
		infos = append(infos, photoToInfo(&photos[i]))
	}

	return &types.ListPhotosResponse{Photos: infos, Total: int64(len(infos))}, nil
}

// ListByGallery 列出相册内全部照片记录，按上传时间排序.
func (s *PhotoService) ListByGallery(ctx context.Context, galleryID uint) ([]model.Photo, error) {
	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	var photos []model.Photo
	if err := s.dbc.GetDB().WithContext(ctx).
		Where("gallery_id = ?", galleryID).
		Order("created_at ASC, id ASC").Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	return photos, nil
}

// GetPhoto 按主键加载单张照片：不存在返回 ErrNotFound.
func (s *PhotoService) GetPhoto(ctx context.Context, photoID uint) (*model.Photo, error) {
	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	var p model.Photo
	if err := s.dbc.GetDB().WithContext(ctx).First(&p, photoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &p, nil
}

// BulkDelete 批量删除照片：逐项处理，单项失败不中断整体.
// DB 记录删除成功但对象删除失败时仍计为成功，对象留给后台任务重试.
func (s *PhotoService) BulkDelete(ctx context.Context, ownerID uint, req *types.BulkDeletePhotosRequest) (*types.BulkDeletePhotosResponse, error) {
	if ownerID == 0 || req == nil || len(req.PhotoIDs) == 0 {
		return nil, fmt.Errorf("ownerID/photo_ids is required")
	}

	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	resp := &types.BulkDeletePhotosResponse{Total: len(req.PhotoIDs)}

	for _, id := range req.PhotoIDs {
		if err := s.deleteOne(ctx, ownerID, id); err != nil {
			if resp.Failed == nil {
				resp.Failed = make(map[string]string)
			}

			resp.Failed[strconv.FormatUint(uint64(id), 10)] = err.Error()

			continue
		}

		resp.Deleted = append(resp.Deleted, id)
	}

	return resp, nil
}

// deleteOne 删除单张照片：校验归属，DB 先删，对象尽力删.
func (s *PhotoService) deleteOne(ctx context.Context, ownerID, photoID uint) error {
	p, err := s.GetPhoto(ctx, photoID)
	if err != nil {
		return err
	}

	if _, err := s.loadOwnedGallery(ctx, ownerID, p.GalleryID); err != nil {
		return err
	}

	dbx := s.dbc.GetDB().WithContext(ctx)
	if err := dbx.Delete(p).Error; err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}

	objectRemoved := true

	if s.s3c != nil {
		if err := s.s3c.RemoveObject(ctx, p.Bucket, p.ObjectKey, minio.RemoveObjectOptions{}); err != nil {
			objectRemoved = false

			nlog.Logger().Warn().Err(err).
				Str("object", p.ObjectKey).
				Msg("failed to remove object, left for retry job")
		}
	}

	s.publishPhotoDeleted(p, ownerID, objectRemoved)

	return nil
}

// PurgeDeleted 对软删除超过宽限期的照片做二次清理：
// 重试删除残留对象，成功后物理删除记录. 返回本次清理的记录数.
func (s *PhotoService) PurgeDeleted(ctx context.Context, before time.Time) (int, error) {
	if s.dbc == nil || s.dbc.GetDB() == nil {
		return 0, errors.New("db not initialized")
	}

	dbx := s.dbc.GetDB().WithContext(ctx)

	var photos []model.Photo
	if err := dbx.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", before).
		Find(&photos).Error; err != nil {
		return 0, fmt.Errorf("list deleted photos: %w", err)
	}

	purged := 0

	for i := range photos {
		p := &photos[i]

		if s.s3c != nil {
			err := s.s3c.RemoveObject(ctx, p.Bucket, p.ObjectKey, minio.RemoveObjectOptions{})
			if err != nil {
				nlog.Logger().Warn().Err(err).
					Str("object", p.ObjectKey).
					Msg("failed to remove object, will retry next run")

				continue
			}
		}

		if err := dbx.Unscoped().Delete(p).Error; err != nil {
			return purged, fmt.Errorf("purge photo %d: %w", p.ID, err)
		}

		purged++
	}

	return purged, nil
}

// loadOwnedGallery 校验相册归属（与 GalleryService.loadOwned 一致的语义）.
func (s *PhotoService) loadOwnedGallery(ctx context.Context, ownerID, galleryID uint) (*model.Gallery, error) {
	var g model.Gallery
	if err := s.dbc.GetDB().WithContext(ctx).First(&g, galleryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	if g.PhotographerID != ownerID {
		return nil, ErrDenied
	}

	return &g, nil
}

func (s *PhotoService) defaultBucket() string {
	if buckets := configs.GetConfig().S3.Buckets; len(buckets) > 0 {
		return buckets[0]
	}

	return configs.DefaultS3Bucket
}

func (s *PhotoService) publishPhotoStored(p *model.Photo, ownerID uint) {
	if s.mqc == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicPhotoStored, queue.PhotoStoredPayload{
		Photo: queue.PhotoRef{
			PhotoID:        p.ID,
			GalleryID:      p.GalleryID,
			PhotographerID: ownerID,
			Bucket:         p.Bucket,
			ObjectKey:      p.ObjectKey,
			ContentType:    p.ContentType,
			Size:           p.Size,
		},
		FileName: p.FileName,
		Width:    p.Width,
		Height:   p.Height,
	}, queue.WithProducer("photovault"))
	if err != nil {
		return
	}

	_ = s.mqc.Publish(context.Background(), queue.TopicPhotoStored, msg)
}

func (s *PhotoService) publishPhotoDeleted(p *model.Photo, ownerID uint, objectRemoved bool) {
	if s.mqc == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicPhotoDeleted, queue.PhotoDeletedPayload{
		Photo: queue.PhotoRef{
			PhotoID:        p.ID,
			GalleryID:      p.GalleryID,
			PhotographerID: ownerID,
			Bucket:         p.Bucket,
			ObjectKey:      p.ObjectKey,
		},
		ObjectRemoved: objectRemoved,
	}, queue.WithProducer("photovault"))
	if err != nil {
		return
	}

	_ = s.mqc.Publish(context.Background(), queue.TopicPhotoDeleted, msg)
}

// buildPhotoObjectKey 构建对象键：{photographer_id}/{gallery_id}/{uuid}.{ext}.
// 放在 service 层便于未来统一策略（如目录分桶、内容寻址等）.
func buildPhotoObjectKey(ownerID, galleryID uint, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))

	return fmt.Sprintf("%d/%d/%s%s", ownerID, galleryID, uuid.NewString(), ext)
}

// galleryIDFromObjectKey 从对象键反解相册 ID，并校验前缀归属.
func galleryIDFromObjectKey(ownerID uint, objectKey string) (uint, error) {
	parts := strings.SplitN(objectKey, "/", 3)
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed object key: %s", objectKey)
	}

	if parts[0] != strconv.FormatUint(uint64(ownerID), 10) {
		return 0, ErrDenied
	}

	gid, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed object key: %s", objectKey)
	}

	return uint(gid), nil
}

// 签名 URL 有效期兜底值：下载链接短时效，上传窗口放宽到 10 分钟.
const (
	defaultDownloadURLTTL = 60 * time.Second
	defaultUploadURLTTL   = 600 * time.Second
)

// uploadURLTTL 预签名上传 URL 有效期.
func uploadURLTTL() time.Duration {
	if n := configs.GetConfig().Share.UploadURLTTLSeconds; n > 0 {
		return time.Duration(n) * time.Second
	}

	return defaultUploadURLTTL
}

// downloadURLTTL 签名下载 URL 有效期.
func downloadURLTTL() time.Duration {
	if n := configs.GetConfig().Share.DownloadURLTTLSeconds; n > 0 {
		return time.Duration(n) * time.Second
	}

	return defaultDownloadURLTTL
}

func photoToInfo(p *model.Photo) types.PhotoInfo {
	return types.PhotoInfo{
		ID:          p.ID,
		GalleryID:   p.GalleryID,
		FileName:    p.FileName,
		ContentType: p.ContentType,
		Size:        p.Size,
		Width:       p.Width,
		Height:      p.Height,
		CreatedAt:   p.CreatedAt,
	}
}
