package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	ctxPkg "github.com/yeisme/photovault/pkg/context"
	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/storage/db"
	"github.com/yeisme/photovault/pkg/internal/storage/mq"
	"github.com/yeisme/photovault/pkg/internal/storage/s3"
	"github.com/yeisme/photovault/pkg/internal/types"
	nlog "github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/queue"
)

// GalleryService 负责相册的增删改查与统计.
type GalleryService struct {
	dbc    *db.Client
	s3c    *s3.Client
	mqc    *mq.Client
	shares *ShareLinkService
}

// NewGalleryService 创建并返回一个新的 GalleryService 实例.
func NewGalleryService(c context.Context) *GalleryService {
	svc := &GalleryService{
		dbc:    ctxPkg.GetDBClient(c),
		s3c:    ctxPkg.GetS3Client(c),
		mqc:    ctxPkg.GetMQClient(c),
		shares: NewShareLinkService(c),
	}

	if svc.dbc == nil {
		nlog.Logger().Warn().Msg("DB client not initialized, GalleryService features limited")
	}

	return svc
}

// Create 创建相册；slug 在同一摄影师下唯一，冲突返回 ErrSlugTaken.
func (s *GalleryService) Create(ctx context.Context, ownerID uint, req *types.CreateGalleryRequest) (*types.GalleryInfo, error) {
	if ownerID == 0 || req == nil {
		return nil, fmt.Errorf("ownerID/req is required")
	}

	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	dbx := s.dbc.GetDB().WithContext(ctx)

	// 先查后插依赖唯一索引兜底：并发下重复插入会触发索引冲突
	var count int64
	if err := dbx.Model(&model.Gallery{}).
		Where("photographer_id = ? AND slug = ?", ownerID, req.Slug).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}

	if count > 0 {
		return nil, ErrSlugTaken
	}

	g := model.Gallery{
		PhotographerID: ownerID,
		Slug:           req.Slug,
		Title:          req.Title,
		Description:    req.Description,
		IsPublic:       req.IsPublic,
		EventDate:      req.EventDate,
	}

	if err := dbx.Create(&g).Error; err != nil {
		return nil, fmt.Errorf("create gallery: %w", err)
	}

	s.publishGalleryCreated(&g)

	info := galleryToInfo(&g, 0)

	return &info, nil
}

// Get 获取单个相册（仅 owner 可见非公开相册）.
func (s *GalleryService) Get(ctx context.Context, ownerID, galleryID uint) (*types.GalleryInfo, error) {
	g, err := s.loadOwned(ctx, ownerID, galleryID)
	if err != nil {
		return nil, err
	}

	count, err := s.countPhotos(ctx, g.ID)
	if err != nil {
		return nil, err
	}

	info := galleryToInfo(g, count)

	return &info, nil
}

// List 列出摄影师的全部相册.
func (s *GalleryService) List(ctx context.Context, ownerID uint) (*types.ListGalleriesResponse, error) {
	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	dbx := s.dbc.GetDB().WithContext(ctx)

	var galleries []model.Gallery
	if err := dbx.Where("photographer_id = ?", ownerID).
		Order("created_at DESC").Find(&galleries).Error; err != nil {
		return nil, fmt.Errorf("list galleries: %w", err)
	}

	infos := make([]types.GalleryInfo, 0, len(galleries))

	for i := range galleries {
		count, err := s.countPhotos(ctx, galleries[i].ID)
		if err != nil {
			return nil, err
		}

		infos = append(infos, galleryToInfo(&galleries[i], count))
	}

	return &types.ListGalleriesResponse{Galleries: infos, Total: int64(len(infos))}, nil
}

// Update 更新相册属性，nil 字段保持不变.
func (s *GalleryService) Update(ctx context.Context, ownerID, galleryID uint, req *types.UpdateGalleryRequest) (*types.GalleryInfo, error) {
	g, err := s.loadOwned(ctx, ownerID, galleryID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}

	if req.Title != nil {
		updates["title"] = *req.Title
	}

	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}

	if req.EventDate != nil {
		updates["event_date"] = *req.EventDate
	}

	dbx := s.dbc.GetDB().WithContext(ctx)
	if err := dbx.Model(g).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update gallery: %w", err)
	}

	count, err := s.countPhotos(ctx, g.ID)
	if err != nil {
		return nil, err
	}

	info := galleryToInfo(g, count)

	return &info, nil
}

// Delete 删除相册：相册行与分享链接物理删除（slug、别名随即可复用），
// 照片行软删后由清理任务回收；对象存储侧尽力删除，失败的对象留给后台任务重试.
func (s *GalleryService) Delete(ctx context.Context, ownerID, galleryID uint) error {
	g, err := s.loadOwned(ctx, ownerID, galleryID)
	if err != nil {
		return err
	}

	dbx := s.dbc.GetDB().WithContext(ctx)

	var photos []model.Photo
	if err := dbx.Where("gallery_id = ?", g.ID).Find(&photos).Error; err != nil {
		return fmt.Errorf("list photos: %w", err)
	}

	var links []model.ShareLink
	if err := dbx.Where("gallery_id = ?", g.ID).Find(&links).Error; err != nil {
		return fmt.Errorf("list share links: %w", err)
	}

	if err := dbx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("gallery_id = ?", g.ID).Delete(&model.Photo{}).Error; err != nil {
			return err
		}

		if err := tx.Where("gallery_id = ?", g.ID).Delete(&model.ShareLink{}).Error; err != nil {
			return err
		}

		return tx.Delete(g).Error
	}); err != nil {
		return fmt.Errorf("delete gallery: %w", err)
	}

	// 级联删掉的链接同样要失效缓存，避免已删凭据短期内仍可解析
	for i := range links {
		s.shares.evictLink(ctx, &links[i])
	}

	// 尽力删除对象，失败仅告警
	if s.s3c != nil {
		for i := range photos {
			p := &photos[i]
			if err := s.s3c.RemoveObject(ctx, p.Bucket, p.ObjectKey, minio.RemoveObjectOptions{}); err != nil {
				nlog.Logger().Warn().Err(err).
					Str("object", p.ObjectKey).
					Msg("failed to remove object, left for retry job")
			}
		}
	}

	s.publishGalleryDeleted(g, len(photos))

	return nil
}

// Stats 汇总相册的下载统计：总量、按授权来源、近 30 天趋势与热门照片.
func (s *GalleryService) Stats(ctx context.Context, ownerID, galleryID uint) (*types.GalleryStatsResponse, error) {
	g, err := s.loadOwned(ctx, ownerID, galleryID)
	if err != nil {
		return nil, err
	}

	dbx := s.dbc.GetDB().WithContext(ctx)
	resp := &types.GalleryStatsResponse{GalleryID: g.ID}

	if err := dbx.Model(&model.DownloadEvent{}).
		Where("gallery_id = ?", g.ID).
		Count(&resp.TotalDownloads).Error; err != nil {
		return nil, fmt.Errorf("count downloads: %w", err)
	}

	var grants []struct {
		GrantType string
		Count     int64
	}

	if err := dbx.Model(&model.DownloadEvent{}).
		Select("grant_type, COUNT(*) AS count").
		Where("gallery_id = ?", g.ID).
		Group("grant_type").
		Scan(&grants).Error; err != nil {
		return nil, fmt.Errorf("group by grant: %w", err)
	}

	resp.ByGrant = make([]types.DownloadGrantItem, 0, len(grants))
	for _, gr := range grants {
		resp.ByGrant = append(resp.ByGrant, types.DownloadGrantItem{Grant: gr.GrantType, Count: gr.Count})
	}

	since := time.Now().UTC().AddDate(0, 0, -30)

	var rows []struct {
		Day   time.Time
		Count int64
	}

	if err := dbx.Model(&model.DownloadEvent{}).
		Select("created_at AS day, COUNT(*) AS count").
		Where("gallery_id = ? AND created_at >= ?", g.ID, since).
		Group("created_at").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("trend query: %w", err)
	}

	// 数据库方言的日期截断差异较大，按日聚合在应用层完成
	byDay := map[string]int64{}
	for _, r := range rows {
		byDay[r.Day.UTC().Format("2006-01-02")] += r.Count
	}

	resp.Trend = make([]types.DownloadTrendPoint, 0, len(byDay))
	for d := since; !d.After(time.Now().UTC()); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if n, ok := byDay[key]; ok {
			resp.Trend = append(resp.Trend, types.DownloadTrendPoint{Date: key, Count: n})
		}
	}

	const topPhotosLimit = 10

	if err := dbx.Model(&model.DownloadEvent{}).
		Select("download_events.photo_id, photos.file_name, COUNT(*) AS count").
		Joins("JOIN photos ON photos.id = download_events.photo_id").
		Where("download_events.gallery_id = ?", g.ID).
		Group("download_events.photo_id, photos.file_name").
		Order("count DESC").
		Limit(topPhotosLimit).
		Scan(&resp.TopPhotos).Error; err != nil {
		return nil, fmt.Errorf("top photos: %w", err)
	}

	return resp, nil
}

// ResolvePublic 按 username/slug 解析公开相册页.
// 私有相册与不存在的相册一律返回 ErrNotFound，避免暴露相册存在性.
func (s *GalleryService) ResolvePublic(ctx context.Context, username, slug string) (*types.PublicGalleryResponse, error) {
	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	dbx := s.dbc.GetDB().WithContext(ctx)

	var photographer model.Photographer
	if err := dbx.Where("username = ?", strings.ToLower(username)).
		First(&photographer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("find photographer: %w", err)
	}

	var g model.Gallery
	if err := dbx.Where("photographer_id = ? AND slug = ?", photographer.ID, slug).
		First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("find gallery: %w", err)
	}

	if !g.IsPublic {
		return nil, ErrNotFound
	}

	var photos []model.Photo
	if err := dbx.Where("gallery_id = ?", g.ID).
		Order("created_at ASC").Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	infos := make([]types.PhotoInfo, 0, len(photos))
	for i := range photos {
		infos = append(infos, photoToInfo(&photos[i]))
	}

	return &types.PublicGalleryResponse{
		Photographer: photographer.Username,
		DisplayName:  photographer.DisplayName,
		Gallery:      galleryToInfo(&g, int64(len(photos))),
		Photos:       infos,
	}, nil
}

// loadOwned 加载相册并校验归属：不存在返回 ErrNotFound，非 owner 返回 ErrDenied.
func (s *GalleryService) loadOwned(ctx context.Context, ownerID, galleryID uint) (*model.Gallery, error) {
	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

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

func (s *GalleryService) countPhotos(ctx context.Context, galleryID uint) (int64, error) {
	var count int64
	if err := s.dbc.GetDB().WithContext(ctx).Model(&model.Photo{}).
		Where("gallery_id = ?", galleryID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count photos: %w", err)
	}

	return count, nil
}

func (s *GalleryService) publishGalleryCreated(g *model.Gallery) {
	if s.mqc == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicGalleryCreated, queue.GalleryCreatedPayload{
		Gallery: queue.GalleryRef{GalleryID: g.ID, PhotographerID: g.PhotographerID, Slug: g.Slug},
		Title:   g.Title,
		Public:  g.IsPublic,
	}, queue.WithProducer("photovault"))
	if err != nil {
		return
	}

	_ = s.mqc.Publish(context.Background(), queue.TopicGalleryCreated, msg)
}

func (s *GalleryService) publishGalleryDeleted(g *model.Gallery, photos int) {
	if s.mqc == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicGalleryDeleted, queue.GalleryDeletedPayload{
		Gallery:     queue.GalleryRef{GalleryID: g.ID, PhotographerID: g.PhotographerID, Slug: g.Slug},
		PhotosCount: photos,
	}, queue.WithProducer("photovault"))
	if err != nil {
		return
	}

	_ = s.mqc.Publish(context.Background(), queue.TopicGalleryDeleted, msg)
}

func galleryToInfo(g *model.Gallery, photoCount int64) types.GalleryInfo {
	return types.GalleryInfo{
		ID:             g.ID,
		PhotographerID: g.PhotographerID,
		Slug:           g.Slug,
		Title:          g.Title,
		Description:    g.Description,
		IsPublic:       g.IsPublic,
		EventDate:      g.EventDate,
		PhotoCount:     photoCount,
		CreatedAt:      g.CreatedAt,
	}
}
