package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ctxPkg "github.com/yeisme/photovault/pkg/context"
	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/storage/db"
	"github.com/yeisme/photovault/pkg/internal/types"
)

// StatsService 提供摄影师维度的统计计算（基于 DB 聚合）.
type StatsService struct {
	dbc *db.Client
}

// NewStatsService 创建并返回一个新的 StatsService 实例.
func NewStatsService(c context.Context) *StatsService {
	return &StatsService{dbc: ctxPkg.GetDBClient(c)}
}

// Summary 汇总摄影师的相册/照片/分享/下载总量，并附按相册的细分.
func (s *StatsService) Summary(ctx context.Context, ownerID uint) (*types.StatsSummaryResponse, error) {
	if ownerID == 0 {
		return nil, fmt.Errorf("ownerID is required")
	}

	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	dbx := s.dbc.GetDB().WithContext(ctx)
	resp := &types.StatsSummaryResponse{}

	if err := dbx.Model(&model.Gallery{}).
		Where("photographer_id = ?", ownerID).
		Count(&resp.Summary.TotalGalleries).Error; err != nil {
		return nil, fmt.Errorf("count galleries: %w", err)
	}

	// 照片总数与总大小一次聚合
	var photoAgg struct {
		Cnt int64 `gorm:"column:cnt"`
		Sum int64 `gorm:"column:sum"`
	}

	if err := dbx.Model(&model.Photo{}).
		Select("COUNT(*) AS cnt, COALESCE(SUM(size),0) AS sum").
		Joins("JOIN galleries ON galleries.id = photos.gallery_id").
		Where("galleries.photographer_id = ?", ownerID).
		Scan(&photoAgg).Error; err != nil {
		return nil, fmt.Errorf("aggregate photos: %w", err)
	}

	resp.Summary.TotalPhotos = photoAgg.Cnt
	resp.Summary.TotalSize = photoAgg.Sum

	if err := dbx.Model(&model.ShareLink{}).
		Joins("JOIN galleries ON galleries.id = share_links.gallery_id").
		Where("galleries.photographer_id = ?", ownerID).
		Count(&resp.Summary.TotalShares).Error; err != nil {
		return nil, fmt.Errorf("count shares: %w", err)
	}

	now := time.Now().UTC()

	if err := dbx.Model(&model.ShareLink{}).
		Joins("JOIN galleries ON galleries.id = share_links.gallery_id").
		Where("galleries.photographer_id = ?", ownerID).
		Where("share_links.expires_at IS NULL OR share_links.expires_at > ?", now).
		Where("share_links.download_limit IS NULL OR share_links.download_count < share_links.download_limit").
		Count(&resp.Summary.ActiveShares).Error; err != nil {
		return nil, fmt.Errorf("count active shares: %w", err)
	}

	if err := dbx.Model(&model.DownloadEvent{}).
		Joins("JOIN galleries ON galleries.id = download_events.gallery_id").
		Where("galleries.photographer_id = ?", ownerID).
		Count(&resp.Summary.TotalDownloads).Error; err != nil {
		return nil, fmt.Errorf("count downloads: %w", err)
	}

	items, err := s.perGallery(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	resp.Galleries = items

	return resp, nil
}

// perGallery 按相册聚合照片数、大小与下载次数.
func (s *StatsService) perGallery(ctx context.Context, ownerID uint) ([]types.StatsGalleryItem, error) {
	dbx := s.dbc.GetDB().WithContext(ctx)

	var galleries []model.Gallery
	if err := dbx.Where("photographer_id = ?", ownerID).
		Order("created_at DESC").Find(&galleries).Error; err != nil {
		return nil, fmt.Errorf("list galleries: %w", err)
	}

	items := make([]types.StatsGalleryItem, 0, len(galleries))

	for i := range galleries {
		g := &galleries[i]
		item := types.StatsGalleryItem{GalleryID: g.ID, Slug: g.Slug, Title: g.Title}

		var agg struct {
			Cnt int64 `gorm:"column:cnt"`
			Sum int64 `gorm:"column:sum"`
		}

		if err := dbx.Model(&model.Photo{}).
			Select("COUNT(*) AS cnt, COALESCE(SUM(size),0) AS sum").
			Where("gallery_id = ?", g.ID).
			Scan(&agg).Error; err != nil {
			return nil, fmt.Errorf("aggregate photos for gallery %d: %w", g.ID, err)
		}

		item.Photos = agg.Cnt
		item.Size = agg.Sum

		if err := dbx.Model(&model.DownloadEvent{}).
			Where("gallery_id = ?", g.ID).
			Count(&item.Downloads).Error; err != nil {
			return nil, fmt.Errorf("count downloads for gallery %d: %w", g.ID, err)
		}

		items = append(items, item)
	}

	return items, nil
}
