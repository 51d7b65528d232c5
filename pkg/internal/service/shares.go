package service

import (
	"context"
	crand "crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oklog/ulid"
	"gorm.io/gorm"

	appcache "github.com/yeisme/photovault/pkg/cache"
	"github.com/yeisme/photovault/pkg/configs"
	ctxPkg "github.com/yeisme/photovault/pkg/context"
	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/storage/db"
	"github.com/yeisme/photovault/pkg/internal/storage/kv"
	"github.com/yeisme/photovault/pkg/internal/storage/mq"
	"github.com/yeisme/photovault/pkg/internal/types"
	nlog "github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/queue"
)

// 全局单例的 ULID 熵源，使用单调递增策略，确保同一毫秒内生成的 ULID 具有排序稳定性。
var ulidEntropy = ulid.Monotonic(crand.Reader, 0)

// ShareLinkService 负责分享链接的生命周期（DB 为真源 + KV 轻缓存）.
type ShareLinkService struct {
	dbc *db.Client
	kvc *kv.Client
	mqc *mq.Client
}

// NewShareLinkService 创建并返回一个新的 ShareLinkService 实例.
func NewShareLinkService(c context.Context) *ShareLinkService {
	svc := &ShareLinkService{
		dbc: ctxPkg.GetDBClient(c),
		kvc: ctxPkg.GetKVClient(c),
		mqc: ctxPkg.GetMQClient(c),
	}

	if svc.dbc == nil {
		nlog.Logger().Warn().Msg("DB client not initialized, ShareLinkService features limited")
	}

	return svc
}

// Create 为相册创建分享链接.
// Token 无条件生成；Alias 可选，跨所有链接全局唯一，冲突返回 ErrAliasTaken.
func (s *ShareLinkService) Create(ctx context.Context, ownerID uint, req *types.CreateShareLinkRequest) (*types.CreateShareLinkResponse, error) {
	if ownerID == 0 || req == nil {
		return nil, fmt.Errorf("ownerID/req is required")
	}

	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	g, err := s.loadOwnedGallery(ctx, ownerID, req.GalleryID)
	if err != nil {
		return nil, err
	}

	dbx := s.dbc.GetDB().WithContext(ctx)

	var alias *string

	if req.Alias != "" {
		// 全局唯一性检查，唯一索引兜底并发重复插入
		var count int64
		if err := dbx.Model(&model.ShareLink{}).
			Where("alias = ?", req.Alias).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check alias: %w", err)
		}

		if count > 0 {
			return nil, ErrAliasTaken
		}

		a := req.Alias
		alias = &a
	}

	now := time.Now().UTC()

	var expire *time.Time

	if req.ExpireDays > 0 {
		e := now.Add(time.Duration(req.ExpireDays) * 24 * time.Hour)
		expire = &e
	}

	var limit *int

	if req.DownloadLimit > 0 {
		n := req.DownloadLimit
		limit = &n
	}

	token, err := newShareToken()
	if err != nil {
		return nil, err
	}

	link := model.ShareLink{
		LinkID:        newShareLinkID(now),
		GalleryID:     g.ID,
		Token:         token,
		Alias:         alias,
		ExpiresAt:     expire,
		DownloadLimit: limit,
	}

	if err := dbx.Create(&link).Error; err != nil {
		return nil, fmt.Errorf("create share link: %w", err)
	}

	// 轻缓存（可选）：按两种凭据各缓存一份
	_ = s.cacheLink(ctx, &link, ttlFromExpire(link.ExpiresAt))

	s.publishShareCreated(&link, g)

	return &types.CreateShareLinkResponse{Share: linkToInfo(&link)}, nil
}

// List 列出摄影师名下全部相册的分享链接.
func (s *ShareLinkService) List(ctx context.Context, ownerID uint) (*types.ListShareLinksResponse, error) {
	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	dbx := s.dbc.GetDB().WithContext(ctx)

	var links []model.ShareLink
	if err := dbx.
		Joins("JOIN galleries ON galleries.id = share_links.gallery_id").
		Where("galleries.photographer_id = ?", ownerID).
		Order("share_links.created_at DESC").
		Find(&links).Error; err != nil {
		return nil, fmt.Errorf("list share links: %w", err)
	}

	infos := make([]types.ShareLinkInfo, 0, len(links))
	for i := range links {
		infos = append(infos, linkToInfo(&links[i]))
	}

	return &types.ListShareLinksResponse{Shares: infos}, nil
}

// Delete 删除分享链接（仅相册 owner 可操作）.
// 删除是物理删除，别名与令牌随即可被新链接复用.
func (s *ShareLinkService) Delete(ctx context.Context, ownerID uint, linkID string) error {
	if ownerID == 0 || linkID == "" {
		return fmt.Errorf("ownerID/linkID is required")
	}

	if s.dbc == nil || s.dbc.GetDB() == nil {
		return errors.New("db not initialized")
	}

	dbx := s.dbc.GetDB().WithContext(ctx)

	var link model.ShareLink
	if err := dbx.Where("link_id = ?", linkID).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}

		return err
	}

	g, err := s.loadOwnedGallery(ctx, ownerID, link.GalleryID)
	if err != nil {
		return err
	}

	if err := dbx.Delete(&link).Error; err != nil {
		return err
	}

	// 删缓存：两种凭据各一份
	s.evictLink(ctx, &link)

	s.publishShareDeleted(&link, g)

	return nil
}

// ResolveLink 按访客凭据解析分享链接：先按别名、未命中再按令牌.
// 过期链接返回 ErrShareExpired（惰性判定，不做后台清扫）.
func (s *ShareLinkService) ResolveLink(ctx context.Context, credential string) (*model.ShareLink, error) {
	if credential == "" {
		return nil, fmt.Errorf("credential is required")
	}

	now := time.Now().UTC()

	// 优先缓存
	if s.kvc != nil {
		var link model.ShareLink
		if ok, err := s.kvGet(ctx, makeLinkKey(credential), &link); err == nil && ok {
			if link.Expired(now) {
				s.evictLink(ctx, &link)
				return nil, ErrShareExpired
			}

			return &link, nil
		}
	}

	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	dbx := s.dbc.GetDB().WithContext(ctx)

	// 别名优先，再按令牌
	var link model.ShareLink
	if err := dbx.Where("alias = ?", credential).First(&link).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		if err := dbx.Where("token = ?", credential).First(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}

			return nil, err
		}
	}

	if link.Expired(now) {
		return nil, ErrShareExpired
	}

	// 回填缓存
	_ = s.cacheLink(ctx, &link, ttlFromExpire(link.ExpiresAt))

	return &link, nil
}

// Resolve 访客视角解析分享链接：返回相册信息与照片清单.
func (s *ShareLinkService) Resolve(ctx context.Context, credential string) (*types.ResolveShareResponse, error) {
	link, err := s.ResolveLink(ctx, credential)
	if err != nil {
		return nil, err
	}

	dbx := s.dbc.GetDB().WithContext(ctx)

	var g model.Gallery
	if err := dbx.First(&g, link.GalleryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	var photos []model.Photo
	if err := dbx.Where("gallery_id = ?", g.ID).
		Order("created_at ASC, id ASC").Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	infos := make([]types.PhotoInfo, 0, len(photos))
	for i := range photos {
		infos = append(infos, photoToInfo(&photos[i]))
	}

	resp := &types.ResolveShareResponse{
		Gallery:   galleryToInfo(&g, int64(len(photos))),
		Photos:    infos,
		ExpiresAt: link.ExpiresAt,
	}

	if link.DownloadLimit != nil {
		remaining := max(*link.DownloadLimit-link.DownloadCount, 0)
		resp.RemainingDownloads = &remaining
	}

	s.publishShareResolved(link, &g, credential)

	return resp, nil
}

// ConsumeDownload 原子消耗一次下载配额：递增与上限校验在同一条 UPDATE 中完成，
// 并发请求不会超发；配额耗尽返回 ErrShareExhausted.
func (s *ShareLinkService) ConsumeDownload(ctx context.Context, linkID string) error {
	if s.dbc == nil || s.dbc.GetDB() == nil {
		return errors.New("db not initialized")
	}

	res := s.dbc.GetDB().WithContext(ctx).Model(&model.ShareLink{}).
		Where("link_id = ? AND (download_limit IS NULL OR download_count < download_limit)", linkID).
		UpdateColumn("download_count", gorm.Expr("download_count + 1"))
	if res.Error != nil {
		return fmt.Errorf("consume download: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrShareExhausted
	}

	return nil
}

// SweepExpired 清理过期超过保留期的分享链接并驱逐缓存.
// 解析路径对过期链接已经快速失败，这里只是定期回收数据库与缓存中的残留.
func (s *ShareLinkService) SweepExpired(ctx context.Context, before time.Time) (int, error) {
	if s.dbc == nil || s.dbc.GetDB() == nil {
		return 0, errors.New("db not initialized")
	}

	dbx := s.dbc.GetDB().WithContext(ctx)

	var links []model.ShareLink
	if err := dbx.Where("expires_at IS NOT NULL AND expires_at < ?", before).Find(&links).Error; err != nil {
		return 0, fmt.Errorf("list expired share links: %w", err)
	}

	if len(links) == 0 {
		return 0, nil
	}

	for i := range links {
		s.evictLink(ctx, &links[i])
	}

	if err := dbx.Where("expires_at IS NOT NULL AND expires_at < ?", before).
		Delete(&model.ShareLink{}).Error; err != nil {
		return 0, fmt.Errorf("delete expired share links: %w", err)
	}

	return len(links), nil
}

// loadOwnedGallery 校验相册归属.
func (s *ShareLinkService) loadOwnedGallery(ctx context.Context, ownerID, galleryID uint) (*model.Gallery, error) {
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

// ---- 内部工具 ----

const (
	linkKeyPrefix = "sharelinks:v1:"

	// 匿名解析接口的路由前缀，与 router 注册保持一致，
	// 用于推导该接口的响应缓存键
	shareResolveRoute = "/api/v1/s/"
)

// 缓存 TTL 策略常量：集中管理，避免魔数（mnd）。
const (
	linkCacheDefaultTTL = 10 * time.Minute // 未设置过期时间时的默认缓存时长
	linkCacheMaxTTL     = 30 * time.Minute // 单条链接缓存的最长缓存时间上限
)

// 令牌随机字节数兜底值，base64url 编码后约 12 字符.
const defaultTokenBytes = 9

// newShareLinkID 生成带前缀的 ULID 字符串，形如 "sl_01H..."。
// 使用单例熵源以支持同一毫秒内的单调递增。
func newShareLinkID(t time.Time) string {
	// 注意：ULID 使用毫秒时间戳，因此应传入 time.Now().UTC() 或同等时间。
	id := ulid.MustNew(ulid.Timestamp(t), ulidEntropy)
	return "sl_" + id.String()
}

// newShareToken 生成 URL 安全的随机访问令牌.
func newShareToken() (string, error) {
	n := configs.GetConfig().Share.TokenBytes
	if n <= 0 {
		n = defaultTokenBytes
	}

	buf := make([]byte, n)
	if _, err := crand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func makeLinkKey(credential string) string { return linkKeyPrefix + credential }

// ttlFromExpire 根据过期时间计算缓存 TTL：
//   - 未设置过期：返回默认 TTL；
//   - 已设置过期：返回 [0, linkCacheMaxTTL] 范围内的值，避免长时间缓存导致删除不生效。
func ttlFromExpire(exp *time.Time) time.Duration {
	if exp == nil {
		return linkCacheDefaultTTL
	}

	d := time.Until(*exp)
	if d <= 0 {
		return 0
	}

	if d > linkCacheMaxTTL {
		return linkCacheMaxTTL
	}

	return d
}

// kvGet 通过 key 获取并反序列化值到 v，返回是否命中。
func (s *ShareLinkService) kvGet(ctx context.Context, key string, v any) (bool, error) {
	if s.kvc == nil {
		return false, errors.New("kv client is nil")
	}

	b, err := s.kvc.Get(ctx, key)
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}

	return true, nil
}

// kvSet 序列化 v 并通过 key 存储，ttl 可选（0 表示不过期）。
func (s *ShareLinkService) kvSet(ctx context.Context, key string, v any, ttl time.Duration) error {
	if s.kvc == nil {
		return errors.New("kv client is nil")
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	return s.kvc.Set(ctx, key, b, ttl)
}

// cacheLink 将链接按其全部凭据（token 与可选 alias）写入缓存.
func (s *ShareLinkService) cacheLink(ctx context.Context, link *model.ShareLink, ttl time.Duration) error {
	if s.kvc == nil || link == nil {
		return nil
	}

	if err := s.kvSet(ctx, makeLinkKey(link.Token), link, ttl); err != nil {
		return err
	}

	if link.Alias != nil {
		return s.kvSet(ctx, makeLinkKey(*link.Alias), link, ttl)
	}

	return nil
}

// evictLink 删除链接的全部缓存条目：链接本体缓存与匿名解析接口的响应缓存.
// 响应缓存不失效会让已删除/已过期的凭据在 TTL 内继续返回旧的 200.
func (s *ShareLinkService) evictLink(ctx context.Context, link *model.ShareLink) {
	if s.kvc == nil || link == nil {
		return
	}

	creds := []string{link.Token}
	if link.Alias != nil {
		creds = append(creds, *link.Alias)
	}

	for _, cred := range creds {
		_ = s.kvc.Delete(ctx, makeLinkKey(cred))

		for _, method := range []string{http.MethodGet, http.MethodHead} {
			_ = s.kvc.Delete(ctx, appcache.PathKey(method, shareResolveRoute+cred))
		}
	}
}

func (s *ShareLinkService) publishShareCreated(link *model.ShareLink, g *model.Gallery) {
	if s.mqc == nil {
		return
	}

	payload := queue.ShareCreatedPayload{
		ShareID:       link.LinkID,
		Gallery:       queue.GalleryRef{GalleryID: g.ID, PhotographerID: g.PhotographerID, Slug: g.Slug},
		ExpiresAt:     link.ExpiresAt,
		DownloadLimit: link.DownloadLimit,
	}
	if link.Alias != nil {
		payload.Alias = *link.Alias
	}

	msg, err := queue.NewWatermillMessage(queue.TopicShareCreated, payload, queue.WithProducer("photovault"))
	if err != nil {
		return
	}

	_ = s.mqc.Publish(context.Background(), queue.TopicShareCreated, msg)
}

func (s *ShareLinkService) publishShareDeleted(link *model.ShareLink, g *model.Gallery) {
	if s.mqc == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicShareDeleted, queue.ShareDeletedPayload{
		ShareID: link.LinkID,
		Gallery: queue.GalleryRef{GalleryID: g.ID, PhotographerID: g.PhotographerID, Slug: g.Slug},
	}, queue.WithProducer("photovault"))
	if err != nil {
		return
	}

	_ = s.mqc.Publish(context.Background(), queue.TopicShareDeleted, msg)
}

func (s *ShareLinkService) publishShareResolved(link *model.ShareLink, g *model.Gallery, credential string) {
	if s.mqc == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicShareResolved, queue.ShareResolvedPayload{
		ShareID: link.LinkID,
		Gallery: queue.GalleryRef{GalleryID: g.ID, PhotographerID: g.PhotographerID, Slug: g.Slug},
		ByAlias: link.Alias != nil && *link.Alias == credential,
	}, queue.WithProducer("photovault"))
	if err != nil {
		return
	}

	_ = s.mqc.Publish(context.Background(), queue.TopicShareResolved, msg)
}

func linkToInfo(link *model.ShareLink) types.ShareLinkInfo {
	info := types.ShareLinkInfo{
		LinkID:        link.LinkID,
		GalleryID:     link.GalleryID,
		Token:         link.Token,
		ExpiresAt:     link.ExpiresAt,
		DownloadLimit: link.DownloadLimit,
		DownloadCount: link.DownloadCount,
		CreatedAt:     link.CreatedAt,
	}
	if link.Alias != nil {
		info.Alias = *link.Alias
	}

	return info
}
