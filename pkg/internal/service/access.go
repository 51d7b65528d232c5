package service

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// 授权来源，写入下载审计与事件负载.
const (
	GrantOwner  = "owner"
	GrantShare  = "share"
	GrantPublic = "public"
)

// Grant 一次访问判定的结果.
type Grant struct {
	// Source 授权来源：owner/share/public
	Source string
	// Link 当来源为 share 时指向命中的分享链接
	Link *model.ShareLink
}

// URLSigner 为对象签发限时下载 URL，归档之外的下载路径据此与具体存储解耦.
type URLSigner func(ctx context.Context, bucket, objectKey string, expiry time.Duration) (string, error)

// AccessService 负责照片访问的授权判定与签名 URL 签发.
// 判定按固定顺序短路：所有者会话 -> 分享凭据 -> 公开相册.
type AccessService struct {
	dbc    *db.Client
	s3c    *s3.Client
	mqc    *mq.Client
	shares *ShareLinkService
	signer URLSigner
}

// NewAccessService 创建并返回一个新的 AccessService 实例.
func NewAccessService(c context.Context) *AccessService {
	svc := &AccessService{
		dbc:    ctxPkg.GetDBClient(c),
		s3c:    ctxPkg.GetS3Client(c),
		mqc:    ctxPkg.GetMQClient(c),
		shares: NewShareLinkService(c),
	}

	if svc.s3c != nil {
		s3c := svc.s3c
		svc.signer = func(ctx context.Context, bucket, objectKey string, expiry time.Duration) (string, error) {
			u, err := s3c.PresignedGetObject(ctx, bucket, objectKey, expiry, nil)
			if err != nil {
				return "", err
			}

			return u.String(), nil
		}
	}

	if svc.dbc == nil {
		nlog.Logger().Warn().Msg("DB client not initialized, AccessService features limited")
	}

	return svc
}

// WithSigner 替换 URL 签发函数（测试或替代存储后端使用）.
func (s *AccessService) WithSigner(fn URLSigner) *AccessService {
	s.signer = fn
	return s
}

// Authorize 判定调用者对相册的访问权限.
// ownerID 为 0 表示匿名访客；credential 为访客携带的分享凭据（别名或令牌）.
// 携带了分享凭据但凭据过期/无效时立即失败，不再回退到公开相册判定.
func (s *AccessService) Authorize(ctx context.Context, ownerID uint, credential string, g *model.Gallery) (*Grant, error) {
	if g == nil {
		return nil, fmt.Errorf("gallery is required")
	}

	// 1. 所有者会话
	if ownerID != 0 && g.PhotographerID == ownerID {
		return &Grant{Source: GrantOwner}, nil
	}

	// 2. 分享凭据：出错即短路，过期凭据不得降级为公开访问
	if credential != "" {
		link, err := s.shares.ResolveLink(ctx, credential)
		if err != nil {
			// 无效凭据在授权语境下统一视为拒绝，不暴露链接是否存在过
			if errors.Is(err, ErrNotFound) {
				return nil, ErrDenied
			}

			return nil, err
		}

		if link.GalleryID != g.ID {
			return nil, ErrDenied
		}

		return &Grant{Source: GrantShare, Link: link}, nil
	}

	// 3. 公开相册
	if g.IsPublic {
		return &Grant{Source: GrantPublic}, nil
	}

	return nil, ErrDenied
}

// DownloadURL 为单张照片签发签名下载 URL.
// 分享访问原子消耗一次下载配额，配额耗尽返回 ErrShareExhausted；
// 配额在签发成功之后才消耗，签发失败不浪费配额.
// 成功后记录下载审计并发布事件.
func (s *AccessService) DownloadURL(ctx context.Context, ownerID uint, credential string, photoID uint) (*types.SignedURLResponse, error) {
	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	if s.signer == nil {
		return nil, errors.New("url signer not configured")
	}

	dbx := s.dbc.GetDB().WithContext(ctx)

	// 主键直查，不做多余的关联加载
	var p model.Photo
	if err := dbx.First(&p, photoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	var g model.Gallery
	if err := dbx.First(&g, p.GalleryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	grant, err := s.Authorize(ctx, ownerID, credential, &g)
	if err != nil {
		return nil, err
	}

	expiry := downloadURLTTL()

	u, err := s.signer(ctx, p.Bucket, p.ObjectKey, expiry)
	if err != nil {
		return nil, fmt.Errorf("presign get for %s: %w", p.ObjectKey, err)
	}

	// 签发成功后再消耗配额；配额耗尽时 URL 不会返回给调用方
	if grant.Source == GrantShare {
		if err := s.shares.ConsumeDownload(ctx, grant.Link.LinkID); err != nil {
			return nil, err
		}
	}

	s.recordDownload(ctx, &p, grant)
	s.publishPhotoDownloaded(&p, &g, grant)

	return &types.SignedURLResponse{
		URL:       u,
		ExpiresIn: int(expiry.Seconds()),
		Grant:     grant.Source,
	}, nil
}

// recordDownload 追加下载审计记录，失败仅告警不影响主流程.
func (s *AccessService) recordDownload(ctx context.Context, p *model.Photo, grant *Grant) {
	ev := model.DownloadEvent{
		PhotoID:   p.ID,
		GalleryID: p.GalleryID,
		Grant:     grant.Source,
		CreatedAt: time.Now().UTC(),
	}
	if grant.Link != nil {
		ev.ShareID = grant.Link.LinkID
	}

	if err := s.dbc.GetDB().WithContext(ctx).Create(&ev).Error; err != nil {
		nlog.Logger().Warn().Err(err).Uint("photo_id", p.ID).Msg("record download event failed")
	}
}

func (s *AccessService) publishPhotoDownloaded(p *model.Photo, g *model.Gallery, grant *Grant) {
	if s.mqc == nil {
		return
	}

	payload := queue.PhotoDownloadedPayload{
		Photo: queue.PhotoRef{
			PhotoID:        p.ID,
			GalleryID:      p.GalleryID,
			PhotographerID: g.PhotographerID,
			Bucket:         p.Bucket,
			ObjectKey:      p.ObjectKey,
			ContentType:    p.ContentType,
			Size:           p.Size,
		},
		Grant: grant.Source,
	}
	if grant.Link != nil {
		payload.ShareID = grant.Link.LinkID
	}

	msg, err := queue.NewWatermillMessage(queue.TopicPhotoDownloaded, payload, queue.WithProducer("photovault"))
	if err != nil {
		return
	}

	_ = s.mqc.Publish(context.Background(), queue.TopicPhotoDownloaded, msg)
}
