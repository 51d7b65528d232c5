package service

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"golang.org/x/sync/errgroup"

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

// ObjectOpener 打开单个对象的可读流，归档流程据此与具体存储解耦.
type ObjectOpener func(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error)

// ArchiveResult 归档完成后的汇总.
type ArchiveResult struct {
	Entries      int
	Skipped      int
	BytesWritten int64
}

// ArchiveService 负责把相册照片打包为 zip 流式输出.
// 全程不落盘、不整载入内存：生产者按固定窗口预取对象流，
// 消费者顺序写入 zip，内存占用与照片数量无关.
type ArchiveService struct {
	dbc    *db.Client
	s3c    *s3.Client
	mqc    *mq.Client
	access *AccessService
	opener ObjectOpener
}

// NewArchiveService 创建并返回一个新的 ArchiveService 实例.
func NewArchiveService(c context.Context) *ArchiveService {
	svc := &ArchiveService{
		dbc:    ctxPkg.GetDBClient(c),
		s3c:    ctxPkg.GetS3Client(c),
		mqc:    ctxPkg.GetMQClient(c),
		access: NewAccessService(c),
	}

	if svc.s3c != nil {
		s3c := svc.s3c
		svc.opener = func(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error) {
			return s3c.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
		}
	} else {
		nlog.Logger().Warn().Msg("S3 client not initialized, ArchiveService features limited")
	}

	return svc
}

// WithOpener 替换对象打开函数（测试或替代存储后端使用）.
func (s *ArchiveService) WithOpener(fn ObjectOpener) *ArchiveService {
	s.opener = fn
	return s
}

// ArchivePlan 预检通过后的归档计划：相册已授权、配额已消耗、照片清单已选定.
type ArchivePlan struct {
	gallery model.Gallery
	photos  []model.Photo
}

// Photos 计划内的照片数量.
func (p *ArchivePlan) Photos() int { return len(p.photos) }

// Prepare 归档前置检查：加载相册、授权、消耗分享配额并选定照片.
// 选中照片为空返回 ErrNotFound；此阶段不写任何输出，
// 调用方据此可以在流式写出开始前以 JSON 返回错误.
func (s *ArchiveService) Prepare(ctx context.Context, ownerID uint, credential string, req *types.ArchiveRequest) (*ArchivePlan, error) {
	if req == nil || len(req.PhotoIDs) == 0 {
		return nil, fmt.Errorf("photo_ids is required")
	}

	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	dbx := s.dbc.GetDB().WithContext(ctx)

	var g model.Gallery
	if err := dbx.First(&g, req.GalleryID).Error; err != nil {
		return nil, ErrNotFound
	}

	grant, err := s.access.Authorize(ctx, ownerID, credential, &g)
	if err != nil {
		return nil, err
	}

	// 整个归档计一次配额，与照片数量无关
	if grant.Source == GrantShare {
		if err := s.access.shares.ConsumeDownload(ctx, grant.Link.LinkID); err != nil {
			return nil, err
		}
	}

	photos, err := s.selectPhotos(ctx, &g, req.PhotoIDs)
	if err != nil {
		return nil, err
	}

	if len(photos) == 0 {
		return nil, ErrNotFound
	}

	return &ArchivePlan{gallery: g, photos: photos}, nil
}

// Stream 将计划内的照片打包为 zip 写入 w.
// 单张照片读取失败仅跳过该条目并继续；ctx 取消则中止整个归档.
func (s *ArchiveService) Stream(ctx context.Context, plan *ArchivePlan, w io.Writer) (*ArchiveResult, error) {
	if plan == nil {
		return nil, fmt.Errorf("plan is required")
	}

	if s.opener == nil {
		return nil, errors.New("object opener not configured")
	}

	result, err := s.streamZip(ctx, plan.photos, w)
	if err != nil {
		s.publishArchiveFailed(&plan.gallery, err)
		return result, err
	}

	s.publishArchiveCompleted(&plan.gallery, result)

	return result, nil
}

// StreamArchive 预检加流式写出的一步式入口.
func (s *ArchiveService) StreamArchive(ctx context.Context, ownerID uint, credential string, req *types.ArchiveRequest, w io.Writer) (*ArchiveResult, error) {
	plan, err := s.Prepare(ctx, ownerID, credential, req)
	if err != nil {
		return nil, err
	}

	return s.Stream(ctx, plan, w)
}

// selectPhotos 按请求的照片 ID 选择待打包的照片，限定在已授权的相册内.
func (s *ArchiveService) selectPhotos(ctx context.Context, g *model.Gallery, ids []uint) ([]model.Photo, error) {
	dbx := s.dbc.GetDB().WithContext(ctx)

	var photos []model.Photo
	if err := dbx.Where("gallery_id = ? AND id IN ?", g.ID, ids).
		Order("created_at ASC, id ASC").Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("select photos: %w", err)
	}

	return photos, nil
}

// archiveEntry 生产者预取的单个条目：photo + 已打开的对象流（或打开失败的错误）.
type archiveEntry struct {
	photo  model.Photo
	reader io.ReadCloser
	err    error
}

// streamZip 生产者/消费者两段式：生产者并行预取对象流（窗口大小受配置限制，
// 形成对上游存储的背压），消费者单线程顺序写 zip.
func (s *ArchiveService) streamZip(parentCtx context.Context, photos []model.Photo, w io.Writer) (*ArchiveResult, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	result := &ArchiveResult{}

	entries := make(chan archiveEntry, archivePrefetch())

	grp, ctx := errgroup.WithContext(parentCtx)

	// 生产者：打开对象流并送入有界通道
	grp.Go(func() error {
		defer close(entries)

		for i := range photos {
			p := photos[i]

			rc, err := s.opener(ctx, p.Bucket, p.ObjectKey)

			select {
			case entries <- archiveEntry{photo: p, reader: rc, err: err}:
			case <-ctx.Done():
				if rc != nil {
					_ = rc.Close()
				}

				return ctx.Err()
			}
		}

		return nil
	})

	// 消费者：顺序写 zip，失败条目跳过
	grp.Go(func() error {
		seen := map[string]int{}

		for entry := range entries {
			if err := ctx.Err(); err != nil {
				if entry.reader != nil {
					_ = entry.reader.Close()
				}

				return err
			}

			if entry.err != nil {
				result.Skipped++

				nlog.Logger().Warn().Err(entry.err).
					Str("object", entry.photo.ObjectKey).
					Msg("skip archive entry, open failed")

				continue
			}

			if err := writeZipEntry(zw, &entry, seen); err != nil {
				// 条目级读取失败跳过；写侧失败（客户端断开等）终止归档
				var entryErr *entryReadError
				if errors.As(err, &entryErr) {
					result.Skipped++

					nlog.Logger().Warn().Err(entryErr.cause).
						Str("object", entry.photo.ObjectKey).
						Msg("skip archive entry, read failed")

					continue
				}

				return err
			}

			result.Entries++
		}

		return nil
	})

	err := grp.Wait()

	// 尽量收尾 central directory；客户端断开时这里也会失败，忽略
	if cerr := zw.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close zip: %w", cerr)
	}

	result.BytesWritten = cw.n

	if err != nil {
		// 排空通道中残留的已打开流
		for entry := range entries {
			if entry.reader != nil {
				_ = entry.reader.Close()
			}
		}

		return result, err
	}

	return result, nil
}

// entryReadError 区分"读对象失败（可跳过）"与"写输出失败（须终止）".
type entryReadError struct{ cause error }

func (e *entryReadError) Error() string { return e.cause.Error() }
func (e *entryReadError) Unwrap() error { return e.cause }

// writeZipEntry 写入单个 zip 条目；照片按原始文件名命名，同名自动加序号.
func writeZipEntry(zw *zip.Writer, entry *archiveEntry, seen map[string]int) error {
	defer func() { _ = entry.reader.Close() }()

	name := dedupEntryName(entry.photo.FileName, seen)

	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: entry.photo.CreatedAt,
	}

	fw, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", name, err)
	}

	if _, err := io.Copy(fw, entry.reader); err != nil {
		return &entryReadError{cause: err}
	}

	return nil
}

// dedupEntryName 防止 zip 内重名：第二次出现起追加 "(n)" 序号.
func dedupEntryName(name string, seen map[string]int) string {
	if name == "" {
		name = "photo"
	}

	n := seen[name]
	seen[name] = n + 1

	if n == 0 {
		return name
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	return fmt.Sprintf("%s(%d)%s", base, n, ext)
}

// archivePrefetch 生产者预取窗口大小.
func archivePrefetch() int {
	if n := configs.GetConfig().Share.ArchivePrefetch; n > 0 {
		return n
	}

	return 2
}

// countingWriter 统计写出的字节数.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)

	return n, err
}

func (s *ArchiveService) publishArchiveCompleted(g *model.Gallery, r *ArchiveResult) {
	if s.mqc == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicArchiveCompleted, queue.ArchiveCompletedPayload{
		Gallery:      queue.GalleryRef{GalleryID: g.ID, PhotographerID: g.PhotographerID, Slug: g.Slug},
		Entries:      r.Entries,
		Skipped:      r.Skipped,
		BytesWritten: r.BytesWritten,
	}, queue.WithProducer("photovault"))
	if err != nil {
		return
	}

	_ = s.mqc.Publish(context.Background(), queue.TopicArchiveCompleted, msg)
}

func (s *ArchiveService) publishArchiveFailed(g *model.Gallery, cause error) {
	if s.mqc == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicArchiveFailed, queue.ArchiveFailedPayload{
		Gallery: queue.GalleryRef{GalleryID: g.ID, PhotographerID: g.PhotographerID, Slug: g.Slug},
		Error:   cause.Error(),
	}, queue.WithProducer("photovault"))
	if err != nil {
		return
	}

	_ = s.mqc.Publish(context.Background(), queue.TopicArchiveFailed, msg)
}
