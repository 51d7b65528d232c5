package service_test

import (
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/internal/types"
)

// TestCompleteUploadValidatesObjectKey 验证对象键前缀归属与格式校验.
func TestCompleteUploadValidatesObjectKey(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewPhotoService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)

	key := fmt.Sprintf("%d/%d/abc123.jpg", owner.ID, g.ID)

	resp, err := svc.CompleteUpload(ctx, owner.ID, &types.CompleteUploadRequest{
		ObjectKey:   key,
		FileName:    "ceremony.jpg",
		ContentType: "image/jpeg",
		Size:        1024,
	})
	if err != nil {
		t.Fatalf("complete upload: %v", err)
	}

	if resp.Photo.GalleryID != g.ID || resp.Photo.FileName != "ceremony.jpg" {
		t.Fatalf("unexpected photo info: %+v", resp.Photo)
	}

	// 前缀不属于自己的对象键
	foreign := fmt.Sprintf("%d/%d/other.jpg", owner.ID+100, g.ID)
	if _, err := svc.CompleteUpload(ctx, owner.ID, &types.CompleteUploadRequest{
		ObjectKey: foreign,
		FileName:  "other.jpg",
	}); !errors.Is(err, service.ErrDenied) {
		t.Fatalf("expected ErrDenied for foreign key, got %v", err)
	}

	// 格式非法的对象键
	if _, err := svc.CompleteUpload(ctx, owner.ID, &types.CompleteUploadRequest{
		ObjectKey: "not-a-key",
		FileName:  "x.jpg",
	}); err == nil {
		t.Fatal("expected error for malformed object key")
	}
}

// TestListPhotosOrdered 验证照片列表按创建时间稳定排序.
func TestListPhotosOrdered(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewPhotoService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)

	db := testDB(t, ctx)
	base := time.Now().UTC().Add(-time.Hour)

	for i := range 3 {
		p := model.Photo{
			GalleryID: g.ID,
			ObjectKey: fmt.Sprintf("1/1/p%d.jpg", i),
			FileName:  fmt.Sprintf("p%d.jpg", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed photo: %v", err)
		}
	}

	resp, err := svc.List(ctx, owner.ID, g.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(resp.Photos) != 3 || resp.Total != 3 {
		t.Fatalf("expected 3 photos, got %d", len(resp.Photos))
	}

	for i, p := range resp.Photos {
		if want := fmt.Sprintf("p%d.jpg", i); p.FileName != want {
			t.Fatalf("photo %d out of order: got %q want %q", i, p.FileName, want)
		}
	}
}

// TestBulkDeleteRecordsFailures 验证批量删除逐项执行，失败项不影响其余.
func TestBulkDeleteRecordsFailures(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewPhotoService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	other := seedPhotographer(t, ctx, "bob@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)
	foreignGallery := seedGallery(t, ctx, other.ID, "street", false)

	mine := seedPhoto(t, ctx, g.ID, "1/1/mine.jpg", "mine.jpg")
	theirs := seedPhoto(t, ctx, foreignGallery.ID, "2/2/theirs.jpg", "theirs.jpg")

	resp, err := svc.BulkDelete(ctx, owner.ID, &types.BulkDeletePhotosRequest{
		PhotoIDs: []uint{mine.ID, theirs.ID, 9999},
	})
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}

	if len(resp.Deleted) != 1 || resp.Deleted[0] != mine.ID {
		t.Fatalf("expected only own photo deleted, got %v", resp.Deleted)
	}

	if len(resp.Failed) != 2 {
		t.Fatalf("expected 2 failures, got %v", resp.Failed)
	}

	if _, ok := resp.Failed[strconv.FormatUint(uint64(theirs.ID), 10)]; !ok {
		t.Fatalf("expected failure entry for foreign photo, got %v", resp.Failed)
	}

	// 他人照片未受影响
	var count int64
	if err := testDB(t, ctx).Model(&model.Photo{}).Where("id = ?", theirs.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	if count != 1 {
		t.Fatal("foreign photo should survive bulk delete")
	}
}

// TestPurgeDeletedPhotos 验证软删除照片超过宽限期后被物理清理.
func TestPurgeDeletedPhotos(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewPhotoService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)
	p := seedPhoto(t, ctx, g.ID, "1/1/old.jpg", "old.jpg")
	keep := seedPhoto(t, ctx, g.ID, "1/1/new.jpg", "new.jpg")

	db := testDB(t, ctx)

	if err := db.Delete(p).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	purged, err := svc.PurgeDeleted(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}

	if purged != 1 {
		t.Fatalf("expected 1 purged, got %d", purged)
	}

	var total int64
	if err := db.Unscoped().Model(&model.Photo{}).Count(&total).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	if total != 1 {
		t.Fatalf("expected only live photo to remain, got %d rows", total)
	}

	var survivor model.Photo
	if err := db.First(&survivor, keep.ID).Error; err != nil {
		t.Fatalf("live photo should remain: %v", err)
	}
}
