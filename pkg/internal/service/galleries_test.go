package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/internal/types"
)

// TestCreateGallerySlugConflict 验证 slug 在同一摄影师下唯一，跨摄影师可复用.
func TestCreateGallerySlugConflict(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewGalleryService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	other := seedPhotographer(t, ctx, "bob@example.com")

	req := &types.CreateGalleryRequest{Slug: "wedding-2026", Title: "Wedding"}

	if _, err := svc.Create(ctx, owner.ID, req); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Create(ctx, owner.ID, req); !errors.Is(err, service.ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}

	// 另一名摄影师可以使用相同 slug
	if _, err := svc.Create(ctx, other.ID, req); err != nil {
		t.Fatalf("create for other owner: %v", err)
	}
}

// TestUpdateGalleryPartial 验证 nil 字段不变更.
func TestUpdateGalleryPartial(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewGalleryService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "portraits", false)

	title := "Portrait Sessions"
	public := true

	info, err := svc.Update(ctx, owner.ID, g.ID, &types.UpdateGalleryRequest{
		Title:    &title,
		IsPublic: &public,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if info.Title != title || !info.IsPublic {
		t.Fatalf("unexpected info after update: %+v", info)
	}

	if info.Slug != "portraits" {
		t.Fatalf("slug should be unchanged, got %q", info.Slug)
	}
}

// TestGalleryOwnership 验证非 owner 访问语义：存在但不属于自己返回 ErrDenied.
func TestGalleryOwnership(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewGalleryService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	other := seedPhotographer(t, ctx, "bob@example.com")
	g := seedGallery(t, ctx, owner.ID, "clients", false)

	if _, err := svc.Get(ctx, other.ID, g.ID); !errors.Is(err, service.ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}

	if _, err := svc.Get(ctx, owner.ID, 9999); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestDeleteGalleryCascades 验证删相册时照片与分享链接一并删除.
func TestDeleteGalleryCascades(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewGalleryService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	other := seedPhotographer(t, ctx, "bob@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)
	seedPhoto(t, ctx, g.ID, "1/1/a.jpg", "a.jpg")
	seedShareLink(t, ctx, g.ID, "tok-cascade", nil, nil, nil)

	if err := svc.Delete(ctx, other.ID, g.ID); !errors.Is(err, service.ErrDenied) {
		t.Fatalf("expected ErrDenied for non-owner delete, got %v", err)
	}

	if err := svc.Delete(ctx, owner.ID, g.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	db := testDB(t, ctx)

	var photoCount, linkCount int64

	if err := db.Model(&model.Photo{}).Where("gallery_id = ?", g.ID).Count(&photoCount).Error; err != nil {
		t.Fatalf("count photos: %v", err)
	}

	if err := db.Model(&model.ShareLink{}).Where("gallery_id = ?", g.ID).Count(&linkCount).Error; err != nil {
		t.Fatalf("count links: %v", err)
	}

	if photoCount != 0 || linkCount != 0 {
		t.Fatalf("expected cascade delete, photos=%d links=%d", photoCount, linkCount)
	}

	if _, err := svc.Get(ctx, owner.ID, g.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

// TestGallerySlugReusableAfterDelete 验证删除相册后 slug 可被同一摄影师重建.
func TestGallerySlugReusableAfterDelete(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewGalleryService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")

	first, err := svc.Create(ctx, owner.ID, &types.CreateGalleryRequest{Slug: "wedding", Title: "Wedding"})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	if err := svc.Delete(ctx, owner.ID, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	second, err := svc.Create(ctx, owner.ID, &types.CreateGalleryRequest{Slug: "wedding", Title: "Wedding II"})
	if err != nil {
		t.Fatalf("recreate with same slug: %v", err)
	}

	if second.ID == first.ID {
		t.Fatal("expected a new gallery record")
	}
}

// TestGalleryStats 验证下载统计按授权来源聚合.
func TestGalleryStats(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewGalleryService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", true)
	p := seedPhoto(t, ctx, g.ID, "1/1/a.jpg", "a.jpg")

	db := testDB(t, ctx)
	now := time.Now().UTC()

	for _, grant := range []string{"owner", "share", "share", "public"} {
		ev := model.DownloadEvent{
			PhotoID:   p.ID,
			GalleryID: g.ID,
			Grant:     grant,
			CreatedAt: now,
		}
		if err := db.Create(&ev).Error; err != nil {
			t.Fatalf("seed download event: %v", err)
		}
	}

	stats, err := svc.Stats(ctx, owner.ID, g.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.TotalDownloads != 4 {
		t.Fatalf("expected 4 downloads, got %d", stats.TotalDownloads)
	}

	byGrant := map[string]int64{}
	for _, item := range stats.ByGrant {
		byGrant[item.Grant] = item.Count
	}

	if byGrant["share"] != 2 || byGrant["owner"] != 1 || byGrant["public"] != 1 {
		t.Fatalf("unexpected grant breakdown: %v", byGrant)
	}

	if len(stats.TopPhotos) != 1 || stats.TopPhotos[0].Count != 4 {
		t.Fatalf("unexpected top photos: %+v", stats.TopPhotos)
	}
}
