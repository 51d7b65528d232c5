package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	ctxPkg "github.com/yeisme/photovault/pkg/context"
	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/storage"
	dbc "github.com/yeisme/photovault/pkg/internal/storage/db"
	kvc "github.com/yeisme/photovault/pkg/internal/storage/kv"
)

// newTestCtx 构造带内存 SQLite 的测试上下文，表结构自动迁移.
func newTestCtx(t *testing.T) context.Context {
	t.Helper()

	return ctxPkg.WithStorageManager(context.Background(), &storage.Manager{
		DB: newTestDB(t),
	})
}

// newTestCtxWithKV 在 newTestCtx 基础上附带内存 KV 存储.
func newTestCtxWithKV(t *testing.T) context.Context {
	t.Helper()

	store, err := kvc.NewKVStore(context.Background(), kvc.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	return ctxPkg.WithStorageManager(context.Background(), &storage.Manager{
		DB: newTestDB(t),
		KV: &kvc.Client{KVStore: store},
	})
}

func newTestDB(t *testing.T) *dbc.Client {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// 内存库按连接隔离，限制为单连接避免各连接各见一套表
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(1)

	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })

	return &dbc.Client{DB: gdb}
}

func testDB(t *testing.T, ctx context.Context) *gorm.DB {
	t.Helper()

	c := ctxPkg.GetDBClient(ctx)
	if c == nil {
		t.Fatal("no db client in context")
	}

	return c.GetDB()
}

func seedPhotographer(t *testing.T, ctx context.Context, externalID string) *model.Photographer {
	t.Helper()

	p := model.Photographer{
		ExternalID:  externalID,
		Username:    externalID,
		DisplayName: externalID,
	}
	if err := testDB(t, ctx).Create(&p).Error; err != nil {
		t.Fatalf("seed photographer: %v", err)
	}

	return &p
}

func seedGallery(t *testing.T, ctx context.Context, ownerID uint, slug string, public bool) *model.Gallery {
	t.Helper()

	g := model.Gallery{
		PhotographerID: ownerID,
		Slug:           slug,
		Title:          slug,
		IsPublic:       public,
	}
	if err := testDB(t, ctx).Create(&g).Error; err != nil {
		t.Fatalf("seed gallery: %v", err)
	}

	return &g
}

func seedPhoto(t *testing.T, ctx context.Context, galleryID uint, objectKey, fileName string) *model.Photo {
	t.Helper()

	p := model.Photo{
		GalleryID:   galleryID,
		ObjectKey:   objectKey,
		Bucket:      "photovault",
		FileName:    fileName,
		ContentType: "image/jpeg",
		Size:        int64(len(objectKey)),
	}
	if err := testDB(t, ctx).Create(&p).Error; err != nil {
		t.Fatalf("seed photo: %v", err)
	}

	return &p
}

func seedShareLink(t *testing.T, ctx context.Context, galleryID uint, token string, alias *string, expiresAt *time.Time, limit *int) *model.ShareLink {
	t.Helper()

	link := model.ShareLink{
		LinkID:        "sl_test_" + token,
		GalleryID:     galleryID,
		Token:         token,
		Alias:         alias,
		ExpiresAt:     expiresAt,
		DownloadLimit: limit,
	}
	if err := testDB(t, ctx).Create(&link).Error; err != nil {
		t.Fatalf("seed share link: %v", err)
	}

	return &link
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }
