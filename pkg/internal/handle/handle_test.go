package handle_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/router"
	"github.com/yeisme/photovault/pkg/internal/storage"
	dbc "github.com/yeisme/photovault/pkg/internal/storage/db"
	"github.com/yeisme/photovault/pkg/internal/types"
	"github.com/yeisme/photovault/pkg/middleware"
	"github.com/yeisme/photovault/pkg/rule"
)

var registerRulesOnce sync.Once

// newTestEngine 组装带存储中间件与全部路由的测试引擎.
func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var ruleErr error

	registerRulesOnce.Do(func() { ruleErr = rule.RegisterPhotoVaultRules() })
	if ruleErr != nil {
		t.Fatalf("register rules: %v", ruleErr)
	}

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	// 内存库按连接隔离，限制为单连接避免各连接各见一套表
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	engine := gin.New()
	engine.Use(middleware.StorageMiddleware(&storage.Manager{DB: &dbc.Client{DB: gdb}}))
	router.Register(engine.Group("/api/v1"))

	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}

	return out
}

func TestGalleryShareFlow(t *testing.T) {
	engine := newTestEngine(t)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/galleries", types.CreateGalleryRequest{
		Slug:  "wedding-2026",
		Title: "Wedding 2026",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create gallery status = %d body = %s", w.Code, w.Body.String())
	}

	gallery := decodeBody[types.GalleryInfo](t, w)
	if gallery.ID == 0 || gallery.Slug != "wedding-2026" {
		t.Fatalf("unexpected gallery: %+v", gallery)
	}

	w = doJSON(t, engine, http.MethodPost, "/api/v1/shares", types.CreateShareLinkRequest{
		GalleryID: gallery.ID,
		Alias:     "smith-wedding",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create share status = %d body = %s", w.Code, w.Body.String())
	}

	share := decodeBody[types.CreateShareLinkResponse](t, w)
	if share.Share.Token == "" || share.Share.Alias != "smith-wedding" {
		t.Fatalf("unexpected share: %+v", share.Share)
	}

	w = doJSON(t, engine, http.MethodGet, "/api/v1/s/smith-wedding", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("resolve share status = %d body = %s", w.Code, w.Body.String())
	}

	resolved := decodeBody[types.ResolveShareResponse](t, w)
	if resolved.Gallery.ID != gallery.ID {
		t.Fatalf("resolved gallery = %d want %d", resolved.Gallery.ID, gallery.ID)
	}
}

func TestCreateGalleryInvalidSlug(t *testing.T) {
	engine := newTestEngine(t)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/galleries", types.CreateGalleryRequest{
		Slug:  "Not A Slug",
		Title: "bad",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d want 400", w.Code)
	}
}

func TestShareAliasConflictMapsTo409(t *testing.T) {
	engine := newTestEngine(t)

	g := decodeBody[types.GalleryInfo](t, doJSON(t, engine, http.MethodPost, "/api/v1/galleries", types.CreateGalleryRequest{
		Slug:  "portraits",
		Title: "Portraits",
	}))

	req := types.CreateShareLinkRequest{GalleryID: g.ID, Alias: "client-set"}

	if w := doJSON(t, engine, http.MethodPost, "/api/v1/shares", req); w.Code != http.StatusOK {
		t.Fatalf("first create status = %d body = %s", w.Code, w.Body.String())
	}

	w := doJSON(t, engine, http.MethodPost, "/api/v1/shares", req)
	if w.Code != http.StatusConflict {
		t.Fatalf("second create status = %d want 409, body = %s", w.Code, w.Body.String())
	}
}

func TestResolveUnknownCredential404(t *testing.T) {
	engine := newTestEngine(t)

	w := doJSON(t, engine, http.MethodGet, "/api/v1/s/no-such-link", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d want 404, body = %s", w.Code, w.Body.String())
	}
}

func TestPublicGalleryPage(t *testing.T) {
	engine := newTestEngine(t)

	if w := doJSON(t, engine, http.MethodPost, "/api/v1/galleries", types.CreateGalleryRequest{
		Slug:     "street",
		Title:    "Street",
		IsPublic: true,
	}); w.Code != http.StatusOK {
		t.Fatalf("create gallery status = %d body = %s", w.Code, w.Body.String())
	}

	if w := doJSON(t, engine, http.MethodPost, "/api/v1/galleries", types.CreateGalleryRequest{
		Slug:  "private-set",
		Title: "Private",
	}); w.Code != http.StatusOK {
		t.Fatalf("create gallery status = %d body = %s", w.Code, w.Body.String())
	}

	// 测试身份 test-user@example.com 归一化后的用户名
	const username = "test-user-example-com"

	w := doJSON(t, engine, http.MethodGet, "/api/v1/p/"+username+"/street", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("public gallery status = %d body = %s", w.Code, w.Body.String())
	}

	page := decodeBody[types.PublicGalleryResponse](t, w)
	if page.Photographer != username || page.Gallery.Slug != "street" {
		t.Fatalf("unexpected page: %+v", page)
	}

	// 私有相册不暴露存在性
	if w := doJSON(t, engine, http.MethodGet, "/api/v1/p/"+username+"/private-set", nil); w.Code != http.StatusNotFound {
		t.Fatalf("private gallery status = %d want 404", w.Code)
	}
}

func TestArchiveRejectsBeforeStreaming(t *testing.T) {
	engine := newTestEngine(t)

	g := decodeBody[types.GalleryInfo](t, doJSON(t, engine, http.MethodPost, "/api/v1/galleries", types.CreateGalleryRequest{
		Slug:  "wedding",
		Title: "Wedding",
	}))

	// 空选择在绑定阶段拒绝
	w := doJSON(t, engine, http.MethodPost, "/api/v1/photos/archive", types.ArchiveRequest{
		GalleryID: g.ID,
		PhotoIDs:  []uint{},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty selection status = %d want 400, body = %s", w.Code, w.Body.String())
	}

	// 无一命中的选择在写出前以 JSON 报 404，而不是 200 空 zip
	w = doJSON(t, engine, http.MethodPost, "/api/v1/photos/archive", types.ArchiveRequest{
		GalleryID: g.ID,
		PhotoIDs:  []uint{99999},
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("no matching photos status = %d want 404, body = %s", w.Code, w.Body.String())
	}

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("error response content type = %q want application/json", ct)
	}
}

func TestDeleteShareLinkForeignOwner403(t *testing.T) {
	engine := newTestEngine(t)

	g := decodeBody[types.GalleryInfo](t, doJSON(t, engine, http.MethodPost, "/api/v1/galleries", types.CreateGalleryRequest{
		Slug:  "travel",
		Title: "Travel",
	}))
	share := decodeBody[types.CreateShareLinkResponse](t, doJSON(t, engine, http.MethodPost, "/api/v1/shares", types.CreateShareLinkRequest{
		GalleryID: g.ID,
	}))

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/shares/%s", share.Share.LinkID), nil)
	req.Header.Set("X-Auth-Request-Email", "someone-else@example.com")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d want 403, body = %s", w.Code, w.Body.String())
	}
}
