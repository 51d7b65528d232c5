package service_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	appcache "github.com/yeisme/photovault/pkg/cache"
	ctxPkg "github.com/yeisme/photovault/pkg/context"
	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/internal/types"
)

// TestCreateShareLinkAlwaysHasToken 验证无论是否提供别名，令牌都会生成.
func TestCreateShareLinkAlwaysHasToken(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewShareLinkService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)

	plain, err := svc.Create(ctx, owner.ID, &types.CreateShareLinkRequest{GalleryID: g.ID})
	if err != nil {
		t.Fatalf("create without alias: %v", err)
	}

	if plain.Share.Token == "" {
		t.Fatal("expected token to be generated")
	}

	if plain.Share.Alias != "" {
		t.Fatalf("expected empty alias, got %q", plain.Share.Alias)
	}

	aliased, err := svc.Create(ctx, owner.ID, &types.CreateShareLinkRequest{
		GalleryID:     g.ID,
		Alias:         "smith-wedding",
		ExpireDays:    7,
		DownloadLimit: 5,
	})
	if err != nil {
		t.Fatalf("create with alias: %v", err)
	}

	if aliased.Share.Token == "" || aliased.Share.Alias != "smith-wedding" {
		t.Fatalf("expected both token and alias, got %+v", aliased.Share)
	}

	if aliased.Share.Token == plain.Share.Token {
		t.Fatal("tokens must be unique per link")
	}

	if aliased.Share.ExpiresAt == nil || aliased.Share.DownloadLimit == nil {
		t.Fatalf("expected expiry and limit set, got %+v", aliased.Share)
	}
}

// TestCreateShareLinkAliasConflict 验证别名跨所有链接全局唯一.
func TestCreateShareLinkAliasConflict(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewShareLinkService(ctx)

	alice := seedPhotographer(t, ctx, "alice@example.com")
	bob := seedPhotographer(t, ctx, "bob@example.com")
	ga := seedGallery(t, ctx, alice.ID, "wedding", false)
	gb := seedGallery(t, ctx, bob.ID, "street", false)

	if _, err := svc.Create(ctx, alice.ID, &types.CreateShareLinkRequest{
		GalleryID: ga.ID,
		Alias:     "may-photos",
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	// 别名冲突跨摄影师也成立
	_, err := svc.Create(ctx, bob.ID, &types.CreateShareLinkRequest{
		GalleryID: gb.ID,
		Alias:     "may-photos",
	})
	if !errors.Is(err, service.ErrAliasTaken) {
		t.Fatalf("expected ErrAliasTaken, got %v", err)
	}
}

// TestShareLinkDeleteOwnerOnly 验证仅相册 owner 可删除分享链接.
func TestShareLinkDeleteOwnerOnly(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewShareLinkService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	other := seedPhotographer(t, ctx, "bob@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)

	created, err := svc.Create(ctx, owner.ID, &types.CreateShareLinkRequest{GalleryID: g.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	linkID := created.Share.LinkID

	if err := svc.Delete(ctx, other.ID, linkID); !errors.Is(err, service.ErrDenied) {
		t.Fatalf("expected ErrDenied for non-owner, got %v", err)
	}

	if err := svc.Delete(ctx, owner.ID, linkID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}

	if err := svc.Delete(ctx, owner.ID, linkID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// 删除后凭据不再可解析
	if _, err := svc.ResolveLink(ctx, created.Share.Token); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on resolve, got %v", err)
	}
}

// TestShareLinkAliasReusableAfterDelete 验证删除链接后别名可被新链接复用.
func TestShareLinkAliasReusableAfterDelete(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewShareLinkService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)

	first, err := svc.Create(ctx, owner.ID, &types.CreateShareLinkRequest{
		GalleryID: g.ID,
		Alias:     "smith-wedding",
	})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	if err := svc.Delete(ctx, owner.ID, first.Share.LinkID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	second, err := svc.Create(ctx, owner.ID, &types.CreateShareLinkRequest{
		GalleryID: g.ID,
		Alias:     "smith-wedding",
	})
	if err != nil {
		t.Fatalf("recreate with same alias: %v", err)
	}

	// 别名现在解析到新链接
	link, err := svc.ResolveLink(ctx, "smith-wedding")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if link.LinkID != second.Share.LinkID {
		t.Fatalf("alias must resolve to the new link, got %s", link.LinkID)
	}
}

// TestShareLinkDeleteEvictsResolveCache 验证删除链接时匿名解析接口的响应缓存随之失效.
func TestShareLinkDeleteEvictsResolveCache(t *testing.T) {
	ctx := newTestCtxWithKV(t)
	svc := service.NewShareLinkService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)

	created, err := svc.Create(ctx, owner.ID, &types.CreateShareLinkRequest{
		GalleryID: g.ID,
		Alias:     "smith-wedding",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 模拟响应缓存中间件按凭据路径写入的缓存条目
	kvc := ctxPkg.GetKVClient(ctx)
	keys := []string{
		appcache.PathKey(http.MethodGet, "/api/v1/s/"+created.Share.Token),
		appcache.PathKey(http.MethodGet, "/api/v1/s/smith-wedding"),
		appcache.PathKey(http.MethodHead, "/api/v1/s/"+created.Share.Token),
	}

	for _, key := range keys {
		if err := kvc.Set(ctx, key, []byte(`{"s":200}`), 0); err != nil {
			t.Fatalf("seed cache entry: %v", err)
		}
	}

	if err := svc.Delete(ctx, owner.ID, created.Share.LinkID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	for _, key := range keys {
		ok, err := kvc.Exists(ctx, key)
		if err != nil {
			t.Fatalf("check cache entry: %v", err)
		}

		if ok {
			t.Fatalf("cached resolve response %s must be evicted on delete", key)
		}
	}
}

// TestResolveLinkByAliasAndToken 验证别名优先解析，令牌兜底，未知凭据报 ErrNotFound.
func TestResolveLinkByAliasAndToken(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewShareLinkService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)

	created, err := svc.Create(ctx, owner.ID, &types.CreateShareLinkRequest{
		GalleryID: g.ID,
		Alias:     "smith-wedding",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	byAlias, err := svc.ResolveLink(ctx, "smith-wedding")
	if err != nil {
		t.Fatalf("resolve by alias: %v", err)
	}

	byToken, err := svc.ResolveLink(ctx, created.Share.Token)
	if err != nil {
		t.Fatalf("resolve by token: %v", err)
	}

	if byAlias.LinkID != created.Share.LinkID || byToken.LinkID != created.Share.LinkID {
		t.Fatal("alias and token must resolve to the same link")
	}

	if _, err := svc.ResolveLink(ctx, "no-such-credential"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestResolveLinkExpired 验证过期判定是惰性的：过期链接解析即失败.
func TestResolveLinkExpired(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewShareLinkService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)

	past := time.Now().UTC().Add(-time.Hour)
	seedShareLink(t, ctx, g.ID, "expired-token", strPtr("expired-alias"), &past, nil)

	if _, err := svc.ResolveLink(ctx, "expired-alias"); !errors.Is(err, service.ErrShareExpired) {
		t.Fatalf("expected ErrShareExpired by alias, got %v", err)
	}

	if _, err := svc.ResolveLink(ctx, "expired-token"); !errors.Is(err, service.ErrShareExpired) {
		t.Fatalf("expected ErrShareExpired by token, got %v", err)
	}
}

// TestResolveLinkUsesCache 验证 KV 缓存命中路径：DB 记录消失后短期内仍可解析.
func TestResolveLinkUsesCache(t *testing.T) {
	ctx := newTestCtxWithKV(t)
	svc := service.NewShareLinkService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)

	created, err := svc.Create(ctx, owner.ID, &types.CreateShareLinkRequest{GalleryID: g.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 绕过 service 直接清掉 DB 行，缓存仍在
	if err := testDB(t, ctx).
		Where("link_id = ?", created.Share.LinkID).
		Delete(&model.ShareLink{}).Error; err != nil {
		t.Fatalf("hard delete: %v", err)
	}

	link, err := svc.ResolveLink(ctx, created.Share.Token)
	if err != nil {
		t.Fatalf("expected cache hit, got %v", err)
	}

	if link.LinkID != created.Share.LinkID {
		t.Fatalf("unexpected link from cache: %+v", link)
	}
}

// TestConsumeDownloadQuota 验证配额递增与上限校验的原子语义.
func TestConsumeDownloadQuota(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewShareLinkService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)
	link := seedShareLink(t, ctx, g.ID, "quota-token", nil, nil, intPtr(2))

	for i := range 2 {
		if err := svc.ConsumeDownload(ctx, link.LinkID); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}

	if err := svc.ConsumeDownload(ctx, link.LinkID); !errors.Is(err, service.ErrShareExhausted) {
		t.Fatalf("expected ErrShareExhausted, got %v", err)
	}

	var got model.ShareLink
	if err := testDB(t, ctx).Where("link_id = ?", link.LinkID).First(&got).Error; err != nil {
		t.Fatalf("reload link: %v", err)
	}

	if got.DownloadCount != 2 {
		t.Fatalf("count must not exceed limit, got %d", got.DownloadCount)
	}
}

// TestConsumeDownloadUnlimited 验证未设上限的链接只递增不拒绝.
func TestConsumeDownloadUnlimited(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewShareLinkService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)
	link := seedShareLink(t, ctx, g.ID, "free-token", nil, nil, nil)

	for i := range 5 {
		if err := svc.ConsumeDownload(ctx, link.LinkID); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}
}

// TestSweepExpired 验证过期链接的定期回收只触及超过保留期的记录.
func TestSweepExpired(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewShareLinkService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)

	old := time.Now().UTC().AddDate(0, 0, -40)
	recent := time.Now().UTC().Add(-time.Hour)

	seedShareLink(t, ctx, g.ID, "stale-token", nil, &old, nil)
	seedShareLink(t, ctx, g.ID, "recent-token", nil, &recent, nil)
	seedShareLink(t, ctx, g.ID, "live-token", nil, nil, nil)

	n, err := svc.SweepExpired(ctx, time.Now().UTC().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if n != 1 {
		t.Fatalf("expected 1 swept link, got %d", n)
	}

	var remaining int64
	if err := testDB(t, ctx).Model(&model.ShareLink{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	if remaining != 2 {
		t.Fatalf("expected 2 remaining links, got %d", remaining)
	}
}

// TestResolveShareResponse 验证访客解析返回相册与照片清单及剩余配额.
func TestResolveShareResponse(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewShareLinkService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)
	seedPhoto(t, ctx, g.ID, "1/1/a.jpg", "a.jpg")
	seedPhoto(t, ctx, g.ID, "1/1/b.jpg", "b.jpg")

	link := seedShareLink(t, ctx, g.ID, "resolve-token", nil, nil, intPtr(10))

	if err := testDB(t, ctx).Model(&model.ShareLink{}).
		Where("link_id = ?", link.LinkID).
		Update("download_count", 3).Error; err != nil {
		t.Fatalf("set count: %v", err)
	}

	resp, err := svc.Resolve(ctx, "resolve-token")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if resp.Gallery.ID != g.ID || len(resp.Photos) != 2 {
		t.Fatalf("unexpected resolve payload: %+v", resp)
	}

	if resp.RemainingDownloads == nil || *resp.RemainingDownloads != 7 {
		t.Fatalf("expected 7 remaining downloads, got %v", resp.RemainingDownloads)
	}
}
