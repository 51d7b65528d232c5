package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/service"
)

// fakeSigner 以固定格式拼 URL 代替真实签名.
func fakeSigner(_ context.Context, bucket, objectKey string, _ time.Duration) (string, error) {
	return fmt.Sprintf("https://signed.example/%s/%s", bucket, objectKey), nil
}

// TestAuthorizeOwner 验证所有者会话直接放行，不触碰分享判定.
func TestAuthorizeOwner(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewAccessService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)

	grant, err := svc.Authorize(ctx, owner.ID, "", g)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}

	if grant.Source != service.GrantOwner {
		t.Fatalf("expected owner grant, got %q", grant.Source)
	}
}

// TestAuthorizeShareCredential 验证分享凭据授权并携带命中的链接.
func TestAuthorizeShareCredential(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewAccessService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", false)
	link := seedShareLink(t, ctx, g.ID, "share-token", nil, nil, nil)

	grant, err := svc.Authorize(ctx, 0, "share-token", g)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}

	if grant.Source != service.GrantShare || grant.Link == nil || grant.Link.LinkID != link.LinkID {
		t.Fatalf("unexpected grant: %+v", grant)
	}
}

// TestAuthorizeShareWrongGallery 验证凭据与目标相册不符时拒绝.
func TestAuthorizeShareWrongGallery(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewAccessService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g1 := seedGallery(t, ctx, owner.ID, "wedding", false)
	g2 := seedGallery(t, ctx, owner.ID, "street", false)
	seedShareLink(t, ctx, g1.ID, "g1-token", nil, nil, nil)

	if _, err := svc.Authorize(ctx, 0, "g1-token", g2); !errors.Is(err, service.ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}
}

// TestAuthorizeUnknownCredentialDenied 验证无效凭据判为拒绝，且不回退公开相册.
func TestAuthorizeUnknownCredentialDenied(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewAccessService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", true)
	seedShareLink(t, ctx, g.ID, "real-token", nil, nil, nil)

	if _, err := svc.Authorize(ctx, 0, "real-tokenx", g); !errors.Is(err, service.ErrDenied) {
		t.Fatalf("expected ErrDenied for bogus credential, got %v", err)
	}
}

// TestAuthorizeExpiredShareNoPublicFallback 验证携带过期凭据时即使相册公开也立即失败.
func TestAuthorizeExpiredShareNoPublicFallback(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewAccessService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "wedding", true)

	past := time.Now().UTC().Add(-time.Hour)
	seedShareLink(t, ctx, g.ID, "dead-token", nil, &past, nil)

	_, err := svc.Authorize(ctx, 0, "dead-token", g)
	if !errors.Is(err, service.ErrShareExpired) {
		t.Fatalf("expected ErrShareExpired without public fallback, got %v", err)
	}
}

// TestAuthorizePublicGallery 验证匿名无凭据时公开相册放行、私有相册拒绝.
func TestAuthorizePublicGallery(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewAccessService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	public := seedGallery(t, ctx, owner.ID, "open", true)
	private := seedGallery(t, ctx, owner.ID, "closed", false)

	grant, err := svc.Authorize(ctx, 0, "", public)
	if err != nil {
		t.Fatalf("authorize public: %v", err)
	}

	if grant.Source != service.GrantPublic {
		t.Fatalf("expected public grant, got %q", grant.Source)
	}

	if _, err := svc.Authorize(ctx, 0, "", private); !errors.Is(err, service.ErrDenied) {
		t.Fatalf("expected ErrDenied for private gallery, got %v", err)
	}
}

// TestAuthorizeOtherPhotographer 验证其他摄影师的会话不等于 owner，仍走后续判定.
func TestAuthorizeOtherPhotographer(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewAccessService(ctx)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	other := seedPhotographer(t, ctx, "bob@example.com")
	g := seedGallery(t, ctx, owner.ID, "closed", false)

	if _, err := svc.Authorize(ctx, other.ID, "", g); !errors.Is(err, service.ErrDenied) {
		t.Fatalf("expected ErrDenied for other photographer, got %v", err)
	}

	// 公开相册对登录的其他摄影师同样可见
	open := seedGallery(t, ctx, owner.ID, "open", true)

	grant, err := svc.Authorize(ctx, other.ID, "", open)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}

	if grant.Source != service.GrantPublic {
		t.Fatalf("expected public grant, got %q", grant.Source)
	}
}

// TestDownloadURLRecordsEvent 验证签发下载 URL 会追加下载审计记录.
func TestDownloadURLRecordsEvent(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewAccessService(ctx).WithSigner(fakeSigner)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "open", true)
	p := seedPhoto(t, ctx, g.ID, "1/1/a.jpg", "a.jpg")

	resp, err := svc.DownloadURL(ctx, 0, "", p.ID)
	if err != nil {
		t.Fatalf("download url: %v", err)
	}

	if resp.URL != "https://signed.example/photovault/1/1/a.jpg" {
		t.Fatalf("unexpected url %q", resp.URL)
	}

	if resp.Grant != service.GrantPublic || resp.ExpiresIn <= 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	var events []model.DownloadEvent
	if err := testDB(t, ctx).Find(&events).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}

	if len(events) != 1 || events[0].PhotoID != p.ID || events[0].Grant != service.GrantPublic {
		t.Fatalf("unexpected download events: %+v", events)
	}
}

// TestDownloadURLShareQuota 验证分享路径单张下载消耗配额，耗尽后拒绝.
func TestDownloadURLShareQuota(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewAccessService(ctx).WithSigner(fakeSigner)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "closed", false)
	p := seedPhoto(t, ctx, g.ID, "1/1/a.jpg", "a.jpg")
	link := seedShareLink(t, ctx, g.ID, "dl-token", nil, nil, intPtr(1))

	resp, err := svc.DownloadURL(ctx, 0, "dl-token", p.ID)
	if err != nil {
		t.Fatalf("first download: %v", err)
	}

	if resp.Grant != service.GrantShare {
		t.Fatalf("expected share grant, got %q", resp.Grant)
	}

	if _, err := svc.DownloadURL(ctx, 0, "dl-token", p.ID); !errors.Is(err, service.ErrShareExhausted) {
		t.Fatalf("expected ErrShareExhausted, got %v", err)
	}

	var events []model.DownloadEvent
	if err := testDB(t, ctx).Find(&events).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}

	if len(events) != 1 || events[0].ShareID != link.LinkID {
		t.Fatalf("expected single audited download via share, got %+v", events)
	}
}

// TestDownloadURLSignFailureKeepsQuota 验证签发失败不消耗分享配额.
func TestDownloadURLSignFailureKeepsQuota(t *testing.T) {
	ctx := newTestCtx(t)

	owner := seedPhotographer(t, ctx, "alice@example.com")
	g := seedGallery(t, ctx, owner.ID, "closed", false)
	p := seedPhoto(t, ctx, g.ID, "1/1/a.jpg", "a.jpg")
	seedShareLink(t, ctx, g.ID, "dl-token", nil, nil, intPtr(1))

	broken := service.NewAccessService(ctx).WithSigner(
		func(context.Context, string, string, time.Duration) (string, error) {
			return "", errors.New("sign failed")
		})

	if _, err := broken.DownloadURL(ctx, 0, "dl-token", p.ID); err == nil {
		t.Fatal("expected signer error")
	}

	// 配额未被失败的签发消耗，重试成功
	svc := service.NewAccessService(ctx).WithSigner(fakeSigner)
	if _, err := svc.DownloadURL(ctx, 0, "dl-token", p.ID); err != nil {
		t.Fatalf("retry after signer failure: %v", err)
	}
}
