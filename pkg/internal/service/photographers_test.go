package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/service"
)

// TestEnsurePhotographerIdempotent 验证幂等建档：重复调用不产生重复账户.
func TestEnsurePhotographerIdempotent(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewPhotographerService(ctx)

	first, err := svc.Ensure(ctx, "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}

	if first.ID == 0 {
		t.Fatal("expected non-zero photographer ID")
	}

	second, err := svc.Ensure(ctx, "alice@example.com", "Alice Lin")
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected same photographer ID, got %d and %d", first.ID, second.ID)
	}

	var count int64
	if err := testDB(t, ctx).Model(&model.Photographer{}).Count(&count).Error; err != nil {
		t.Fatalf("count photographers: %v", err)
	}

	if count != 1 {
		t.Fatalf("expected exactly 1 photographer, got %d", count)
	}

	// 展示名就地更新
	got, err := svc.GetByExternalID(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get by external id: %v", err)
	}

	if got.DisplayName != "Alice Lin" {
		t.Fatalf("expected display name updated, got %q", got.DisplayName)
	}
}

// TestEnsurePhotographerUsername 验证用户名由完整身份标识归一派生.
func TestEnsurePhotographerUsername(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewPhotographerService(ctx)

	p, err := svc.Ensure(ctx, "Bob.Chen@studio.example.com", "Bob")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	if p.Username != "bob-chen-studio-example-com" {
		t.Fatalf("unexpected username %q", p.Username)
	}

	// 不同域下同名邮箱不会撞到用户名唯一索引
	if _, err := svc.Ensure(ctx, "Bob.Chen@other.example.com", "Bob"); err != nil {
		t.Fatalf("ensure second domain: %v", err)
	}
}

// TestEnsurePhotographerRequiresExternalID 验证空身份标识被拒绝.
func TestEnsurePhotographerRequiresExternalID(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewPhotographerService(ctx)

	if _, err := svc.Ensure(ctx, "   ", "Nobody"); err == nil {
		t.Fatal("expected error for blank external ID")
	}
}

// TestGetByExternalIDNotFound 验证未建档身份返回 ErrNotFound.
func TestGetByExternalIDNotFound(t *testing.T) {
	ctx := newTestCtx(t)
	svc := service.NewPhotographerService(ctx)

	_, err := svc.GetByExternalID(context.Background(), "ghost@example.com")
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
