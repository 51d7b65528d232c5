package rule_test

import (
	"strings"
	"testing"

	"github.com/yeisme/photovault/pkg/rule"
)

// TestValidShareAlias 测试分享别名格式校验.
func TestValidShareAlias(t *testing.T) {
	valid := []string{"abc", "smith-wedding", "may-2026-photos", "a1b2c3"}
	for _, alias := range valid {
		if !rule.ValidShareAlias(alias) {
			t.Errorf("expected %q to be a valid alias", alias)
		}
	}

	invalid := []string{
		"",                       // 空
		"ab",                     // 太短
		"Smith-Wedding",          // 大写
		"has space",              // 空格
		"under_score",            // 下划线
		strings.Repeat("a", 51), // 超长
	}
	for _, alias := range invalid {
		if rule.ValidShareAlias(alias) {
			t.Errorf("expected %q to be rejected", alias)
		}
	}
}

// TestValidGallerySlug 测试相册 slug 格式校验.
func TestValidGallerySlug(t *testing.T) {
	valid := []string{"w", "wedding-2026", "0edit", "a-b-c"}
	for _, slug := range valid {
		if !rule.ValidGallerySlug(slug) {
			t.Errorf("expected %q to be a valid slug", slug)
		}
	}

	invalid := []string{"", "-leading", "UPPER", "has space"}
	for _, slug := range invalid {
		if rule.ValidGallerySlug(slug) {
			t.Errorf("expected %q to be rejected", slug)
		}
	}
}

// TestRegisteredTags 测试注册后的 tag 可在结构体校验中使用.
func TestRegisteredTags(t *testing.T) {
	if err := rule.RegisterPhotoVaultRules(); err != nil {
		t.Fatalf("register rules: %v", err)
	}

	type shareReq struct {
		Alias string `rule:"omitempty,share_alias"`
	}

	if err := rule.ValidateStruct(shareReq{Alias: "smith-wedding"}); err != nil {
		t.Errorf("expected valid alias to pass, got %v", err)
	}

	if err := rule.ValidateStruct(shareReq{Alias: ""}); err != nil {
		t.Errorf("expected omitempty to allow blank alias, got %v", err)
	}

	if err := rule.ValidateStruct(shareReq{Alias: "NO"}); err == nil {
		t.Error("expected invalid alias to fail")
	}

	type galleryReq struct {
		Slug string `rule:"gallery_slug"`
	}

	if err := rule.ValidateStruct(galleryReq{Slug: "wedding-2026"}); err != nil {
		t.Errorf("expected valid slug to pass, got %v", err)
	}

	if err := rule.ValidateStruct(galleryReq{Slug: "-bad"}); err == nil {
		t.Error("expected invalid slug to fail")
	}
}
