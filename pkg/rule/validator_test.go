package rule_test

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/yeisme/photovault/pkg/rule"
)

// shareRequest 模拟分享创建请求的校验声明.
type shareRequest struct {
	Alias     string `json:"alias"      rule:"omitempty,min=3,max=50"`
	GalleryID string `json:"gallery_id" rule:"required"`
	MaxUses   int    `json:"max_uses"   rule:"gte=0"`
}

func TestEngine(t *testing.T) {
	if rule.Engine() == nil {
		t.Fatal("Engine() returned nil")
	}
}

func TestValidateStruct(t *testing.T) {
	valid := shareRequest{Alias: "smith-wedding", GalleryID: "gal_01", MaxUses: 10}
	if err := rule.ValidateStruct(valid); err != nil {
		t.Errorf("expected no error for valid request, got %v", err)
	}

	missingGallery := shareRequest{Alias: "smith-wedding"}
	if err := rule.ValidateStruct(missingGallery); err == nil {
		t.Error("expected error for missing gallery_id, got nil")
	}

	shortAlias := shareRequest{Alias: "ab", GalleryID: "gal_01"}
	if err := rule.ValidateStruct(shortAlias); err == nil {
		t.Error("expected error for alias below min length, got nil")
	}
}

func TestValidateVar(t *testing.T) {
	if err := rule.ValidateVar("ansel@example.com", "required,email"); err != nil {
		t.Errorf("expected no error for valid email, got %v", err)
	}

	if err := rule.ValidateVar("not-an-email", "required,email"); err == nil {
		t.Error("expected error for invalid email, got nil")
	}

	if err := rule.ValidateVar(-1, "gte=0"); err == nil {
		t.Error("expected error for negative value, got nil")
	}
}

// TestErrorsUsesJSONNames 校验错误映射应以 json 字段名为键.
func TestErrorsUsesJSONNames(t *testing.T) {
	err := rule.ValidateStruct(shareRequest{Alias: "ab", MaxUses: -1})
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}

	fields := rule.Errors(err)
	if fields == nil {
		t.Fatal("Errors() returned nil for validation error")
	}

	if got := fields["alias"]; got != "min=3" {
		t.Errorf("fields[alias] = %q, want %q", got, "min=3")
	}

	if got := fields["gallery_id"]; got != "required" {
		t.Errorf("fields[gallery_id] = %q, want %q", got, "required")
	}

	if got := fields["max_uses"]; got != "gte=0" {
		t.Errorf("fields[max_uses] = %q, want %q", got, "gte=0")
	}
}

// TestErrorsNonValidationError 非校验错误应返回 nil.
func TestErrorsNonValidationError(t *testing.T) {
	if fields := rule.Errors(errFake{}); fields != nil {
		t.Errorf("Errors() = %v, want nil", fields)
	}
}

type errFake struct{}

func (errFake) Error() string { return "boom" }

func TestRegisterValidation(t *testing.T) {
	err := rule.RegisterValidation("even_length", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)

		return ok && len(s)%2 == 0
	})
	if err != nil {
		t.Fatalf("RegisterValidation: %v", err)
	}

	if err := rule.ValidateVar("abcd", "even_length"); err != nil {
		t.Errorf("expected no error for even length string, got %v", err)
	}

	if err := rule.ValidateVar("abc", "even_length"); err == nil {
		t.Error("expected error for odd length string, got nil")
	}
}
