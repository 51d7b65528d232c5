package rule

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// 业务校验规则的正则：编译一次复用.
var (
	// 分享别名：小写字母/数字/连字符，3~50 位
	shareAliasRe = regexp.MustCompile(`^[a-z0-9-]{3,50}$`)
	// 相册 slug：小写字母或数字开头，其后可含连字符，最长 128 位
	gallerySlugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,127}$`)
)

// RegisterPhotoVaultRules 注册 photovault 业务校验规则（幂等）.
func RegisterPhotoVaultRules() error {
	if err := RegisterValidation("share_alias", func(fl validator.FieldLevel) bool {
		return shareAliasRe.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}

	return RegisterValidation("gallery_slug", func(fl validator.FieldLevel) bool {
		return gallerySlugRe.MatchString(fl.Field().String())
	})
}

// ValidShareAlias 判断分享别名是否合法.
func ValidShareAlias(alias string) bool { return shareAliasRe.MatchString(alias) }

// ValidGallerySlug 判断相册 slug 是否合法.
func ValidGallerySlug(slug string) bool { return gallerySlugRe.MatchString(slug) }
