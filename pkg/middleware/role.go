package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Role 表示请求方的角色，数值越大权限越高.
// visitor 是分享链接访客的缺省角色，photographer 为登录摄影师，
// studio 为多席位工作室账号，admin 拥有运维接口权限.
type Role int

const (
	RoleVisitor Role = iota + 1
	RolePhotographer
	RoleStudio
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleStudio:
		return "studio"
	case RolePhotographer:
		return "photographer"
	default:
		return "visitor"
	}
}

type roleKey struct{}

// parseRole 解析角色头，未知值降级为 visitor.
func parseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "studio":
		return RoleStudio
	case "photographer":
		return RolePhotographer
	default:
		return RoleVisitor
	}
}

// RoleMiddleware 解析认证代理注入的 X-Role 并放入两个 context.
func RoleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		r := parseRole(c.GetHeader("X-Role"))
		c.Set("role", r)

		ctx := context.WithValue(c.Request.Context(), roleKey{}, r)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetRole 返回当前请求的角色，取不到时按 visitor 处理.
func GetRole(c *gin.Context) Role {
	if v, ok := c.Get("role"); ok {
		if r, ok2 := v.(Role); ok2 {
			return r
		}
	}

	if v := c.Request.Context().Value(roleKey{}); v != nil {
		if r, ok := v.(Role); ok {
			return r
		}
	}

	return RoleVisitor
}

// RequireMinRole 角色不足时返回 403.
func RequireMinRole(minRole Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) < minRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: insufficient role"})
			return
		}

		c.Next()
	}
}
