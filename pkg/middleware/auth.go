package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/configs"
)

// AuthEmailKey 认证中间件写入 gin context 的身份键，
// 值为小写化的摄影师邮箱.
const AuthEmailKey = "auth_email"

// AuthMiddleware 校验上游 oauth2-proxy 注入的身份头.
//   - X-Auth-Request-Email 优先，X-Forwarded-Email 兜底
//   - skip_paths 前缀匹配的路径（/metrics、/health、/api/v1/s 等）直接放行
//   - dev_allow_query 开启时允许 query user 兜底，仅供本地联调.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !conf.Enabled || isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		email := strings.TrimSpace(c.GetHeader("X-Auth-Request-Email"))
		if email == "" {
			email = strings.TrimSpace(c.GetHeader("X-Forwarded-Email"))
		}

		if email == "" && conf.DevAllowQuery {
			email = strings.TrimSpace(c.Query("user"))
		}

		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

			return
		}

		// 邮箱大小写不敏感，统一小写后供 handler 使用
		c.Set(AuthEmailKey, strings.ToLower(email))

		c.Next()
	}
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
