package middleware

import (
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/configs"
)

// CORSMiddleware 按配置的 allow_origins 放行跨域请求，
// 客户相册页通常部署在摄影师自己的域名下.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowWebSockets = true
	config.AllowFiles = true
	config.AddAllowHeaders("X-Auth-Request-Email", "X-Forwarded-Email", "X-Role")
	config.AddExposeHeaders("X-Cache", "ETag", "Content-Disposition")

	switch {
	case cfg.Debug, slices.Contains(cfg.AllowOrigins, "*"):
		config.AllowAllOrigins = true
	case len(cfg.AllowOrigins) > 0:
		config.AllowOrigins = cfg.AllowOrigins
	default:
		config.AllowAllOrigins = true
	}

	return cors.New(config)
}
