// Package api 负责把 HTTP 路由组注册到 gin 引擎.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/internal/router"
)

// RegisterGroup 注册 photovault 相关的路由组到传入的 gin 引擎.
func RegisterGroup(e *gin.Engine) *gin.Engine {
	router.Register(e.Group("/api/v1"))
	router.RegisterSwaggerRoute(e)

	return e
}
