// Package handle 提供请求处理器的实现，用于处理 HTTP 请求.
package handle

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/middleware"
	"github.com/yeisme/photovault/pkg/rule"
)

// checkUser 提取上游认证代理注入的身份.
// 认证中间件写入的值优先，其次直接读 Header（oauth2-proxy 风格）
// -> query 参数 -> 非 Release 模式下的默认测试账号.
func checkUser(c *gin.Context) (string, error) {
	user := c.GetString(middleware.AuthEmailKey)
	if user == "" {
		user = c.GetHeader("X-Auth-Request-Email")
	}

	if user == "" {
		user = c.GetHeader("X-Forwarded-Email")
	}

	if user == "" {
		user = c.Query("user")
	}

	// 测试默认值，不为 Release 模式时
	if user == "" && gin.Mode() != gin.ReleaseMode {
		user = "test-user@example.com"
	}

	user = strings.ToLower(strings.TrimSpace(user))

	// 使用 validator 验证身份格式为 email
	if err := rule.ValidateVar(user, "required,email"); err != nil {
		return "", err
	}

	return user, nil
}

// currentPhotographer 提取身份并幂等建档，返回摄影师记录.
// 展示名取邮箱本地部分，后续可由 profile 接口修改.
func currentPhotographer(c *gin.Context) (*model.Photographer, error) {
	user, err := checkUser(c)
	if err != nil {
		return nil, err
	}

	display := user
	if i := strings.IndexByte(display, '@'); i > 0 {
		display = display[:i]
	}

	svc := service.NewPhotographerService(c.Request.Context())

	return svc.Ensure(c.Request.Context(), user, display)
}

// shareCredential 提取访客携带的分享凭据（别名或令牌）.
func shareCredential(c *gin.Context) string {
	if cred := c.Query("share"); cred != "" {
		return cred
	}

	return c.GetHeader("X-Share-Credential")
}

// writeServiceError 将业务哨兵错误映射为 HTTP 状态码.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrShareExpired), errors.Is(err, service.ErrShareExhausted):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAliasTaken), errors.Is(err, service.ErrSlugTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
