package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/internal/types"
	"github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/rule"
)

// CreateShareLink 创建分享链接.
//
//	@Summary		创建分享链接
//	@Description	为相册创建分享链接；令牌自动生成，别名可选且全局唯一
//	@Tags			分享
//	@Accept			json
//	@Produce		json
//	@Param			body	types.CreateShareLinkRequest	true	"创建参数"
//	@Success		200		{object}						types.CreateShareLinkResponse
//	@Failure		400		{object}						map[string]string
//	@Failure		409		{object}						map[string]string
//	@Failure		500		{object}						map[string]string
//	@Router			/api/v1/shares [post]
func CreateShareLink(c *gin.Context) {
	l := log.Logger()

	var req types.CreateShareLinkRequest
	if err := c.ShouldBind(&req); err != nil {
		l.Warn().Err(err).Msg("invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		l.Warn().Err(err).Msg("invalid share alias")
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": rule.Errors(err)})

		return
	}

	p, err := currentPhotographer(c)
	if err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewShareLinkService(c.Request.Context())

	resp, err := svc.Create(c.Request.Context(), p.ID, &req)
	if err != nil {
		l.Error().Err(err).Msg("create share link failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListShareLinks 获取我的分享链接列表.
//
//	@Summary	分享链接列表
//	@Tags		分享
//	@Produce	json
//	@Success	200	{object}	types.ListShareLinksResponse
//	@Failure	400	{object}	map[string]string
//	@Failure	500	{object}	map[string]string
//	@Router		/api/v1/shares [get]
func ListShareLinks(c *gin.Context) {
	l := log.Logger()

	p, err := currentPhotographer(c)
	if err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewShareLinkService(c.Request.Context())

	resp, err := svc.List(c.Request.Context(), p.ID)
	if err != nil {
		l.Error().Err(err).Msg("list share links failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteShareLink 删除分享链接（仅相册 owner 可操作）.
//
//	@Summary	删除分享链接
//	@Tags		分享
//	@Param		linkId	path	string	true	"链接ID"
//	@Success	204
//	@Failure	400	{object}	map[string]string
//	@Failure	403	{object}	map[string]string
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/shares/{linkId} [delete]
func DeleteShareLink(c *gin.Context) {
	l := log.Logger()

	p, err := currentPhotographer(c)
	if err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	linkID := c.Param("linkId")
	if linkID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing linkId"})
		return
	}

	svc := service.NewShareLinkService(c.Request.Context())
	if err := svc.Delete(c.Request.Context(), p.ID, linkID); err != nil {
		l.Error().Err(err).Msg("delete share link failed")
		writeServiceError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// ResolveShare 访客解析分享链接：别名优先，其次令牌.
//
//	@Summary		访问分享
//	@Description	返回分享对应的相册信息与照片清单；过期链接返回 403
//	@Tags			分享
//	@Produce		json
//	@Param			credential	path		string	true	"分享凭据（别名或令牌）"
//	@Success		200			{object}	types.ResolveShareResponse
//	@Failure		403			{object}	map[string]string
//	@Failure		404			{object}	map[string]string
//	@Router			/api/v1/s/{credential} [get]
func ResolveShare(c *gin.Context) {
	l := log.Logger()

	credential := c.Param("credential")
	if credential == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing credential"})
		return
	}

	svc := service.NewShareLinkService(c.Request.Context())

	resp, err := svc.Resolve(c.Request.Context(), credential)
	if err != nil {
		l.Warn().Err(err).Str("credential", credential).Msg("resolve share failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}
