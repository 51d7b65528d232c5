package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/internal/types"
	"github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/rule"
)

// CreateGallery 创建相册.
//
//	@Summary		创建相册
//	@Description	创建新相册，slug 在当前摄影师下唯一
//	@Tags			相册
//	@Accept			json
//	@Produce		json
//	@Param			body	types.CreateGalleryRequest	true	"创建参数"
//	@Success		200		{object}					types.GalleryInfo
//	@Failure		400		{object}					map[string]string
//	@Failure		409		{object}					map[string]string
//	@Failure		500		{object}					map[string]string
//	@Router			/api/v1/galleries [post]
func CreateGallery(c *gin.Context) {
	l := log.Logger()

	var req types.CreateGalleryRequest
	if err := c.ShouldBind(&req); err != nil {
		l.Warn().Err(err).Msg("invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		l.Warn().Err(err).Msg("invalid gallery slug")
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": rule.Errors(err)})

		return
	}

	p, err := currentPhotographer(c)
	if err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewGalleryService(c.Request.Context())

	resp, err := svc.Create(c.Request.Context(), p.ID, &req)
	if err != nil {
		l.Error().Err(err).Msg("create gallery failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListGalleries 获取我的相册列表.
//
//	@Summary	相册列表
//	@Tags		相册
//	@Produce	json
//	@Success	200	{object}	types.ListGalleriesResponse
//	@Failure	400	{object}	map[string]string
//	@Failure	500	{object}	map[string]string
//	@Router		/api/v1/galleries [get]
func ListGalleries(c *gin.Context) {
	l := log.Logger()

	p, err := currentPhotographer(c)
	if err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewGalleryService(c.Request.Context())

	resp, err := svc.List(c.Request.Context(), p.ID)
	if err != nil {
		l.Error().Err(err).Msg("list galleries failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetGallery 获取相册详情.
//
//	@Summary	相册详情
//	@Tags		相册
//	@Produce	json
//	@Param		galleryId	path		int	true	"相册ID"
//	@Success	200			{object}	types.GalleryInfo
//	@Failure	400			{object}	map[string]string
//	@Failure	404			{object}	map[string]string
//	@Router		/api/v1/galleries/{galleryId} [get]
func GetGallery(c *gin.Context) {
	l := log.Logger()

	p, err := currentPhotographer(c)
	if err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	galleryID, ok := paramUint(c, "galleryId")
	if !ok {
		return
	}

	svc := service.NewGalleryService(c.Request.Context())

	resp, err := svc.Get(c.Request.Context(), p.ID, galleryID)
	if err != nil {
		l.Error().Err(err).Msg("get gallery failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateGallery 更新相册属性.
//
//	@Summary	更新相册
//	@Tags		相册
//	@Accept		json
//	@Produce	json
//	@Param		galleryId	path						int	true	"相册ID"
//	@Param		body		types.UpdateGalleryRequest	true	"更新参数"
//	@Success	200			{object}					types.GalleryInfo
//	@Failure	400			{object}					map[string]string
//	@Failure	404			{object}					map[string]string
//	@Router		/api/v1/galleries/{galleryId} [put]
func UpdateGallery(c *gin.Context) {
	l := log.Logger()

	p, err := currentPhotographer(c)
	if err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	galleryID, ok := paramUint(c, "galleryId")
	if !ok {
		return
	}

	var req types.UpdateGalleryRequest
	if err := c.ShouldBind(&req); err != nil {
		l.Warn().Err(err).Msg("invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewGalleryService(c.Request.Context())

	resp, err := svc.Update(c.Request.Context(), p.ID, galleryID, &req)
	if err != nil {
		l.Error().Err(err).Msg("update gallery failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteGallery 删除相册及其照片与分享链接.
//
//	@Summary	删除相册
//	@Tags		相册
//	@Param		galleryId	path	int	true	"相册ID"
//	@Success	204
//	@Failure	400	{object}	map[string]string
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/galleries/{galleryId} [delete]
func DeleteGallery(c *gin.Context) {
	l := log.Logger()

	p, err := currentPhotographer(c)
	if err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	galleryID, ok := paramUint(c, "galleryId")
	if !ok {
		return
	}

	svc := service.NewGalleryService(c.Request.Context())
	if err := svc.Delete(c.Request.Context(), p.ID, galleryID); err != nil {
		l.Error().Err(err).Msg("delete gallery failed")
		writeServiceError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// GalleryStats 获取相册下载统计.
//
//	@Summary	相册统计
//	@Tags		相册
//	@Produce	json
//	@Param		galleryId	path		int	true	"相册ID"
//	@Success	200			{object}	types.GalleryStatsResponse
//	@Failure	400			{object}	map[string]string
//	@Failure	404			{object}	map[string]string
//	@Router		/api/v1/galleries/{galleryId}/stats [get]
func GalleryStats(c *gin.Context) {
	l := log.Logger()

	p, err := currentPhotographer(c)
	if err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	galleryID, ok := paramUint(c, "galleryId")
	if !ok {
		return
	}

	svc := service.NewGalleryService(c.Request.Context())

	resp, err := svc.Stats(c.Request.Context(), p.ID, galleryID)
	if err != nil {
		l.Error().Err(err).Msg("gallery stats failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// PublicGallery 匿名访问公开相册页.
//
//	@Summary		公开相册页
//	@Description	按 username/slug 解析公开相册，私有或不存在一律 404
//	@Tags			相册
//	@Produce		json
//	@Param			username	path		string	true	"摄影师用户名"
//	@Param			slug		path		string	true	"相册 slug"
//	@Success		200			{object}	types.PublicGalleryResponse
//	@Failure		404			{object}	map[string]string
//	@Router			/api/v1/p/{username}/{slug} [get]
func PublicGallery(c *gin.Context) {
	l := log.Logger()

	username := c.Param("username")
	slug := c.Param("slug")

	if username == "" || slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing username or slug"})

		return
	}

	svc := service.NewGalleryService(c.Request.Context())

	resp, err := svc.ResolvePublic(c.Request.Context(), username, slug)
	if err != nil {
		l.Warn().Err(err).Str("username", username).Str("slug", slug).Msg("public gallery lookup failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// paramUint 解析路径中的数字参数，非法时直接响应 400.
func paramUint(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)

	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}

	return uint(v), true
}
