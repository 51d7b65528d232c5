package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/internal/types"
	"github.com/yeisme/photovault/pkg/log"
)

// SignUpload 为待上传照片签发预签名 PUT URL.
//
//	@Summary		预签名上传
//	@Description	为单个照片申请预签名 PUT URL，客户端直传对象存储
//	@Tags			照片
//	@Accept			json
//	@Produce		json
//	@Param			body	types.SignUploadRequest	true	"上传参数"
//	@Success		200		{object}				types.SignUploadResponse
//	@Failure		400		{object}				map[string]string
//	@Failure		404		{object}				map[string]string
//	@Router			/api/v1/uploads/sign [post]
func SignUpload(c *gin.Context) {
	l := log.Logger()

	var req types.SignUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		l.Warn().Err(err).Msg("invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	p, err := currentPhotographer(c)
	if err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewPhotoService(c.Request.Context())

	resp, err := svc.SignUpload(c.Request.Context(), p.ID, &req)
	if err != nil {
		l.Error().Err(err).Msg("sign upload failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// CompleteUpload 上传完成确认，登记照片元数据.
//
//	@Summary	上传确认
//	@Tags		照片
//	@Accept		json
//	@Produce	json
//	@Param		body	types.CompleteUploadRequest	true	"确认参数"
//	@Success	200		{object}					types.CompleteUploadResponse
//	@Failure	400		{object}					map[string]string
//	@Failure	404		{object}					map[string]string
//	@Router		/api/v1/photos/complete [post]
func CompleteUpload(c *gin.Context) {
	l := log.Logger()

	var req types.CompleteUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		l.Warn().Err(err).Msg("invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	p, err := currentPhotographer(c)
	if err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewPhotoService(c.Request.Context())

	resp, err := svc.CompleteUpload(c.Request.Context(), p.ID, &req)
	if err != nil {
		l.Error().Err(err).Msg("complete upload failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListGalleryPhotos 列出相册内的照片.
//
//	@Summary	照片列表
//	@Tags		照片
//	@Produce	json
//	@Param		galleryId	path		int	true	"相册ID"
//	@Success	200			{object}	types.ListPhotosResponse
//	@Failure	400			{object}	map[string]string
//	@Failure	404			{object}	map[string]string
//	@Router		/api/v1/galleries/{galleryId}/photos [get]
func ListGalleryPhotos(c *gin.Context) {
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

	svc := service.NewPhotoService(c.Request.Context())

	resp, err := svc.List(c.Request.Context(), p.ID, galleryID)
	if err != nil {
		l.Error().Err(err).Msg("list photos failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetPhotoURL 签发照片的签名下载 URL.
// 匿名访客可通过 ?share=<凭据> 携带分享别名或令牌.
//
//	@Summary		签名下载 URL
//	@Description	按 所有者会话 -> 分享凭据 -> 公开相册 顺序判定访问权限
//	@Tags			照片
//	@Produce		json
//	@Param			photoId	path		int		true	"照片ID"
//	@Param			share	query		string	false	"分享凭据（别名或令牌）"
//	@Success		200		{object}	types.SignedURLResponse
//	@Failure		403		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Router			/api/v1/photos/{photoId}/url [get]
func GetPhotoURL(c *gin.Context) {
	l := log.Logger()

	photoID, ok := paramUint(c, "photoId")
	if !ok {
		return
	}

	// 匿名访问合法：ownerID 为 0 时仅分享凭据或公开相册可通过
	var ownerID uint
	if user, err := checkUser(c); err == nil && user != "" {
		svc := service.NewPhotographerService(c.Request.Context())
		if p, err := svc.GetByExternalID(c.Request.Context(), user); err == nil {
			ownerID = p.ID
		}
	}

	svc := service.NewAccessService(c.Request.Context())

	resp, err := svc.DownloadURL(c.Request.Context(), ownerID, shareCredential(c), photoID)
	if err != nil {
		l.Warn().Err(err).Uint("photo_id", photoID).Msg("download url denied")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// BulkDeletePhotos 批量删除照片.
//
//	@Summary	批量删除
//	@Tags		照片
//	@Accept		json
//	@Produce	json
//	@Param		body	types.BulkDeletePhotosRequest	true	"删除参数"
//	@Success	200		{object}						types.BulkDeletePhotosResponse
//	@Failure	400		{object}						map[string]string
//	@Router		/api/v1/photos/bulk-delete [post]
func BulkDeletePhotos(c *gin.Context) {
	l := log.Logger()

	var req types.BulkDeletePhotosRequest
	if err := c.ShouldBind(&req); err != nil {
		l.Warn().Err(err).Msg("invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	p, err := currentPhotographer(c)
	if err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewPhotoService(c.Request.Context())

	resp, err := svc.BulkDelete(c.Request.Context(), p.ID, &req)
	if err != nil {
		l.Error().Err(err).Msg("bulk delete failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}
