package handle

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/internal/types"
	"github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/metrics"
)

// ArchivePhotos 批量打包下载：将选中照片以 zip 流式写出.
// 预检（授权、配额、选片）全部通过后才写响应头，
// 失败以 JSON 返回；流式写出开始后只能中断连接.
//
//	@Summary		打包下载
//	@Description	流式打包选中照片为 zip，单张失败自动跳过
//	@Tags			照片
//	@Accept			json
//	@Produce		application/zip
//	@Param			body	types.ArchiveRequest	true	"打包参数"
//	@Param			share	query					string	false	"分享凭据（别名或令牌）"
//	@Success		200		{file}					binary
//	@Failure		400		{object}				map[string]string
//	@Failure		403		{object}				map[string]string
//	@Failure		404		{object}				map[string]string
//	@Router			/api/v1/photos/archive [post]
func ArchivePhotos(c *gin.Context) {
	l := log.Logger()

	var req types.ArchiveRequest
	if err := c.ShouldBind(&req); err != nil {
		l.Warn().Err(err).Msg("invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	var ownerID uint
	if user, err := checkUser(c); err == nil && user != "" {
		svc := service.NewPhotographerService(c.Request.Context())
		if p, err := svc.GetByExternalID(c.Request.Context(), user); err == nil {
			ownerID = p.ID
		}
	}

	svc := service.NewArchiveService(c.Request.Context())

	started := time.Now()

	plan, err := svc.Prepare(c.Request.Context(), ownerID, shareCredential(c), &req)
	if err != nil {
		metrics.ObserveArchive("rejected", 0, time.Since(started))
		writeServiceError(c, err)

		return
	}

	// zip 流无法预知长度，预检通过后先写头再边拉边写
	fileName := fmt.Sprintf("gallery-%d-%s.zip", req.GalleryID, time.Now().UTC().Format("20060102"))
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Header("X-Accel-Buffering", "no")

	result, err := svc.Stream(c.Request.Context(), plan, c.Writer)
	if err != nil {
		var written int64
		if result != nil {
			written = result.BytesWritten
		}

		metrics.ObserveArchive("error", written, time.Since(started))

		// 已写出数据后只能中断连接，客户端会收到截断的 zip
		if !errors.Is(err, c.Request.Context().Err()) {
			l.Error().Err(err).Msg("archive stream aborted")
		}

		c.Abort()

		return
	}

	metrics.ObserveArchive("ok", result.BytesWritten, time.Since(started))

	l.Info().
		Int("entries", result.Entries).
		Int("skipped", result.Skipped).
		Int64("bytes", result.BytesWritten).
		Msg("archive streamed")
}
