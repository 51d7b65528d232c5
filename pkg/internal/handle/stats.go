package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/log"
)

// doStats 是一个通用封装：
//  1. 统一抽取并校验摄影师身份
//  2. 创建 StatsService
//  3. 统一错误处理与 JSON 输出
//
// 回调 fn 中负责具体业务逻辑与返回数据（可返回任意 JSON-able 结构）。
func doStats(c *gin.Context, errLogMsg string, fn func(svc *service.StatsService, ownerID uint) (any, error)) {
	l := log.Logger()

	p, err := currentPhotographer(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	svc := service.NewStatsService(c.Request.Context())

	data, e := fn(svc, p.ID)
	if e != nil {
		if errLogMsg == "" {
			errLogMsg = "stats handle failed"
		}

		l.Error().Err(e).Msg(errLogMsg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": e.Error()})

		return
	}

	c.JSON(http.StatusOK, data)
}

// GetStatsSummary 汇总摄影师维度的统计.
//
//	@Summary	统计汇总
//	@Tags		统计
//	@Produce	json
//	@Success	200	{object}	types.StatsSummaryResponse
//	@Failure	400	{object}	map[string]string
//	@Failure	500	{object}	map[string]string
//	@Router		/api/v1/stats/summary [get]
func GetStatsSummary(c *gin.Context) {
	doStats(c, "stats summary failed", func(svc *service.StatsService, ownerID uint) (any, error) {
		return svc.Summary(c.Request.Context(), ownerID)
	})
}
