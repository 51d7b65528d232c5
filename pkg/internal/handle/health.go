package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/photovault/pkg/context"
)

const healthTimeout = 2 * time.Second

func healthOK(c *gin.Context, component string) {
	c.JSON(http.StatusOK, gin.H{"component": component, "status": "ok"})
}

func healthFail(c *gin.Context, component, reason string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": reason})
}

// HealthDB 数据库健康检查
//
//	@Summary	数据库健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]any
//	@Router		/api/v1/health/db [get]
func HealthDB(c *gin.Context) {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil || dbc.DB == nil { // dbc.DB 来自嵌入的 *gorm.DB
		healthFail(c, "db", "db client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	sqlDB, err := dbc.DB.DB()
	if err != nil {
		healthFail(c, "db", err.Error())
		return
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		healthFail(c, "db", err.Error())
		return
	}

	healthOK(c, "db")
}

// HealthS3 对象存储健康检查
//
//	@Summary	对象存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]any
//	@Router		/api/v1/health/s3 [get]
func HealthS3(c *gin.Context) {
	s3c := ctxPkg.GetS3Client(c.Request.Context())
	if s3c == nil || s3c.Client == nil {
		healthFail(c, "s3", "s3 client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := s3c.HealthCheck(ctx); err != nil {
		healthFail(c, "s3", err.Error())
		return
	}

	healthOK(c, "s3")
}

// HealthMQ 消息队列健康检查
//
//	@Summary	消息队列健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]any
//	@Router		/api/v1/health/mq [get]
func HealthMQ(c *gin.Context) {
	// publisher 与 subscriber 初始化在 New 中, 判空即可
	if ctxPkg.GetMQClient(c.Request.Context()) == nil {
		healthFail(c, "mq", "mq client not initialized")
		return
	}

	healthOK(c, "mq")
}

// HealthKV KV 存储健康检查
//
//	@Summary	KV 存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]any
//	@Router		/api/v1/health/kv [get]
func HealthKV(c *gin.Context) {
	kvc := ctxPkg.GetKVClient(c.Request.Context())
	if kvc == nil {
		healthFail(c, "kv", "kv client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if _, err := kvc.Exists(ctx, "pv:health:probe"); err != nil {
		healthFail(c, "kv", err.Error())
		return
	}

	healthOK(c, "kv")
}

// Health 汇总必需组件（DB、S3）与可选组件（KV、MQ）的健康状态，
// 必需组件任一不可用时整体返回 503
//
//	@Summary	整体健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]any
//	@Router		/api/v1/health [get]
func Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	components := gin.H{}
	healthy := true

	dbOK := false

	if dbc := ctxPkg.GetDBClient(c.Request.Context()); dbc != nil && dbc.DB != nil {
		if sqlDB, err := dbc.DB.DB(); err == nil && sqlDB.PingContext(ctx) == nil {
			dbOK = true
		}
	}

	if dbOK {
		components["db"] = "ok"
	} else {
		components["db"] = "unhealthy"
		healthy = false
	}

	if s3c := ctxPkg.GetS3Client(c.Request.Context()); s3c != nil && s3c.Client != nil && s3c.HealthCheck(ctx) == nil {
		components["s3"] = "ok"
	} else {
		components["s3"] = "unhealthy"
		healthy = false
	}

	// KV 与 MQ 属可选组件，未配置时标记 disabled 但不影响整体状态
	if ctxPkg.GetKVClient(c.Request.Context()) != nil {
		components["kv"] = "ok"
	} else {
		components["kv"] = "disabled"
	}

	if ctxPkg.GetMQClient(c.Request.Context()) != nil {
		components["mq"] = "ok"
	} else {
		components["mq"] = "disabled"
	}

	status, overall := http.StatusOK, "ok"
	if !healthy {
		status, overall = http.StatusServiceUnavailable, "unhealthy"
	}

	c.JSON(status, gin.H{"status": overall, "components": components})
}
