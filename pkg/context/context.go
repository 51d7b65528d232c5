// Package context 把存储客户端等共享依赖挂到 context.Context 上，
// 供 service 层在不依赖 gin 的情况下取用.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/photovault/pkg/internal/storage"
	dbc "github.com/yeisme/photovault/pkg/internal/storage/db"
	kvc "github.com/yeisme/photovault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/photovault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/photovault/pkg/internal/storage/s3"
)

type ctxKey int

const storageManagerKey ctxKey = iota

// WithStorageManager 返回携带存储 Manager 的 context.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, storageManagerKey, mgr)
}

// GetManager 取出存储 Manager，不存在时返回 nil.
func GetManager(ctx context.Context) *storage.Manager {
	if mgr, ok := ctx.Value(storageManagerKey).(*storage.Manager); ok {
		return mgr
	}

	return nil
}

// GetS3Client 取出对象存储客户端，未配置时返回 nil.
func GetS3Client(ctx context.Context) *s3c.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetS3Client()
	}

	return nil
}

// GetDBClient 取出数据库客户端，未配置时返回 nil.
func GetDBClient(ctx context.Context) *dbc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetDBClient()
	}

	return nil
}

// GetMQClient 取出消息队列客户端，未配置时返回 nil.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}

// GetKVClient 取出 KV 客户端，未配置时返回 nil.
func GetKVClient(ctx context.Context) *kvc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetKVClient()
	}

	return nil
}

// WithTraceContext 为 logger 附加当前 span 的 trace_id/span_id.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		return logger.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return logger
}
