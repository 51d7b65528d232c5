// Package middleware 提供 gin 中间件：认证、CORS、缓存、限流、熔断、
// 链路追踪、Prometheus 指标与存储客户端注入.
package middleware
