package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/photovault/pkg/cache"
)

const (
	// DefaultCacheMaxBody 限制进缓存的响应体大小，避免大相册清单撑爆 KV.
	DefaultCacheMaxBody = 1 << 20

	defaultCacheTTL = 30 * time.Second
)

// CacheConfig 响应缓存中间件配置.
// 主要服务匿名分享解析这类读多写少的接口，写路径应通过 Skipper 排除.
type CacheConfig struct {
	Cache *appcache.Cache // 必填，底层 KV 由 storage 层注入
	TTL   time.Duration   // 缓存有效期，<=0 时使用默认值

	Methods []string // 参与缓存的 HTTP 方法，默认 GET/HEAD

	KeyFunc func(*gin.Context) string // 缓存键生成，默认 method+路径+排序 query
	Skipper func(*gin.Context) bool   // 返回 true 时跳过缓存

	BypassHeader string // 请求携带该头（任意值）时强制回源，默认 X-Cache-Bypass
	MaxBodyBytes int    // 可进缓存的响应体上限，0 表示不限
}

// DefaultCacheConfig 返回适合分享解析接口的默认配置.
func DefaultCacheConfig(c *appcache.Cache) CacheConfig {
	return CacheConfig{
		Cache:        c,
		TTL:          defaultCacheTTL,
		Methods:      []string{http.MethodGet, http.MethodHead},
		BypassHeader: "X-Cache-Bypass",
		MaxBodyBytes: DefaultCacheMaxBody,
	}
}

// cachedResponse 是写入 KV 的序列化结构，字段名压缩以省空间.
type cachedResponse struct {
	Status   int               `json:"s"`
	Header   map[string]string `json:"h,omitempty"`
	Body     []byte            `json:"b,omitempty"`
	ETag     string            `json:"e,omitempty"`
	StoredAt int64             `json:"t"`
}

// CacheMiddleware 基于 KV 的 HTTP 响应缓存.
// 命中时带 X-Cache: HIT 与 Age 头，支持 If-None-Match 返回 304；
// 缓存读写失败只回源，不影响请求本身.
func CacheMiddleware(cfg CacheConfig) gin.HandlerFunc {
	if cfg.Cache == nil {
		panic("CacheMiddleware: Cache is required")
	}

	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}

	if len(cfg.Methods) == 0 {
		cfg.Methods = []string{http.MethodGet, http.MethodHead}
	}

	if cfg.KeyFunc == nil {
		cfg.KeyFunc = defaultCacheKey
	}

	if cfg.BypassHeader == "" {
		cfg.BypassHeader = "X-Cache-Bypass"
	}

	cacheable := make(map[string]struct{}, len(cfg.Methods))
	for _, m := range cfg.Methods {
		cacheable[strings.ToUpper(m)] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := cacheable[c.Request.Method]; !ok ||
			(cfg.Skipper != nil && cfg.Skipper(c)) ||
			c.GetHeader(cfg.BypassHeader) != "" {
			c.Next()
			return
		}

		key := cfg.KeyFunc(c)
		if replayCached(c, cfg.Cache, key) {
			return
		}

		tee := &cacheTeeWriter{ResponseWriter: c.Writer, limit: cfg.MaxBodyBytes}
		c.Writer = tee
		c.Next()

		storeResponse(c, cfg, key, tee)
	}
}

// defaultCacheKey 以方法、路由与排序后的 query 生成键，经 xxhash 压缩.
func defaultCacheKey(c *gin.Context) string {
	var b strings.Builder

	b.WriteString(c.Request.Method)
	b.WriteByte(' ')

	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}

	b.WriteString(path)

	if q := c.Request.URL.Query(); len(q) > 0 {
		names := make([]string, 0, len(q))
		for name := range q {
			names = append(names, name)
		}

		sort.Strings(names)

		for _, name := range names {
			b.WriteByte('&')
			b.WriteString(name)
			b.WriteByte('=')
			b.WriteString(strings.Join(q[name], ","))
		}
	}

	// 路径参数（别名/令牌）已含在 URL.Path 中，无需单独拼接
	b.WriteByte('\n')
	b.WriteString(c.Request.URL.Path)

	return fmt.Sprintf("pv:httpcache:%x", xxhash.Sum64String(b.String()))
}

// replayCached 命中时回放缓存响应并中断后续 handler，返回是否命中.
func replayCached(c *gin.Context, cache *appcache.Cache, key string) bool {
	entry, err := appcache.Get[cachedResponse](c.Request.Context(), cache, key)
	if err != nil {
		return false
	}

	h := c.Writer.Header()
	for k, v := range entry.Header {
		h.Set(k, v)
	}

	if entry.ETag != "" {
		h.Set("ETag", entry.ETag)
	}

	h.Set("Age", fmt.Sprintf("%.0f", time.Since(time.Unix(0, entry.StoredAt)).Seconds()))
	h.Set("X-Cache", "HIT")

	if entry.ETag != "" && c.GetHeader("If-None-Match") == entry.ETag {
		c.Status(http.StatusNotModified)
		c.Abort()

		return true
	}

	c.Status(entry.Status)

	if c.Request.Method != http.MethodHead {
		_, _ = c.Writer.Write(entry.Body)
	}

	c.Abort()

	return true
}

// storeResponse 将成功且未超限的响应异步写入缓存.
func storeResponse(c *gin.Context, cfg CacheConfig, key string, tee *cacheTeeWriter) {
	if c.Writer.Status() != http.StatusOK || tee.overflowed {
		return
	}

	body := tee.buf.Bytes()

	header := make(map[string]string, len(c.Writer.Header()))
	for k, v := range c.Writer.Header() {
		if len(v) > 0 {
			header[k] = v[0]
		}
	}

	etag := c.Writer.Header().Get("ETag")
	if etag == "" {
		etag = fmt.Sprintf("%q", fmt.Sprintf("%x", xxhash.Sum64(body)))
		c.Writer.Header().Set("ETag", etag)
		header["ETag"] = etag
	}

	c.Writer.Header().Set("X-Cache", "MISS")

	entry := cachedResponse{
		Status:   http.StatusOK,
		Header:   header,
		Body:     body,
		ETag:     etag,
		StoredAt: time.Now().UnixNano(),
	}

	// 写缓存不阻塞响应，失败下次回源即可
	go func(ctx context.Context) {
		_ = appcache.Set(ctx, cfg.Cache, key, entry, cfg.TTL)
	}(context.WithoutCancel(c.Request.Context()))
}

// cacheTeeWriter 在写出响应的同时抓一份副本，超过 limit 即放弃缓存.
type cacheTeeWriter struct {
	gin.ResponseWriter

	buf        bytes.Buffer
	limit      int
	overflowed bool
}

func (w *cacheTeeWriter) Write(b []byte) (int, error) {
	if !w.overflowed {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.overflowed = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}

	return w.ResponseWriter.Write(b)
}
