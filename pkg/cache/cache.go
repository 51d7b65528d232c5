// Package cache 在 KV 存储之上提供类型安全的泛型缓存.
//
// 值经 sonic 序列化为 JSON 存入底层 KV（Redis、NATS KV、Groupcache
// 或内存实现），支持 TTL.典型用法是缓存分享解析结果或 HTTP 响应：
//
//	c := cache.NewCache(kvStore)
//
//	// 写入，30 秒过期
//	err := cache.Set(ctx, c, "pv:share:sunset-wedding", info, 30*time.Second)
//
//	// 读取
//	info, err := cache.Get[ShareInfo](ctx, c, "pv:share:sunset-wedding")
//
//	// 未命中时回源并回填
//	info, err := cache.GetOrSet(ctx, c, key, func() (ShareInfo, error) {
//	    return loadFromDB(ctx, key)
//	}, time.Minute)
//
// 缓存未命中按底层 KV 的错误返回，调用方据此回源；
// 并发安全性取决于底层 KV 实现.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"

	"github.com/yeisme/photovault/pkg/internal/storage/kv"
)

// PathKey 以 HTTP 方法与请求路径推导响应缓存键，忽略 query.
// 响应缓存中间件与业务层使用同一推导，业务层据此可精确失效单条响应.
func PathKey(method, rawPath string) string {
	return fmt.Sprintf("pv:httpcache:%x", xxhash.Sum64String(method+" "+rawPath))
}

// Cache 绑定一个 KV 存储实例.
type Cache struct {
	store kv.KVStore
}

// NewCache 创建缓存实例.
func NewCache(store kv.KVStore) *Cache {
	return &Cache{store: store}
}

// Get 读取并反序列化缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var value T

	data, err := c.store.Get(ctx, key)
	if err != nil {
		return value, err
	}

	if err := sonic.Unmarshal(data, &value); err != nil {
		var zero T
		return zero, fmt.Errorf("unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 序列化并写入缓存值，ttl 为 0 表示不过期.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	return c.store.Set(ctx, key, data, ttl)
}

// GetOrSet 读取缓存，未命中时调用 getter 回源并回填.
// 回填失败不报错，值照常返回.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	value, err := getter()
	if err != nil {
		var zero T
		return zero, err
	}

	_ = Set(ctx, c, key, value, ttl)

	return value, nil
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// Exists 判断缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.store.Exists(ctx, key)
}

// Clear 枚举并删除全部键，底层不支持枚举时报错.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.store.Keys(ctx, "*")
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := c.store.Delete(ctx, key); err != nil {
			return err
		}
	}

	return nil
}
