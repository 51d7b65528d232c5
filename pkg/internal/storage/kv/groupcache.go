package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/photovault/pkg/configs"
)

// groupcacheKV 以 groupcache 读路径 + 本地写表实现 KVStore.
// 读请求经缓存组（可跨节点分摊热 key），写入只落本地表；
// groupcache 不支持主动失效，Delete 只影响本地，TTL 被忽略.
type groupcacheKV struct {
	group *groupcache.Group
	peers *groupcache.HTTPPool

	mu   sync.RWMutex
	data map[string][]byte
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, newGroupcacheKV)
}

func newGroupcacheKV(_ context.Context, config any) (KVStore, error) {
	cfg, ok := config.(*configs.GroupcacheKVConfig)
	if !ok {
		return nil, fmt.Errorf("invalid groupcache config")
	}

	g := &groupcacheKV{data: make(map[string][]byte)}

	g.group = groupcache.NewGroup(cfg.Name, cfg.CacheBytes, groupcache.GetterFunc(
		func(_ context.Context, key string, dest groupcache.Sink) error {
			g.mu.RLock()
			value, ok := g.data[key]
			g.mu.RUnlock()

			if !ok {
				return fmt.Errorf("key not found: %s", key)
			}

			return dest.SetBytes(value)
		}))

	if len(cfg.Peers) > 0 {
		g.peers = groupcache.NewHTTPPoolOpts(cfg.Self, &groupcache.HTTPPoolOptions{})
		g.peers.Set(cfg.Peers...)
	}

	return g, nil
}

func (g *groupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	if err := g.group.Get(ctx, key, groupcache.AllocatingByteSliceSink(&data)); err != nil {
		return nil, fmt.Errorf("get key: %w", err)
	}

	out := make([]byte, len(data))
	copy(out, data)

	return out, nil
}

func (g *groupcacheKV) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.data[key] = make([]byte, len(value))
	copy(g.data[key], value)

	return nil
}

func (g *groupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.data, key)

	return nil
}

func (g *groupcacheKV) Exists(_ context.Context, key string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.data[key]

	return ok, nil
}

func (g *groupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.data))

	for key := range g.data {
		if pattern == "" || pattern == "*" || key == pattern {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

func (g *groupcacheKV) Close() error {
	return nil
}
