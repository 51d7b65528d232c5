package kv

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// memoryKV 进程内 KV，开发与单测默认后端.
// 带惰性 TTL：读取时发现过期即删除.
type memoryKV struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // 零值表示不过期
}

func init() {
	RegisterKVFactory(KVTypeMemory, newMemoryKV)
}

func newMemoryKV(_ context.Context, _ any) (KVStore, error) {
	return &memoryKV{data: make(map[string]memoryEntry)}, nil
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.data[key]
	m.mu.RUnlock()

	if !ok || m.expire(key, entry) {
		return nil, fmt.Errorf("key not found: %s", key)
	}

	out := make([]byte, len(entry.value))
	copy(out, entry.value)

	return out, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)

	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.data[key] = entry
	m.mu.Unlock()

	return nil
}

func (m *memoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()

	return nil
}

func (m *memoryKV) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	entry, ok := m.data[key]
	m.mu.RUnlock()

	if !ok || m.expire(key, entry) {
		return false, nil
	}

	return true, nil
}

// Keys 返回全部未过期的键；pattern 非空且非 * 时只做精确匹配.
func (m *memoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.RLock()

	keys := make([]string, 0, len(m.data))
	expired := make([]string, 0)
	now := time.Now()

	for key, entry := range m.data {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			expired = append(expired, key)
			continue
		}

		if pattern == "" || pattern == "*" || key == pattern {
			keys = append(keys, key)
		}
	}

	m.mu.RUnlock()

	if len(expired) > 0 {
		m.mu.Lock()
		for _, key := range expired {
			delete(m.data, key)
		}
		m.mu.Unlock()
	}

	return keys, nil
}

func (m *memoryKV) Close() error {
	return nil
}

// expire 判断条目是否过期，过期则顺手删除.
func (m *memoryKV) expire(key string, entry memoryEntry) bool {
	if entry.expiresAt.IsZero() || time.Now().Before(entry.expiresAt) {
		return false
	}

	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()

	return true
}
