package kv_test

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/internal/storage/kv"
)

func newMemory(t testing.TB) kv.KVStore {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestMemoryKVRoundTrip(t *testing.T) {
	store := newMemory(t)
	ctx := context.Background()

	if err := store.Set(ctx, "pv-share-abc", []byte("payload"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, "pv-share-abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if string(got) != "payload" {
		t.Errorf("got %q", got)
	}

	// 返回的是副本，改写不应影响存储
	got[0] = 'X'

	again, err := store.Get(ctx, "pv-share-abc")
	if err != nil || string(again) != "payload" {
		t.Fatalf("get after mutation = %q, %v", again, err)
	}

	if err := store.Delete(ctx, "pv-share-abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if ok, _ := store.Exists(ctx, "pv-share-abc"); ok {
		t.Error("key should be gone")
	}
}

func TestMemoryKVTTLExpiry(t *testing.T) {
	store := newMemory(t)
	ctx := context.Background()

	if err := store.Set(ctx, "pv-ttl", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, err := store.Get(ctx, "pv-ttl"); err != nil {
		t.Fatalf("get before expiry: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, err := store.Get(ctx, "pv-ttl"); err == nil {
		t.Error("expected miss after ttl elapsed")
	}

	if ok, _ := store.Exists(ctx, "pv-ttl"); ok {
		t.Error("expired key should not exist")
	}
}

func TestMemoryKVKeys(t *testing.T) {
	store := newMemory(t)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if err := store.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	keys, err := store.Keys(ctx, "*")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}

	if len(keys) != 3 {
		t.Errorf("keys = %v, want 3 entries", keys)
	}

	exact, err := store.Keys(ctx, "b")
	if err != nil || len(exact) != 1 || exact[0] != "b" {
		t.Errorf("exact match = %v, %v", exact, err)
	}
}

func BenchmarkMemoryKV(b *testing.B) {
	store := newMemory(b)
	benchKV(b, "memory", store)
	benchKVParallel(b, "memory", store)
}

func BenchmarkGroupcacheKV(b *testing.B) {
	cfg := &configs.GroupcacheKVConfig{
		Name:       "bench-groupcache",
		CacheBytes: 32 * 1024 * 1024,
		Peers:      []string{},
		Self:       "http://127.0.0.1:0",
	}

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeGroupcache, cfg)
	if err != nil {
		b.Fatalf("create groupcache kv: %v", err)
	}

	benchKV(b, "groupcache", store)
	benchKVParallel(b, "groupcache", store)
	_ = store.Close()
}

// 需要真实 Redis：ENABLE_REDIS_BENCH=1，地址取 REDIS_ADDR（默认本机）.
func BenchmarkRedisKV(b *testing.B) {
	if os.Getenv("ENABLE_REDIS_BENCH") == "" {
		b.Skip("set ENABLE_REDIS_BENCH=1 to enable")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeRedis, &configs.RedisKVConfig{Addr: addr})
	if err != nil {
		b.Skipf("redis not available: %v", err)
		return
	}

	benchKV(b, "redis", store)
	benchKVParallel(b, "redis", store)
	_ = store.Close()
}

// 需要真实 NATS：ENABLE_NATS_BENCH=1，地址取 NATS_URL（默认本机）.
func BenchmarkNATSKV(b *testing.B) {
	if os.Getenv("ENABLE_NATS_BENCH") == "" {
		b.Skip("set ENABLE_NATS_BENCH=1 to enable")
	}

	url := os.Getenv("NATS_URL")
	if url == "" {
		url = "nats://127.0.0.1:4222"
	}

	bucket := os.Getenv("NATS_BUCKET")
	if bucket == "" {
		bucket = "bench-kv"
	}

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeNATS, &configs.NATSKVConfig{URL: url, Bucket: bucket})
	if err != nil {
		b.Skipf("nats not available: %v", err)
		return
	}

	benchKV(b, "nats", store)
	benchKVParallel(b, "nats", store)
	_ = store.Close()
}

func randBytes(tb testing.TB, n int) []byte {
	tb.Helper()

	buf := make([]byte, n)
	if _, err := crand.Read(buf); err != nil {
		tb.Fatalf("rand: %v", err)
	}

	return buf
}

func benchKV(b *testing.B, name string, store kv.KVStore) {
	ctx := context.Background()
	sizes := []int{32, 1024, 64 * 1024}
	ttls := []time.Duration{0, 5 * time.Second}

	for _, size := range sizes {
		payload := randBytes(b, size)
		for _, ttl := range ttls {
			b.Run(fmt.Sprintf("%s/size=%d/ttl=%s", name, size, ttl), func(b *testing.B) {
				b.ReportAllocs()

				for i := 0; b.Loop(); i++ {
					// 连字符键对 NATS KV 也合法
					key := fmt.Sprintf("bench-%s-%d", name, i)
					if err := store.Set(ctx, key, payload, ttl); err != nil {
						b.Fatalf("set: %v", err)
					}

					if _, err := store.Get(ctx, key); err != nil {
						b.Fatalf("get: %v", err)
					}

					if err := store.Delete(ctx, key); err != nil {
						b.Fatalf("delete: %v", err)
					}
				}
			})
		}
	}
}

func benchKVParallel(b *testing.B, name string, store kv.KVStore) {
	ctx := context.Background()
	payload := randBytes(b, 1024)

	var ctr uint64

	b.Run(name+"/parallel", func(b *testing.B) {
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				i := atomic.AddUint64(&ctr, 1)

				key := fmt.Sprintf("bench-%s-p-%d", name, i)
				if err := store.Set(ctx, key, payload, 0); err != nil {
					b.Fatalf("set: %v", err)
				}

				if _, err := store.Get(ctx, key); err != nil {
					b.Fatalf("get: %v", err)
				}

				if err := store.Delete(ctx, key); err != nil {
					b.Fatalf("delete: %v", err)
				}
			}
		})
	})
}
