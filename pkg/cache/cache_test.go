package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/photovault/pkg/cache"
)

// shareEntry 模拟分享解析结果这类被缓存的业务值.
type shareEntry struct {
	LinkID    string `json:"link_id"`
	GalleryID uint   `json:"gallery_id"`
	Alias     string `json:"alias,omitempty"`
}

// memStore 纯内存 KVStore，供单测注入.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}

	return nil, errors.New("key not found")
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *memStore) Keys(_ context.Context, _ string) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}

	return keys, nil
}

func (m *memStore) Close() error { return nil }

func TestSetGetRoundTrip(t *testing.T) {
	store := newMemStore()
	c := cache.NewCache(store)
	ctx := context.Background()

	if _, err := cache.Get[shareEntry](ctx, c, "pv:share:missing"); err == nil {
		t.Error("expected error for missing key")
	}

	want := shareEntry{LinkID: "sl_01HZX", GalleryID: 7, Alias: "sunset-wedding"}
	if err := cache.Set(ctx, c, "pv:share:sunset-wedding", want, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := cache.Get[shareEntry](ctx, c, "pv:share:sunset-wedding")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got != want {
		t.Errorf("got %+v want %+v", got, want)
	}
}

func TestDeleteAndExists(t *testing.T) {
	store := newMemStore()
	c := cache.NewCache(store)
	ctx := context.Background()

	if err := cache.Set(ctx, c, "pv:share:tok123", shareEntry{LinkID: "sl_A"}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	if ok, err := c.Exists(ctx, "pv:share:tok123"); err != nil || !ok {
		t.Fatalf("exists before delete = %v, %v", ok, err)
	}

	if err := c.Delete(ctx, "pv:share:tok123"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if ok, _ := c.Exists(ctx, "pv:share:tok123"); ok {
		t.Error("key should be gone after delete")
	}
}

func TestGetOrSetBackfills(t *testing.T) {
	store := newMemStore()
	c := cache.NewCache(store)
	ctx := context.Background()

	calls := 0
	loader := func() (shareEntry, error) {
		calls++
		return shareEntry{LinkID: "sl_B", GalleryID: 3}, nil
	}

	first, err := cache.GetOrSet(ctx, c, "pv:share:alias-x", loader, time.Minute)
	if err != nil {
		t.Fatalf("first GetOrSet: %v", err)
	}

	second, err := cache.GetOrSet(ctx, c, "pv:share:alias-x", loader, time.Minute)
	if err != nil {
		t.Fatalf("second GetOrSet: %v", err)
	}

	if calls != 1 {
		t.Errorf("loader calls = %d, want 1", calls)
	}

	if first != second {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestGetOrSetLoaderError(t *testing.T) {
	c := cache.NewCache(newMemStore())

	wantErr := errors.New("db unavailable")

	_, err := cache.GetOrSet(context.Background(), c, "pv:share:bad", func() (shareEntry, error) {
		return shareEntry{}, wantErr
	}, 0)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestClearRemovesAllKeys(t *testing.T) {
	store := newMemStore()
	c := cache.NewCache(store)
	ctx := context.Background()

	for _, alias := range []string{"spring-mini", "smith-family", "corp-headshots"} {
		if err := cache.Set(ctx, c, "pv:share:"+alias, shareEntry{Alias: alias}, 0); err != nil {
			t.Fatalf("set %s: %v", alias, err)
		}
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if len(store.data) != 0 {
		t.Errorf("store still holds %d keys after clear", len(store.data))
	}
}

func TestScalarAndSliceValues(t *testing.T) {
	c := cache.NewCache(newMemStore())
	ctx := context.Background()

	if err := cache.Set(ctx, c, "pv:count", 42, 0); err != nil {
		t.Fatalf("set int: %v", err)
	}

	n, err := cache.Get[int](ctx, c, "pv:count")
	if err != nil || n != 42 {
		t.Fatalf("get int = %d, %v", n, err)
	}

	aliases := []string{"wedding", "portrait", "event"}
	if err := cache.Set(ctx, c, "pv:aliases", aliases, 0); err != nil {
		t.Fatalf("set slice: %v", err)
	}

	got, err := cache.Get[[]string](ctx, c, "pv:aliases")
	if err != nil {
		t.Fatalf("get slice: %v", err)
	}

	if len(got) != len(aliases) {
		t.Fatalf("slice length = %d, want %d", len(got), len(aliases))
	}

	for i := range aliases {
		if got[i] != aliases[i] {
			t.Errorf("slice[%d] = %q, want %q", i, got[i], aliases[i])
		}
	}
}
