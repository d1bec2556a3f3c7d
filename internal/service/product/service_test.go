package product

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type stubCatalog struct {
	products []domain.Product
	product  domain.Product
	err      error
	calls    int
	lastArg  string
}

func (s *stubCatalog) Products(_ context.Context, query string) ([]domain.Product, error) {
	s.calls++
	s.lastArg = query
	return s.products, s.err
}

func (s *stubCatalog) ProductByHandle(_ context.Context, handle string) (domain.Product, error) {
	s.calls++
	s.lastArg = handle
	return s.product, s.err
}

func (s *stubCatalog) ProductByID(_ context.Context, id string) (domain.Product, error) {
	s.calls++
	s.lastArg = id
	return s.product, s.err
}

func (s *stubCatalog) CollectionByHandle(_ context.Context, handle string) ([]domain.Product, error) {
	s.calls++
	s.lastArg = handle
	return s.products, s.err
}

type memoryCache struct {
	mu     sync.Mutex
	values map[string][]byte
	getErr error
	setErr error
	sets   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func shirt() domain.Product {
	return domain.Product{
		ID:    "gid://shopify/Product/1",
		Name:  "Shirt",
		Price: decimal.NewFromInt(25),
		Slug:  "shirt",
		Variants: []domain.ProductVariant{
			{ID: "gid://shopify/ProductVariant/1", Price: decimal.NewFromInt(25), AvailableQuantity: 4, Size: "M"},
		},
	}
}

func TestGetByHandleCachesResult(t *testing.T) {
	catalog := &stubCatalog{product: shirt()}
	cache := newMemoryCache()
	svc := New(catalog, cache, time.Minute, zerolog.Nop())

	for i := 0; i < 3; i++ {
		got, err := svc.GetByHandle(context.Background(), " shirt ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != "gid://shopify/Product/1" || !got.Price.Equal(decimal.NewFromInt(25)) || got.Variants[0].Size != "M" {
			t.Fatalf("unexpected product %+v", got)
		}
	}
	if catalog.calls != 1 {
		t.Fatalf("expected one backend call, got %d", catalog.calls)
	}
	if catalog.lastArg != "shirt" {
		t.Fatalf("handle not trimmed: %q", catalog.lastArg)
	}
}

func TestCacheFailuresFallThrough(t *testing.T) {
	catalog := &stubCatalog{products: []domain.Product{shirt()}}
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	svc := New(catalog, cache, time.Minute, zerolog.Nop())

	got, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("cache failure leaked: %v", err)
	}
	if len(got) != 1 || catalog.calls != 1 || cache.sets != 1 {
		t.Fatalf("unexpected result %d products, %d calls, %d sets", len(got), catalog.calls, cache.sets)
	}
}

func TestUndecodableEntryIsReplaced(t *testing.T) {
	catalog := &stubCatalog{product: shirt()}
	cache := newMemoryCache()
	cache.values["products:id:p1"] = []byte("{not json")
	svc := New(catalog, cache, time.Minute, zerolog.Nop())

	if _, err := svc.GetByID(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if catalog.calls != 1 {
		t.Fatalf("expected backend call, got %d", catalog.calls)
	}
	if string(cache.values["products:id:p1"]) == "{not json" {
		t.Fatalf("bad entry was not replaced")
	}
}

func TestBackendErrorsAreNotCached(t *testing.T) {
	catalog := &stubCatalog{err: domain.ErrNotFound}
	cache := newMemoryCache()
	svc := New(catalog, cache, time.Minute, zerolog.Nop())

	if _, err := svc.GetByHandle(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if cache.sets != 0 {
		t.Fatalf("error result was cached")
	}
}

func TestBlankLookupsAreInvalid(t *testing.T) {
	catalog := &stubCatalog{}
	svc := New(catalog, nil, time.Minute, zerolog.Nop())

	if _, err := svc.GetByHandle(context.Background(), " "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := svc.Collection(context.Background(), ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if catalog.calls != 0 {
		t.Fatalf("backend called for blank lookup")
	}
}

func TestWithoutCacheAlwaysHitsBackend(t *testing.T) {
	catalog := &stubCatalog{products: []domain.Product{shirt()}}
	svc := New(catalog, nil, time.Minute, zerolog.Nop())
	for i := 0; i < 2; i++ {
		if _, err := svc.Collection(context.Background(), "summer"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if catalog.calls != 2 {
		t.Fatalf("expected two backend calls, got %d", catalog.calls)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	prefix := "catalog-test:" + time.Now().Format("150405.000000") + ":"
	cache := NewRedisCache(client, prefix)
	t.Cleanup(func() { client.Del(ctx, prefix+"k") })

	if _, err := cache.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := cache.Set(ctx, "k", []byte(`{"id":"1"}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := cache.Get(ctx, "k")
	if err != nil || string(got) != `{"id":"1"}` {
		t.Fatalf("unexpected get %q %v", got, err)
	}
	if ttl := client.TTL(ctx, prefix+"k").Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %s", ttl)
	}
}
