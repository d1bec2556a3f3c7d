package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/internal/domain"
)

// Catalog is the commerce backend's product API; *shopify.Client satisfies it.
type Catalog interface {
	Products(ctx context.Context, query string) ([]domain.Product, error)
	ProductByHandle(ctx context.Context, handle string) (domain.Product, error)
	ProductByID(ctx context.Context, id string) (domain.Product, error)
	CollectionByHandle(ctx context.Context, handle string) ([]domain.Product, error)
}

// Cache stores encoded catalog responses. A miss is reported as ErrCacheMiss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

var ErrCacheMiss = errors.New("catalog cache miss")

// Service reads the catalog through a cache-aside layer. Cache failures are
// logged and never fail a request.
type Service struct {
	catalog Catalog
	cache   Cache
	ttl     time.Duration
	logger  zerolog.Logger
}

// New builds a Service. cache may be nil to always hit the backend.
func New(catalog Catalog, cache Cache, ttl time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		catalog: catalog,
		cache:   cache,
		ttl:     ttl,
		logger:  logger.With().Str("component", "catalog").Logger(),
	}
}

func (s *Service) List(ctx context.Context, query string) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	return cached(ctx, s, "products:list:"+query, func(ctx context.Context) ([]domain.Product, error) {
		return s.catalog.Products(ctx, query)
	})
}

func (s *Service) GetByHandle(ctx context.Context, handle string) (domain.Product, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return domain.Product{}, fmt.Errorf("handle required: %w", domain.ErrInvalidInput)
	}
	return cached(ctx, s, "products:handle:"+handle, func(ctx context.Context) (domain.Product, error) {
		return s.catalog.ProductByHandle(ctx, handle)
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, fmt.Errorf("id required: %w", domain.ErrInvalidInput)
	}
	return cached(ctx, s, "products:id:"+id, func(ctx context.Context) (domain.Product, error) {
		return s.catalog.ProductByID(ctx, id)
	})
}

func (s *Service) Collection(ctx context.Context, handle string) ([]domain.Product, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("collection handle required: %w", domain.ErrInvalidInput)
	}
	return cached(ctx, s, "collections:"+handle, func(ctx context.Context) ([]domain.Product, error) {
		return s.catalog.CollectionByHandle(ctx, handle)
	})
}

func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var out T
			if err := json.Unmarshal(raw, &out); err == nil {
				return out, nil
			}
			s.logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
		case !errors.Is(err, ErrCacheMiss):
			s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
		}
	}

	out, err := load(ctx)
	if err != nil {
		return out, err
	}

	if s.cache != nil {
		raw, err := json.Marshal(out)
		if err == nil {
			err = s.cache.Set(ctx, key, raw, s.ttl)
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
		}
	}
	return out, nil
}

// RedisCache is a Cache backed by Redis string keys under a prefix.
type RedisCache struct {
	client redis.Cmdable
	prefix string
}

func NewRedisCache(client redis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
