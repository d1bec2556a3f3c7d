// Package bootstrap resolves which cart a client session mirrors and primes
// the cart cache with it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/identity"
)

// Gateway is the subset of the remote cart API needed to resolve a cart id.
type Gateway interface {
	Create(ctx context.Context) (domain.Cart, error)
	Check(ctx context.Context, id string) (domain.CheckResult, error)
}

// Cache is the mirror being primed; *cart.Cache satisfies it.
type Cache interface {
	Load(ctx context.Context, id string) error
	ID() string
}

type Bootstrapper struct {
	gw     Gateway
	store  identity.Store
	cache  Cache
	logger zerolog.Logger
	group  singleflight.Group

	mu      sync.Mutex
	settled string
}

func New(gw Gateway, store identity.Store, cache Cache, logger zerolog.Logger) *Bootstrapper {
	return &Bootstrapper{
		gw:     gw,
		store:  store,
		cache:  cache,
		logger: logger.With().Str("component", "bootstrap").Logger(),
	}
}

// Run makes sure the persisted cart id names a live cart, creating and
// persisting a new one when it does not, and loads it into the cache.
// Concurrent calls share one execution. Once a run has succeeded, a later run
// for the same persisted id is a plain fetch.
func (b *Bootstrapper) Run(ctx context.Context) (string, error) {
	v, err, _ := b.group.Do("run", func() (any, error) {
		return b.run(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (b *Bootstrapper) run(ctx context.Context) (string, error) {
	id, err := b.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("bootstrap: read cart id: %w", err)
	}

	b.mu.Lock()
	settled := b.settled
	b.mu.Unlock()

	if id != "" && id != settled {
		res, err := b.gw.Check(ctx, id)
		if err != nil {
			return "", fmt.Errorf("bootstrap: check cart: %w", err)
		}
		if !res.Valid() {
			b.logger.Info().Str("cart_id", id).Msg("persisted cart is gone, creating a new one")
			id = ""
		}
	}

	for attempt := 0; ; attempt++ {
		if id == "" {
			if id, err = b.create(ctx); err != nil {
				return "", err
			}
		}
		loadErr := b.cache.Load(ctx, id)
		if loadErr == nil {
			break
		}
		if attempt > 0 || !errors.Is(loadErr, cart.ErrCartGone) {
			return "", fmt.Errorf("bootstrap: load cart: %w", loadErr)
		}
		b.logger.Info().Str("cart_id", id).Msg("cart vanished before it could be loaded")
		id = ""
	}

	b.mu.Lock()
	b.settled = id
	b.mu.Unlock()
	return id, nil
}

func (b *Bootstrapper) create(ctx context.Context) (string, error) {
	created, err := b.gw.Create(ctx)
	if err != nil {
		return "", fmt.Errorf("bootstrap: create cart: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("bootstrap: create cart: no id returned: %w", domain.ErrUnavailable)
	}
	if err := b.store.Set(ctx, created.ID); err != nil {
		return "", fmt.Errorf("bootstrap: persist cart id: %w", err)
	}
	b.logger.Info().Str("cart_id", created.ID).Msg("cart created")
	return created.ID, nil
}

// Follow keeps the cache on whichever cart the identity store names, so a
// cart created or switched in another session sharing the store is picked up
// here. Changes seen before the first successful Run are ignored. The
// returned func stops following.
func (b *Bootstrapper) Follow(ctx context.Context) (stop func()) {
	return b.store.Subscribe(func(id string) {
		b.mu.Lock()
		settled := b.settled
		b.mu.Unlock()
		if settled == "" || id == "" || id == b.cache.ID() {
			return
		}
		if err := b.cache.Load(ctx, id); err != nil {
			b.logger.Warn().Err(err).Str("cart_id", id).Msg("following cart id change")
			return
		}
		b.mu.Lock()
		b.settled = id
		b.mu.Unlock()
		b.logger.Info().Str("cart_id", id).Msg("switched to cart from another session")
	})
}
