package cli

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/internal/apiclient"
	"storefront/internal/bootstrap"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/discount"
	"storefront/internal/domain"
	"storefront/internal/identity"
	"storefront/internal/logging"
)

// Remote is everything the session asks of the storefront API;
// *apiclient.Client satisfies it.
type Remote interface {
	cart.Gateway
	bootstrap.Gateway
	discount.API
	Products(ctx context.Context, query string) ([]domain.Product, error)
	ProductByHandle(ctx context.Context, handle string) (domain.Product, error)
	ProductByID(ctx context.Context, id string) (domain.Product, error)
}

type session struct {
	remote   Remote
	store    identity.Store
	cache    *cart.Cache
	boot     *bootstrap.Bootstrapper
	acquirer *discount.Acquirer
	logger   zerolog.Logger
	closers  []func() error
}

func newSession(remote Remote, store identity.Store, cfg config.Config, logger zerolog.Logger) *session {
	cache := cart.New(remote, logger)
	return &session{
		remote:   remote,
		store:    store,
		cache:    cache,
		boot:     bootstrap.New(remote, store, cache, logger),
		acquirer: discount.NewAcquirer(remote, cache, discount.NewSealer(cfg.DiscountSecret), cfg.DiscountToken),
		logger:   logger,
	}
}

// connect builds a session against the configured API and identity store.
// An unreachable Redis degrades to no persistence.
func connect(opts *RootOptions) (*session, error) {
	cfg := config.Load()
	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	logger := logging.NewConsole("cartctl", level)

	base := opts.APIURL
	if base == "" {
		base = cfg.APIBaseURL
	}
	remote, err := apiclient.New(base, nil)
	if err != nil {
		return nil, err
	}

	var (
		store   identity.Store
		closers []func() error
	)
	switch opts.Store {
	case "memory":
		store = identity.NewMemory("")
	case "none":
		store = identity.Nop{}
	default:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		r, err := identity.NewRedis(ctx, rdb, cfg.CartStorageKey, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("cart id storage unavailable, a new cart will be created")
			_ = rdb.Close()
			store = identity.Nop{}
		} else {
			store = r
			closers = append(closers, rdb.Close)
		}
	}

	s := newSession(remote, store, cfg, logger)
	s.closers = closers
	return s, nil
}

func (s *session) Close() error {
	s.cache.Close()
	errs := []error{s.store.Close()}
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
