package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/discount"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	discountrepo "storefront/internal/repository/discount"
	cartsvc "storefront/internal/service/cart"
	productsvc "storefront/internal/service/product"
	"storefront/internal/shopify"
)

func main() {
	cfg := config.Load()
	logger := logging.New("api", cfg.LogLevel)

	ctx := context.Background()

	shop, err := shopify.New(shopify.Config{
		Domain:          cfg.ShopifyDomain,
		APIVersion:      cfg.ShopifyAPIVersion,
		StorefrontToken: cfg.ShopifyStorefrontToken,
		AdminToken:      cfg.ShopifyAdminToken,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init shopify client")
	}

	// The discount ledger is optional; the cart routes do not need a database.
	var (
		dbpool *pgxpool.Pool
		ledger discount.Ledger
	)
	dbpool, err = db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("database unavailable, issued discounts will not be recorded")
		dbpool = nil
	} else {
		defer dbpool.Close()
		ledger = discountrepo.NewPostgres(dbpool, logger)
	}

	var catalogCache productsvc.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer rdb.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, catalog cache disabled")
	} else {
		catalogCache = productsvc.NewRedisCache(rdb, "storefront:catalog:")
	}
	cancel()

	gate := discount.NewGate(discount.NewSealer(cfg.DiscountSecret), cfg.DiscountToken, cfg.DiscountMaxAge)
	deps := httpserver.Deps{
		Cart:        cartsvc.New(shop),
		Discounts:   discount.NewMinter(gate, shop, ledger, logger),
		Catalog:     productsvc.New(shop, catalogCache, cfg.CatalogCacheTTL, logger),
		CORSOrigins: cfg.CORSOrigins,
	}

	var pinger httpserver.Pinger
	if dbpool != nil {
		pinger = dbpool
	}
	srv, err := httpserver.New(cfg.HTTPAddr, logger, pinger, deps)
	if err != nil {
		logger.Fatal().Err(err).Msg("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server error")
	}

	ctx, cancel = context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		logger.Info().Msg("server stopped")
	}
}
