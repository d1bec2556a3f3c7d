package httpserver

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"storefront/internal/domain"
	cartservice "storefront/internal/service/cart"
)

type CartService interface {
	Execute(ctx context.Context, op cartservice.Operation, in cartservice.Request) (any, error)
}

type DiscountMinter interface {
	Mint(ctx context.Context, sealed string) (string, error)
}

type CatalogService interface {
	List(ctx context.Context, query string) ([]domain.Product, error)
	GetByHandle(ctx context.Context, handle string) (domain.Product, error)
	GetByID(ctx context.Context, id string) (domain.Product, error)
	Collection(ctx context.Context, handle string) ([]domain.Product, error)
}

// Deps are the services behind the routes. Discounts and Catalog are
// optional; their routes are not mounted when nil.
type Deps struct {
	Cart        CartService
	Discounts   DiscountMinter
	Catalog     CatalogService
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, db Pinger, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	// Sealed discount tokens are base64 and may contain an escaped "/".
	router.UseRawPath = true
	router.UnescapePathValues = true
	router.Use(requestLogger(logger), recoverer(logger))
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  deps.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
			ExposeHeaders: []string{"Content-Length", requestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/api")
	api.GET("/cart/create", createCartHandler(deps.Cart))
	api.POST("/cart/:op", cartHandler(deps.Cart))
	if deps.Discounts != nil {
		api.GET("/discount/:token", discountHandler(deps.Discounts))
	}
	if deps.Catalog != nil {
		api.GET("/products", listProductsHandler(deps.Catalog))
		api.GET("/products/:handle", productHandler(deps.Catalog))
	}

	return router
}
