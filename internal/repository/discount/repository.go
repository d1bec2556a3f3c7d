package discount

import (
	"context"

	"storefront/internal/domain"
)

// Repository is the ledger of discount codes minted through the admin API.
type Repository interface {
	Create(ctx context.Context, d domain.IssuedDiscount) (*domain.IssuedDiscount, error)
	GetByCode(ctx context.Context, code string) (*domain.IssuedDiscount, error)
	ListRecent(ctx context.Context, limit int) ([]domain.IssuedDiscount, error)
}
