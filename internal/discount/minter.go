package discount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/shopify"
)

const (
	codePrefix    = "Store"
	codeLength    = 12
	discountTitle = "Store win game discount"
	discountDays  = 30
)

var discountPercentage = decimal.RequireFromString("0.1")

// Issuer creates code discounts in the commerce backend.
type Issuer interface {
	CreateBasicDiscount(ctx context.Context, in shopify.BasicDiscountInput) (shopify.CreatedDiscount, error)
}

// Ledger records minted codes.
type Ledger interface {
	Create(ctx context.Context, d domain.IssuedDiscount) (*domain.IssuedDiscount, error)
}

// Minter exchanges a sealed token for a fresh single-use discount code.
type Minter struct {
	gate   *Gate
	issuer Issuer
	ledger Ledger
	logger zerolog.Logger
	now    func() time.Time
}

// NewMinter builds a Minter. ledger may be nil when no database is configured.
func NewMinter(gate *Gate, issuer Issuer, ledger Ledger, logger zerolog.Logger) *Minter {
	return &Minter{
		gate:   gate,
		issuer: issuer,
		ledger: ledger,
		logger: logger.With().Str("component", "discount").Logger(),
		now:    time.Now,
	}
}

// Mint verifies sealed and, only if it passes, issues a 10% discount valid
// for 30 days, usable once and once per customer.
func (m *Minter) Mint(ctx context.Context, sealed string) (string, error) {
	if _, err := m.gate.Verify(sealed); err != nil {
		m.logger.Warn().Err(err).Msg("discount token rejected")
		return "", err
	}

	now := m.now().UTC()
	in := shopify.BasicDiscountInput{
		Title:                  discountTitle,
		Code:                   Code(now),
		StartsAt:               now,
		EndsAt:                 now.AddDate(0, 0, discountDays),
		UsageLimit:             1,
		AppliesOncePerCustomer: true,
		Percentage:             discountPercentage,
	}
	created, err := m.issuer.CreateBasicDiscount(ctx, in)
	if err != nil {
		return "", fmt.Errorf("discount: issue %s: %w", in.Code, err)
	}

	if m.ledger != nil {
		_, err := m.ledger.Create(ctx, domain.IssuedDiscount{
			Code:       in.Code,
			Title:      in.Title,
			Percentage: in.Percentage,
			UsageLimit: in.UsageLimit,
			StartsAt:   created.StartsAt,
			EndsAt:     created.EndsAt,
			BackendID:  created.ID,
		})
		if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			m.logger.Error().Err(err).Str("code", in.Code).Msg("recording issued discount")
		}
	}
	return in.Code, nil
}

// Code renders the discount code for t: the prefix followed by the low-order
// digits of the millisecond clock, twelve characters in all.
func Code(t time.Time) string {
	digits := codeLength - len(codePrefix)
	mod := int64(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%s%0*d", codePrefix, digits, t.UnixMilli()%mod)
}
