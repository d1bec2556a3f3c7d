package shopify

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// BasicDiscountInput describes a code discount applied to every item for
// every customer.
type BasicDiscountInput struct {
	Title                  string
	Code                   string
	StartsAt               time.Time
	EndsAt                 time.Time
	UsageLimit             int
	AppliesOncePerCustomer bool
	Percentage             decimal.Decimal
}

// CreatedDiscount is the backend's record of a minted discount.
type CreatedDiscount struct {
	ID       string
	StartsAt time.Time
	EndsAt   time.Time
}

// CreateBasicDiscount issues discountCodeBasicCreate through the admin API.
func (c *Client) CreateBasicDiscount(ctx context.Context, in BasicDiscountInput) (CreatedDiscount, error) {
	if in.Code == "" {
		return CreatedDiscount{}, fmt.Errorf("discount code: %w", domain.ErrInvalidInput)
	}
	vars := map[string]any{
		"basicCodeDiscount": map[string]any{
			"title":                  in.Title,
			"code":                   in.Code,
			"startsAt":               in.StartsAt.UTC().Format(time.DateOnly),
			"endsAt":                 in.EndsAt.UTC().Format(time.DateOnly),
			"usageLimit":             in.UsageLimit,
			"appliesOncePerCustomer": in.AppliesOncePerCustomer,
			"customerSelection":      map[string]any{"all": true},
			"customerGets": map[string]any{
				"value": map[string]any{"percentage": in.Percentage.InexactFloat64()},
				"items": map[string]any{"all": true},
			},
		},
	}

	var data struct {
		Create struct {
			Node *struct {
				ID           string `json:"id"`
				CodeDiscount struct {
					StartsAt *time.Time `json:"startsAt"`
					EndsAt   *time.Time `json:"endsAt"`
				} `json:"codeDiscount"`
			} `json:"codeDiscountNode"`
			UserErrors []FieldError `json:"userErrors"`
		} `json:"discountCodeBasicCreate"`
	}
	if err := c.admin(ctx, "discountCodeBasicCreate", discountCodeBasicCreateMutation, vars, &data); err != nil {
		return CreatedDiscount{}, err
	}
	if err := userErrors("discountCodeBasicCreate", data.Create.UserErrors, c.logger); err != nil {
		return CreatedDiscount{}, err
	}
	node := data.Create.Node
	if node == nil {
		return CreatedDiscount{}, fmt.Errorf("shopify discountCodeBasicCreate: no discount returned: %w", domain.ErrUnavailable)
	}

	out := CreatedDiscount{ID: node.ID, StartsAt: in.StartsAt, EndsAt: in.EndsAt}
	if node.CodeDiscount.StartsAt != nil {
		out.StartsAt = *node.CodeDiscount.StartsAt
	}
	if node.CodeDiscount.EndsAt != nil {
		out.EndsAt = *node.CodeDiscount.EndsAt
	}
	c.logger.Info().Str("code", in.Code).Str("discount_id", out.ID).Msg("discount created")
	return out, nil
}
