package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
)

type cartPayload struct {
	Cart       *cartNode    `json:"cart"`
	UserErrors []FieldError `json:"userErrors"`
}

// Create opens a new empty cart.
func (c *Client) Create(ctx context.Context) (domain.Cart, error) {
	return c.mutateCart(ctx, "cartCreate", cartCreateMutation, nil)
}

// Check reports whether id still names a live cart. An empty or unknown id
// yields an empty result, never an error; only an unreachable backend fails.
func (c *Client) Check(ctx context.Context, id string) (domain.CheckResult, error) {
	if id == "" {
		return domain.CheckResult{}, nil
	}
	var data struct {
		Cart *struct {
			ID string `json:"id"`
		} `json:"cart"`
	}
	err := c.storefront(ctx, "cartCheck", cartCheckQuery, map[string]any{"cartId": id}, &data)
	if err != nil {
		if unknownID(err) {
			return domain.CheckResult{}, nil
		}
		return domain.CheckResult{}, err
	}
	if data.Cart == nil {
		return domain.CheckResult{}, nil
	}
	return domain.CheckResult{ID: data.Cart.ID}, nil
}

// Fetch returns the canonical cart. An empty or unknown id yields a cart
// with no products.
func (c *Client) Fetch(ctx context.Context, id string) (domain.Cart, error) {
	if id == "" {
		return domain.EmptyCart(), nil
	}
	var data struct {
		Cart *cartNode `json:"cart"`
	}
	err := c.storefront(ctx, "cartFetch", cartFetchQuery, map[string]any{"cartId": id}, &data)
	if err != nil {
		if unknownID(err) {
			return domain.EmptyCart(), nil
		}
		return domain.Cart{}, err
	}
	return normalizeCart(data.Cart), nil
}

func (c *Client) AddLines(ctx context.Context, id string, lines []domain.LineInput) (domain.Cart, error) {
	return c.mutateCart(ctx, "cartLinesAdd", cartLinesAddMutation, map[string]any{
		"cartId": id,
		"lines":  lines,
	})
}

// UpdateLines changes line quantities. The backend's cart is not returned;
// callers keep their own snapshot until the next fetch.
func (c *Client) UpdateLines(ctx context.Context, id string, lines []domain.LineUpdate) error {
	var data map[string]cartPayload
	err := c.storefront(ctx, "cartLinesUpdate", cartLinesUpdateMutation, map[string]any{
		"cartId": id,
		"lines":  lines,
	}, &data)
	if err != nil {
		return err
	}
	payload := data["cartLinesUpdate"]
	if err := userErrors("cartLinesUpdate", payload.UserErrors, c.logger); err != nil {
		return err
	}
	if payload.Cart == nil {
		return fmt.Errorf("shopify cartLinesUpdate: cart %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (c *Client) RemoveLines(ctx context.Context, id string, lineIDs []string) (domain.Cart, error) {
	return c.mutateCart(ctx, "cartLinesRemove", cartLinesRemoveMutation, map[string]any{
		"cartId":  id,
		"lineIds": lineIDs,
	})
}

func (c *Client) UpdateDiscounts(ctx context.Context, id string, codes []string) (domain.Cart, error) {
	if codes == nil {
		codes = []string{}
	}
	return c.mutateCart(ctx, "cartDiscountCodesUpdate", cartDiscountCodesUpdateMutation, map[string]any{
		"cartId":        id,
		"discountCodes": codes,
	})
}

// mutateCart runs a mutation whose payload is named after the operation and
// carries the updated cart.
func (c *Client) mutateCart(ctx context.Context, name, query string, vars map[string]any) (domain.Cart, error) {
	var data map[string]cartPayload
	if err := c.storefront(ctx, name, query, vars, &data); err != nil {
		return domain.Cart{}, err
	}
	payload := data[name]
	if err := userErrors(name, payload.UserErrors, c.logger); err != nil {
		return domain.Cart{}, err
	}
	if payload.Cart == nil {
		return domain.Cart{}, fmt.Errorf("shopify %s: %w", name, domain.ErrNotFound)
	}
	return normalizeCart(payload.Cart), nil
}

// unknownID reports whether every top-level error rejects the id argument
// itself, which is how the backend answers an id that is not a cart id.
// Throttling and internal errors do not count.
func unknownID(err error) bool {
	var qe *QueryError
	if !errors.As(err, &qe) || len(qe.Messages) == 0 {
		return false
	}
	for i, msg := range qe.Messages {
		var code string
		if i < len(qe.Codes) {
			code = qe.Codes[i]
		}
		if !invalidIDError(code, msg) {
			return false
		}
	}
	return true
}

func invalidIDError(code, msg string) bool {
	switch code {
	case "INVALID_VARIABLE", "argumentLiteralsIncompatible":
		return true
	case "":
	default:
		return false
	}
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "invalid global id") || strings.Contains(msg, "invalid id")
}
