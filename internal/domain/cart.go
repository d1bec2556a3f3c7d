package domain

import "github.com/shopspring/decimal"

// Cart is the canonical cart shape shared by the gateway, the HTTP surface and
// the client-side cache. Backend-native shapes never leave the gateway.
type Cart struct {
	ID            string          `json:"id"`
	CheckoutURL   string          `json:"checkoutUrl,omitempty"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	DiscountCodes []string        `json:"discountCodes"`
	Products      []CartLine      `json:"products"`
}

type CartLine struct {
	ID          string            `json:"id"`
	Quantity    int               `json:"quantity"`
	Options     VariantSnapshot   `json:"options"`
	Variants    []VariantSnapshot `json:"variants"`
	Name        string            `json:"name"`
	Image       string            `json:"image,omitempty"`
	ProdID      string            `json:"prodId"`
	Handle      string            `json:"handle"`
	SellingPlan *SellingPlan      `json:"sellingPlan,omitempty"`
}

// VariantSnapshot is a variant as seen from a cart line.
type VariantSnapshot struct {
	ID                string          `json:"id"`
	Price             decimal.Decimal `json:"price"`
	Option            string          `json:"option"`
	AvailableQuantity int             `json:"availableQuantity"`
}

type SellingPlan struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EmptyCart is the placeholder served before a cart has been loaded.
func EmptyCart() Cart {
	return Cart{
		TotalPrice:    decimal.Zero,
		DiscountCodes: []string{},
		Products:      []CartLine{},
	}
}

// CartTotal sums quantity × selected variant price over all lines.
func CartTotal(c Cart) decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Products {
		total = total.Add(line.Options.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// Line returns the index of the line with the given id, or -1.
func (c Cart) Line(id string) int {
	for i, line := range c.Products {
		if line.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the cart.
func (c Cart) Clone() Cart {
	out := c
	out.DiscountCodes = append([]string{}, c.DiscountCodes...)
	out.Products = make([]CartLine, len(c.Products))
	for i, line := range c.Products {
		line.Variants = append([]VariantSnapshot(nil), line.Variants...)
		if line.SellingPlan != nil {
			plan := *line.SellingPlan
			line.SellingPlan = &plan
		}
		out.Products[i] = line
	}
	return out
}

// ItemCount is the total quantity across all lines.
func (c Cart) ItemCount() int {
	n := 0
	for _, line := range c.Products {
		n += line.Quantity
	}
	return n
}

// ClampQuantity bounds a requested quantity to [1, available]. A line whose
// variant reports no availability keeps the floor of 1.
func ClampQuantity(requested, available int) int {
	if available < 1 {
		available = 1
	}
	if requested < 1 {
		return 1
	}
	if requested > available {
		return available
	}
	return requested
}
