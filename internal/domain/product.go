package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry. It is read-only from the cart's perspective.
type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Tags        []string         `json:"tags,omitempty"`
	InStock     bool             `json:"inStock"`
	Price       decimal.Decimal  `json:"price"`
	Images      []Image          `json:"images"`
	Slug        string           `json:"slug"`
	Options     []ProductOption  `json:"options"`
	Variants    []ProductVariant `json:"variants"`
}

type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

type ProductOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type ProductVariant struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	IsAvailable       bool            `json:"isAvailable"`
	AvailableQuantity int             `json:"availableQuantity"`
	Size              string          `json:"size,omitempty"`
	ProdID            string          `json:"prodId"`
	SellingPlans      []SellingPlan   `json:"sellingPlans"`
}
