package shopify

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type connection[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
}

func (c connection[T]) nodes() []T {
	out := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		out = append(out, e.Node)
	}
	return out
}

type money struct {
	Amount string `json:"amount"`
}

func (m money) decimal() decimal.Decimal {
	d, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return decimal.Zero
	}
	return d
}

type selectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type sellingPlanNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type imageNode struct {
	OriginalSrc string  `json:"originalSrc"`
	AltText     *string `json:"altText"`
}

type variantFields struct {
	ID                string           `json:"id"`
	QuantityAvailable *int             `json:"quantityAvailable"`
	PriceV2           money            `json:"priceV2"`
	SelectedOptions   []selectedOption `json:"selectedOptions"`
}

type cartNode struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkoutUrl"`
	Cost        struct {
		SubtotalAmount money `json:"subtotalAmount"`
	} `json:"cost"`
	DiscountCodes []struct {
		Code       string `json:"code"`
		Applicable bool   `json:"applicable"`
	} `json:"discountCodes"`
	Lines connection[cartLineNode] `json:"lines"`
}

type cartLineNode struct {
	ID                    string `json:"id"`
	Quantity              int    `json:"quantity"`
	SellingPlanAllocation *struct {
		SellingPlan sellingPlanNode `json:"sellingPlan"`
	} `json:"sellingPlanAllocation"`
	Merchandise struct {
		variantFields
		Image   *imageNode `json:"image"`
		Product struct {
			ID       string                    `json:"id"`
			Title    string                    `json:"title"`
			Handle   string                    `json:"handle"`
			Variants connection[variantFields] `json:"variants"`
		} `json:"product"`
	} `json:"merchandise"`
}

type productNode struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Tags             []string `json:"tags"`
	Handle           string   `json:"handle"`
	AvailableForSale bool     `json:"availableForSale"`
	PriceRange       struct {
		MaxVariantPrice money `json:"maxVariantPrice"`
	} `json:"priceRange"`
	Media connection[struct {
		Image *imageNode `json:"image"`
	}] `json:"media"`
	Options []struct {
		Name   string   `json:"name"`
		Values []string `json:"values"`
	} `json:"options"`
	Variants connection[productVariantNode] `json:"variants"`
}

type productVariantNode struct {
	variantFields
	Title                  string `json:"title"`
	AvailableForSale       bool   `json:"availableForSale"`
	SellingPlanAllocations connection[struct {
		SellingPlan sellingPlanNode `json:"sellingPlan"`
	}] `json:"sellingPlanAllocations"`
}

func snapshot(v variantFields) domain.VariantSnapshot {
	s := domain.VariantSnapshot{ID: v.ID, Price: v.PriceV2.decimal()}
	if len(v.SelectedOptions) > 0 {
		s.Option = v.SelectedOptions[0].Value
	}
	if v.QuantityAvailable != nil {
		s.AvailableQuantity = *v.QuantityAvailable
	}
	return s
}

// normalizeCart flattens a backend cart. A missing cart becomes the empty
// placeholder so readers never have to special-case nil.
func normalizeCart(c *cartNode) domain.Cart {
	if c == nil || c.ID == "" {
		return domain.EmptyCart()
	}
	out := domain.Cart{
		ID:            c.ID,
		CheckoutURL:   c.CheckoutURL,
		TotalPrice:    c.Cost.SubtotalAmount.decimal(),
		DiscountCodes: make([]string, 0, len(c.DiscountCodes)),
		Products:      make([]domain.CartLine, 0, len(c.Lines.Edges)),
	}
	for _, dc := range c.DiscountCodes {
		out.DiscountCodes = append(out.DiscountCodes, dc.Code)
	}
	for _, ln := range c.Lines.nodes() {
		m := ln.Merchandise
		line := domain.CartLine{
			ID:       ln.ID,
			Quantity: ln.Quantity,
			Options:  snapshot(m.variantFields),
			Variants: []domain.VariantSnapshot{},
			Name:     m.Product.Title,
			ProdID:   m.Product.ID,
			Handle:   m.Product.Handle,
		}
		if m.Image != nil {
			line.Image = m.Image.OriginalSrc
		}
		for _, v := range m.Product.Variants.nodes() {
			line.Variants = append(line.Variants, snapshot(v))
		}
		if ln.SellingPlanAllocation != nil {
			plan := domain.SellingPlan(ln.SellingPlanAllocation.SellingPlan)
			line.SellingPlan = &plan
		}
		out.Products = append(out.Products, line)
	}
	return out
}

// formatProduct flattens a catalog product. Prices are rounded to whole units
// and the variant size comes from its "Size" option.
func formatProduct(p productNode) domain.Product {
	out := domain.Product{
		ID:          p.ID,
		Name:        p.Title,
		Description: p.Description,
		Tags:        p.Tags,
		InStock:     p.AvailableForSale,
		Price:       p.PriceRange.MaxVariantPrice.decimal().Round(0),
		Images:      []domain.Image{},
		Slug:        p.Handle,
		Options:     make([]domain.ProductOption, 0, len(p.Options)),
		Variants:    make([]domain.ProductVariant, 0, len(p.Variants.Edges)),
	}
	if out.Slug == "" {
		out.Slug = "/"
	}
	for _, m := range p.Media.nodes() {
		if m.Image == nil {
			continue
		}
		img := domain.Image{Src: m.Image.OriginalSrc}
		if m.Image.AltText != nil {
			img.Alt = *m.Image.AltText
		}
		out.Images = append(out.Images, img)
	}
	for _, o := range p.Options {
		out.Options = append(out.Options, domain.ProductOption{Name: o.Name, Values: o.Values})
	}
	for _, v := range p.Variants.nodes() {
		variant := domain.ProductVariant{
			ID:           v.ID,
			Name:         v.Title,
			Price:        v.PriceV2.decimal().Round(0),
			IsAvailable:  v.AvailableForSale,
			ProdID:       p.ID,
			SellingPlans: []domain.SellingPlan{},
		}
		if v.QuantityAvailable != nil {
			variant.AvailableQuantity = *v.QuantityAvailable
		}
		for _, o := range v.SelectedOptions {
			if o.Name == "Size" {
				variant.Size = o.Value
				break
			}
		}
		for _, a := range v.SellingPlanAllocations.nodes() {
			variant.SellingPlans = append(variant.SellingPlans, domain.SellingPlan(a.SellingPlan))
		}
		out.Variants = append(out.Variants, variant)
	}
	return out
}
