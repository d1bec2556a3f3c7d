package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"storefront/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printCart(w io.Writer, format string, c domain.Cart) error {
	if format == "json" {
		return printJSON(w, c)
	}
	fmt.Fprintf(w, "cart %s\n", c.ID)
	if len(c.Products) == 0 {
		fmt.Fprintln(w, "  (empty)")
	}
	for _, line := range c.Products {
		label := line.Name
		if line.Options.Option != "" {
			label += " / " + line.Options.Option
		}
		fmt.Fprintf(w, "  %s  %s  x%d  @ %s\n", line.ID, label, line.Quantity, line.Options.Price.StringFixed(2))
	}
	if len(c.DiscountCodes) > 0 {
		fmt.Fprintf(w, "discounts: %s\n", strings.Join(c.DiscountCodes, ", "))
	}
	fmt.Fprintf(w, "items: %d  total: %s\n", c.ItemCount(), c.TotalPrice.StringFixed(2))
	return nil
}

func printProducts(w io.Writer, format string, products []domain.Product) error {
	if format == "json" {
		return printJSON(w, products)
	}
	for _, p := range products {
		stock := "in stock"
		if !p.InStock {
			stock = "sold out"
		}
		fmt.Fprintf(w, "%s  %s  %s  (%s)\n", p.Slug, p.Name, p.Price.StringFixed(2), stock)
		for _, v := range p.Variants {
			fmt.Fprintf(w, "    %s  %s  %s  available: %d\n", v.ID, v.Name, v.Price.StringFixed(2), v.AvailableQuantity)
		}
	}
	return nil
}
