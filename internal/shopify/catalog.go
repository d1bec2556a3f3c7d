package shopify

import (
	"context"
	"fmt"

	"storefront/internal/domain"
)

// Products lists up to 50 products matching the storefront search query.
func (c *Client) Products(ctx context.Context, query string) ([]domain.Product, error) {
	var data struct {
		Products connection[productNode] `json:"products"`
	}
	vars := map[string]any{}
	if query != "" {
		vars["query"] = query
	}
	if err := c.storefront(ctx, "products", productsQuery, vars, &data); err != nil {
		return nil, err
	}
	return formatProducts(data.Products.nodes()), nil
}

func (c *Client) ProductByHandle(ctx context.Context, handle string) (domain.Product, error) {
	var data struct {
		Product *productNode `json:"productByHandle"`
	}
	if err := c.storefront(ctx, "productByHandle", productByHandleQuery, map[string]any{"handle": handle}, &data); err != nil {
		return domain.Product{}, err
	}
	if data.Product == nil {
		return domain.Product{}, fmt.Errorf("product %q: %w", handle, domain.ErrNotFound)
	}
	return formatProduct(*data.Product), nil
}

func (c *Client) ProductByID(ctx context.Context, id string) (domain.Product, error) {
	var data struct {
		Product *productNode `json:"product"`
	}
	if err := c.storefront(ctx, "product", productByIDQuery, map[string]any{"id": id}, &data); err != nil {
		return domain.Product{}, err
	}
	if data.Product == nil {
		return domain.Product{}, fmt.Errorf("product %q: %w", id, domain.ErrNotFound)
	}
	return formatProduct(*data.Product), nil
}

// CollectionByHandle returns the products of a collection in collection order.
func (c *Client) CollectionByHandle(ctx context.Context, handle string) ([]domain.Product, error) {
	var data struct {
		Collection *struct {
			Title    string                  `json:"title"`
			Products connection[productNode] `json:"products"`
		} `json:"collectionByHandle"`
	}
	if err := c.storefront(ctx, "collectionByHandle", collectionByHandleQuery, map[string]any{"collectionHandle": handle}, &data); err != nil {
		return nil, err
	}
	if data.Collection == nil {
		return nil, fmt.Errorf("collection %q: %w", handle, domain.ErrNotFound)
	}
	return formatProducts(data.Collection.Products.nodes()), nil
}

func formatProducts(nodes []productNode) []domain.Product {
	out := make([]domain.Product, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, formatProduct(n))
	}
	return out
}
