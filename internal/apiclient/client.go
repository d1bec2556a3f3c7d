// Package apiclient talks to the storefront HTTP API. It is the client
// session's remote cart gateway and discount endpoint.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/domain"
	cartservice "storefront/internal/service/cart"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for the API rooted at baseURL. hc may be nil.
func New(baseURL string, hc *http.Client) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("apiclient: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("apiclient: base url: %w", err)
	}
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: base, http: hc}, nil
}

func (c *Client) Create(ctx context.Context) (domain.Cart, error) {
	var out domain.Cart
	err := c.do(ctx, http.MethodGet, "/api/cart/create", nil, &out)
	return out, err
}

func (c *Client) Check(ctx context.Context, id string) (domain.CheckResult, error) {
	var out domain.CheckResult
	err := c.cart(ctx, cartservice.OpCheck, cartservice.Request{CartID: id}, &out)
	return out, err
}

func (c *Client) Fetch(ctx context.Context, id string) (domain.Cart, error) {
	var out domain.Cart
	err := c.cart(ctx, cartservice.OpFetch, cartservice.Request{CartID: id}, &out)
	return out, err
}

func (c *Client) AddLines(ctx context.Context, id string, lines []domain.LineInput) (domain.Cart, error) {
	req := cartservice.Request{CartID: id}
	for _, l := range lines {
		req.Lines = append(req.Lines, cartservice.Line{MerchandiseID: l.MerchandiseID, Quantity: l.Quantity, SellingPlanID: l.SellingPlanID})
	}
	var out domain.Cart
	err := c.cart(ctx, cartservice.OpAdd, req, &out)
	return out, err
}

func (c *Client) UpdateLines(ctx context.Context, id string, lines []domain.LineUpdate) error {
	req := cartservice.Request{CartID: id}
	for _, l := range lines {
		req.Lines = append(req.Lines, cartservice.Line{ID: l.ID, Quantity: l.Quantity, MerchandiseID: l.MerchandiseID})
	}
	return c.cart(ctx, cartservice.OpUpdate, req, nil)
}

func (c *Client) RemoveLines(ctx context.Context, id string, lineIDs []string) (domain.Cart, error) {
	var out domain.Cart
	err := c.cart(ctx, cartservice.OpRemove, cartservice.Request{CartID: id, LineIDs: lineIDs}, &out)
	return out, err
}

func (c *Client) UpdateDiscounts(ctx context.Context, id string, codes []string) (domain.Cart, error) {
	if codes == nil {
		codes = []string{}
	}
	var out domain.Cart
	err := c.cart(ctx, cartservice.OpUpdateDiscounts, cartservice.Request{CartID: id, DiscountCodes: codes}, &out)
	return out, err
}

// Discount exchanges a sealed token for a discount code.
func (c *Client) Discount(ctx context.Context, sealed string) (string, error) {
	var out struct {
		Code string `json:"code"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/discount/"+url.QueryEscape(sealed), nil, &out); err != nil {
		return "", err
	}
	if out.Code == "" {
		return "", fmt.Errorf("apiclient: discount response has no code: %w", domain.ErrUnavailable)
	}
	return out.Code, nil
}

// Products lists the catalog, optionally filtered by a search query.
func (c *Client) Products(ctx context.Context, query string) ([]domain.Product, error) {
	path := "/api/products"
	if query != "" {
		path += "?" + url.Values{"q": {query}}.Encode()
	}
	var out []domain.Product
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) ProductByHandle(ctx context.Context, handle string) (domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(handle), nil, &out)
	return out, err
}

// ProductByID looks a product up by its backend id.
func (c *Client) ProductByID(ctx context.Context, id string) (domain.Product, error) {
	var out []domain.Product
	if err := c.do(ctx, http.MethodGet, "/api/products?"+url.Values{"id": {id}}.Encode(), nil, &out); err != nil {
		return domain.Product{}, err
	}
	if len(out) == 0 {
		return domain.Product{}, fmt.Errorf("apiclient: product %q: %w", id, domain.ErrNotFound)
	}
	return out[0], nil
}

func (c *Client) cart(ctx context.Context, op cartservice.Operation, req cartservice.Request, out any) error {
	return c.do(ctx, http.MethodPost, "/api/cart/"+op.String(), req, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("apiclient: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w: %v", method, path, domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: decoding %s: %w: %v", path, domain.ErrUnavailable, err)
	}
	return nil
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("apiclient: status %d: %s", e.Status, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return domain.ErrInvalidInput
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	default:
		return domain.ErrUnavailable
	}
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(raw))

	var obj struct {
		Error string `json:"error"`
	}
	var str string
	switch {
	case json.Unmarshal(raw, &obj) == nil && obj.Error != "":
		msg = obj.Error
	case json.Unmarshal(raw, &str) == nil:
		msg = str
	}
	return &StatusError{Status: resp.StatusCode, Message: msg}
}
