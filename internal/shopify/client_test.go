package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

type capturedRequest struct {
	Path    string
	Header  http.Header
	Query   string
	Vars    map[string]any
	Decoded bool
}

func newTestClient(t *testing.T, status int, body string) (*Client, *capturedRequest, *atomic.Int32) {
	t.Helper()
	captured := &capturedRequest{}
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			captured.Decoded = true
		}
		captured.Path = r.URL.Path
		captured.Header = r.Header.Clone()
		captured.Query = req.Query
		captured.Vars = req.Variables
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := New(Config{
		BaseURL:         srv.URL,
		APIVersion:      "2023-01",
		StorefrontToken: "sf-token",
		AdminToken:      "admin-token",
	}, zerolog.Nop())
	require.NoError(t, err)
	return client, captured, calls
}

const fetchedCart = `{"data":{"cart":{
  "id":"gid://shopify/Cart/c1",
  "checkoutUrl":"https://shop.example/checkout/c1",
  "cost":{"subtotalAmount":{"amount":"45.5"}},
  "discountCodes":[{"code":"Store1700000","applicable":true}],
  "lines":{"edges":[{"node":{
    "id":"gid://shopify/CartLine/L1",
    "quantity":2,
    "sellingPlanAllocation":{"sellingPlan":{"id":"sp1","name":"Monthly"}},
    "merchandise":{
      "id":"gid://shopify/ProductVariant/v1",
      "quantityAvailable":5,
      "priceV2":{"amount":"22.75"},
      "selectedOptions":[{"name":"Size","value":"M"},{"name":"Color","value":"Red"}],
      "image":{"originalSrc":"https://cdn.example/v1.png"},
      "product":{
        "id":"gid://shopify/Product/p1",
        "title":"Tee",
        "handle":"tee",
        "variants":{"edges":[
          {"node":{"id":"gid://shopify/ProductVariant/v1","quantityAvailable":5,"priceV2":{"amount":"22.75"},"selectedOptions":[{"name":"Size","value":"M"}]}},
          {"node":{"id":"gid://shopify/ProductVariant/v2","quantityAvailable":0,"priceV2":{"amount":"22.75"},"selectedOptions":[{"name":"Size","value":"L"}]}}
        ]}
      }
    }
  }}]}
}}}`

func TestFetchNormalizesCart(t *testing.T) {
	client, captured, _ := newTestClient(t, http.StatusOK, fetchedCart)

	cart, err := client.Fetch(context.Background(), "gid://shopify/Cart/c1")
	require.NoError(t, err)

	assert.Equal(t, "/api/2023-01/graphql.json", captured.Path)
	assert.Equal(t, "sf-token", captured.Header.Get(storefrontTokenHeader))
	assert.Equal(t, "gid://shopify/Cart/c1", captured.Vars["cartId"])

	assert.Equal(t, "gid://shopify/Cart/c1", cart.ID)
	assert.Equal(t, "https://shop.example/checkout/c1", cart.CheckoutURL)
	assert.True(t, cart.TotalPrice.Equal(decimal.RequireFromString("45.5")))
	assert.Equal(t, []string{"Store1700000"}, cart.DiscountCodes)
	require.Len(t, cart.Products, 1)

	line := cart.Products[0]
	assert.Equal(t, "gid://shopify/CartLine/L1", line.ID)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, "Tee", line.Name)
	assert.Equal(t, "tee", line.Handle)
	assert.Equal(t, "gid://shopify/Product/p1", line.ProdID)
	assert.Equal(t, "https://cdn.example/v1.png", line.Image)
	assert.Equal(t, "M", line.Options.Option)
	assert.Equal(t, 5, line.Options.AvailableQuantity)
	assert.True(t, line.Options.Price.Equal(decimal.RequireFromString("22.75")))
	require.Len(t, line.Variants, 2)
	assert.Equal(t, "L", line.Variants[1].Option)
	assert.Equal(t, 0, line.Variants[1].AvailableQuantity)
	require.NotNil(t, line.SellingPlan)
	assert.Equal(t, "Monthly", line.SellingPlan.Name)
}

func TestFetchWithoutIDSkipsBackend(t *testing.T) {
	client, _, calls := newTestClient(t, http.StatusOK, fetchedCart)

	cart, err := client.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, cart.Products)
	assert.NotNil(t, cart.Products)
	assert.Zero(t, calls.Load())
}

func TestFetchUnknownCartIsEmpty(t *testing.T) {
	client, _, _ := newTestClient(t, http.StatusOK, `{"data":{"cart":null}}`)

	cart, err := client.Fetch(context.Background(), "gid://shopify/Cart/gone")
	require.NoError(t, err)
	assert.Empty(t, cart.ID)
	assert.Empty(t, cart.Products)
}

func TestCheck(t *testing.T) {
	cases := []struct {
		name    string
		id      string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{name: "empty id", id: "", status: http.StatusOK, body: `{}`},
		{name: "live cart", id: "c1", status: http.StatusOK, body: `{"data":{"cart":{"id":"c1"}}}`, want: "c1"},
		{name: "unknown cart", id: "c1", status: http.StatusOK, body: `{"data":{"cart":null}}`},
		{name: "malformed id", id: "nope", status: http.StatusOK, body: `{"errors":[{"message":"Invalid global id 'nope'"}]}`},
		{name: "invalid variable", id: "nope", status: http.StatusOK, body: `{"errors":[{"message":"Variable $cartId of type ID! was provided invalid value","extensions":{"code":"INVALID_VARIABLE"}}]}`},
		{name: "throttled", id: "c1", status: http.StatusOK, body: `{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`, wantErr: domain.ErrUnavailable},
		{name: "internal error", id: "c1", status: http.StatusOK, body: `{"errors":[{"message":"Internal error. Looks like something went wrong on our end."}]}`, wantErr: domain.ErrUnavailable},
		{name: "invalid id with throttling", id: "c1", status: http.StatusOK, body: `{"errors":[{"message":"Invalid global id 'c1'"},{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`, wantErr: domain.ErrUnavailable},
		{name: "backend down", id: "c1", status: http.StatusBadGateway, body: `bad gateway`, wantErr: domain.ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _, _ := newTestClient(t, tc.status, tc.body)
			res, err := client.Check(context.Background(), tc.id)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.ID)
		})
	}
}

func TestAddLinesSendsLinesAndReturnsCart(t *testing.T) {
	body := strings.Replace(fetchedCart, `{"cart":{`, `{"cartLinesAdd":{"userErrors":[],"cart":{`, 1)
	body = strings.TrimSuffix(body, `}}}`) + `}}}}`
	client, captured, _ := newTestClient(t, http.StatusOK, body)

	cart, err := client.AddLines(context.Background(), "c1", []domain.LineInput{{MerchandiseID: "v1", Quantity: 2}})
	require.NoError(t, err)
	assert.Len(t, cart.Products, 1)
	assert.Contains(t, captured.Query, "cartLinesAdd(cartId: $cartId, lines: $lines)")

	lines, ok := captured.Vars["lines"].([]any)
	require.True(t, ok)
	require.Len(t, lines, 1)
	first := lines[0].(map[string]any)
	assert.Equal(t, "v1", first["merchandiseId"])
	assert.Equal(t, float64(2), first["quantity"])
}

func TestUpdateLinesSurfacesUserErrors(t *testing.T) {
	client, _, _ := newTestClient(t, http.StatusOK, `{"data":{"cartLinesUpdate":{"cart":{"id":"c1"},"userErrors":[{"field":["lines","0","quantity"],"message":"exceeds stock","code":"INVALID"}]}}}`)

	err := client.UpdateLines(context.Background(), "c1", []domain.LineUpdate{{ID: "L1", Quantity: 40}})
	require.Error(t, err)

	var ue *UserError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "cartLinesUpdate", ue.Operation)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "lines.0.quantity: exceeds stock")
}

func TestUpdateLinesAck(t *testing.T) {
	client, _, _ := newTestClient(t, http.StatusOK, `{"data":{"cartLinesUpdate":{"cart":{"id":"c1"},"userErrors":[]}}}`)
	require.NoError(t, client.UpdateLines(context.Background(), "c1", []domain.LineUpdate{{ID: "L1", Quantity: 3}}))
}

func TestUpdateDiscountsSendsEmptyListNotNull(t *testing.T) {
	client, captured, _ := newTestClient(t, http.StatusOK, `{"data":{"cartDiscountCodesUpdate":{"cart":{"id":"c1","lines":{"edges":[]}},"userErrors":[]}}}`)

	cart, err := client.UpdateDiscounts(context.Background(), "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, "c1", cart.ID)
	assert.Equal(t, []any{}, captured.Vars["discountCodes"])
}

func TestCreateBasicDiscountUsesAdminAPI(t *testing.T) {
	client, captured, _ := newTestClient(t, http.StatusOK, `{"data":{"discountCodeBasicCreate":{"codeDiscountNode":{"id":"gid://shopify/DiscountCodeNode/9","codeDiscount":{"startsAt":"2026-10-15T00:00:00Z","endsAt":"2026-11-14T00:00:00Z"}},"userErrors":[]}}}`)

	start := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	created, err := client.CreateBasicDiscount(context.Background(), BasicDiscountInput{
		Title:                  "Store win game discount",
		Code:                   "Store1760520",
		StartsAt:               start,
		EndsAt:                 start.AddDate(0, 0, 30),
		UsageLimit:             1,
		AppliesOncePerCustomer: true,
		Percentage:             decimal.RequireFromString("0.1"),
	})
	require.NoError(t, err)

	assert.Equal(t, "/admin/api/2023-01/graphql.json", captured.Path)
	assert.Equal(t, "admin-token", captured.Header.Get(adminTokenHeader))
	assert.Empty(t, captured.Header.Get(storefrontTokenHeader))
	assert.Equal(t, "gid://shopify/DiscountCodeNode/9", created.ID)
	assert.Equal(t, time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC), created.EndsAt.UTC())

	input := captured.Vars["basicCodeDiscount"].(map[string]any)
	assert.Equal(t, "Store1760520", input["code"])
	assert.Equal(t, "2026-10-15", input["startsAt"])
	assert.Equal(t, "2026-11-14", input["endsAt"])
	assert.Equal(t, float64(1), input["usageLimit"])
	assert.Equal(t, true, input["appliesOncePerCustomer"])
	gets := input["customerGets"].(map[string]any)
	assert.Equal(t, 0.1, gets["value"].(map[string]any)["percentage"])
}

func TestProductByHandleFormatsProduct(t *testing.T) {
	client, _, _ := newTestClient(t, http.StatusOK, `{"data":{"productByHandle":{
	  "id":"p1","title":"Tee","description":"Soft","tags":["summer"],"handle":"","availableForSale":true,
	  "priceRange":{"maxVariantPrice":{"amount":"19.6"}},
	  "media":{"edges":[{"node":{"image":{"originalSrc":"https://cdn.example/a.png","altText":null}}},{"node":{}}]},
	  "options":[{"name":"Size","values":["S","M"]}],
	  "variants":{"edges":[{"node":{"id":"v1","title":"S","availableForSale":true,"quantityAvailable":3,
	    "priceV2":{"amount":"19.4"},"selectedOptions":[{"name":"Color","value":"Red"},{"name":"Size","value":"S"}],
	    "sellingPlanAllocations":{"edges":[{"node":{"sellingPlan":{"id":"sp1","name":"Monthly"}}}]}}}]}
	}}}`)

	p, err := client.ProductByHandle(context.Background(), "tee")
	require.NoError(t, err)
	assert.Equal(t, "/", p.Slug)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(20)))
	assert.Len(t, p.Images, 1)
	require.Len(t, p.Variants, 1)
	v := p.Variants[0]
	assert.Equal(t, "S", v.Size)
	assert.True(t, v.Price.Equal(decimal.NewFromInt(19)))
	assert.Equal(t, "p1", v.ProdID)
	assert.Equal(t, 3, v.AvailableQuantity)
	assert.Equal(t, []domain.SellingPlan{{ID: "sp1", Name: "Monthly"}}, v.SellingPlans)
}

func TestProductByHandleMissing(t *testing.T) {
	client, _, _ := newTestClient(t, http.StatusOK, `{"data":{"productByHandle":null}}`)
	_, err := client.ProductByHandle(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
