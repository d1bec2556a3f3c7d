// Package shopify is the Remote Cart Gateway. It speaks the Shopify Storefront
// and Admin GraphQL APIs and returns canonical domain shapes; nothing outside
// this package sees a backend response.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/domain"
)

const (
	storefrontTokenHeader = "X-Shopify-Storefront-Access-Token"
	adminTokenHeader      = "X-Shopify-Access-Token"
)

// Config configures the gateway. BaseURL overrides the https://{Domain} origin.
type Config struct {
	Domain          string
	APIVersion      string
	StorefrontToken string
	AdminToken      string
	BaseURL         string
	HTTPClient      *http.Client
}

// Client issues GraphQL documents against one shop.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	version         string
	storefrontToken string
	adminToken      string
	logger          zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		if cfg.Domain == "" {
			return nil, errors.New("shopify: domain is required")
		}
		base = "https://" + cfg.Domain
	}
	version := cfg.APIVersion
	if version == "" {
		version = "2023-01"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		httpClient:      httpClient,
		baseURL:         base,
		version:         version,
		storefrontToken: cfg.StorefrontToken,
		adminToken:      cfg.AdminToken,
		logger:          logger.With().Str("component", "shopify").Logger(),
	}, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message    string `json:"message"`
		Extensions struct {
			Code string `json:"code"`
		} `json:"extensions"`
	} `json:"errors"`
}

func (c *Client) storefront(ctx context.Context, name, query string, vars map[string]any, out any) error {
	endpoint := fmt.Sprintf("%s/api/%s/graphql.json", c.baseURL, c.version)
	return c.do(ctx, name, endpoint, storefrontTokenHeader, c.storefrontToken, query, vars, out)
}

func (c *Client) admin(ctx context.Context, name, query string, vars map[string]any, out any) error {
	endpoint := fmt.Sprintf("%s/admin/api/%s/graphql.json", c.baseURL, c.version)
	return c.do(ctx, name, endpoint, adminTokenHeader, c.adminToken, query, vars, out)
}

// do posts one document and decodes its data member into out. Transport
// failures, non-2xx statuses and top-level GraphQL errors are logged here and
// returned wrapped in domain.ErrUnavailable.
func (c *Client) do(ctx context.Context, name, endpoint, header, token, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("shopify %s: marshaling request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("shopify %s: creating request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(header, token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("operation", name).Msg("shopify request failed")
		return fmt.Errorf("shopify %s: %w: %v", name, domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error().Err(err).Str("operation", name).Msg("reading shopify response")
		return fmt.Errorf("shopify %s: %w: reading response: %v", name, domain.ErrUnavailable, err)
	}

	log := c.logger.With().Str("operation", name).Int("status", resp.StatusCode).Dur("latency", time.Since(start)).Logger()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error().Str("body", truncate(respBody, 512)).Msg("shopify returned non-2xx")
		return fmt.Errorf("shopify %s: %w: status %d", name, domain.ErrUnavailable, resp.StatusCode)
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		log.Error().Err(err).Msg("decoding shopify envelope")
		return fmt.Errorf("shopify %s: %w: decoding response: %v", name, domain.ErrUnavailable, err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		codes := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
			codes = append(codes, e.Extensions.Code)
		}
		log.Error().Strs("errors", msgs).Strs("codes", codes).Msg("shopify graphql errors")
		return &QueryError{Operation: name, Messages: msgs, Codes: codes}
	}
	log.Debug().Msg("shopify request")

	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("shopify %s: decoding data: %w", name, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// QueryError carries the top-level errors of a GraphQL response, such as a
// malformed global id. It matches domain.ErrUnavailable.
type QueryError struct {
	Operation string
	Messages  []string
	Codes     []string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("shopify %s: %s", e.Operation, strings.Join(e.Messages, "; "))
}

func (e *QueryError) Unwrap() error { return domain.ErrUnavailable }

// FieldError is one entry of a mutation's userErrors list.
type FieldError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// UserError reports that the backend rejected a mutation's input, for example
// a quantity above the available stock. It matches domain.ErrInvalidInput.
type UserError struct {
	Operation string
	Errors    []FieldError
}

func (e *UserError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		if len(fe.Field) > 0 {
			msgs = append(msgs, strings.Join(fe.Field, ".")+": "+fe.Message)
			continue
		}
		msgs = append(msgs, fe.Message)
	}
	return fmt.Sprintf("shopify %s rejected: %s", e.Operation, strings.Join(msgs, "; "))
}

func (e *UserError) Unwrap() error { return domain.ErrInvalidInput }

func userErrors(op string, errs []FieldError, logger zerolog.Logger) error {
	if len(errs) == 0 {
		return nil
	}
	err := &UserError{Operation: op, Errors: errs}
	logger.Warn().Str("operation", op).Err(err).Msg("shopify rejected mutation")
	return err
}
