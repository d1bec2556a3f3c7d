package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
)

var ErrUnknownOperation = errors.New("unknown cart operation")

// Gateway is the commerce backend's cart API; *shopify.Client satisfies it.
type Gateway interface {
	Create(ctx context.Context) (domain.Cart, error)
	Check(ctx context.Context, id string) (domain.CheckResult, error)
	Fetch(ctx context.Context, id string) (domain.Cart, error)
	AddLines(ctx context.Context, id string, lines []domain.LineInput) (domain.Cart, error)
	UpdateLines(ctx context.Context, id string, lines []domain.LineUpdate) error
	RemoveLines(ctx context.Context, id string, lineIDs []string) (domain.Cart, error)
	UpdateDiscounts(ctx context.Context, id string, codes []string) (domain.Cart, error)
}

type Service struct {
	gw Gateway
}

func New(gw Gateway) *Service {
	return &Service{gw: gw}
}

// Request is the body of POST /api/cart/:op. Which fields matter depends on
// the operation.
type Request struct {
	CartID        string   `json:"cartId"`
	Lines         []Line   `json:"lines,omitempty"`
	LineIDs       []string `json:"lineIds,omitempty"`
	DiscountCodes []string `json:"discountCodes"`
}

// Line is a request line: add reads merchandiseId, quantity and
// sellingPlanId; update reads id, quantity and merchandiseId.
type Line struct {
	ID            string `json:"id,omitempty"`
	MerchandiseID string `json:"merchandiseId,omitempty"`
	Quantity      int    `json:"quantity"`
	SellingPlanID string `json:"sellingPlanId,omitempty"`
}

// Ack answers operations whose backend call returns no cart.
type Ack struct {
	ID string `json:"id"`
}

// Execute validates in for op and runs it against the gateway.
func (s *Service) Execute(ctx context.Context, op Operation, in Request) (any, error) {
	in.CartID = strings.TrimSpace(in.CartID)

	switch op {
	case OpCreate:
		return s.gw.Create(ctx)
	case OpCheck:
		return s.gw.Check(ctx, in.CartID)
	case OpFetch:
		return s.gw.Fetch(ctx, in.CartID)
	case OpAdd:
		lines, err := addLines(in)
		if err != nil {
			return nil, err
		}
		return s.gw.AddLines(ctx, in.CartID, lines)
	case OpUpdate:
		lines, err := updateLines(in)
		if err != nil {
			return nil, err
		}
		if err := s.gw.UpdateLines(ctx, in.CartID, lines); err != nil {
			return nil, err
		}
		return Ack{ID: in.CartID}, nil
	case OpRemove:
		if in.CartID == "" {
			return nil, invalid("cartId required")
		}
		if len(in.LineIDs) == 0 {
			return nil, invalid("lineIds required")
		}
		for _, id := range in.LineIDs {
			if strings.TrimSpace(id) == "" {
				return nil, invalid("lineIds must not be blank")
			}
		}
		return s.gw.RemoveLines(ctx, in.CartID, in.LineIDs)
	case OpUpdateDiscounts:
		if in.CartID == "" {
			return nil, invalid("cartId required")
		}
		codes := make([]string, 0, len(in.DiscountCodes))
		for _, c := range in.DiscountCodes {
			if c = strings.TrimSpace(c); c != "" {
				codes = append(codes, c)
			}
		}
		return s.gw.UpdateDiscounts(ctx, in.CartID, codes)
	default:
		return nil, ErrUnknownOperation
	}
}

func addLines(in Request) ([]domain.LineInput, error) {
	if in.CartID == "" {
		return nil, invalid("cartId required")
	}
	if len(in.Lines) == 0 {
		return nil, invalid("lines required")
	}
	out := make([]domain.LineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		if strings.TrimSpace(l.MerchandiseID) == "" {
			return nil, invalid("merchandiseId required")
		}
		if l.Quantity < 1 {
			return nil, invalid("quantity must be positive")
		}
		out = append(out, domain.LineInput{MerchandiseID: l.MerchandiseID, Quantity: l.Quantity, SellingPlanID: l.SellingPlanID})
	}
	return out, nil
}

func updateLines(in Request) ([]domain.LineUpdate, error) {
	if in.CartID == "" {
		return nil, invalid("cartId required")
	}
	if len(in.Lines) == 0 {
		return nil, invalid("lines required")
	}
	out := make([]domain.LineUpdate, 0, len(in.Lines))
	for _, l := range in.Lines {
		if strings.TrimSpace(l.ID) == "" {
			return nil, invalid("line id required")
		}
		if l.Quantity < 1 {
			return nil, invalid("quantity must be positive")
		}
		out = append(out, domain.LineUpdate{ID: l.ID, Quantity: l.Quantity, MerchandiseID: l.MerchandiseID})
	}
	return out, nil
}

func invalid(msg string) error {
	return fmt.Errorf("%s: %w", msg, domain.ErrInvalidInput)
}
