package discount

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/cart"
)

// API requests a code for a sealed token.
type API interface {
	Discount(ctx context.Context, sealed string) (string, error)
}

// Applier applies discount codes to the mirrored cart; *cart.Cache satisfies it.
type Applier interface {
	ApplyDiscount(ctx context.Context, codes ...string) (*cart.Op, error)
}

// Acquirer is the client half of the discount flow.
type Acquirer struct {
	api    API
	cart   Applier
	sealer *Sealer
	token  string
	now    func() time.Time
}

func NewAcquirer(api API, c Applier, sealer *Sealer, token string) *Acquirer {
	return &Acquirer{api: api, cart: c, sealer: sealer, token: token, now: time.Now}
}

// Acquire seals a fresh payload and exchanges it for a code.
func (a *Acquirer) Acquire(ctx context.Context) (string, error) {
	sealed, err := a.sealer.Seal(Payload{IssuedAt: a.now(), Token: a.token}.Encode())
	if err != nil {
		return "", err
	}
	code, err := a.api.Discount(ctx, sealed)
	if err != nil {
		return "", fmt.Errorf("discount: acquire: %w", err)
	}
	return code, nil
}

// Apply puts code on the cart and waits for the backend's canonical cart.
func (a *Acquirer) Apply(ctx context.Context, code string) error {
	op, err := a.cart.ApplyDiscount(ctx, code)
	if err != nil {
		return err
	}
	return op.Wait(ctx)
}

// AcquireAndApply runs the whole flow.
func (a *Acquirer) AcquireAndApply(ctx context.Context) (string, error) {
	code, err := a.Acquire(ctx)
	if err != nil {
		return "", err
	}
	if err := a.Apply(ctx, code); err != nil {
		return code, err
	}
	return code, nil
}
