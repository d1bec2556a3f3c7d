// Package discount implements the token-gated discount flow: the client seals
// a timestamped payload, the server opens it, checks it and mints a code.
package discount

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"storefront/internal/domain"
)

// Payload is the plaintext carried inside a sealed discount token.
type Payload struct {
	IssuedAt time.Time
	Token    string
}

// Encode renders the payload as rmd=<unix millis>&token=<token>.
func (p Payload) Encode() string {
	return fmt.Sprintf("rmd=%d&token=%s", p.IssuedAt.UnixMilli(), p.Token)
}

func ParsePayload(s string) (Payload, error) {
	values, err := url.ParseQuery(s)
	if err != nil {
		return Payload{}, fmt.Errorf("discount: payload: %w", err)
	}
	millis, err := strconv.ParseInt(values.Get("rmd"), 10, 64)
	if err != nil {
		return Payload{}, fmt.Errorf("discount: payload timestamp: %w", err)
	}
	token := values.Get("token")
	if token == "" {
		return Payload{}, errors.New("discount: payload has no token")
	}
	return Payload{IssuedAt: time.UnixMilli(millis), Token: token}, nil
}

// Gate decides whether a sealed token grants a discount. The shared token is
// a fixed value also known to the client, so the gate keeps casual callers
// out and nothing more.
type Gate struct {
	sealer *Sealer
	token  string
	maxAge time.Duration
	now    func() time.Time
}

func NewGate(sealer *Sealer, token string, maxAge time.Duration) *Gate {
	return &Gate{sealer: sealer, token: token, maxAge: maxAge, now: time.Now}
}

// Verify opens sealed and checks its token and freshness. Every failure is
// reported as domain.ErrForbidden.
func (g *Gate) Verify(sealed string) (Payload, error) {
	plain, err := g.sealer.Open(sealed)
	if err != nil {
		return Payload{}, forbidden(err)
	}
	p, err := ParsePayload(plain)
	if err != nil {
		return Payload{}, forbidden(err)
	}
	if p.Token != g.token {
		return Payload{}, forbidden(errors.New("token mismatch"))
	}
	if g.maxAge > 0 {
		age := g.now().Sub(p.IssuedAt)
		if age > g.maxAge || age < -g.maxAge {
			return Payload{}, forbidden(fmt.Errorf("token issued %s ago", age.Round(time.Second)))
		}
	}
	return p, nil
}

func forbidden(cause error) error {
	return fmt.Errorf("%w: %v", domain.ErrForbidden, cause)
}
