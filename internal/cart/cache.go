// Package cart holds the client-side cart mirror. Mutations are applied to
// the local snapshot first, published, and then persisted through a Gateway
// in the background.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"storefront/internal/domain"
	"storefront/internal/notify"
)

var (
	ErrNotReady    = errors.New("cart: not loaded")
	ErrUnknownLine = fmt.Errorf("cart: unknown line: %w", domain.ErrNotFound)
	ErrEmptyCart   = errors.New("cart: nothing to check out")
	// ErrCartGone is returned when the backend no longer knows the cart id.
	ErrCartGone = fmt.Errorf("cart: cart no longer exists: %w", domain.ErrNotFound)
)

// Gateway is the remote side of the cache.
type Gateway interface {
	Fetch(ctx context.Context, id string) (domain.Cart, error)
	AddLines(ctx context.Context, id string, lines []domain.LineInput) (domain.Cart, error)
	UpdateLines(ctx context.Context, id string, lines []domain.LineUpdate) error
	RemoveLines(ctx context.Context, id string, lineIDs []string) (domain.Cart, error)
	UpdateDiscounts(ctx context.Context, id string, codes []string) (domain.Cart, error)
}

type State int

const (
	Uninitialized State = iota
	Loading
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Cache is the cart mirror for one client session.
//
// Every local mutation and every remote call takes the next value of a
// sequence counter. Lines touched by a mutation are stamped with its sequence
// and removed lines leave a tombstone. When a canonical cart issued at
// sequence S arrives, lines stamped or tombstoned after S keep their local
// state; everything else comes from the canonical cart.
type Cache struct {
	gw     Gateway
	logger zerolog.Logger

	mu       sync.Mutex
	state    State
	cart     domain.Cart
	seq      uint64
	stamps   map[string]uint64
	tombs    map[string]uint64
	updating map[string]int
	inflight map[uint64]struct{}
	subs     *notify.Broadcaster[domain.Cart]
}

func New(gw Gateway, logger zerolog.Logger) *Cache {
	return &Cache{
		gw:       gw,
		logger:   logger.With().Str("component", "cart").Logger(),
		cart:     domain.EmptyCart(),
		stamps:   make(map[string]uint64),
		tombs:    make(map[string]uint64),
		updating: make(map[string]int),
		inflight: make(map[uint64]struct{}),
		subs:     notify.New[domain.Cart](),
	}
}

// Current returns a copy of the latest snapshot, or the empty placeholder
// before the first load.
func (c *Cache) Current() domain.Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Clone()
}

func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ID returns the id of the mirrored cart, empty before the first load.
func (c *Cache) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.ID
}

// Subscribe delivers the current snapshot and then every published snapshot
// in issuance order. Snapshots are shared between subscribers and must be
// treated as read-only.
func (c *Cache) Subscribe(fn func(domain.Cart)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.cart
	return c.subs.Subscribe(fn, &current)
}

// Pending reports whether a quantity change to the line awaits confirmation.
func (c *Cache) Pending(lineID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updating[lineID] > 0
}

// LineCount is the number of distinct lines.
func (c *Cache) LineCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cart.Products)
}

// ItemCount is the total quantity across lines.
func (c *Cache) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.ItemCount()
}

func (c *Cache) Close() {
	c.subs.Close()
}

// Load fetches id and makes it the mirrored cart. Loading a different id
// than the current one replaces the mirror outright.
func (c *Cache) Load(ctx context.Context, id string) error {
	c.mu.Lock()
	prev := c.state
	if c.state == Uninitialized {
		c.state = Loading
	}
	issued := c.begin()
	c.mu.Unlock()

	fetched, err := c.gw.Fetch(ctx, id)
	if err == nil && id != "" && fetched.ID == "" {
		err = ErrCartGone
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.end(issued)
	if err != nil {
		if c.state == Loading {
			c.state = prev
		}
		c.logger.Warn().Err(err).Str("cart_id", id).Msg("cart fetch failed")
		return err
	}
	if fetched.ID != c.cart.ID {
		c.stamps = make(map[string]uint64)
		c.tombs = make(map[string]uint64)
		c.updating = make(map[string]int)
		c.cart = fetched.Clone()
	} else {
		c.cart = c.reconcile(fetched, issued)
	}
	c.state = Ready
	c.subs.Publish(c.cart)
	return nil
}

// Refresh re-fetches the mirrored cart. It is the recovery path after a
// failed remote phase.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Ready {
		c.mu.Unlock()
		return ErrNotReady
	}
	id := c.cart.ID
	c.mu.Unlock()
	return c.Load(ctx, id)
}

// UpdateQuantity sets a line's quantity, clamped to [1, availableQuantity].
// A request that clamps to the current quantity changes nothing.
func (c *Cache) UpdateQuantity(ctx context.Context, lineID string, quantity int) (*Op, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Ready {
		return nil, ErrNotReady
	}
	idx := c.cart.Line(lineID)
	if idx < 0 {
		return nil, ErrUnknownLine
	}
	line := c.cart.Products[idx]
	qty := domain.ClampQuantity(quantity, line.Options.AvailableQuantity)
	if qty == line.Quantity {
		return completed(nil), nil
	}

	next := c.cart.Clone()
	next.Products[idx].Quantity = qty
	next.TotalPrice = domain.CartTotal(next)

	issued := c.begin()
	c.stamps[lineID] = issued
	c.updating[lineID]++
	c.publish(next)

	op := newOp()
	id := c.cart.ID
	update := []domain.LineUpdate{{ID: lineID, Quantity: qty, MerchandiseID: line.Options.ID}}
	go func() {
		err := c.gw.UpdateLines(context.WithoutCancel(ctx), id, update)
		c.mu.Lock()
		c.updating[lineID]--
		if c.updating[lineID] <= 0 {
			delete(c.updating, lineID)
		}
		c.end(issued)
		c.mu.Unlock()
		if err != nil {
			c.logger.Warn().Err(err).Str("line_id", lineID).Int("quantity", qty).Msg("quantity update failed")
		}
		op.finish(err)
	}()
	return op, nil
}

// Remove drops lines from the snapshot immediately. Ids not in the cart are
// ignored.
func (c *Cache) Remove(ctx context.Context, lineIDs ...string) (*Op, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Ready {
		return nil, ErrNotReady
	}
	drop := make(map[string]bool, len(lineIDs))
	for _, id := range lineIDs {
		if c.cart.Line(id) >= 0 {
			drop[id] = true
		}
	}
	if len(drop) == 0 {
		return completed(nil), nil
	}

	next := c.cart.Clone()
	kept := next.Products[:0]
	removed := make([]string, 0, len(drop))
	for _, line := range next.Products {
		if drop[line.ID] {
			removed = append(removed, line.ID)
			continue
		}
		kept = append(kept, line)
	}
	next.Products = kept
	next.TotalPrice = domain.CartTotal(next)

	issued := c.begin()
	for _, id := range removed {
		c.tombs[id] = issued
		delete(c.stamps, id)
	}
	c.publish(next)

	return c.remote(ctx, issued, "remove", func(ctx context.Context, id string) (domain.Cart, error) {
		return c.gw.RemoveLines(ctx, id, removed)
	}), nil
}

// Add asks the backend to add lines. Nothing is shown until the backend
// answers, since it may merge the lines into existing ones.
func (c *Cache) Add(ctx context.Context, lines ...domain.LineInput) (*Op, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("cart: no lines: %w", domain.ErrInvalidInput)
	}
	for _, l := range lines {
		if l.MerchandiseID == "" || l.Quantity < 1 {
			return nil, fmt.Errorf("cart: line needs merchandise id and quantity >= 1: %w", domain.ErrInvalidInput)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Ready {
		return nil, ErrNotReady
	}
	issued := c.begin()
	in := append([]domain.LineInput(nil), lines...)
	return c.remote(ctx, issued, "add", func(ctx context.Context, id string) (domain.Cart, error) {
		return c.gw.AddLines(ctx, id, in)
	}), nil
}

// ApplyDiscount replaces the cart's discount codes. Discount math belongs to
// the backend, so the snapshot changes only once the backend answers.
func (c *Cache) ApplyDiscount(ctx context.Context, codes ...string) (*Op, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Ready {
		return nil, ErrNotReady
	}
	issued := c.begin()
	in := append([]string{}, codes...)
	return c.remote(ctx, issued, "applyDiscount", func(ctx context.Context, id string) (domain.Cart, error) {
		return c.gw.UpdateDiscounts(ctx, id, in)
	}), nil
}

// TriggerCheckout re-fetches the cart and returns its checkout URL.
func (c *Cache) TriggerCheckout(ctx context.Context) (string, error) {
	if err := c.Refresh(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cart.Products) == 0 || c.cart.CheckoutURL == "" {
		return "", ErrEmptyCart
	}
	return c.cart.CheckoutURL, nil
}

// remote runs call in the background and reconciles the canonical cart it
// returns. Must be called with c.mu held.
func (c *Cache) remote(ctx context.Context, issued uint64, name string, call func(context.Context, string) (domain.Cart, error)) *Op {
	op := newOp()
	id := c.cart.ID
	go func() {
		canonical, err := call(context.WithoutCancel(ctx), id)
		c.mu.Lock()
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Str("operation", name).Msg("cart mutation failed")
		case canonical.ID != c.cart.ID:
			c.logger.Debug().Str("operation", name).Str("cart_id", canonical.ID).Msg("discarding result for a replaced cart")
		default:
			c.publish(c.reconcile(canonical, issued))
		}
		c.end(issued)
		c.mu.Unlock()
		op.finish(err)
	}()
	return op
}

// reconcile merges a canonical cart issued at sequence issued into the local
// snapshot. Must be called with c.mu held.
func (c *Cache) reconcile(canonical domain.Cart, issued uint64) domain.Cart {
	out := canonical.Clone()
	local := false

	products := out.Products[:0]
	seen := make(map[string]bool, len(out.Products))
	for _, line := range out.Products {
		seen[line.ID] = true
		if c.tombs[line.ID] > issued {
			local = true
			continue
		}
		if c.keepLocal(line.ID, issued) {
			if idx := c.cart.Line(line.ID); idx >= 0 {
				line = c.cart.Products[idx]
				local = true
			}
		}
		products = append(products, line)
	}
	for _, line := range c.cart.Products {
		if !seen[line.ID] && c.keepLocal(line.ID, issued) {
			products = append(products, line)
			local = true
		}
	}
	out.Products = products

	if local {
		out = out.Clone()
		out.TotalPrice = domain.CartTotal(out)
	}
	return out
}

func (c *Cache) keepLocal(lineID string, issued uint64) bool {
	return c.stamps[lineID] > issued || c.updating[lineID] > 0
}

func (c *Cache) publish(next domain.Cart) {
	c.cart = next
	c.subs.Publish(next)
}

// begin allocates the next sequence number and marks it in flight.
func (c *Cache) begin() uint64 {
	c.seq++
	c.inflight[c.seq] = struct{}{}
	return c.seq
}

// end retires an in-flight sequence and forgets stamps and tombstones that no
// outstanding call could still be compared against.
func (c *Cache) end(issued uint64) {
	delete(c.inflight, issued)
	floor := c.seq + 1
	for s := range c.inflight {
		if s < floor {
			floor = s
		}
	}
	for id, s := range c.stamps {
		if s < floor {
			delete(c.stamps, id)
		}
	}
	for id, s := range c.tombs {
		if s < floor {
			delete(c.tombs, id)
		}
	}
}
