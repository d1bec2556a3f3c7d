package cart

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
)

type stubGateway struct {
	created     domain.Cart
	checkResult domain.CheckResult
	cart        domain.Cart
	err         error

	calls      []string
	lastID     string
	lastAdd    []domain.LineInput
	lastUpdate []domain.LineUpdate
	lastRemove []string
	lastCodes  []string
}

func (s *stubGateway) record(name, id string) {
	s.calls = append(s.calls, name)
	s.lastID = id
}

func (s *stubGateway) Create(_ context.Context) (domain.Cart, error) {
	s.record("create", "")
	return s.created, s.err
}

func (s *stubGateway) Check(_ context.Context, id string) (domain.CheckResult, error) {
	s.record("check", id)
	return s.checkResult, s.err
}

func (s *stubGateway) Fetch(_ context.Context, id string) (domain.Cart, error) {
	s.record("fetch", id)
	return s.cart, s.err
}

func (s *stubGateway) AddLines(_ context.Context, id string, lines []domain.LineInput) (domain.Cart, error) {
	s.record("add", id)
	s.lastAdd = lines
	return s.cart, s.err
}

func (s *stubGateway) UpdateLines(_ context.Context, id string, lines []domain.LineUpdate) error {
	s.record("update", id)
	s.lastUpdate = lines
	return s.err
}

func (s *stubGateway) RemoveLines(_ context.Context, id string, lineIDs []string) (domain.Cart, error) {
	s.record("remove", id)
	s.lastRemove = lineIDs
	return s.cart, s.err
}

func (s *stubGateway) UpdateDiscounts(_ context.Context, id string, codes []string) (domain.Cart, error) {
	s.record("updateDiscounts", id)
	s.lastCodes = codes
	return s.cart, s.err
}

func TestParseOperation(t *testing.T) {
	for _, name := range []string{"create", "check", "fetch", "add", "update", "remove", "updateDiscounts"} {
		op, ok := ParseOperation(name)
		if !ok {
			t.Fatalf("expected %q to parse", name)
		}
		if op.String() != name {
			t.Fatalf("round trip %q gave %q", name, op.String())
		}
	}
	for _, name := range []string{"", "Create", "delete", "updatediscounts", "toString"} {
		if _, ok := ParseOperation(name); ok {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
	if got := Operation(42).String(); got != "Operation(42)" {
		t.Fatalf("unexpected name for unknown op: %q", got)
	}
}

func TestExecuteValidation(t *testing.T) {
	cases := []struct {
		name string
		op   Operation
		in   Request
	}{
		{name: "add without cart", op: OpAdd, in: Request{Lines: []Line{{MerchandiseID: "v1", Quantity: 1}}}},
		{name: "add without lines", op: OpAdd, in: Request{CartID: "c1"}},
		{name: "add without merchandise", op: OpAdd, in: Request{CartID: "c1", Lines: []Line{{Quantity: 1}}}},
		{name: "add zero quantity", op: OpAdd, in: Request{CartID: "c1", Lines: []Line{{MerchandiseID: "v1"}}}},
		{name: "update without cart", op: OpUpdate, in: Request{Lines: []Line{{ID: "L1", Quantity: 1}}}},
		{name: "update without line id", op: OpUpdate, in: Request{CartID: "c1", Lines: []Line{{Quantity: 2}}}},
		{name: "update zero quantity", op: OpUpdate, in: Request{CartID: "c1", Lines: []Line{{ID: "L1"}}}},
		{name: "remove without ids", op: OpRemove, in: Request{CartID: "c1"}},
		{name: "remove blank id", op: OpRemove, in: Request{CartID: "c1", LineIDs: []string{" "}}},
		{name: "discounts without cart", op: OpUpdateDiscounts, in: Request{CartID: "  ", DiscountCodes: []string{"A"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &stubGateway{}
			svc := New(gw)
			_, err := svc.Execute(context.Background(), tc.op, tc.in)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
			if len(gw.calls) != 0 {
				t.Fatalf("gateway called on invalid input: %v", gw.calls)
			}
		})
	}
}

func TestExecuteUnknownOperation(t *testing.T) {
	gw := &stubGateway{}
	_, err := New(gw).Execute(context.Background(), Operation(0), Request{CartID: "c1"})
	if !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("expected unknown operation, got %v", err)
	}
	if len(gw.calls) != 0 {
		t.Fatalf("gateway called: %v", gw.calls)
	}
}

func TestExecuteCheckAndFetchAcceptMissingID(t *testing.T) {
	gw := &stubGateway{cart: domain.EmptyCart()}
	svc := New(gw)

	got, err := svc.Execute(context.Background(), OpCheck, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res, ok := got.(domain.CheckResult); !ok || res.Valid() {
		t.Fatalf("expected empty check result, got %#v", got)
	}

	if _, err := svc.Execute(context.Background(), OpFetch, Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gw.lastID != "" {
		t.Fatalf("expected empty id, got %q", gw.lastID)
	}
}

func TestExecuteAddPassesLines(t *testing.T) {
	canonical := domain.Cart{ID: "c1"}
	gw := &stubGateway{cart: canonical}
	got, err := New(gw).Execute(context.Background(), OpAdd, Request{
		CartID: " c1 ",
		Lines:  []Line{{MerchandiseID: "v1", Quantity: 2, SellingPlanID: "sp1"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c, ok := got.(domain.Cart); !ok || c.ID != "c1" {
		t.Fatalf("unexpected result %#v", got)
	}
	if gw.lastID != "c1" {
		t.Fatalf("cart id not trimmed: %q", gw.lastID)
	}
	want := domain.LineInput{MerchandiseID: "v1", Quantity: 2, SellingPlanID: "sp1"}
	if len(gw.lastAdd) != 1 || gw.lastAdd[0] != want {
		t.Fatalf("unexpected lines %+v", gw.lastAdd)
	}
}

func TestExecuteUpdateAcks(t *testing.T) {
	gw := &stubGateway{}
	got, err := New(gw).Execute(context.Background(), OpUpdate, Request{
		CartID: "c1",
		Lines:  []Line{{ID: "L1", Quantity: 3, MerchandiseID: "v1"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ack, ok := got.(Ack); !ok || ack.ID != "c1" {
		t.Fatalf("unexpected result %#v", got)
	}
	want := domain.LineUpdate{ID: "L1", Quantity: 3, MerchandiseID: "v1"}
	if len(gw.lastUpdate) != 1 || gw.lastUpdate[0] != want {
		t.Fatalf("unexpected lines %+v", gw.lastUpdate)
	}
}

func TestExecuteUpdateDiscountsDropsBlankCodes(t *testing.T) {
	gw := &stubGateway{}
	if _, err := New(gw).Execute(context.Background(), OpUpdateDiscounts, Request{
		CartID:        "c1",
		DiscountCodes: []string{" Store0000001 ", ""},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gw.lastCodes) != 1 || gw.lastCodes[0] != "Store0000001" {
		t.Fatalf("unexpected codes %v", gw.lastCodes)
	}

	if _, err := New(gw).Execute(context.Background(), OpUpdateDiscounts, Request{CartID: "c1"}); err != nil {
		t.Fatalf("clearing codes failed: %v", err)
	}
	if gw.lastCodes == nil || len(gw.lastCodes) != 0 {
		t.Fatalf("expected empty, non-nil codes, got %#v", gw.lastCodes)
	}
}

func TestExecuteGatewayError(t *testing.T) {
	gw := &stubGateway{err: domain.ErrUnavailable}
	_, err := New(gw).Execute(context.Background(), OpRemove, Request{CartID: "c1", LineIDs: []string{"L1"}})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if len(gw.lastRemove) != 1 || gw.lastRemove[0] != "L1" {
		t.Fatalf("unexpected remove ids %v", gw.lastRemove)
	}
}

func TestExecuteCreate(t *testing.T) {
	gw := &stubGateway{created: domain.Cart{ID: "new"}}
	got, err := New(gw).Execute(context.Background(), OpCreate, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c := got.(domain.Cart); c.ID != "new" {
		t.Fatalf("unexpected cart %+v", c)
	}
}
