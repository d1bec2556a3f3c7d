package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func line(id string, qty int, price int64, available int) CartLine {
	return CartLine{
		ID:       id,
		Quantity: qty,
		Options:  VariantSnapshot{ID: "v-" + id, Price: decimal.NewFromInt(price), AvailableQuantity: available},
	}
}

func TestCartTotal(t *testing.T) {
	cases := []struct {
		name string
		cart Cart
		want decimal.Decimal
	}{
		{name: "empty", cart: EmptyCart(), want: decimal.Zero},
		{name: "single line", cart: Cart{Products: []CartLine{line("L1", 2, 10, 5)}}, want: decimal.NewFromInt(20)},
		{name: "several lines", cart: Cart{Products: []CartLine{line("L1", 2, 10, 5), line("L2", 3, 7, 9)}}, want: decimal.NewFromInt(41)},
		{
			name: "fractional prices",
			cart: Cart{Products: []CartLine{{ID: "L1", Quantity: 3, Options: VariantSnapshot{Price: decimal.RequireFromString("19.99")}}}},
			want: decimal.RequireFromString("59.97"),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CartTotal(tc.cart); !got.Equal(tc.want) {
				t.Fatalf("CartTotal = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestClampQuantity(t *testing.T) {
	cases := []struct {
		requested, available, want int
	}{
		{requested: 3, available: 5, want: 3},
		{requested: 0, available: 5, want: 1},
		{requested: -4, available: 5, want: 1},
		{requested: 99, available: 5, want: 5},
		{requested: 5, available: 5, want: 5},
		{requested: 2, available: 0, want: 1},
	}
	for _, tc := range cases {
		if got := ClampQuantity(tc.requested, tc.available); got != tc.want {
			t.Fatalf("ClampQuantity(%d, %d) = %d, want %d", tc.requested, tc.available, got, tc.want)
		}
	}
}

func TestCloneDoesNotShareLines(t *testing.T) {
	orig := Cart{ID: "c1", DiscountCodes: []string{"A"}, Products: []CartLine{line("L1", 1, 10, 5)}}
	cp := orig.Clone()
	cp.Products[0].Quantity = 4
	cp.DiscountCodes[0] = "B"
	if orig.Products[0].Quantity != 1 || orig.DiscountCodes[0] != "A" {
		t.Fatalf("clone shares state with original: %+v", orig)
	}
}

func TestLineAndItemCount(t *testing.T) {
	c := Cart{Products: []CartLine{line("L1", 2, 10, 5), line("L2", 3, 7, 9)}}
	if c.Line("L2") != 1 || c.Line("missing") != -1 {
		t.Fatalf("unexpected line lookup")
	}
	if c.ItemCount() != 5 {
		t.Fatalf("ItemCount = %d, want 5", c.ItemCount())
	}
}
