package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// IssuedDiscount records a single-use discount code minted through the admin API.
type IssuedDiscount struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	Title      string          `json:"title"`
	Percentage decimal.Decimal `json:"percentage"`
	UsageLimit int             `json:"usageLimit"`
	StartsAt   time.Time       `json:"startsAt"`
	EndsAt     time.Time       `json:"endsAt"`
	BackendID  string          `json:"backendId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}
