package promo

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind enumerates the supported discount strategies.
type Kind string

const (
	// KindPercentage applies a percentage of the eligible subtotal,
	// optionally capped by MaxDiscount.
	KindPercentage Kind = "percentage"
	// KindFixed applies a fixed monetary discount clamped to the eligible
	// subtotal.
	KindFixed Kind = "fixed"
)

var (
	// ErrNotFound is returned when no promotion exists for a code.
	ErrNotFound = errors.New("promotion not found")
	// ErrExpired is returned when a promotion is inactive or outside its
	// validity window.
	ErrExpired = errors.New("promotion expired or inactive")
	// ErrUsageLimitReached is returned when a promotion has exhausted its
	// allowed redemptions.
	ErrUsageLimitReached = errors.New("promotion usage limit reached")
	// ErrMinOrderNotMet is returned when the order value is below the
	// promotion's minimum.
	ErrMinOrderNotMet = errors.New("minimum order value not met")
	// ErrNotApplicable is returned when a product-scoped promotion matches
	// none of the order's items.
	ErrNotApplicable = errors.New("promotion not applicable to these items")
)

// Promotion defines a discount code's behaviour and eligibility constraints.
// Codes are stored normalized to upper case. Flash-sale campaigns use a code
// prefix as a business label; validation is identical regardless of prefix.
type Promotion struct {
	ID            string
	Code          string
	Kind          Kind
	Value         decimal.Decimal
	MinOrderValue decimal.Decimal // zero means no minimum
	MaxDiscount   decimal.Decimal // zero means no cap; percentage kind only
	UsageLimit    int             // zero means unlimited
	UsedCount     int
	StartsAt      time.Time
	EndsAt        time.Time
	Active        bool
	ProductIDs    []string // empty means the whole order is eligible
	Description   string
}

// NormalizeCode upper-cases and trims a user-supplied promotion code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidAt reports whether the promotion can be redeemed at the given instant:
// active, inside the inclusive [StartsAt, EndsAt] window, and under its usage
// limit.
func (p *Promotion) ValidAt(now time.Time) bool {
	if !p.Active {
		return false
	}
	if now.Before(p.StartsAt) || now.After(p.EndsAt) {
		return false
	}
	return p.UsageLimit == 0 || p.UsedCount < p.UsageLimit
}

// Scoped reports whether the promotion is limited to specific products.
func (p *Promotion) Scoped() bool {
	return len(p.ProductIDs) > 0
}

// AppliesTo reports whether a product is eligible for this promotion.
func (p *Promotion) AppliesTo(productID string) bool {
	if !p.Scoped() {
		return true
	}
	return slices.Contains(p.ProductIDs, productID)
}

// Repository provides lookup and mutation of promotions.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Promotion, error)

	// Redeem increments the promotion's usage counter. The increment must be
	// conditional on the usage limit so concurrent redemptions can never
	// exceed it; a failed guard returns ErrUsageLimitReached.
	Redeem(ctx context.Context, code string) error
}
