package promo

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Item represents an order line for discount calculation. ProductID is empty
// for ephemeral items, which never match a product-scoped promotion.
type Item struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
}

// Subtotal returns the sum of price * quantity across all items.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

// Check validates a promotion against the clock and the order value without
// computing a discount. It mirrors the redemption-time checks so a code that
// passes here fails later only on a genuine race.
func Check(p *Promotion, orderValue decimal.Decimal, now time.Time) error {
	if !p.Active || now.Before(p.StartsAt) || now.After(p.EndsAt) {
		return ErrExpired
	}
	if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
		return ErrUsageLimitReached
	}
	if p.MinOrderValue.IsPositive() && orderValue.LessThan(p.MinOrderValue) {
		return ErrMinOrderNotMet
	}
	return nil
}

// Compute calculates the discount amount for the given items. For scoped
// promotions the base is the subtotal of eligible items only; a scoped
// promotion with no eligible items returns ErrNotApplicable.
func Compute(p *Promotion, items []Item) (decimal.Decimal, error) {
	base := decimal.Zero
	matched := false
	for _, item := range items {
		if item.ProductID == "" && p.Scoped() {
			continue
		}
		if !p.AppliesTo(item.ProductID) {
			continue
		}
		matched = true
		base = base.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if p.Scoped() && !matched {
		return decimal.Zero, ErrNotApplicable
	}

	switch p.Kind {
	case KindPercentage:
		amount := base.Mul(p.Value).Div(hundred)
		if p.MaxDiscount.IsPositive() && amount.GreaterThan(p.MaxDiscount) {
			amount = p.MaxDiscount
		}
		return floorAtZero(amount).Round(2), nil
	case KindFixed:
		// Clamp to the base so the discount can never push a total negative.
		return floorAtZero(decimal.Min(p.Value, base)).Round(2), nil
	default:
		return decimal.Zero, errors.Errorf("unsupported discount kind: %q", p.Kind)
	}
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
