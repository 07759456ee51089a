package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validator checks a promotion code against the current clock and an order's
// items, returning the promotion and the discount it would grant. It never
// consumes a usage slot: redemption happens inside the order-placement
// transaction so a failed order cannot burn a use.
type Validator struct {
	repo Repository
	now  func() time.Time
}

// NewValidator creates a Validator backed by the given Repository.
func NewValidator(repo Repository) *Validator {
	return &Validator{repo: repo, now: time.Now}
}

// Validate normalizes the code, looks the promotion up, and runs the full
// eligibility chain: existence, active window, usage limit, minimum order
// value, product scope. On success it returns the promotion together with
// the computed discount amount.
func (v *Validator) Validate(ctx context.Context, code string, items []Item) (*Promotion, decimal.Decimal, error) {
	p, err := v.repo.FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, decimal.Zero, ErrNotFound
		}
		return nil, decimal.Zero, errors.Wrap(err, "lookup promotion")
	}

	if err := Check(p, Subtotal(items), v.now()); err != nil {
		return nil, decimal.Zero, err
	}

	amount, err := Compute(p, items)
	if err != nil {
		return nil, decimal.Zero, err
	}

	return p, amount, nil
}
