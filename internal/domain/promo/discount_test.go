package promo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func percentPromo(value string) *Promotion {
	return &Promotion{
		ID:       "promo-1",
		Code:     "SALE10",
		Kind:     KindPercentage,
		Value:    dec(value),
		StartsAt: time.Now().Add(-time.Hour),
		EndsAt:   time.Now().Add(time.Hour),
		Active:   true,
	}
}

func TestSubtotal(t *testing.T) {
	items := []Item{
		{ProductID: "p-1", Price: dec("6.50"), Quantity: 2},
		{ProductID: "p-2", Price: dec("4.00"), Quantity: 3},
	}
	assert.True(t, Subtotal(items).Equal(dec("25.00")))
	assert.True(t, Subtotal(nil).IsZero())
}

func TestCompute_Percentage(t *testing.T) {
	p := percentPromo("10")
	items := []Item{{ProductID: "p-1", Price: dec("200"), Quantity: 1}}

	amount, err := Compute(p, items)
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("20")), "got %s", amount)
}

func TestCompute_PercentageCappedByMaxDiscount(t *testing.T) {
	p := percentPromo("10")
	p.MaxDiscount = dec("20")
	// 10% of 500000 would be 50000; the cap wins.
	items := []Item{{ProductID: "p-1", Price: dec("500000"), Quantity: 1}}

	amount, err := Compute(p, items)
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("20")), "got %s", amount)
}

func TestCompute_PercentageRounding(t *testing.T) {
	p := percentPromo("15")
	items := []Item{{ProductID: "p-1", Price: dec("6.66"), Quantity: 1}}

	amount, err := Compute(p, items)
	require.NoError(t, err)
	// 15% of 6.66 = 0.999, rounded to cents.
	assert.True(t, amount.Equal(dec("1.00")), "got %s", amount)
}

func TestCompute_FixedClampedToSubtotal(t *testing.T) {
	p := percentPromo("0")
	p.Kind = KindFixed
	p.Value = dec("50")
	items := []Item{{ProductID: "p-1", Price: dec("30"), Quantity: 1}}

	amount, err := Compute(p, items)
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("30")), "discount must not exceed the eligible subtotal, got %s", amount)
}

func TestCompute_Scoped(t *testing.T) {
	p := percentPromo("50")
	p.ProductIDs = []string{"p-1"}
	items := []Item{
		{ProductID: "p-1", Price: dec("10"), Quantity: 2},
		{ProductID: "p-2", Price: dec("100"), Quantity: 1},
	}

	// Only the p-1 lines form the discount base.
	amount, err := Compute(p, items)
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("10")), "got %s", amount)
}

func TestCompute_ScopedNoMatch(t *testing.T) {
	p := percentPromo("50")
	p.ProductIDs = []string{"p-9"}
	items := []Item{{ProductID: "p-1", Price: dec("10"), Quantity: 1}}

	_, err := Compute(p, items)
	assert.ErrorIs(t, err, ErrNotApplicable)
}

func TestCompute_ScopedIgnoresEphemeralItems(t *testing.T) {
	p := percentPromo("50")
	p.ProductIDs = []string{"p-1"}
	items := []Item{
		{ProductID: "p-1", Price: dec("10"), Quantity: 1},
		{ProductID: "", Price: dec("99"), Quantity: 1}, // ephemeral, never scoped-eligible
	}

	amount, err := Compute(p, items)
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("5")), "got %s", amount)
}

func TestCompute_UnsupportedKind(t *testing.T) {
	p := percentPromo("10")
	p.Kind = Kind("bogus")

	_, err := Compute(p, []Item{{ProductID: "p-1", Price: dec("10"), Quantity: 1}})
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	base := Promotion{
		Code:     "SALE10",
		Kind:     KindPercentage,
		Value:    dec("10"),
		StartsAt: now.Add(-24 * time.Hour),
		EndsAt:   now.Add(24 * time.Hour),
		Active:   true,
	}

	tests := []struct {
		name       string
		mutate     func(p *Promotion)
		orderValue decimal.Decimal
		wantErr    error
	}{
		{
			name:       "valid",
			mutate:     func(*Promotion) {},
			orderValue: dec("100"),
		},
		{
			name:       "inactive",
			mutate:     func(p *Promotion) { p.Active = false },
			orderValue: dec("100"),
			wantErr:    ErrExpired,
		},
		{
			name:       "not started yet",
			mutate:     func(p *Promotion) { p.StartsAt = now.Add(time.Hour) },
			orderValue: dec("100"),
			wantErr:    ErrExpired,
		},
		{
			name:       "window ended",
			mutate:     func(p *Promotion) { p.EndsAt = now.Add(-time.Hour) },
			orderValue: dec("100"),
			wantErr:    ErrExpired,
		},
		{
			name: "usage limit reached",
			mutate: func(p *Promotion) {
				p.UsageLimit = 5
				p.UsedCount = 5
			},
			orderValue: dec("100"),
			wantErr:    ErrUsageLimitReached,
		},
		{
			name: "under usage limit",
			mutate: func(p *Promotion) {
				p.UsageLimit = 5
				p.UsedCount = 4
			},
			orderValue: dec("100"),
		},
		{
			name:       "below minimum order value",
			mutate:     func(p *Promotion) { p.MinOrderValue = dec("50") },
			orderValue: dec("49.99"),
			wantErr:    ErrMinOrderNotMet,
		},
		{
			name:       "exactly minimum order value",
			mutate:     func(p *Promotion) { p.MinOrderValue = dec("50") },
			orderValue: dec("50"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)

			err := Check(&p, tt.orderValue, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheck_WindowBoundsInclusive(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	p := &Promotion{Kind: KindPercentage, Value: dec("10"), StartsAt: start, EndsAt: end, Active: true}

	assert.NoError(t, Check(p, dec("100"), start), "window start is inclusive")
	assert.NoError(t, Check(p, dec("100"), end), "window end is inclusive")
	assert.ErrorIs(t, Check(p, dec("100"), end.Add(time.Nanosecond)), ErrExpired)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SALE10", NormalizeCode("sale10"))
	assert.Equal(t, "SALE10", NormalizeCode("  Sale10 "))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestValidAt(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	p := Promotion{
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
		Active:   true,
	}

	assert.True(t, p.ValidAt(now))

	p.UsageLimit = 1
	p.UsedCount = 1
	assert.False(t, p.ValidAt(now))

	p.UsedCount = 0
	assert.True(t, p.ValidAt(now))
}
