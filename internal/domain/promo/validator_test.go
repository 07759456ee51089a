package promo

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRepo serves a fixed set of promotions and records Redeem calls.
type stubRepo struct {
	promos  map[string]*Promotion
	redeems int
}

func (r *stubRepo) FindByCode(_ context.Context, code string) (*Promotion, error) {
	p, ok := r.promos[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubRepo) Redeem(_ context.Context, _ string) error {
	r.redeems++
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestValidate_Success(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{promos: map[string]*Promotion{
		"SALE10": {
			Code:     "SALE10",
			Kind:     KindPercentage,
			Value:    dec("10"),
			StartsAt: now.Add(-time.Hour),
			EndsAt:   now.Add(time.Hour),
			Active:   true,
		},
	}}
	v := NewValidator(repo)
	v.now = fixedClock(now)

	items := []Item{{ProductID: "p-1", Price: dec("200"), Quantity: 1}}
	p, amount, err := v.Validate(context.Background(), "sale10", items)
	require.NoError(t, err)

	assert.Equal(t, "SALE10", p.Code)
	assert.True(t, amount.Equal(dec("20")), "got %s", amount)
	assert.Zero(t, repo.redeems, "validation must never consume a usage slot")
}

func TestValidate_Errors(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	repo := &stubRepo{promos: map[string]*Promotion{
		"EXPIRED": {
			Code:     "EXPIRED",
			Kind:     KindPercentage,
			Value:    dec("10"),
			StartsAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			Active:   true,
		},
		"DISABLED": {
			Code:     "DISABLED",
			Kind:     KindPercentage,
			Value:    dec("10"),
			StartsAt: now.Add(-time.Hour),
			EndsAt:   now.Add(time.Hour),
			Active:   false,
		},
		"USEDUP": {
			Code:       "USEDUP",
			Kind:       KindPercentage,
			Value:      dec("10"),
			StartsAt:   now.Add(-time.Hour),
			EndsAt:     now.Add(time.Hour),
			Active:     true,
			UsageLimit: 3,
			UsedCount:  3,
		},
		"BIGSPEND": {
			Code:          "BIGSPEND",
			Kind:          KindFixed,
			Value:         dec("5"),
			MinOrderValue: dec("100"),
			StartsAt:      now.Add(-time.Hour),
			EndsAt:        now.Add(time.Hour),
			Active:        true,
		},
		"SCOPED": {
			Code:       "SCOPED",
			Kind:       KindPercentage,
			Value:      dec("10"),
			StartsAt:   now.Add(-time.Hour),
			EndsAt:     now.Add(time.Hour),
			Active:     true,
			ProductIDs: []string{"p-99"},
		},
	}}

	items := []Item{{ProductID: "p-1", Price: dec("50"), Quantity: 1}}

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{name: "unknown code", code: "NOPE", wantErr: ErrNotFound},
		{name: "outside window", code: "EXPIRED", wantErr: ErrExpired},
		{name: "inactive", code: "DISABLED", wantErr: ErrExpired},
		{name: "usage limit reached", code: "USEDUP", wantErr: ErrUsageLimitReached},
		{name: "order value below minimum", code: "BIGSPEND", wantErr: ErrMinOrderNotMet},
		{name: "scoped with no eligible items", code: "SCOPED", wantErr: ErrNotApplicable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(repo)
			v.now = fixedClock(now)

			_, _, err := v.Validate(context.Background(), tt.code, items)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Zero(t, repo.redeems)
}

func TestValidate_ScopedDiscountsMatchingLinesOnly(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{promos: map[string]*Promotion{
		"COFFEE20": {
			Code:       "COFFEE20",
			Kind:       KindPercentage,
			Value:      dec("20"),
			StartsAt:   now.Add(-time.Hour),
			EndsAt:     now.Add(time.Hour),
			Active:     true,
			ProductIDs: []string{"p-1"},
		},
	}}
	v := NewValidator(repo)
	v.now = fixedClock(now)

	items := []Item{
		{ProductID: "p-1", Price: dec("10"), Quantity: 1},
		{ProductID: "p-2", Price: dec("1000"), Quantity: 1},
	}
	_, amount, err := v.Validate(context.Background(), "COFFEE20", items)
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("2")), "got %s", amount)
}

func TestValidate_DecimalAmount(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{promos: map[string]*Promotion{
		"HALF": {
			Code:     "HALF",
			Kind:     KindPercentage,
			Value:    decimal.NewFromInt(50),
			StartsAt: now.Add(-time.Hour),
			EndsAt:   now.Add(time.Hour),
			Active:   true,
		},
	}}
	v := NewValidator(repo)
	v.now = fixedClock(now)

	items := []Item{{ProductID: "p-1", Price: dec("6.55"), Quantity: 1}}
	_, amount, err := v.Validate(context.Background(), "HALF", items)
	require.NoError(t, err)
	// 50% of 6.55 = 3.275, rounded half-up to cents.
	assert.True(t, amount.Equal(dec("3.28")), "got %s", amount)
}
