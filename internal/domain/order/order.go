package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/promo"
)

var (
	// ErrEmptyOrder is returned when the selected line set is empty.
	ErrEmptyOrder = errors.New("order lines required")
	// ErrNotFound is returned when a referenced order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrUnauthorized is returned when the actor neither owns the order nor
	// is an administrator.
	ErrUnauthorized = errors.New("not allowed to act on this order")
	// ErrConflict is returned when a concurrency race prevented the atomic
	// placement from committing; the caller should retry the whole request.
	ErrConflict = errors.New("concurrent update conflict, retry the request")
)

// Line is an immutable snapshot of one ordered item, copied at creation time
// and independent of later catalog changes. ProductID is empty for ephemeral
// items, which carry no stock reservation.
type Line struct {
	ProductID string          `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns price multiplied by quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Address is the shipping destination recorded on the order.
type Address struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Order is created once by placement and afterwards mutated only through
// state-machine transitions. Orders are never deleted, only cancelled.
type Order struct {
	ID              string
	Owner           string
	Lines           []Line
	ItemsPrice      decimal.Decimal
	ShippingPrice   decimal.Decimal
	DiscountAmount  decimal.Decimal
	TotalPrice      decimal.Decimal
	PromotionCode   string
	ShippingAddress Address
	PaymentMethod   string
	Status          Status
	IsPaid          bool
	PaidAt          *time.Time
	IsDelivered     bool
	DeliveredAt     *time.Time
	CreatedAt       time.Time
}

// Actor identifies who is attempting an operation on an order.
type Actor struct {
	ID    string
	Admin bool
}

// Tx is the set of storage operations available inside one order
// transaction. Every mutation performed through a Tx commits or rolls back
// as a unit.
type Tx interface {
	ProductByID(ctx context.Context, id string) (*product.Product, error)

	// DecrementStock reserves quantity units of a product. The decrement is
	// conditional on sufficient stock; a failed guard returns
	// *product.InsufficientStockError and must not change the row.
	DecrementStock(ctx context.Context, productID string, quantity int) error

	// IncrementStock restores previously reserved units, the compensating
	// action for cancellation.
	IncrementStock(ctx context.Context, productID string, quantity int) error

	PromotionByCode(ctx context.Context, code string) (*promo.Promotion, error)

	// RedeemPromotion consumes one usage slot, conditional on the usage
	// limit; a failed guard returns promo.ErrUsageLimitReached.
	RedeemPromotion(ctx context.Context, code string) error

	InsertOrder(ctx context.Context, o *Order) error
	OrderByID(ctx context.Context, id string) (*Order, error)
	UpdateOrder(ctx context.Context, o *Order) error

	DeleteCartLines(ctx context.Context, owner string, refs []cart.LineRef) error
}

// Store provides transactional access to everything order placement and
// lifecycle transitions touch, plus plain reads outside a transaction.
type Store interface {
	// InTx runs fn inside a single database transaction, committing when fn
	// returns nil and rolling back every side effect otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	OrderByID(ctx context.Context, id string) (*Order, error)
	ListByOwner(ctx context.Context, owner string) ([]Order, error)
}
