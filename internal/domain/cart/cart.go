package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrLineNotFound is returned when no cart line matches the given reference.
	ErrLineNotFound = errors.New("cart line not found")
	// ErrInvalidQuantity is returned when a quantity is zero or negative.
	// Callers that want a line gone should remove it instead.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	// ErrInvalidRef is returned when a line reference carries no identity.
	ErrInvalidRef = errors.New("line reference must be catalog or ephemeral")
)

// RefKind discriminates the two ways a cart line can identify its product.
type RefKind uint8

const (
	// RefCatalog references a persisted catalog product by id.
	RefCatalog RefKind = iota + 1
	// RefEphemeral references a client-supplied product with no catalog id.
	RefEphemeral
)

// LineRef is a tagged reference to the product behind a cart line: exactly
// one of catalog id or ephemeral client id.
type LineRef struct {
	Kind RefKind
	ID   string
}

// CatalogRef builds a reference to a catalog product.
func CatalogRef(productID string) LineRef {
	return LineRef{Kind: RefCatalog, ID: productID}
}

// EphemeralRef builds a reference to a client-supplied product.
func EphemeralRef(clientID string) LineRef {
	return LineRef{Kind: RefEphemeral, ID: clientID}
}

// IsCatalog reports whether the reference points at a catalog product.
func (r LineRef) IsCatalog() bool {
	return r.Kind == RefCatalog
}

// IsZero reports whether the reference carries no identity.
func (r LineRef) IsZero() bool {
	return r.Kind == 0 || r.ID == ""
}

// Line is a single cart entry. Price is a snapshot captured at add time and
// is not re-read from the catalog on every view.
type Line struct {
	Ref      LineRef
	Name     string
	Price    decimal.Decimal
	Image    string
	Quantity int
}

// Subtotal returns price multiplied by quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the line items of one owner. The owner may be a persistent user
// id or a generated guest id; the cart does not care which.
type Cart struct {
	Owner     string
	Lines     []Line
	UpdatedAt time.Time
}

// TotalItems returns the summed quantity across all lines. Derived fresh from
// the full line list on every call so the aggregate can never drift.
func (c *Cart) TotalItems() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// TotalAmount returns the summed price*quantity across all lines.
func (c *Cart) TotalAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// FindLine returns the index of the line matching ref, or false.
func (c *Cart) FindLine(ref LineRef) (int, bool) {
	for i, l := range c.Lines {
		if l.Ref == ref {
			return i, true
		}
	}
	return 0, false
}

// Repository defines persistence operations for carts. Implementations must
// treat GetOrCreate as the only entry point: a cart springs into existence on
// first access for an owner that has none.
type Repository interface {
	GetOrCreate(ctx context.Context, owner string) (*Cart, error)
	SaveLine(ctx context.Context, owner string, line Line) error
	DeleteLine(ctx context.Context, owner string, ref LineRef) error
	Clear(ctx context.Context, owner string) error
}
