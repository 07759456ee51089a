package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/promo"
)

// InvalidQuantityError indicates a selected line has a non-positive quantity.
type InvalidQuantityError struct {
	Ref cart.LineRef
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for line %s", e.Ref.ID)
}

// Pricing holds the order-level pricing rules.
type Pricing struct {
	// ShippingFee is the flat fee added to every order.
	ShippingFee decimal.Decimal
	// FreeShippingOver waives the fee for orders whose items price reaches
	// this threshold. Zero disables the waiver.
	FreeShippingOver decimal.Decimal
}

// PlaceRequest holds the input for placing an order: the cart lines selected
// for checkout plus shipping and payment details.
type PlaceRequest struct {
	Owner           string
	Lines           []cart.Line
	ShippingAddress Address
	PaymentMethod   string
	PromotionCode   string
}

// Service encapsulates order placement and lifecycle transitions. All
// multi-step mutations run through Store.InTx so partial failures never leave
// half-applied state behind.
type Service struct {
	store   Store
	pricing Pricing
	now     func() time.Time
}

// NewService creates an order Service with the given store and pricing rules.
func NewService(store Store, pricing Pricing) *Service {
	return &Service{
		store:   store,
		pricing: pricing,
		now:     time.Now,
	}
}

// Place turns the selected cart lines into a confirmed order: reserve stock
// per line, apply the promotion when a code is supplied, price the order,
// persist it pending and unpaid, and clear the consumed lines from the cart.
// The whole sequence is one transaction; any failure rolls back every stock
// decrement and the promotion redemption.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*Order, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, l := range req.Lines {
		if l.Ref.IsZero() {
			return nil, cart.ErrInvalidRef
		}
		if l.Quantity <= 0 {
			return nil, &InvalidQuantityError{Ref: l.Ref}
		}
	}

	var placed *Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		lines := make([]Line, 0, len(req.Lines))
		refs := make([]cart.LineRef, 0, len(req.Lines))

		for _, l := range req.Lines {
			refs = append(refs, l.Ref)

			if !l.Ref.IsCatalog() {
				// Ephemeral items ship with their client-supplied snapshot
				// and reserve no stock.
				lines = append(lines, Line{
					Name:     l.Name,
					Price:    l.Price,
					Quantity: l.Quantity,
				})
				continue
			}

			p, err := tx.ProductByID(ctx, l.Ref.ID)
			if err != nil {
				return errors.Wrapf(err, "resolve product %s", l.Ref.ID)
			}
			if err := tx.DecrementStock(ctx, p.ID, l.Quantity); err != nil {
				return err
			}
			lines = append(lines, Line{
				ProductID: p.ID,
				Name:      p.Name,
				Price:     p.Price,
				Quantity:  l.Quantity,
			})
		}

		itemsPrice := decimal.Zero
		for _, l := range lines {
			itemsPrice = itemsPrice.Add(l.Subtotal())
		}

		discount := decimal.Zero
		code := ""
		if req.PromotionCode != "" {
			code = promo.NormalizeCode(req.PromotionCode)

			p, err := tx.PromotionByCode(ctx, code)
			if err != nil {
				return errors.Wrap(err, "lookup promotion")
			}
			if err := promo.Check(p, itemsPrice, s.now()); err != nil {
				return err
			}

			items := make([]promo.Item, len(lines))
			for i, l := range lines {
				items[i] = promo.Item{ProductID: l.ProductID, Price: l.Price, Quantity: l.Quantity}
			}
			discount, err = promo.Compute(p, items)
			if err != nil {
				return err
			}

			// The conditional increment and the order insert commit together:
			// a failed order never consumes a usage slot.
			if err := tx.RedeemPromotion(ctx, code); err != nil {
				return errors.Wrap(err, "redeem promotion")
			}
		}

		shipping := s.shippingFor(itemsPrice)
		total := itemsPrice.Add(shipping).Sub(discount)
		if total.IsNegative() {
			total = decimal.Zero
		}

		o := &Order{
			ID:              uuid.New().String(),
			Owner:           req.Owner,
			Lines:           lines,
			ItemsPrice:      itemsPrice.Round(2),
			ShippingPrice:   shipping.Round(2),
			DiscountAmount:  discount.Round(2),
			TotalPrice:      total.Round(2),
			PromotionCode:   code,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			Status:          StatusPending,
			CreatedAt:       s.now(),
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return errors.Wrap(err, "insert order")
		}

		if err := tx.DeleteCartLines(ctx, req.Owner, refs); err != nil {
			return errors.Wrap(err, "clear cart lines")
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// shippingFor returns the flat fee, waived once the items price reaches the
// free-shipping threshold.
func (s *Service) shippingFor(itemsPrice decimal.Decimal) decimal.Decimal {
	if s.pricing.FreeShippingOver.IsPositive() && itemsPrice.GreaterThanOrEqual(s.pricing.FreeShippingOver) {
		return decimal.Zero
	}
	return s.pricing.ShippingFee
}

// Get returns an order visible to the actor: its owner or an administrator.
func (s *Service) Get(ctx context.Context, actor Actor, orderID string) (*Order, error) {
	o, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && actor.ID != o.Owner {
		return nil, ErrUnauthorized
	}
	return o, nil
}

// ListForOwner returns the actor's own orders.
func (s *Service) ListForOwner(ctx context.Context, owner string) ([]Order, error) {
	return s.store.ListByOwner(ctx, owner)
}

// Pay records payment confirmation, moving the order from pending to
// processing. Triggered by the owner or the payment-gateway callback (which
// authenticates as an administrator).
func (s *Service) Pay(ctx context.Context, actor Actor, orderID string) (*Order, error) {
	var paid *Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		o, err := tx.OrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !actor.Admin && actor.ID != o.Owner {
			return ErrUnauthorized
		}
		if err := o.transition(StatusProcessing); err != nil {
			return err
		}

		now := s.now()
		o.IsPaid = true
		o.PaidAt = &now
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return errors.Wrap(err, "update order")
		}
		paid = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// Cancel moves an order to cancelled and restores the reserved stock for all
// catalog-backed lines in the same transaction. Owners may cancel while
// pending; administrators also while processing.
func (s *Service) Cancel(ctx context.Context, actor Actor, orderID string) (*Order, error) {
	var cancelled *Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		o, err := tx.OrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !actor.Admin {
			if actor.ID != o.Owner {
				return ErrUnauthorized
			}
			if o.Status != StatusPending {
				return ErrUnauthorized
			}
		}
		if err := o.transition(StatusCancelled); err != nil {
			return err
		}

		// Compensating action: the reservation made at placement is undone
		// line by line inside the same transaction.
		for _, l := range o.Lines {
			if l.ProductID == "" {
				continue
			}
			if err := tx.IncrementStock(ctx, l.ProductID, l.Quantity); err != nil {
				return errors.Wrapf(err, "restore stock for %s", l.ProductID)
			}
		}

		if err := tx.UpdateOrder(ctx, o); err != nil {
			return errors.Wrap(err, "update order")
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// SetStatus advances an order along the fulfilment path. Administrator-only;
// payment and cancellation go through Pay and Cancel.
func (s *Service) SetStatus(ctx context.Context, actor Actor, orderID string, next Status) (*Order, error) {
	if !actor.Admin {
		return nil, ErrUnauthorized
	}
	if next != StatusShipping && next != StatusDelivered {
		return nil, errors.Errorf("status %s cannot be set directly", next)
	}

	var updated *Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		o, err := tx.OrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.transition(next); err != nil {
			return err
		}
		if next == StatusDelivered {
			now := s.now()
			o.IsDelivered = true
			o.DeliveredAt = &now
		}
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return errors.Wrap(err, "update order")
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Deliver marks a shipping order as delivered. Administrator-only.
func (s *Service) Deliver(ctx context.Context, actor Actor, orderID string) (*Order, error) {
	return s.SetStatus(ctx, actor, orderID, StatusDelivered)
}
