package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
)

// PlaceOrder turns the selected cart lines into a confirmed order.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	req := order.PlaceRequest{Owner: owner}
	err := decodeObj(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "lines":
			return d.Arr(func(d *jx.Decoder) error {
				line, err := decodeOrderLine(d)
				if err != nil {
					return err
				}
				req.Lines = append(req.Lines, line)
				return nil
			})
		case "shippingAddress":
			return d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "line1":
					v, err := d.Str()
					req.ShippingAddress.Line1 = v
					return err
				case "city":
					v, err := d.Str()
					req.ShippingAddress.City = v
					return err
				case "postalCode":
					v, err := d.Str()
					req.ShippingAddress.PostalCode = v
					return err
				case "country":
					v, err := d.Str()
					req.ShippingAddress.Country = v
					return err
				default:
					return d.Skip()
				}
			})
		case "paymentMethod":
			v, err := d.Str()
			req.PaymentMethod = v
			return err
		case "promotionCode":
			v, err := d.Str()
			req.PromotionCode = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.Place(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx := r.Context()
	h.ordersPlaced.Add(ctx, 1)
	if o.PromotionCode != "" {
		h.promosRedeemed.Add(ctx, 1)
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.Int("order.lines", len(o.Lines)),
	)

	h.writeOrder(w, http.StatusCreated, o)
}

// decodeOrderLine reads one selected cart line from the order body.
func decodeOrderLine(d *jx.Decoder) (cart.Line, error) {
	var (
		refReq   lineRefReq
		name     string
		price    decimal.Decimal
		quantity int
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if handled, err := refReq.decodeField(d, key); handled {
			return err
		}
		switch key {
		case "name":
			v, err := d.Str()
			name = v
			return err
		case "price":
			v, err := decodeDecimal(d)
			price = v
			return err
		case "quantity":
			v, err := d.Int()
			quantity = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return cart.Line{}, err
	}

	ref, err := refReq.ref()
	if err != nil {
		return cart.Line{}, err
	}
	return cart.Line{Ref: ref, Name: name, Price: price, Quantity: quantity}, nil
}

// ListOrders returns the owner's orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	orders, err := h.orders.ListForOwner(r.Context(), owner)
	if err != nil {
		respondError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.Arr(func(e *jx.Encoder) {
		for i := range orders {
			h.encodeOrder(e, &orders[i])
		}
	})
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(e.Bytes())
}

// GetOrder returns one order, visible to its owner or an administrator.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	o, err := h.orders.Get(r.Context(), h.actor(r, owner), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.writeOrder(w, http.StatusOK, o)
}

// PayOrder records payment confirmation from the owner or the gateway
// callback.
func (h *Handler) PayOrder(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	o, err := h.orders.Pay(r.Context(), h.actor(r, owner), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.writeOrder(w, http.StatusOK, o)
}

// CancelOrder cancels an order and restores its reserved stock.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	o, err := h.orders.Cancel(r.Context(), h.actor(r, owner), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.ordersCancelled.Add(r.Context(), 1)
	h.writeOrder(w, http.StatusOK, o)
}

// SetOrderStatus advances fulfilment. Administrator-only.
func (h *Handler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var rawStatus string
	err := decodeObj(r, func(d *jx.Decoder, key string) error {
		if key == "status" {
			v, err := d.Str()
			rawStatus = v
			return err
		}
		return d.Skip()
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	next, err := order.ParseStatus(rawStatus)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.SetStatus(r.Context(), h.actor(r, owner), r.PathValue("id"), next)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.writeOrder(w, http.StatusOK, o)
}

// DeliverOrder marks a shipping order as delivered. Administrator-only.
func (h *Handler) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	o, err := h.orders.Deliver(r.Context(), h.actor(r, owner), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.writeOrder(w, http.StatusOK, o)
}

func (h *Handler) writeOrder(w http.ResponseWriter, status int, o *order.Order) {
	e := &jx.Encoder{}
	h.encodeOrder(e, o)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func (h *Handler) encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("owner", func(e *jx.Encoder) { e.Str(o.Owner) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range o.Lines {
					e.Obj(func(e *jx.Encoder) {
						if l.ProductID != "" {
							e.Field("productId", func(e *jx.Encoder) { e.Str(l.ProductID) })
						}
						e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
						e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, l.Price) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
					})
				}
			})
		})
		e.Field("itemsPrice", func(e *jx.Encoder) { encodeDecimal(e, o.ItemsPrice) })
		e.Field("shippingPrice", func(e *jx.Encoder) { encodeDecimal(e, o.ShippingPrice) })
		e.Field("discountAmount", func(e *jx.Encoder) { encodeDecimal(e, o.DiscountAmount) })
		e.Field("totalPrice", func(e *jx.Encoder) { encodeDecimal(e, o.TotalPrice) })
		if o.PromotionCode != "" {
			e.Field("promotionCode", func(e *jx.Encoder) { e.Str(o.PromotionCode) })
		}
		e.Field("shippingAddress", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("line1", func(e *jx.Encoder) { e.Str(o.ShippingAddress.Line1) })
				e.Field("city", func(e *jx.Encoder) { e.Str(o.ShippingAddress.City) })
				e.Field("postalCode", func(e *jx.Encoder) { e.Str(o.ShippingAddress.PostalCode) })
				e.Field("country", func(e *jx.Encoder) { e.Str(o.ShippingAddress.Country) })
			})
		})
		e.Field("paymentMethod", func(e *jx.Encoder) { e.Str(o.PaymentMethod) })
		e.Field("isPaid", func(e *jx.Encoder) { e.Bool(o.IsPaid) })
		if o.PaidAt != nil {
			e.Field("paidAt", func(e *jx.Encoder) { e.Str(o.PaidAt.Format(timeLayout)) })
		}
		e.Field("isDelivered", func(e *jx.Encoder) { e.Bool(o.IsDelivered) })
		if o.DeliveredAt != nil {
			e.Field("deliveredAt", func(e *jx.Encoder) { e.Str(o.DeliveredAt.Format(timeLayout)) })
		}
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt.Format(timeLayout)) })
	})
}
