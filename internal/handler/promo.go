package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/promo"
)

// ValidatePromotion checks a code against an order value (or a full item
// list, when product scoping matters) and returns the discount it would
// grant. Validation never consumes a usage slot.
func (h *Handler) ValidatePromotion(w http.ResponseWriter, r *http.Request) {
	var (
		code       string
		orderValue decimal.Decimal
		items      []promo.Item
	)
	err := decodeObj(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "code":
			v, err := d.Str()
			code = v
			return err
		case "orderValue":
			v, err := decodeDecimal(d)
			orderValue = v
			return err
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				var item promo.Item
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					switch key {
					case "productId":
						v, err := d.Str()
						item.ProductID = v
						return err
					case "price":
						v, err := decodeDecimal(d)
						item.Price = v
						return err
					case "quantity":
						v, err := d.Int()
						item.Quantity = v
						return err
					default:
						return d.Skip()
					}
				}); err != nil {
					return err
				}
				items = append(items, item)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	// A bare order value validates as a single unscoped pseudo-item.
	if len(items) == 0 {
		items = []promo.Item{{Price: orderValue, Quantity: 1}}
	}

	p, discount, err := h.promos.Validate(r.Context(), code, items)
	if err != nil {
		respondError(w, r, err)
		return
	}

	final := promo.Subtotal(items).Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Field("promotion", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("code", func(e *jx.Encoder) { e.Str(p.Code) })
				e.Field("kind", func(e *jx.Encoder) { e.Str(string(p.Kind)) })
				e.Field("value", func(e *jx.Encoder) { encodeDecimal(e, p.Value) })
				e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
			})
		})
		e.Field("discountAmount", func(e *jx.Encoder) { encodeDecimal(e, discount) })
		e.Field("finalPrice", func(e *jx.Encoder) { encodeDecimal(e, final.Round(2)) })
	})
}
