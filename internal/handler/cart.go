package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
)

// lineRefReq is the wire form of a cart line reference: exactly one of
// productId (catalog-backed) or ephemeralId (client-supplied).
type lineRefReq struct {
	productID   string
	ephemeralID string
}

func (q *lineRefReq) decodeField(d *jx.Decoder, key string) (bool, error) {
	switch key {
	case "productId":
		v, err := d.Str()
		q.productID = v
		return true, err
	case "ephemeralId":
		v, err := d.Str()
		q.ephemeralID = v
		return true, err
	}
	return false, nil
}

func (q *lineRefReq) ref() (cart.LineRef, error) {
	switch {
	case q.productID != "" && q.ephemeralID != "":
		return cart.LineRef{}, errors.New("productId and ephemeralId are mutually exclusive")
	case q.productID != "":
		return cart.CatalogRef(q.productID), nil
	case q.ephemeralID != "":
		return cart.EphemeralRef(q.ephemeralID), nil
	default:
		return cart.LineRef{}, cart.ErrInvalidRef
	}
}

// GetCart returns the owner's cart, creating an empty one on first access.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	c, err := h.carts.Get(r.Context(), owner)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK, c)
}

// AddCartLine adds an item to the cart. Catalog-backed lines snapshot
// name/price/image from the catalog at add time; ephemeral lines must carry
// their own.
func (h *Handler) AddCartLine(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var (
		refReq   lineRefReq
		name     string
		image    string
		price    decimal.Decimal
		quantity int
	)
	err := decodeObj(r, func(d *jx.Decoder, key string) error {
		if handled, err := refReq.decodeField(d, key); handled {
			return err
		}
		switch key {
		case "name":
			v, err := d.Str()
			name = v
			return err
		case "image":
			v, err := d.Str()
			image = v
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
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ref, err := refReq.ref()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	line := cart.Line{Ref: ref, Name: name, Price: price, Image: image, Quantity: quantity}
	if ref.IsCatalog() {
		p, err := h.products.GetByID(r.Context(), ref.ID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		line.Name = p.Name
		line.Price = p.Price
		line.Image = p.Image.Thumbnail
	} else if name == "" {
		writeError(w, http.StatusBadRequest, "ephemeral lines require a name")
		return
	}

	c, err := h.carts.AddLine(r.Context(), owner, line)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK, c)
}

// UpdateCartLine replaces the quantity of one line.
func (h *Handler) UpdateCartLine(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var (
		refReq   lineRefReq
		quantity int
	)
	err := decodeObj(r, func(d *jx.Decoder, key string) error {
		if handled, err := refReq.decodeField(d, key); handled {
			return err
		}
		if key == "quantity" {
			v, err := d.Int()
			quantity = v
			return err
		}
		return d.Skip()
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ref, err := refReq.ref()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.carts.UpdateQuantity(r.Context(), owner, ref, quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK, c)
}

// RemoveCartLine deletes one line from the cart.
func (h *Handler) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var refReq lineRefReq
	err := decodeObj(r, func(d *jx.Decoder, key string) error {
		if handled, err := refReq.decodeField(d, key); handled {
			return err
		}
		return d.Skip()
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ref, err := refReq.ref()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.carts.RemoveLine(r.Context(), owner, ref)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK, c)
}

// ClearCart removes all lines from the owner's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := h.carts.Clear(r.Context(), owner); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeCart(w http.ResponseWriter, status int, c *cart.Cart) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Field("owner", func(e *jx.Encoder) { e.Str(c.Owner) })
		if !c.UpdatedAt.IsZero() {
			e.Field("updatedAt", func(e *jx.Encoder) { e.Str(c.UpdatedAt.Format(timeLayout)) })
		}
		e.Field("totalItems", func(e *jx.Encoder) { e.Int(c.TotalItems()) })
		e.Field("totalAmount", func(e *jx.Encoder) { encodeDecimal(e, c.TotalAmount()) })
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range c.Lines {
					encodeCartLine(e, l)
				}
			})
		})
	})
}

func encodeCartLine(e *jx.Encoder, l cart.Line) {
	e.Obj(func(e *jx.Encoder) {
		if l.Ref.IsCatalog() {
			e.Field("productId", func(e *jx.Encoder) { e.Str(l.Ref.ID) })
		} else {
			e.Field("ephemeralId", func(e *jx.Encoder) { e.Str(l.Ref.ID) })
		}
		e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
		e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, l.Price) })
		e.Field("image", func(e *jx.Encoder) { e.Str(l.Image) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
		e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, l.Subtotal()) })
	})
}
