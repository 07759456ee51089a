package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/product"
)

// ListProducts returns every product in the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			h.encodeProduct(e, p)
		}
	})
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(e.Bytes())
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	h.encodeProduct(e, *p)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(e.Bytes())
}

func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, p.Price) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
		e.Field("inStock", func(e *jx.Encoder) { e.Bool(p.InStock()) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("image", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("thumbnail", func(e *jx.Encoder) { e.Str(h.imageURL(p.Image.Thumbnail)) })
				e.Field("mobile", func(e *jx.Encoder) { e.Str(h.imageURL(p.Image.Mobile)) })
				e.Field("tablet", func(e *jx.Encoder) { e.Str(h.imageURL(p.Image.Tablet)) })
				e.Field("desktop", func(e *jx.Encoder) { e.Str(h.imageURL(p.Image.Desktop)) })
			})
		})
	})
}
