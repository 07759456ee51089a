package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/promo"
)

// respondError maps domain errors onto HTTP statuses and the uniform error
// body. Unknown errors log and return 500 without leaking internals.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *product.InsufficientStockError
	if errors.As(err, &stockErr) {
		// Requested/available are surfaced so the client can adjust.
		writeJSON(w, http.StatusUnprocessableEntity, func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(http.StatusUnprocessableEntity) })
			e.Field("message", func(e *jx.Encoder) { e.Str(stockErr.Error()) })
			e.Field("productId", func(e *jx.Encoder) { e.Str(stockErr.ProductID) })
			e.Field("requested", func(e *jx.Encoder) { e.Int(stockErr.Requested) })
			e.Field("available", func(e *jx.Encoder) { e.Int(stockErr.Available) })
		})
		return
	}

	var transitionErr *order.IllegalTransitionError
	if errors.As(err, &transitionErr) {
		writeError(w, http.StatusConflict, transitionErr.Error())
		return
	}

	var quantityErr *order.InvalidQuantityError
	if errors.As(err, &quantityErr) {
		writeError(w, http.StatusBadRequest, quantityErr.Error())
		return
	}

	switch {
	case errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidRef):
		writeError(w, http.StatusBadRequest, errMessage(err))

	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, promo.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, errMessage(err))

	case errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrUsageLimitReached),
		errors.Is(err, promo.ErrMinOrderNotMet),
		errors.Is(err, promo.ErrNotApplicable):
		writeError(w, http.StatusUnprocessableEntity, errMessage(err))

	case errors.Is(err, order.ErrUnauthorized):
		writeError(w, http.StatusForbidden, errMessage(err))

	case errors.Is(err, order.ErrConflict):
		writeError(w, http.StatusConflict, errMessage(err))

	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// errMessage unwraps to the sentinel's message so clients see the reason, not
// the wrap chain.
func errMessage(err error) string {
	for _, sentinel := range []error{
		order.ErrEmptyOrder, order.ErrNotFound, order.ErrUnauthorized, order.ErrConflict,
		cart.ErrInvalidQuantity, cart.ErrInvalidRef, cart.ErrLineNotFound,
		product.ErrNotFound,
		promo.ErrNotFound, promo.ErrExpired, promo.ErrUsageLimitReached,
		promo.ErrMinOrderNotMet, promo.ErrNotApplicable,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
