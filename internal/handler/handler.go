// Package handler exposes the storefront core over HTTP. Request and
// response bodies are encoded with go-faster/jx; money travels as JSON
// numbers with two decimal places.
package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/promo"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler wires the HTTP surface to the domain services.
type Handler struct {
	products     product.Repository
	carts        *cart.Service
	promos       *promo.Validator
	orders       *order.Service
	security     *Security
	imageBaseURL string

	ordersPlaced    metric.Int64Counter
	promosRedeemed  metric.Int64Counter
	ordersCancelled metric.Int64Counter
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	products product.Repository,
	carts *cart.Service,
	promos *promo.Validator,
	orders *order.Service,
	apikeys auth.Repository,
	pepper []byte,
) (*Handler, error) {
	meter := otel.Meter("storefront/handler")

	ordersPlaced, err := meter.Int64Counter("storefront.orders.placed")
	if err != nil {
		return nil, errors.Wrap(err, "create orders counter")
	}
	promosRedeemed, err := meter.Int64Counter("storefront.promotions.redeemed")
	if err != nil {
		return nil, errors.Wrap(err, "create promotions counter")
	}
	ordersCancelled, err := meter.Int64Counter("storefront.orders.cancelled")
	if err != nil {
		return nil, errors.Wrap(err, "create cancellations counter")
	}

	return &Handler{
		products:        products,
		carts:           carts,
		promos:          promos,
		orders:          orders,
		security:        NewSecurity(apikeys, pepper),
		imageBaseURL:    cfg.ImageBaseURL,
		ordersPlaced:    ordersPlaced,
		promosRedeemed:  promosRedeemed,
		ordersCancelled: ordersCancelled,
	}, nil
}

// Routes mounts every endpoint on a fresh mux. Owner identity arrives as the
// opaque X-Owner-ID header from the external identity layer; administrative
// endpoints additionally require a valid API key.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)

	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/add", h.AddCartLine)
	mux.HandleFunc("PUT /api/cart/update", h.UpdateCartLine)
	mux.HandleFunc("DELETE /api/cart/remove", h.RemoveCartLine)
	mux.HandleFunc("DELETE /api/cart/clear", h.ClearCart)

	mux.HandleFunc("POST /api/promotions/validate", h.ValidatePromotion)

	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("PUT /api/orders/{id}/pay", h.PayOrder)
	mux.HandleFunc("PUT /api/orders/{id}/cancel", h.CancelOrder)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.SetOrderStatus)
	mux.HandleFunc("PUT /api/orders/{id}/deliver", h.DeliverOrder)

	return mux
}

// owner extracts the authenticated owner identity. An empty header means the
// identity layer did not authenticate the request.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := r.Header.Get("X-Owner-ID")
	if owner == "" {
		writeError(w, http.StatusUnauthorized, "owner identity required")
		return "", false
	}
	return owner, true
}

// actor builds the order actor for the request: the owner identity plus the
// admin flag derived from the API key.
func (h *Handler) actor(r *http.Request, owner string) order.Actor {
	return order.Actor{ID: owner, Admin: h.security.IsAdmin(r)}
}

// imageURL prefixes relative image paths with the configured base URL.
func (h *Handler) imageURL(path string) string {
	if path == "" {
		return ""
	}
	return h.imageBaseURL + path
}
