//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestCart_RequiresOwner(t *testing.T) {
	resp := doGet(t, "/api/cart")
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusUnauthorized)
}

func TestCart_Flow(t *testing.T) {
	const owner = "it-cart"

	// First access creates an empty cart.
	resp := doGet(t, "/api/cart", asOwner(owner))
	expectStatus(t, resp, http.StatusOK)
	empty := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if empty.TotalItems != 0 {
		t.Fatalf("fresh cart totalItems: got %d, want 0", empty.TotalItems)
	}

	// Catalog line snapshots name and price from the product.
	resp = do(t, http.MethodPost, "/api/cart/add",
		orderLineRequest{ProductID: "p-1001", Quantity: 2}, asOwner(owner))
	expectStatus(t, resp, http.StatusOK)
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if cart.TotalItems != 2 || cart.TotalAmount != 13 {
		t.Fatalf("after add: totalItems=%d totalAmount=%v", cart.TotalItems, cart.TotalAmount)
	}
	if cart.Lines[0].Name != "Waffle with Berries" || cart.Lines[0].Price != 6.5 {
		t.Fatalf("catalog snapshot: %+v", cart.Lines[0])
	}

	// Adding the same product again merges quantities.
	resp = do(t, http.MethodPost, "/api/cart/add",
		orderLineRequest{ProductID: "p-1001", Quantity: 1}, asOwner(owner))
	expectStatus(t, resp, http.StatusOK)
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if cart.TotalItems != 3 || len(cart.Lines) != 1 {
		t.Fatalf("after merge: totalItems=%d lines=%d", cart.TotalItems, len(cart.Lines))
	}

	// Ephemeral lines carry their own name and price.
	resp = do(t, http.MethodPost, "/api/cart/add",
		orderLineRequest{EphemeralID: "gift-1", Name: "Gift wrap", Price: 2.5, Quantity: 1}, asOwner(owner))
	expectStatus(t, resp, http.StatusOK)
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(cart.Lines) != 2 || cart.TotalAmount != 22 {
		t.Fatalf("after ephemeral add: lines=%d totalAmount=%v", len(cart.Lines), cart.TotalAmount)
	}

	resp = do(t, http.MethodPut, "/api/cart/update",
		orderLineRequest{ProductID: "p-1001", Quantity: 5}, asOwner(owner))
	expectStatus(t, resp, http.StatusOK)
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if cart.TotalItems != 6 {
		t.Fatalf("after update: totalItems=%d, want 6", cart.TotalItems)
	}

	resp = do(t, http.MethodDelete, "/api/cart/remove",
		orderLineRequest{EphemeralID: "gift-1"}, asOwner(owner))
	expectStatus(t, resp, http.StatusOK)
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(cart.Lines) != 1 {
		t.Fatalf("after remove: lines=%d, want 1", len(cart.Lines))
	}

	resp = do(t, http.MethodDelete, "/api/cart/clear", nil, asOwner(owner))
	expectStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = doGet(t, "/api/cart", asOwner(owner))
	expectStatus(t, resp, http.StatusOK)
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if cart.TotalItems != 0 {
		t.Fatalf("after clear: totalItems=%d, want 0", cart.TotalItems)
	}
}

func TestCart_EphemeralRequiresName(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/cart/add",
		orderLineRequest{EphemeralID: "gift-2", Price: 1, Quantity: 1}, asOwner("it-cart-bad"))
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusBadRequest)
}

func TestCart_RejectsAmbiguousRef(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/cart/add",
		orderLineRequest{ProductID: "p-1001", EphemeralID: "gift-3", Quantity: 1}, asOwner("it-cart-bad"))
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusBadRequest)
}
