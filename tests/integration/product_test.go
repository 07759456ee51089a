//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != seededCount {
		t.Fatalf("expected %d products, got %d", seededCount, len(products))
	}
}

func TestListProducts_Fields(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	products := decodeJSON[[]productResponse](t, resp)

	var waffle *productResponse
	for i := range products {
		if products[i].ID == "p-1001" {
			waffle = &products[i]
			break
		}
	}

	if waffle == nil {
		t.Fatal("product p-1001 not found")
	}
	if waffle.Name != "Waffle with Berries" {
		t.Errorf("name: got %q, want %q", waffle.Name, "Waffle with Berries")
	}
	if waffle.Price != 6.5 {
		t.Errorf("price: got %v, want 6.5", waffle.Price)
	}
	if waffle.Category != "Waffle" {
		t.Errorf("category: got %q, want %q", waffle.Category, "Waffle")
	}
	if !waffle.InStock {
		t.Error("expected p-1001 to be in stock")
	}
	if waffle.Image.Thumbnail == "" {
		t.Error("image.thumbnail is empty")
	}
	if waffle.Image.Mobile == "" {
		t.Error("image.mobile is empty")
	}
	if waffle.Image.Tablet == "" {
		t.Error("image.tablet is empty")
	}
	if waffle.Image.Desktop == "" {
		t.Error("image.desktop is empty")
	}
}

func TestGetProduct_OutOfStockFlag(t *testing.T) {
	resp := doGet(t, "/api/products/p-1008")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	brownie := decodeJSON[productResponse](t, resp)
	if brownie.InStock {
		t.Error("expected p-1008 (zero stock) to report inStock=false")
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, "/api/products/p-1004")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	product := decodeJSON[productResponse](t, resp)
	if product.ID != "p-1004" {
		t.Errorf("id: got %q, want %q", product.ID, "p-1004")
	}
	if product.Name != "Classic Tiramisu" {
		t.Errorf("name: got %q, want %q", product.Name, "Classic Tiramisu")
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/products/p-9999")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusNotFound)

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Code != 404 {
		t.Errorf("error code: got %d, want 404", errResp.Code)
	}
}
