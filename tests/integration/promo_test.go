//go:build integration

package integration

import (
	"net/http"
	"testing"
)

type validateRequest struct {
	Code       string  `json:"code"`
	OrderValue float64 `json:"orderValue"`
}

func TestValidatePromotion_Percentage(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/promotions/validate",
		validateRequest{Code: "sale10", OrderValue: 100})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	body := decodeJSON[validateResponse](t, resp)
	if body.Promotion.Code != "SALE10" {
		t.Errorf("code: got %q, want SALE10", body.Promotion.Code)
	}
	if body.Promotion.Kind != "percentage" {
		t.Errorf("kind: got %q, want percentage", body.Promotion.Kind)
	}
	if body.DiscountAmount != 10 {
		t.Errorf("discountAmount: got %v, want 10", body.DiscountAmount)
	}
	if body.FinalPrice != 90 {
		t.Errorf("finalPrice: got %v, want 90", body.FinalPrice)
	}
}

func TestValidatePromotion_Fixed(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/promotions/validate",
		validateRequest{Code: "WELCOME5", OrderValue: 30})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	body := decodeJSON[validateResponse](t, resp)
	if body.Promotion.Kind != "fixed" {
		t.Errorf("kind: got %q, want fixed", body.Promotion.Kind)
	}
	if body.DiscountAmount != 5 {
		t.Errorf("discountAmount: got %v, want 5", body.DiscountAmount)
	}
	if body.FinalPrice != 25 {
		t.Errorf("finalPrice: got %v, want 25", body.FinalPrice)
	}
}

func TestValidatePromotion_BelowMinimum(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/promotions/validate",
		validateRequest{Code: "WELCOME5", OrderValue: 10})
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestValidatePromotion_NotFound(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/promotions/validate",
		validateRequest{Code: "NOSUCHCODE", OrderValue: 100})
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusNotFound)
}

func TestValidatePromotion_MissingCode(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/promotions/validate",
		validateRequest{OrderValue: 100})
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusBadRequest)
}
