//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestLivez(t *testing.T) {
	resp := doGet(t, "/livez")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	body := decodeJSON[healthResponse](t, resp)
	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %q", body.Status)
	}
}

func TestReadyz(t *testing.T) {
	resp := doGet(t, "/readyz")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	body := decodeJSON[healthResponse](t, resp)
	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %q", body.Status)
	}
	if _, failing := body.Checks["postgres"]; failing {
		t.Fatalf("postgres readiness check failing: %v", body.Checks)
	}
}
