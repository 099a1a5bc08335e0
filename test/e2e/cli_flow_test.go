package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ecakir/sofra-cli/internal/cli"
	"github.com/ecakir/sofra-cli/internal/config"
	"github.com/ecakir/sofra-cli/internal/domain"
	sofragateway "github.com/ecakir/sofra-cli/internal/gateway/sofra"
	"github.com/ecakir/sofra-cli/internal/service/profile"
)

const e2eToken = "e2e-token"

// sofraBackend is an in-memory stand-in for the Sofra API used to drive the
// whole CLI through real HTTP.
type sofraBackend struct {
	mu        sync.Mutex
	cart      []domain.CartItem
	addresses []domain.Address
	orders    []sofragateway.PurchaseInput
}

func (b *sofraBackend) restaurant() domain.Restaurant {
	return domain.Restaurant{
		ID:                "r1",
		Name:              "Kebapci Halil",
		Currency:          "TRY",
		DeliveryFee:       1000,
		MinOrderAmount:    500,
		Delivers:          true,
		WorkingHoursStart: "00:00",
		WorkingHoursEnd:   "00:00",
		WorkingDays: []string{
			"monday", "tuesday", "wednesday", "thursday",
			"friday", "saturday", "sunday",
		},
	}
}

func (b *sofraBackend) handler(t *testing.T) http.Handler {
	t.Helper()
	requireAuth := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer "+e2eToken {
			w.WriteHeader(http.StatusUnauthorized)
			return false
		}
		return true
	}
	writeJSON := func(w http.ResponseWriter, payload any) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/restaurants", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"restaurants": []domain.Restaurant{b.restaurant()}})
	})
	mux.HandleFunc("GET /v1/restaurants/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "r1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"restaurant": b.restaurant()})
	})
	mux.HandleFunc("GET /v1/restaurants/{id}/listings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, domain.ListingPage{
			Items: []domain.Listing{
				{ID: "l1", RestaurantID: "r1", Title: "Adana Durum", Price: 2000, Available: true},
				{ID: "l2", RestaurantID: "r1", Title: "Ayran", Price: 300, Available: true},
			},
			Page:  1,
			Limit: 100,
			Total: 2,
		})
	})
	mux.HandleFunc("GET /v1/cart", func(w http.ResponseWriter, r *http.Request) {
		if !requireAuth(w, r) {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, map[string]any{"items": b.cart})
	})
	mux.HandleFunc("POST /v1/cart/items", func(w http.ResponseWriter, r *http.Request) {
		if !requireAuth(w, r) {
			return
		}
		var input sofragateway.CartItemInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		merged := false
		for i := range b.cart {
			if b.cart[i].ListingID == input.ListingID {
				b.cart[i].Count += input.Count
				merged = true
				break
			}
		}
		if !merged {
			b.cart = append(b.cart, domain.CartItem{
				ListingID:    input.ListingID,
				RestaurantID: input.RestaurantID,
				Title:        input.Title,
				Price:        input.Price,
				Count:        input.Count,
			})
		}
		writeJSON(w, map[string]any{"items": b.cart})
	})
	mux.HandleFunc("GET /v1/addresses", func(w http.ResponseWriter, r *http.Request) {
		if !requireAuth(w, r) {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, map[string]any{"addresses": b.addresses})
	})
	mux.HandleFunc("POST /v1/addresses", func(w http.ResponseWriter, r *http.Request) {
		if !requireAuth(w, r) {
			return
		}
		var input sofragateway.AddressInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		addr := domain.Address{ID: "a1", Line: input.Line, Location: input.Location}
		b.addresses = append(b.addresses, addr)
		writeJSON(w, map[string]any{"address": addr})
	})
	mux.HandleFunc("POST /v1/orders", func(w http.ResponseWriter, r *http.Request) {
		if !requireAuth(w, r) {
			return
		}
		var input sofragateway.PurchaseInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.orders = append(b.orders, input)
		b.cart = nil
		writeJSON(w, sofragateway.PurchaseResult{OrderID: "ord-100", Total: input.ExpectedTotal})
	})
	return mux
}

func TestOrderFlowEndToEnd(t *testing.T) {
	backend := &sofraBackend{}
	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	t.Setenv("SOFRA_CONFIG_PATH", filepath.Join(t.TempDir(), "config.json"))
	store, err := config.NewStore()
	if err != nil {
		t.Fatalf("config store: %v", err)
	}

	deps := cli.Dependencies{
		Sofra:    sofragateway.NewClient(sofragateway.WithBaseURL(server.URL)),
		Profiles: profile.NewResolver(store),
		Config:   store,
		Version:  "e2e",
	}
	run := func(args ...string) (int, string, string) {
		var stdout bytes.Buffer
		var stderr bytes.Buffer
		code := cli.Execute(context.Background(), args, deps, &stdout, &stderr)
		return code, stdout.String(), stderr.String()
	}
	mustRun := func(args ...string) string {
		t.Helper()
		code, stdout, stderr := run(args...)
		if code != 0 {
			t.Fatalf("%v exited %d\nstdout: %s\nstderr: %s", args, code, stdout, stderr)
		}
		return stdout
	}

	mustRun("configure", "--profile-name", "default", "--token", e2eToken, "--lat", "41.0", "--lon", "29.0")

	out := mustRun("discover")
	if !strings.Contains(out, "Kebapci Halil") {
		t.Fatalf("discover output missing restaurant:\n%s", out)
	}

	out = mustRun("restaurant", "menu", "r1")
	if !strings.Contains(out, "Adana Durum") || !strings.Contains(out, "20.00 TRY") {
		t.Fatalf("menu output unexpected:\n%s", out)
	}

	out = mustRun("cart", "add", "r1", "l1", "--count", "2")
	if !strings.Contains(out, "40.00 TRY") || !strings.Contains(out, "50.00 TRY") {
		t.Fatalf("cart totals unexpected:\n%s", out)
	}

	mustRun("address", "add", "--line", "Istiklal Cd. 7", "--lat", "41.01", "--lon", "28.98")
	mustRun("address", "select", "a1")

	cfg, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if cfg.Profiles[0].SelectedAddressID != "a1" {
		t.Fatalf("address selection not persisted: %+v", cfg.Profiles[0])
	}

	out = mustRun("checkout")
	if !strings.Contains(out, "Pass --confirm to place the order.") {
		t.Fatalf("checkout preview unexpected:\n%s", out)
	}

	out = mustRun("checkout", "--confirm")
	if !strings.Contains(out, "ord-100") || !strings.Contains(out, "50.00 TRY") {
		t.Fatalf("order confirmation unexpected:\n%s", out)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.orders) != 1 {
		t.Fatalf("expected one order, got %d", len(backend.orders))
	}
	order := backend.orders[0]
	if order.DeliveryMethod != "delivery" || order.AddressID != "a1" {
		t.Fatalf("unexpected order %+v", order)
	}
	if order.ExpectedTotal != 5000 {
		t.Fatalf("unexpected total %d", order.ExpectedTotal)
	}
	if order.IdempotencyKey == "" {
		t.Fatal("missing idempotency key")
	}
}

func TestCheckoutBlockedWithoutAddress(t *testing.T) {
	backend := &sofraBackend{
		cart: []domain.CartItem{{ListingID: "l1", RestaurantID: "r1", Title: "Adana Durum", Price: 2000, Count: 1}},
	}
	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	t.Setenv("SOFRA_CONFIG_PATH", filepath.Join(t.TempDir(), "config.json"))
	store, err := config.NewStore()
	if err != nil {
		t.Fatalf("config store: %v", err)
	}

	deps := cli.Dependencies{
		Sofra:    sofragateway.NewClient(sofragateway.WithBaseURL(server.URL)),
		Profiles: profile.NewResolver(store),
		Config:   store,
		Version:  "e2e",
	}
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	code := cli.Execute(context.Background(), []string{
		"configure", "--profile-name", "default", "--token", e2eToken,
	}, deps, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("configure exited %d: %s", code, stderr.String())
	}

	stdout.Reset()
	code = cli.Execute(context.Background(), []string{"checkout", "--confirm"}, deps, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("checkout exited %d, want 1\n%s", code, stdout.String())
	}
	if !strings.Contains(stdout.String(), "address required") {
		t.Fatalf("unexpected checkout output:\n%s", stdout.String())
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.orders) != 0 {
		t.Fatalf("no order should be placed, got %d", len(backend.orders))
	}
}
