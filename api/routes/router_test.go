package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-cart/api/middleware"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

type cartResponse struct {
	Data struct {
		Items []struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
		} `json:"items"`
		Total      string `json:"total"`
		TotalCents int64  `json:"total_cents"`
		ItemCount  int    `json:"item_count"`
		Currency   string `json:"currency"`
	} `json:"data"`
}

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Env: "dev"},
		Cart:      config.CartConfig{Currency: "EUR", CookieMaxAge: time.Hour},
		RateLimit: config.RateLimitConfig{Window: time.Minute, IPLimit: 100, SessionLimit: 100},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewCartMetrics(reg)
	bridge, err := cart.NewBridge(cart.NewMemoryStorage(), logger.Nop(), m)
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	svc, err := cart.NewService(cart.ServiceParams{
		Bridge:   bridge,
		Registry: cart.NewRegistry(100, time.Hour, m),
		Logger:   logger.Nop(),
		Metrics:  m,
	})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return NewRouter(Params{
		Config:         testConfig(),
		Logger:         logger.Nop(),
		CartService:    svc,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func do(t *testing.T, h http.Handler, method, path, session, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if session != "" {
		req.Header.Set(middleware.CartSessionHeader, session)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartResponse {
	t.Helper()
	var out cartResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestHealthRoutes(t *testing.T) {
	h := newTestRouter(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		if rec := do(t, h, http.MethodGet, path, "", ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rec.Code)
		}
	}
}

func TestCartLifecycleOverHTTP(t *testing.T) {
	h := newTestRouter(t)
	const session = "session-a"

	rec := do(t, h, http.MethodPost, "/api/v1/cart/items", session, `{"product_id":"p1","name":"Tee","unit_price":"10.00","quantity":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	got := decodeCart(t, rec)
	if got.Data.Total != "20.00" || got.Data.ItemCount != 2 || got.Data.Currency != "EUR" {
		t.Fatalf("after first add: %+v", got.Data)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/cart/items", session, `{"product_id":"p1","name":"Tee","unit_price":"10.00","quantity":3}`)
	got = decodeCart(t, rec)
	if len(got.Data.Items) != 1 || got.Data.Items[0].Quantity != 5 || got.Data.TotalCents != 5000 {
		t.Fatalf("after merge: %+v", got.Data)
	}

	rec = do(t, h, http.MethodPut, "/api/v1/cart/items/p1", session, `{"quantity":0}`)
	got = decodeCart(t, rec)
	if len(got.Data.Items) != 0 || got.Data.TotalCents != 0 || got.Data.ItemCount != 0 {
		t.Fatalf("after zero quantity: %+v", got.Data)
	}

	rec = do(t, h, http.MethodDelete, "/api/v1/cart/items/nonexistent", session, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("remove missing: expected 200 got %d", rec.Code)
	}
}

func TestCartOrderingAndCheckout(t *testing.T) {
	h := newTestRouter(t)
	const session = "session-b"

	if rec := do(t, h, http.MethodGet, "/api/v1/cart/checkout", session, ""); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty checkout: expected 422 got %d", rec.Code)
	}

	do(t, h, http.MethodPost, "/api/v1/cart/items", session, `{"product_id":"p1","name":"Tee","unit_price":"10","quantity":1}`)
	do(t, h, http.MethodPost, "/api/v1/cart/items", session, `{"product_id":"p2","name":"Cap","unit_price":"5","quantity":4}`)

	got := decodeCart(t, do(t, h, http.MethodGet, "/api/v1/cart", session, ""))
	if len(got.Data.Items) != 2 || got.Data.Items[0].ProductID != "p1" || got.Data.Items[1].ProductID != "p2" {
		t.Fatalf("expected insertion order, got %+v", got.Data.Items)
	}
	if got.Data.TotalCents != 3000 || got.Data.ItemCount != 5 {
		t.Fatalf("unexpected totals: %+v", got.Data)
	}

	rec := do(t, h, http.MethodGet, "/api/v1/cart/checkout", session, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total_cents":3000`) {
		t.Fatalf("checkout: %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(t, h, http.MethodPost, "/api/v1/cart/confirm", session, ""); rec.Code != http.StatusOK {
		t.Fatalf("confirm: expected 200 got %d", rec.Code)
	}
	got = decodeCart(t, do(t, h, http.MethodGet, "/api/v1/cart", session, ""))
	if got.Data.ItemCount != 0 {
		t.Fatalf("expected empty cart after confirm, got %+v", got.Data)
	}
}

func TestCartSessionIssuedWhenMissing(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodGet, "/api/v1/cart", "", "")

	if rec.Header().Get(middleware.CartSessionHeader) == "" {
		t.Fatalf("expected a minted session header")
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), middleware.CartSessionCookie+"=") {
		t.Fatalf("expected session cookie")
	}
}

func TestCartRejectsInvalidQuantity(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodPost, "/api/v1/cart/items", "session-c", `{"product_id":"p1","name":"Tee","unit_price":"10.00","quantity":-1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodPost, "/api/v1/cart/items", "session-d", `{"product_id":"p1","name":"Tee","unit_price":"1.00","quantity":1}`)

	rec := do(t, h, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `cart_mutations_total{op="add",result="ok"} 1`) {
		t.Fatalf("expected mutation counter in exposition, got %s", rec.Body.String())
	}
}

func TestRouterUnknownRoutesUseErrorEnvelope(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v2/cart", "", "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"NOT_FOUND"`) {
		t.Fatalf("expected 404 envelope, got %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"request_id"`) {
		t.Fatalf("expected request id in error envelope, got %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodPatch, "/api/v1/cart/checkout", "s-405", "")
	if rec.Code != http.StatusMethodNotAllowed || !strings.Contains(rec.Body.String(), `"METHOD_NOT_ALLOWED"`) {
		t.Fatalf("expected 405 envelope, got %d %s", rec.Code, rec.Body.String())
	}
}
