package httpapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-farmstand/internal/config"
	"github.com/tbourn/go-farmstand/internal/domain"
	"github.com/tbourn/go-farmstand/internal/store"
)

// --- test catalog helper (pure-Go sqlite, no CGO) ---
func newTestCatalog(t *testing.T) store.Catalog {
	t.Helper()
	catalog, err := store.Open(context.Background(), config.StorageConfig{
		Driver: config.DriverSQLite,
		DBPath: filepath.Join(t.TempDir(), "router.db"),
	})
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { _ = catalog.Close(context.Background()) })
	return catalog
}

func testConfig() config.Config {
	return config.Config{
		MaxBodyBytes: 1 << 20,
		OTEL:         config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newTestServer(t *testing.T, cfg config.Config) (http.Handler, store.Catalog) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	catalog := newTestCatalog(t)
	return NewHandler(catalog, cfg), catalog
}

func do(h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createProduct(t *testing.T, h http.Handler, name, price, category string) string {
	t.Helper()
	w := do(h, http.MethodPost, "/products", url.Values{
		"name": {name}, "price": {price}, "category": {category},
	})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("POST /products = %d body=%s", w.Code, w.Body.String())
	}
	loc := w.Header().Get("Location")
	if !strings.HasPrefix(loc, "/products/") {
		t.Fatalf("unexpected Location %q", loc)
	}
	return strings.TrimPrefix(loc, "/products/")
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (body=%s)", w.Code, status, w.Body.String())
	}
	if got := w.Body.String(); got != `"`+msg+`"` {
		t.Fatalf("body = %s; want %q", got, msg)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("Content-Type = %q", ct)
	}
}

func TestProduct_CreateRedirectsAndShows(t *testing.T) {
	h, _ := newTestServer(t, testConfig())

	id := createProduct(t, h, "Kale", "2.50", "vegetable")
	if err := domain.ValidateID(id); err != nil {
		t.Fatalf("redirect id %q is not an object id", id)
	}

	w := do(h, http.MethodGet, "/products/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET product = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Kale", "$2.50", "vegetable"} {
		if !strings.Contains(body, want) {
			t.Fatalf("show page missing %q:\n%s", want, body)
		}
	}
}

func TestProduct_CreateValidationFailure(t *testing.T) {
	h, _ := newTestServer(t, testConfig())

	w := do(h, http.MethodPost, "/products", url.Values{"price": {"1"}, "category": {"fruit"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), `"Validation Failed...`) {
		t.Fatalf("body = %s", w.Body.String())
	}

	w = do(h, http.MethodPost, "/products", url.Values{"name": {"X"}, "price": {"1"}, "category": {"meat"}})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Validation Failed...") {
		t.Fatalf("bad category: %d %s", w.Code, w.Body.String())
	}
}

func TestProduct_InvalidIDIsRejectedBeforeLookup(t *testing.T) {
	h, _ := newTestServer(t, testConfig())
	form := url.Values{"name": {"X"}, "price": {"1"}, "category": {"fruit"}}

	assertError(t, do(h, http.MethodGet, "/products/abc", nil), http.StatusBadRequest, domain.MsgInvalidID)
	assertError(t, do(h, http.MethodGet, "/products/abc/edit", nil), http.StatusBadRequest, domain.MsgInvalidID)
	assertError(t, do(h, http.MethodPut, "/products/abc", form), http.StatusBadRequest, domain.MsgInvalidID)
	assertError(t, do(h, http.MethodDelete, "/products/abc", nil), http.StatusBadRequest, domain.MsgInvalidID)
	assertError(t, do(h, http.MethodGet, "/farms/abc", nil), http.StatusBadRequest, domain.MsgInvalidID)
}

func TestProduct_AbsentIDIsNotFound(t *testing.T) {
	h, _ := newTestServer(t, testConfig())
	id := domain.NewID()

	assertError(t, do(h, http.MethodGet, "/products/"+id, nil), http.StatusNotFound, "Product Not Found")
	assertError(t, do(h, http.MethodGet, "/products/"+id+"/edit", nil), http.StatusNotFound, "Product Not Found")
	assertError(t, do(h, http.MethodPut, "/products/"+id, url.Values{
		"name": {"X"}, "price": {"1"}, "category": {"fruit"},
	}), http.StatusNotFound, "Product Not Found")
	assertError(t, do(h, http.MethodGet, "/farms/"+id, nil), http.StatusNotFound, "Farm Not Found")
}

func TestProduct_UpdateAndDeleteViaMethodOverride(t *testing.T) {
	h, _ := newTestServer(t, testConfig())
	id := createProduct(t, h, "Apple", "1", "fruit")

	w := do(h, http.MethodPost, "/products/"+id+"?_method=PUT", url.Values{
		"name": {"Green Apple"}, "price": {"1.25"}, "category": {"fruit"},
	})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/products/"+id {
		t.Fatalf("override PUT = %d loc=%q", w.Code, w.Header().Get("Location"))
	}
	if body := do(h, http.MethodGet, "/products/"+id, nil).Body.String(); !strings.Contains(body, "Green Apple") {
		t.Fatalf("update not applied:\n%s", body)
	}

	w = do(h, http.MethodPost, "/products/"+id+"?_method=PUT", url.Values{
		"name": {"Green Apple"}, "price": {"-3"}, "category": {"fruit"},
	})
	if w.Code != http.StatusBadRequest || !strings.HasPrefix(w.Body.String(), `"Validation Failed...`) {
		t.Fatalf("invalid update = %d %s", w.Code, w.Body.String())
	}

	for i := 0; i < 2; i++ {
		w = do(h, http.MethodPost, "/products/"+id+"?_method=DELETE", nil)
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/products" {
			t.Fatalf("delete #%d = %d loc=%q", i, w.Code, w.Header().Get("Location"))
		}
	}
	assertError(t, do(h, http.MethodGet, "/products/"+id, nil), http.StatusNotFound, "Product Not Found")
}

func TestProduct_ListAndCategoryFilter(t *testing.T) {
	h, _ := newTestServer(t, testConfig())
	createProduct(t, h, "Apple", "1", "fruit")
	createProduct(t, h, "Kale", "2", "vegetable")

	w := do(h, http.MethodGet, "/products", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /products = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "All Products") || !strings.Contains(body, "Apple") || !strings.Contains(body, "Kale") {
		t.Fatalf("unfiltered list:\n%s", body)
	}

	body = do(h, http.MethodGet, "/products?category=fruit", nil).Body.String()
	if !strings.Contains(body, "Fruit Products") || !strings.Contains(body, "Apple") || strings.Contains(body, "Kale") {
		t.Fatalf("fruit list:\n%s", body)
	}

	body = do(h, http.MethodGet, "/products?category=meat", nil).Body.String()
	if !strings.Contains(body, "No products yet.") {
		t.Fatalf("unknown category should list nothing:\n%s", body)
	}
}

func TestProduct_NewAndEditForms(t *testing.T) {
	h, _ := newTestServer(t, testConfig())
	id := createProduct(t, h, "Milk", "3", "dairy")

	if w := do(h, http.MethodGet, "/products/new", nil); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<form") {
		t.Fatalf("new form = %d", w.Code)
	}
	w := do(h, http.MethodGet, "/products/"+id+"/edit", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `value="Milk"`) {
		t.Fatalf("edit form = %d\n%s", w.Code, w.Body.String())
	}
}

func TestFarm_CreateAddProductAndCascadeDelete(t *testing.T) {
	h, _ := newTestServer(t, testConfig())

	w := do(h, http.MethodPost, "/farms", url.Values{
		"name": {"Full Belly"}, "city": {"Guinda"}, "email": {"fb@example.com"},
	})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("POST /farms = %d %s", w.Code, w.Body.String())
	}
	farmID := strings.TrimPrefix(w.Header().Get("Location"), "/farms/")

	if body := do(h, http.MethodGet, "/farms", nil).Body.String(); !strings.Contains(body, "Full Belly") {
		t.Fatalf("farm list:\n%s", body)
	}
	if w := do(h, http.MethodGet, "/farms/"+farmID+"/products/new", nil); w.Code != http.StatusOK {
		t.Fatalf("farm product form = %d", w.Code)
	}

	w = do(h, http.MethodPost, "/farms/"+farmID+"/products", url.Values{
		"name": {"Melon"}, "price": {"4"}, "category": {"fruit"},
	})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/farms/"+farmID {
		t.Fatalf("add product = %d loc=%q", w.Code, w.Header().Get("Location"))
	}
	if body := do(h, http.MethodGet, "/farms/"+farmID, nil).Body.String(); !strings.Contains(body, "Melon") {
		t.Fatalf("farm page missing product:\n%s", body)
	}

	w = do(h, http.MethodPost, "/farms/"+farmID+"?_method=DELETE", nil)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/farms" {
		t.Fatalf("delete farm = %d", w.Code)
	}
	if body := do(h, http.MethodGet, "/products", nil).Body.String(); strings.Contains(body, "Melon") {
		t.Fatalf("product survived farm delete:\n%s", body)
	}
}

func TestFarm_ValidationAndMissingFarm(t *testing.T) {
	h, _ := newTestServer(t, testConfig())

	w := do(h, http.MethodPost, "/farms", url.Values{"name": {"No Email"}})
	if w.Code != http.StatusBadRequest || !strings.HasPrefix(w.Body.String(), `"Validation Failed...`) {
		t.Fatalf("farm validation = %d %s", w.Code, w.Body.String())
	}

	assertError(t, do(h, http.MethodPost, "/farms/"+domain.NewID()+"/products", url.Values{
		"name": {"X"}, "price": {"1"}, "category": {"fruit"},
	}), http.StatusNotFound, "Farm Not Found")
}

func TestFallbacks_NotFoundMethodNotAllowedAndRoot(t *testing.T) {
	h, _ := newTestServer(t, testConfig())

	assertError(t, do(h, http.MethodGet, "/nope", nil), http.StatusNotFound, "Page Not Found")
	assertError(t, do(h, http.MethodPatch, "/products", nil), http.StatusMethodNotAllowed, "Method Not Allowed")

	w := do(h, http.MethodGet, "/", nil)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/products" {
		t.Fatalf("GET / = %d loc=%q", w.Code, w.Header().Get("Location"))
	}
}

func TestRegisterRoutes_HealthMetricsAndCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := testConfig()
	cfg.GzipEnabled = true
	RegisterRoutes(r, newTestCatalog(t), cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Fatalf("GET /health = %d %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Origin", "http://elsewhere.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("security headers missing: %v", w.Header())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id header missing")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "farmstand_http_requests_total") {
		t.Fatalf("GET /metrics = %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	RegisterRoutes(r, newTestCatalog(t), cfg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestHealth_ClosedCatalogIsUnavailable(t *testing.T) {
	h, catalog := newTestServer(t, testConfig())
	if err := catalog.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	assertError(t, do(h, http.MethodGet, "/health", nil), http.StatusServiceUnavailable, "Service Unavailable")
}

func TestRateLimit_ReportsThroughErrorChain(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	h, _ := newTestServer(t, cfg)

	if w := do(h, http.MethodGet, "/products", nil); w.Code != http.StatusOK {
		t.Fatalf("first request = %d", w.Code)
	}
	w := do(h, http.MethodGet, "/products", nil)
	assertError(t, w, http.StatusTooManyRequests, "Too Many Requests")
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing")
	}
	if w := do(h, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Fatalf("/health should skip the limiter, got %d", w.Code)
	}
}

func TestBodyLimit_OversizedFormIs413(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 16
	h, _ := newTestServer(t, cfg)

	w := do(h, http.MethodPost, "/products", url.Values{
		"name": {strings.Repeat("x", 64)}, "price": {"1"}, "category": {"fruit"},
	})
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d; want 413 (%s)", w.Code, w.Body.String())
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func TestNewHandler_ServesWithinDeadline(t *testing.T) {
	h, _ := newTestServer(t, testConfig())
	srv := httptest.NewServer(h)
	defer srv.Close()

	client := &http.Client{
		Timeout:       5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("GET / = %d", resp.StatusCode)
	}
}
