package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpin "mallcart/internal/adapters/in/http"
	"mallcart/internal/adapters/in/http/middleware"
	kvmem "mallcart/internal/adapters/out/keyvalue/memory"
	"mallcart/internal/application/identity"
	usecase "mallcart/internal/application/usecase"
)

func newTestServer(t *testing.T) (*httptest.Server, *usecase.CartUsecase) {
	t.Helper()

	uc := usecase.NewCartUsecase(kvmem.New(), "test")
	router := httpin.NewRouter(httpin.Deps{
		Cart:     NewCartHandler(uc),
		Coupon:   NewCouponHandler(uc),
		Store:    NewStoreHandler(uc),
		Transfer: NewTransferHandler(uc),
	})

	// Stand-in for the identity middleware: authenticate via a plain header
	// so tests do not need a Firebase verifier.
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idc := identity.Context{
			UserID:     r.Header.Get("X-Test-User"),
			RemoteAddr: r.RemoteAddr,
		}
		router.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), idc)))
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, uc
}

func doJSON(t *testing.T, method, url, body string, header map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })

	var decoded map[string]any
	if res.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(res.Body).Decode(&decoded)
	}
	return res, decoded
}

const addBody = `{
  "id": "prod-1", "item_code": "SKU-1", "name": "Mug",
  "photo": "https://cdn.example/mug.png",
  "quantity": 2, "price": "9.99"
}`

func TestCartHandler_AddAndGet(t *testing.T) {
	srv, _ := newTestServer(t)

	res, body := doJSON(t, http.MethodPost, srv.URL+"/cart/items", addBody, nil)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	items := body["items"].([]any)
	require.Len(t, items, 1)

	res, body = doJSON(t, http.MethodGet, srv.URL+"/cart", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	items = body["items"].([]any)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	assert.Equal(t, "prod-1", first["id"])
}

func TestCartHandler_ValidationFailure(t *testing.T) {
	srv, _ := newTestServer(t)

	res, body := doJSON(t, http.MethodPost, srv.URL+"/cart/items",
		`{"id":"prod-1","quantity":1,"price":"1"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Equal(t, "validation_failed", body["error"])
	assert.NotEmpty(t, body["fields"])
}

func TestCartHandler_NonNumericPrice(t *testing.T) {
	srv, _ := newTestServer(t)

	res, body := doJSON(t, http.MethodPost, srv.URL+"/cart/items",
		`{"id":"prod-1","item_code":"SKU-1","name":"Mug","photo":"p","quantity":1,"price":"not-a-number"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Equal(t, "validation_failed", body["error"])
}

func TestCartHandler_Summary(t *testing.T) {
	srv, _ := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/cart/items", addBody, nil)

	res, body := doJSON(t, http.MethodGet, srv.URL+"/cart/summary", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, float64(1), body["total_items"])
	assert.Equal(t, float64(2), body["total_quantity"])
}

func TestCartHandler_ReduceAndRemove(t *testing.T) {
	srv, _ := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/cart/items", addBody, nil)

	res, body := doJSON(t, http.MethodPost, srv.URL+"/cart/items/reduce", `{"index":0}`, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "decremented", body["result"])

	res, body = doJSON(t, http.MethodPost, srv.URL+"/cart/items/reduce", `{"index":0}`, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "removed", body["result"])
	assert.Len(t, body["items"].([]any), 0)

	// Out of range keeps 200 + noop: absence is a normal condition.
	res, body = doJSON(t, http.MethodPost, srv.URL+"/cart/items/reduce", `{"index":5}`, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "noop", body["result"])
}

func TestCartHandler_ClearCart(t *testing.T) {
	srv, _ := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/cart/items", addBody, nil)

	res, _ := doJSON(t, http.MethodDelete, srv.URL+"/cart", "", nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res, body := doJSON(t, http.MethodGet, srv.URL+"/cart", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, body["items"].([]any), 0)
}

func TestCouponHandler_Lifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	res, _ := doJSON(t, http.MethodGet, srv.URL+"/cart/coupon", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body := doJSON(t, http.MethodPut, srv.URL+"/cart/coupon",
		`{"code":"SAVE10","discount_amount":"10","discount_type":"percent"}`, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "SAVE10", body["code"])

	res, body = doJSON(t, http.MethodGet, srv.URL+"/cart/coupon", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "SAVE10", body["code"])

	res, _ = doJSON(t, http.MethodDelete, srv.URL+"/cart/coupon", "", nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	res, _ = doJSON(t, http.MethodDelete, srv.URL+"/cart/coupon", "", nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode, "clear is idempotent")
}

func TestStoreHandler_SelectionDropsCoupon(t *testing.T) {
	srv, _ := newTestServer(t)

	doJSON(t, http.MethodPut, srv.URL+"/cart/coupon", `{"code":"SAVE10"}`, nil)

	res, _ := doJSON(t, http.MethodPut, srv.URL+"/cart/store", `{"shop_id":"shop-1"}`, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = doJSON(t, http.MethodGet, srv.URL+"/cart/coupon", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestTransferHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	// Anonymous visitor fills a cart.
	doJSON(t, http.MethodPost, srv.URL+"/cart/items", addBody, nil)

	// Transfer without authentication is rejected.
	res, _ := doJSON(t, http.MethodPost, srv.URL+"/cart/transfer", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// The same client logs in and transfers once.
	authed := map[string]string{"X-Test-User": "user-42"}
	res, body := doJSON(t, http.MethodPost, srv.URL+"/cart/transfer", "", authed)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "transferred", body["result"])

	res, body = doJSON(t, http.MethodGet, srv.URL+"/cart", "", authed)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, body["items"].([]any), 1)

	// A second login event finds authenticated state and skips.
	res, body = doJSON(t, http.MethodPost, srv.URL+"/cart/transfer", "", authed)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "skipped", body["result"])
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	res, body := doJSON(t, http.MethodPatch, srv.URL+"/cart", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
	assert.Equal(t, "method_not_allowed", body["error"])
}
