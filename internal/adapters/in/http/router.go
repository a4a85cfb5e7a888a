package httpin

import (
	"log"
	"net/http"
)

// Deps is the cart-facing handler set injected by the DI container.
type Deps struct {
	Cart     http.Handler
	Coupon   http.Handler
	Store    http.Handler
	Transfer http.Handler
}

// handleSafe registers pattern with h. If h is nil, it logs and registers
// NotFoundHandler instead so a partial container cannot crash the server.
func handleSafe(mux *http.ServeMux, pattern string, h http.Handler, name string) {
	if h == nil {
		log.Printf("[router] WARN: nil handler: %s pattern=%s (registering NotFoundHandler)", name, pattern)
		h = http.NotFoundHandler()
	}
	mux.Handle(pattern, h)
}

// NewRouter sets up HTTP routing for all cart endpoints.
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handleSafe(mux, "/cart", deps.Cart, "Cart")
	handleSafe(mux, "/cart/summary", deps.Cart, "Cart(summary)")
	handleSafe(mux, "/cart/items", deps.Cart, "Cart(items)")
	handleSafe(mux, "/cart/items/", deps.Cart, "Cart(items)")
	handleSafe(mux, "/cart/coupon", deps.Coupon, "Coupon")
	handleSafe(mux, "/cart/store", deps.Store, "Store")
	handleSafe(mux, "/cart/transfer", deps.Transfer, "Transfer")

	return mux
}
