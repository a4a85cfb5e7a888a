package handlers

import (
	"net/http"

	"mallcart/internal/adapters/in/http/middleware"
	"mallcart/internal/application/identity"
	usecase "mallcart/internal/application/usecase"
)

// TransferHandler serves POST /cart/transfer: the one-time login merge of
// anonymous cart state into the authenticated principal. The login flow calls
// it once, right after authentication, from the same client connection, so
// the anonymous principal can still be derived from the request's address.
type TransferHandler struct {
	uc *usecase.CartUsecase
}

func NewTransferHandler(uc *usecase.CartUsecase) http.Handler {
	return &TransferHandler{uc: uc}
}

func (h *TransferHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "transfer handler is not configured")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	idc, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeErr(w, http.StatusInternalServerError, "identity not resolved")
		return
	}
	if !idc.Authenticated() {
		writeErr(w, http.StatusUnauthorized, "authentication required")
		return
	}

	anon := identity.Anonymous(idc)
	auth := identity.Resolve(idc)

	outcome, err := h.uc.TransferAnonymousCart(r.Context(), anon, auth)
	if err != nil {
		writeUsecaseErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": string(outcome)})
}
