package handlers

import (
	"net/http"
	"strings"

	usecase "mallcart/internal/application/usecase"
	cartdom "mallcart/internal/domain/cart"
)

// StoreHandler serves /cart/store: the fulfilling-store selection.
// PUT also drops any applied coupon (selection changes eligibility).
type StoreHandler struct {
	uc *usecase.CartUsecase
}

func NewStoreHandler(uc *usecase.CartUsecase) http.Handler {
	return &StoreHandler{uc: uc}
}

func (h *StoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "store handler is not configured")
		return
	}

	p, ok := principalFrom(r)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "identity not resolved")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var s cartdom.StoreSelection
		if err := decodeJSON(r, &s); err != nil {
			writeErr(w, http.StatusBadRequest, "malformed json")
			return
		}
		if strings.TrimSpace(s.ShopID) == "" {
			writeErr(w, http.StatusBadRequest, "shop_id is required")
			return
		}
		if err := h.uc.SetSelectedStore(r.Context(), p, s); err != nil {
			writeUsecaseErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)

	case http.MethodGet:
		s, err := h.uc.GetSelectedStore(r.Context(), p)
		if err != nil {
			writeUsecaseErr(w, err)
			return
		}
		if s == nil {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, s)

	case http.MethodDelete:
		if err := h.uc.ClearSelectedStore(r.Context(), p); err != nil {
			writeUsecaseErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}
