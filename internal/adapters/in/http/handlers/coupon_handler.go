package handlers

import (
	"net/http"
	"strings"

	usecase "mallcart/internal/application/usecase"
	cartdom "mallcart/internal/domain/cart"
)

// CouponHandler serves /cart/coupon: PUT overwrite, GET read, DELETE clear.
type CouponHandler struct {
	uc *usecase.CartUsecase
}

func NewCouponHandler(uc *usecase.CartUsecase) http.Handler {
	return &CouponHandler{uc: uc}
}

func (h *CouponHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "coupon handler is not configured")
		return
	}

	p, ok := principalFrom(r)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "identity not resolved")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var c cartdom.Coupon
		if err := decodeJSON(r, &c); err != nil {
			writeErr(w, http.StatusBadRequest, "malformed json")
			return
		}
		if strings.TrimSpace(c.Code) == "" {
			writeErr(w, http.StatusBadRequest, "code is required")
			return
		}
		if err := h.uc.SetCoupon(r.Context(), p, c); err != nil {
			writeUsecaseErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)

	case http.MethodGet:
		c, err := h.uc.GetCoupon(r.Context(), p)
		if err != nil {
			writeUsecaseErr(w, err)
			return
		}
		if c == nil {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, c)

	case http.MethodDelete:
		if err := h.uc.ClearCoupon(r.Context(), p); err != nil {
			writeUsecaseErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}
