package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"mallcart/internal/application/identity"
	usecase "mallcart/internal/application/usecase"
	cartdom "mallcart/internal/domain/cart"
)

// CartHandler serves the cart endpoints:
//
//   - GET    /cart              : line items
//   - GET    /cart/summary      : items + count/quantity/total
//   - DELETE /cart              : destroy the whole cart
//   - POST   /cart/items        : add an item (optional merge index)
//   - POST   /cart/items/reduce : decrement the line at index
//   - DELETE /cart/items?index=n: remove the line at index
//
// Indices shift down after a removal, so clients must re-read the cart (the
// mutation responses include it) instead of caching indices across calls.
type CartHandler struct {
	uc *usecase.CartUsecase
}

func NewCartHandler(uc *usecase.CartUsecase) http.Handler {
	return &CartHandler{uc: uc}
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "cart handler is not configured")
		return
	}

	p, ok := principalFrom(r)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "identity not resolved")
		return
	}

	path := strings.TrimRight(r.URL.Path, "/")
	if path == "" {
		path = "/cart"
	}

	switch {
	case path == "/cart" && r.Method == http.MethodGet:
		h.getCart(w, r, p)
	case path == "/cart" && r.Method == http.MethodDelete:
		h.clearCart(w, r, p)
	case path == "/cart/summary" && r.Method == http.MethodGet:
		h.getSummary(w, r, p)
	case path == "/cart/items" && r.Method == http.MethodPost:
		h.addItem(w, r, p)
	case path == "/cart/items" && r.Method == http.MethodDelete:
		h.removeItem(w, r, p)
	case path == "/cart/items/reduce" && r.Method == http.MethodPost:
		h.reduceItem(w, r, p)
	default:
		methodNotAllowed(w)
	}
}

type addItemRequest struct {
	Index          *int             `json:"index"`
	ID             string           `json:"id"`
	ItemCode       string           `json:"item_code"`
	VendorID       string           `json:"vendor_id"`
	ShopID         string           `json:"shop_id"`
	Name           string           `json:"name"`
	Quantity       *int             `json:"quantity"`
	Price          *decimal.Decimal `json:"price"`
	ActualPrice    *decimal.Decimal `json:"actual_price"`
	Photo          string           `json:"photo"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	DiscountType   string           `json:"discount_type"`
	OptionID       string           `json:"option_id"`
	OptionName     string           `json:"option_name"`
	Option         string           `json:"option"`
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request, p identity.Principal) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		// Non-numeric price/quantity fail here; report as validation failure.
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation_failed",
			"fields": []cartdom.FieldError{{Field: "body", Reason: "malformed json"}},
		})
		return
	}

	// Pointer fields distinguish absent from zero. Absent quantity/price are
	// rejected before they can masquerade as zero values.
	ve := &cartdom.ValidationError{}
	if req.Quantity == nil {
		ve.Fields = append(ve.Fields, cartdom.FieldError{Field: "quantity", Reason: "required"})
	}
	if req.Price == nil {
		ve.Fields = append(ve.Fields, cartdom.FieldError{Field: "price", Reason: "required"})
	}
	if len(ve.Fields) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation_failed",
			"fields": ve.Fields,
		})
		return
	}

	item := cartdom.Item{
		ID:           req.ID,
		ItemCode:     req.ItemCode,
		VendorID:     req.VendorID,
		ShopID:       req.ShopID,
		Name:         req.Name,
		Quantity:     *req.Quantity,
		Price:        *req.Price,
		Photo:        req.Photo,
		DiscountType: req.DiscountType,
		OptionID:     req.OptionID,
		OptionName:   req.OptionName,
		Option:       req.Option,
	}
	if req.ActualPrice != nil {
		item.ActualPrice = *req.ActualPrice
	}
	if req.DiscountAmount != nil {
		item.DiscountAmount = *req.DiscountAmount
	}

	if err := h.uc.AddItem(r.Context(), p, item, req.Index); err != nil {
		writeUsecaseErr(w, err)
		return
	}

	items, err := h.uc.GetCart(r.Context(), p)
	if err != nil {
		writeUsecaseErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"items": itemsOrEmpty(items)})
}

func (h *CartHandler) reduceItem(w http.ResponseWriter, r *http.Request, p identity.Principal) {
	var req struct {
		Index *int `json:"index"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Index == nil {
		writeErr(w, http.StatusBadRequest, "index is required")
		return
	}

	outcome, err := h.uc.ReduceQuantity(r.Context(), p, *req.Index)
	if err != nil {
		writeUsecaseErr(w, err)
		return
	}

	items, err := h.uc.GetCart(r.Context(), p)
	if err != nil {
		writeUsecaseErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result": string(outcome),
		"items":  itemsOrEmpty(items),
	})
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request, p identity.Principal) {
	idxRaw := strings.TrimSpace(r.URL.Query().Get("index"))
	idx, err := strconv.Atoi(idxRaw)
	if idxRaw == "" || err != nil {
		writeErr(w, http.StatusBadRequest, "index is required")
		return
	}

	if err := h.uc.RemoveItem(r.Context(), p, idx); err != nil {
		writeUsecaseErr(w, err)
		return
	}

	items, err := h.uc.GetCart(r.Context(), p)
	if err != nil {
		writeUsecaseErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": itemsOrEmpty(items)})
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request, p identity.Principal) {
	if err := h.uc.ClearCart(r.Context(), p); err != nil {
		writeUsecaseErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request, p identity.Principal) {
	items, err := h.uc.GetCart(r.Context(), p)
	if err != nil {
		writeUsecaseErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": itemsOrEmpty(items)})
}

func (h *CartHandler) getSummary(w http.ResponseWriter, r *http.Request, p identity.Principal) {
	items, err := h.uc.GetCart(r.Context(), p)
	if err != nil {
		writeUsecaseErr(w, err)
		return
	}

	quantity := 0
	total := decimal.Zero
	for _, it := range items {
		quantity += it.Quantity
		total = total.Add(it.LineTotal())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":          itemsOrEmpty(items),
		"total_items":    len(items),
		"total_quantity": quantity,
		"total_price":    total,
	})
}

func itemsOrEmpty(items []cartdom.Item) []cartdom.Item {
	if items == nil {
		return []cartdom.Item{}
	}
	return items
}
