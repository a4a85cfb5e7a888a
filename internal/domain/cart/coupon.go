package cart

import "github.com/shopspring/decimal"

// Coupon is the applied-coupon value kept alongside a cart. The manager treats
// it as opaque: it is stored and invalidated, never re-validated here.
type Coupon struct {
	Code           string            `json:"code"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	DiscountType   string            `json:"discount_type"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}
