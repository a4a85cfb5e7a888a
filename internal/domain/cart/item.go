package cart

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Item represents "one line item" in a cart.
// Line identity for merge purposes is (id, optionId): the same product with a
// different selected option is always a separate line.
type Item struct {
	ID             string          `json:"id"`
	ItemCode       string          `json:"item_code"`
	VendorID       string          `json:"vendor_id"`
	ShopID         string          `json:"shop_id"`
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	ActualPrice    decimal.Decimal `json:"actual_price"`
	Photo          string          `json:"photo"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DiscountType   string          `json:"discount_type"`
	OptionID       string          `json:"option_id"`
	OptionName     string          `json:"option_name"`
	Option         string          `json:"option"`
}

// FieldError points at one invalid input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports why an item was rejected. No state is mutated when
// AddItem returns one of these.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "cart: invalid item"
	}
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("cart: invalid item (%s)", strings.Join(names, ", "))
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// Validate checks the add-to-cart preconditions:
// id, item_code, name and photo must be present, quantity must be >= 1 and
// price must be a non-negative amount. Returns nil when the item is valid.
func (it Item) Validate() *ValidationError {
	ve := &ValidationError{}

	if strings.TrimSpace(it.ID) == "" {
		ve.add("id", "required")
	}
	if strings.TrimSpace(it.ItemCode) == "" {
		ve.add("item_code", "required")
	}
	if strings.TrimSpace(it.Name) == "" {
		ve.add("name", "required")
	}
	if strings.TrimSpace(it.Photo) == "" {
		ve.add("photo", "required")
	}
	if it.Quantity < 1 {
		ve.add("quantity", "must be >= 1")
	}
	if it.Price.IsNegative() {
		ve.add("price", "must not be negative")
	}

	if len(ve.Fields) == 0 {
		return nil
	}
	return ve
}

// SameLine reports whether other belongs to the same cart line as it.
func (it Item) SameLine(other Item) bool {
	return it.ID == other.ID && it.OptionID == other.OptionID
}

// LineTotal is price * quantity. Uses Price, not ActualPrice: discounted
// totals are the caller's business.
func (it Item) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}
