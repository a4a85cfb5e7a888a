package cart

// StoreSelection is the chosen fulfilling store for a principal. Selecting a
// new store changes the pricing/eligibility context, so the manager drops any
// applied coupon when this value is written.
type StoreSelection struct {
	ShopID   string            `json:"shop_id"`
	Name     string            `json:"name,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
