package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"mallcart/internal/application/identity"
	cartdom "mallcart/internal/domain/cart"
	kv "mallcart/internal/domain/keyvalue"
)

var (
	ErrCartInvalidArgument = errors.New("cart_usecase: invalid argument")
)

// EntryTTL is the shared expiration for cart, coupon and selected-store
// entries: 30 days, refreshed on every write. Reads never refresh it.
const EntryTTL = 30 * 24 * time.Hour

// ReduceOutcome tells the caller what ReduceQuantity did.
type ReduceOutcome string

const (
	ReduceDecremented ReduceOutcome = "decremented"
	ReduceRemoved     ReduceOutcome = "removed"
	ReduceNoop        ReduceOutcome = "noop"
)

// TransferOutcome tells the caller what the login transfer did.
type TransferOutcome string

const (
	TransferDone    TransferOutcome = "transferred"
	TransferSkipped TransferOutcome = "skipped"
)

// CartUsecase owns every read and write of cart, coupon and selected-store
// state, keyed by namespace-prefixed principal key.
//
// Consistency model:
//   - Each mutating operation takes a per-principal lock for the duration of
//     its read-modify-write, so two concurrent mutations against the same
//     principal cannot lose updates within this process.
//   - The three namespaced entries of one principal are still written
//     sequentially, never atomically together; a concurrent reader can
//     briefly observe a new cart with a stale coupon.
//   - Store failures propagate to the caller; they are never retried or
//     absorbed here.
type CartUsecase struct {
	store  kv.Store
	prefix string
	locks  *keyMutex
}

func NewCartUsecase(store kv.Store, prefix string) *CartUsecase {
	return &CartUsecase{
		store:  store,
		prefix: prefix,
		locks:  newKeyMutex(),
	}
}

func (uc *CartUsecase) key(ns kv.Namespace, p identity.Principal) string {
	return kv.Key(uc.prefix, ns, string(p))
}

// ----------------------------
// Cart mutations
// ----------------------------

// AddItem validates item and adds it to the principal's cart.
//
// Branches:
//   - empty/absent cart: item becomes the sole line; coupon invalidated.
//   - index addresses an existing line with the same (id, option_id): that
//     line's quantity grows by item.Quantity. Quantity-only change, so the
//     coupon survives.
//   - otherwise: item is appended as a new line; coupon invalidated.
//
// On validation failure nothing is read or written.
func (uc *CartUsecase) AddItem(ctx context.Context, p identity.Principal, item cartdom.Item, index *int) error {
	if p == "" {
		return ErrCartInvalidArgument
	}
	if ve := item.Validate(); ve != nil {
		return ve
	}

	cartKey := uc.key(kv.NamespaceCart, p)
	uc.locks.Lock(cartKey)
	defer uc.locks.Unlock(cartKey)

	items, err := uc.loadCart(ctx, p)
	if err != nil {
		return err
	}

	switch {
	case len(items) == 0:
		if err := uc.saveCart(ctx, p, []cartdom.Item{item}); err != nil {
			return err
		}
		return uc.invalidateCoupon(ctx, p)

	case index != nil && *index >= 0 && *index < len(items) && items[*index].SameLine(item):
		items[*index].Quantity += item.Quantity
		return uc.saveCart(ctx, p, items)

	default:
		items = append(items, item)
		if err := uc.saveCart(ctx, p, items); err != nil {
			return err
		}
		return uc.invalidateCoupon(ctx, p)
	}
}

// ReduceQuantity decrements the line at index by one. A line at quantity 1 is
// removed outright. An out-of-range index is a defined no-op, not an error:
// absence of cart state is a normal condition.
func (uc *CartUsecase) ReduceQuantity(ctx context.Context, p identity.Principal, index int) (ReduceOutcome, error) {
	if p == "" {
		return ReduceNoop, ErrCartInvalidArgument
	}

	cartKey := uc.key(kv.NamespaceCart, p)
	uc.locks.Lock(cartKey)
	defer uc.locks.Unlock(cartKey)

	items, err := uc.loadCart(ctx, p)
	if err != nil {
		return ReduceNoop, err
	}
	if index < 0 || index >= len(items) {
		return ReduceNoop, nil
	}

	if items[index].Quantity > 1 {
		items[index].Quantity--
		if err := uc.saveCart(ctx, p, items); err != nil {
			return ReduceNoop, err
		}
		return ReduceDecremented, nil
	}

	items = append(items[:index], items[index+1:]...)
	if err := uc.saveCart(ctx, p, items); err != nil {
		return ReduceNoop, err
	}
	return ReduceRemoved, nil
}

// RemoveItem removes the single line at index, shifting later indices down.
// Callers must not cache indices across calls. The cart entry persists even
// when the last line is removed this way; only ClearCart forgets it.
// An out-of-range index is a no-op.
func (uc *CartUsecase) RemoveItem(ctx context.Context, p identity.Principal, index int) error {
	if p == "" {
		return ErrCartInvalidArgument
	}

	cartKey := uc.key(kv.NamespaceCart, p)
	uc.locks.Lock(cartKey)
	defer uc.locks.Unlock(cartKey)

	items, err := uc.loadCart(ctx, p)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(items) {
		return nil
	}

	items = append(items[:index], items[index+1:]...)
	return uc.saveCart(ctx, p, items)
}

// ClearCart deletes the whole cart entry and invalidates the coupon.
// Clearing an absent cart is a no-op.
func (uc *CartUsecase) ClearCart(ctx context.Context, p identity.Principal) error {
	if p == "" {
		return ErrCartInvalidArgument
	}

	cartKey := uc.key(kv.NamespaceCart, p)
	uc.locks.Lock(cartKey)
	defer uc.locks.Unlock(cartKey)

	if err := uc.store.Forget(ctx, cartKey); err != nil {
		return fmt.Errorf("cart_usecase: clear cart: %w", err)
	}
	return uc.invalidateCoupon(ctx, p)
}

// ----------------------------
// Cart reads
// ----------------------------

// GetCart returns the principal's line items in insertion order. Pure read:
// no mutation, no TTL refresh. Absent cart yields an empty slice.
func (uc *CartUsecase) GetCart(ctx context.Context, p identity.Principal) ([]cartdom.Item, error) {
	if p == "" {
		return nil, ErrCartInvalidArgument
	}
	return uc.loadCart(ctx, p)
}

// TotalItems counts distinct lines (not quantity-weighted).
func (uc *CartUsecase) TotalItems(ctx context.Context, p identity.Principal) (int, error) {
	items, err := uc.GetCart(ctx, p)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// TotalQuantity sums quantity across all lines; 0 for an absent cart.
func (uc *CartUsecase) TotalQuantity(ctx context.Context, p identity.Principal) (int, error) {
	items, err := uc.GetCart(ctx, p)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total, nil
}

// TotalPrice sums price * quantity across all lines; zero for an absent cart.
// Deliberately uses price, not actual_price.
func (uc *CartUsecase) TotalPrice(ctx context.Context, p identity.Principal) (decimal.Decimal, error) {
	items, err := uc.GetCart(ctx, p)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total, nil
}

// ----------------------------
// Coupon
// ----------------------------

// SetCoupon overwrites the principal's coupon unconditionally.
func (uc *CartUsecase) SetCoupon(ctx context.Context, p identity.Principal, c cartdom.Coupon) error {
	if p == "" {
		return ErrCartInvalidArgument
	}
	return uc.putJSON(ctx, uc.key(kv.NamespaceCoupon, p), c)
}

// GetCoupon returns the applied coupon, or nil when none is applied.
func (uc *CartUsecase) GetCoupon(ctx context.Context, p identity.Principal) (*cartdom.Coupon, error) {
	if p == "" {
		return nil, ErrCartInvalidArgument
	}
	var c cartdom.Coupon
	ok, err := uc.getJSON(ctx, uc.key(kv.NamespaceCoupon, p), &c)
	if err != nil || !ok {
		return nil, err
	}
	return &c, nil
}

// ClearCoupon removes the coupon if present. Idempotent.
func (uc *CartUsecase) ClearCoupon(ctx context.Context, p identity.Principal) error {
	if p == "" {
		return ErrCartInvalidArgument
	}
	return uc.invalidateCoupon(ctx, p)
}

// ----------------------------
// Selected store
// ----------------------------

// SetSelectedStore overwrites the fulfilling-store selection, then
// unconditionally invalidates the coupon: the selection changes the
// pricing/eligibility context the coupon was applied under.
func (uc *CartUsecase) SetSelectedStore(ctx context.Context, p identity.Principal, s cartdom.StoreSelection) error {
	if p == "" {
		return ErrCartInvalidArgument
	}
	if err := uc.putJSON(ctx, uc.key(kv.NamespaceSelected, p), s); err != nil {
		return err
	}
	return uc.invalidateCoupon(ctx, p)
}

// GetSelectedStore returns the selection, or nil when none exists.
func (uc *CartUsecase) GetSelectedStore(ctx context.Context, p identity.Principal) (*cartdom.StoreSelection, error) {
	if p == "" {
		return nil, ErrCartInvalidArgument
	}
	var s cartdom.StoreSelection
	ok, err := uc.getJSON(ctx, uc.key(kv.NamespaceSelected, p), &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

// ClearSelectedStore removes the selection if present. Idempotent.
func (uc *CartUsecase) ClearSelectedStore(ctx context.Context, p identity.Principal) error {
	if p == "" {
		return ErrCartInvalidArgument
	}
	if err := uc.store.Forget(ctx, uc.key(kv.NamespaceSelected, p)); err != nil {
		return fmt.Errorf("cart_usecase: clear selected store: %w", err)
	}
	return nil
}

// ----------------------------
// Login transfer
// ----------------------------

// TransferAnonymousCart reconciles anonymous state into authenticated state
// at the moment a visitor logs in. One-directional, once per login event:
//
//   - If the authenticated principal already has a non-empty cart, nothing
//     moves; existing authenticated state is never overwritten.
//   - Otherwise the anonymous cart (if non-empty) is copied verbatim with a
//     fresh TTL, and the anonymous store selection (if any) follows it.
//   - Coupons never transfer: anonymous eligibility does not carry over.
//
// The stale anonymous entries are left behind for their TTL to reclaim.
func (uc *CartUsecase) TransferAnonymousCart(ctx context.Context, anon, auth identity.Principal) (TransferOutcome, error) {
	if anon == "" || auth == "" || anon == auth {
		return TransferSkipped, ErrCartInvalidArgument
	}

	anonKey := uc.key(kv.NamespaceCart, anon)
	authKey := uc.key(kv.NamespaceCart, auth)

	// Lock both principals in stable order so two interleaved transfers
	// cannot deadlock.
	keys := []string{anonKey, authKey}
	sort.Strings(keys)
	uc.locks.Lock(keys[0])
	defer uc.locks.Unlock(keys[0])
	uc.locks.Lock(keys[1])
	defer uc.locks.Unlock(keys[1])

	authItems, err := uc.loadCart(ctx, auth)
	if err != nil {
		return TransferSkipped, err
	}
	if len(authItems) > 0 {
		return TransferSkipped, nil
	}

	anonRaw, ok, err := uc.store.Get(ctx, anonKey)
	if err != nil {
		return TransferSkipped, fmt.Errorf("cart_usecase: load anonymous cart: %w", err)
	}
	if !ok {
		return TransferSkipped, nil
	}
	var anonItems []cartdom.Item
	if err := json.Unmarshal(anonRaw, &anonItems); err != nil {
		return TransferSkipped, fmt.Errorf("cart_usecase: decode anonymous cart: %w", err)
	}
	if len(anonItems) == 0 {
		return TransferSkipped, nil
	}

	// Copy the stored value verbatim; only the TTL restarts.
	if err := uc.store.Put(ctx, authKey, anonRaw, EntryTTL); err != nil {
		return TransferSkipped, fmt.Errorf("cart_usecase: transfer cart: %w", err)
	}

	selRaw, ok, err := uc.store.Get(ctx, uc.key(kv.NamespaceSelected, anon))
	if err != nil {
		return TransferDone, fmt.Errorf("cart_usecase: load anonymous selection: %w", err)
	}
	if ok {
		if err := uc.store.Put(ctx, uc.key(kv.NamespaceSelected, auth), selRaw, EntryTTL); err != nil {
			return TransferDone, fmt.Errorf("cart_usecase: transfer selection: %w", err)
		}
	}

	return TransferDone, nil
}

// ----------------------------
// Helpers
// ----------------------------

// loadCart reads and decodes the full cart; absent entries decode to nil.
func (uc *CartUsecase) loadCart(ctx context.Context, p identity.Principal) ([]cartdom.Item, error) {
	raw, ok, err := uc.store.Get(ctx, uc.key(kv.NamespaceCart, p))
	if err != nil {
		return nil, fmt.Errorf("cart_usecase: load cart: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var items []cartdom.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("cart_usecase: decode cart: %w", err)
	}
	return items, nil
}

// saveCart writes the whole collection back (full replacement, never a
// partial patch) and refreshes the entry TTL.
func (uc *CartUsecase) saveCart(ctx context.Context, p identity.Principal, items []cartdom.Item) error {
	if items == nil {
		items = []cartdom.Item{}
	}
	return uc.putJSON(ctx, uc.key(kv.NamespaceCart, p), items)
}

// invalidateCoupon drops the coupon synchronously with the triggering write.
func (uc *CartUsecase) invalidateCoupon(ctx context.Context, p identity.Principal) error {
	if err := uc.store.Forget(ctx, uc.key(kv.NamespaceCoupon, p)); err != nil {
		return fmt.Errorf("cart_usecase: invalidate coupon: %w", err)
	}
	return nil
}

func (uc *CartUsecase) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cart_usecase: encode %s: %w", key, err)
	}
	if err := uc.store.Put(ctx, key, raw, EntryTTL); err != nil {
		return fmt.Errorf("cart_usecase: put %s: %w", key, err)
	}
	return nil
}

func (uc *CartUsecase) getJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := uc.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("cart_usecase: get %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("cart_usecase: decode %s: %w", key, err)
	}
	return true, nil
}
