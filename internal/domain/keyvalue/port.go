package keyvalue

import (
	"context"
	"fmt"
	"time"
)

// Namespace partitions the three kinds of state sharing one principal.
type Namespace string

const (
	NamespaceCart     Namespace = "cart"
	NamespaceCoupon   Namespace = "coupon"
	NamespaceSelected Namespace = "selected"
)

// Store is the persistence port for cart state: a TTL key-value service.
//
// Contract:
//   - Get returns (nil, false, nil) for an absent or expired key.
//   - Put overwrites the full value and resets the entry's TTL.
//   - Forget is idempotent; deleting a missing key is not an error.
//   - Single-key operations are atomic. Cross-key atomicity is NOT provided;
//     the usecase layer sequences multi-key writes itself.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Forget(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
}

// Key builds the storage key "{prefix}-{namespace}_{principalSuffix}".
func Key(prefix string, ns Namespace, principalSuffix string) string {
	return fmt.Sprintf("%s-%s_%s", prefix, ns, principalSuffix)
}
