package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oventura/traderow-backend/internal/tenant"
)

// Ledger owns the stock quantity of products. All stock writes during order
// flows go through it; nothing else mutates products.stock_qty.
type Ledger interface {
	// CheckAndDecrease verifies current stock covers quantity and decrements
	// it in one compare-and-swap keyed by the product's version token. It
	// never retries; on a version race the caller decides whether to retry
	// with fresh reads or surface the conflict.
	CheckAndDecrease(ctx context.Context, scope tenant.Scope, productID uuid.UUID, quantity int) error

	// Restore adds quantity back to stock under the same version discipline.
	// It cannot fail on business grounds but can still report NotFound or a
	// version race.
	Restore(ctx context.Context, scope tenant.Scope, productID uuid.UUID, quantity int) error

	// WithTx returns a Ledger bound to the provided transaction.
	WithTx(tx *gorm.DB) Ledger
}
