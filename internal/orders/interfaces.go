package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oventura/traderow-backend/internal/tenant"
	"github.com/oventura/traderow-backend/pkg/db/models"
	"github.com/oventura/traderow-backend/pkg/enums"
	"github.com/oventura/traderow-backend/pkg/pagination"
)

// Repository persists orders for the lifecycle service. Every read and write
// takes the caller's tenant scope; rows outside it behave as absent.
type Repository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, scope tenant.Scope, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, scope tenant.Scope, params pagination.Params) ([]models.Order, string, error)

	// TransitionStatus flips the status only if the stored status still equals
	// from, reporting how many rows changed so concurrent transitions are
	// detected rather than overwritten.
	TransitionStatus(ctx context.Context, scope tenant.Scope, orderID uuid.UUID, from, to enums.OrderStatus, cancelledAt *time.Time) (bool, error)

	// GetProducts loads the scoped products referenced by a creation request.
	GetProducts(ctx context.Context, scope tenant.Scope, productIDs []uuid.UUID) ([]models.Product, error)

	WithTx(tx *gorm.DB) Repository
}
