package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oventura/traderow-backend/internal/tenant"
	"github.com/oventura/traderow-backend/pkg/db/models"
	pkgerrors "github.com/oventura/traderow-backend/pkg/errors"
)

type ledgerImpl struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) Ledger {
	return &ledgerImpl{db: db}
}

func (l *ledgerImpl) WithTx(tx *gorm.DB) Ledger {
	if tx == nil {
		return l
	}
	return &ledgerImpl{db: tx}
}

func (l *ledgerImpl) CheckAndDecrease(ctx context.Context, scope tenant.Scope, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := l.read(ctx, scope, productID)
	if err != nil {
		return err
	}
	if product.StockQty < quantity {
		return insufficientStock(productID, product.StockQty, quantity)
	}

	res := l.scoped(ctx, scope).
		Model(&models.Product{}).
		Where("id = ? AND version = ? AND stock_qty >= ?", productID, product.Version, quantity).
		Updates(map[string]any{
			"stock_qty": gorm.Expr("stock_qty - ?", quantity),
			"version":   gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "decrementing stock")
	}
	if res.RowsAffected == 0 {
		// The row moved under us. Re-read once to report the precise reason.
		current, rerr := l.read(ctx, scope, productID)
		if rerr != nil {
			return rerr
		}
		if current.StockQty < quantity {
			return insufficientStock(productID, current.StockQty, quantity)
		}
		return pkgerrors.New(pkgerrors.CodeConcurrencyConflict, "stock changed concurrently, please retry").
			WithDetails(map[string]any{"productId": productID.String()})
	}
	return nil
}

func (l *ledgerImpl) Restore(ctx context.Context, scope tenant.Scope, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := l.read(ctx, scope, productID)
	if err != nil {
		return err
	}

	res := l.scoped(ctx, scope).
		Model(&models.Product{}).
		Where("id = ? AND version = ?", productID, product.Version).
		Updates(map[string]any{
			"stock_qty": gorm.Expr("stock_qty + ?", quantity),
			"version":   gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "restoring stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConcurrencyConflict, "stock changed concurrently, please retry").
			WithDetails(map[string]any{"productId": productID.String()})
	}
	return nil
}

// read fetches the product inside the tenant boundary. A product outside the
// scope reports NotFound, indistinguishable from a missing row.
func (l *ledgerImpl) read(ctx context.Context, scope tenant.Scope, productID uuid.UUID) (*models.Product, error) {
	if !scope.Bound() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	var product models.Product
	err := l.scoped(ctx, scope).
		Where("id = ?", productID).
		First(&product).Error
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return &product, nil
}

func (l *ledgerImpl) scoped(ctx context.Context, scope tenant.Scope) *gorm.DB {
	q := l.db.WithContext(ctx)
	if scope.IsSuperAdmin() {
		return q
	}
	companyID, ok := scope.CompanyID()
	if !ok {
		// Unbound scope matches nothing.
		return q.Where("1 = 0")
	}
	return q.Where("company_id = ?", companyID)
}

func insufficientStock(productID uuid.UUID, available, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{
			"productId": productID.String(),
			"available": available,
			"requested": requested,
		})
}
