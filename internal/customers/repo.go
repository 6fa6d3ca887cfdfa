package customers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oventura/traderow-backend/internal/tenant"
	"github.com/oventura/traderow-backend/pkg/db/models"
	pkgerrors "github.com/oventura/traderow-backend/pkg/errors"
)

// Repository resolves customers and their addresses within a tenant boundary.
// A row belonging to another company reports NotFound.
type Repository interface {
	GetCustomer(ctx context.Context, scope tenant.Scope, customerID uuid.UUID) (*models.Customer, error)
	GetAddress(ctx context.Context, scope tenant.Scope, customerID, addressID uuid.UUID) (*models.Address, error)
	WithTx(tx *gorm.DB) Repository
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetCustomer(ctx context.Context, scope tenant.Scope, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.scoped(ctx, scope).
		Where("id = ?", customerID).
		First(&customer).Error
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer")
	}
	return &customer, nil
}

func (r *repository) GetAddress(ctx context.Context, scope tenant.Scope, customerID, addressID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.scoped(ctx, scope).
		Where("id = ? AND customer_id = ?", addressID, customerID).
		First(&address).Error
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading address")
	}
	return &address, nil
}

func (r *repository) scoped(ctx context.Context, scope tenant.Scope) *gorm.DB {
	q := r.db.WithContext(ctx)
	if scope.IsSuperAdmin() {
		return q
	}
	companyID, ok := scope.CompanyID()
	if !ok {
		return q.Where("1 = 0")
	}
	return q.Where("company_id = ?", companyID)
}
