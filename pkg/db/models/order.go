package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oventura/traderow-backend/pkg/enums"
)

// Order is the aggregate root produced by a successful creation flow.
// TotalAmount is computed once from the item snapshots and never recomputed;
// orders are cancelled, never hard-deleted.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID   uuid.UUID         `gorm:"column:company_id;type:uuid;not null"`
	CustomerID  uuid.UUID         `gorm:"column:customer_id;type:uuid;not null"`
	AddressID   uuid.UUID         `gorm:"column:address_id;type:uuid;not null"`
	OrderNumber int64             `gorm:"column:order_number;not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	OrderedAt   time.Time         `gorm:"column:ordered_at;not null"`
	CancelledAt *time.Time        `gorm:"column:cancelled_at"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
