package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/oventura/traderow-backend/internal/payment"
	"github.com/oventura/traderow-backend/pkg/db/models"
	"github.com/oventura/traderow-backend/pkg/enums"
)

// CreateOrderItemInput is one requested line of an order.
type CreateOrderItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput carries everything the lifecycle service needs to build an
// order. Prices and totals are never part of the input; they are computed
// from the catalog at creation time.
type CreateOrderInput struct {
	CustomerID uuid.UUID              `json:"customerId" validate:"required"`
	AddressID  uuid.UUID              `json:"addressId" validate:"required"`
	Items      []CreateOrderItemInput `json:"items" validate:"required,min=1,dive"`
	Payment    payment.Details        `json:"-"`
}

// OrderDTO is the API shape of an order.
type OrderDTO struct {
	ID          uuid.UUID         `json:"id"`
	CustomerID  uuid.UUID         `json:"customer_id"`
	AddressID   uuid.UUID         `json:"address_id"`
	OrderNumber int64             `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount string            `json:"total_amount"`
	OrderedAt   time.Time         `json:"ordered_at"`
	CancelledAt *time.Time        `json:"cancelled_at,omitempty"`
	Items       []OrderItemDTO    `json:"items"`
}

// OrderItemDTO is one priced line of an order as returned by the API.
type OrderItemDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	LineTotal string    `json:"line_total"`
}

// ToOrderDTO maps a persisted order onto its API shape.
func ToOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:          order.ID,
		CustomerID:  order.CustomerID,
		AddressID:   order.AddressID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		TotalAmount: order.TotalAmount.StringFixed(2),
		OrderedAt:   order.OrderedAt,
		CancelledAt: order.CancelledAt,
		Items:       make([]OrderItemDTO, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
			LineTotal: item.LineTotal.StringFixed(2),
		})
	}
	return dto
}

// ToOrderDTOs maps a page of orders onto their API shape.
func ToOrderDTOs(orders []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, *ToOrderDTO(&orders[i]))
	}
	return out
}

// OrderCreatedEvent is emitted through the outbox when an order is persisted.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID               `json:"order_id"`
	CompanyID   uuid.UUID               `json:"company_id"`
	CustomerID  uuid.UUID               `json:"customer_id"`
	OrderNumber int64                   `json:"order_number"`
	Status      enums.OrderStatus       `json:"status"`
	TotalAmount string                  `json:"total_amount"`
	Items       []OrderCreatedEventItem `json:"items"`
}

type OrderCreatedEventItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
}

// OrderStateChangedEvent records a workflow transition.
type OrderStateChangedEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	CompanyID uuid.UUID         `json:"company_id"`
	From      enums.OrderStatus `json:"from"`
	To        enums.OrderStatus `json:"to"`
}

// OrderCancelledEvent records a cancellation and the stock it returned.
type OrderCancelledEvent struct {
	OrderID   uuid.UUID                `json:"order_id"`
	CompanyID uuid.UUID                `json:"company_id"`
	Restored  []StockRestoredEventItem `json:"restored"`
}

type StockRestoredEventItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}
