package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/oventura/traderow-backend/internal/customers"
	"github.com/oventura/traderow-backend/internal/inventory"
	"github.com/oventura/traderow-backend/internal/payment"
	"github.com/oventura/traderow-backend/internal/tenant"
	"github.com/oventura/traderow-backend/pkg/db/models"
	"github.com/oventura/traderow-backend/pkg/enums"
	pkgerrors "github.com/oventura/traderow-backend/pkg/errors"
	"github.com/oventura/traderow-backend/pkg/logger"
	"github.com/oventura/traderow-backend/pkg/metrics"
	"github.com/oventura/traderow-backend/pkg/outbox"
	"github.com/oventura/traderow-backend/pkg/pagination"
)

// restoreAttempts bounds the retries of a single compensating restore when it
// races with concurrent decrements.
const restoreAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service orchestrates the order lifecycle: creation with payment validation
// and stock reservation, cancellation with stock restore, and workflow
// transitions.
type Service interface {
	Create(ctx context.Context, scope tenant.Scope, input CreateOrderInput, actor *outbox.ActorRef) (*models.Order, error)
	Cancel(ctx context.Context, scope tenant.Scope, orderID uuid.UUID, actor *outbox.ActorRef) (*models.Order, error)
	UpdateStatus(ctx context.Context, scope tenant.Scope, orderID uuid.UUID, next enums.OrderStatus, actor *outbox.ActorRef) (*models.Order, error)
	Get(ctx context.Context, scope tenant.Scope, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, scope tenant.Scope, params pagination.Params) ([]models.Order, string, error)
}

type service struct {
	repo      Repository
	customers customers.Repository
	ledger    inventory.Ledger
	payments  payment.Validator
	tx        txRunner
	outbox    outboxPublisher
	logg      *logger.Logger
	metrics   *metrics.OrderMetrics
}

// ServiceParams collects the collaborators of the lifecycle service.
type ServiceParams struct {
	Repo      Repository
	Customers customers.Repository
	Ledger    inventory.Ledger
	Payments  payment.Validator
	Tx        txRunner
	Outbox    outboxPublisher
	Logger    *logger.Logger
	Metrics   *metrics.OrderMetrics
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Customers == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if p.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if p.Payments == nil {
		return nil, fmt.Errorf("payment validator required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:      p.Repo,
		customers: p.Customers,
		ledger:    p.Ledger,
		payments:  p.Payments,
		tx:        p.Tx,
		outbox:    p.Outbox,
		logg:      p.Logger,
		metrics:   p.Metrics,
	}, nil
}

func (s *service) Create(ctx context.Context, scope tenant.Scope, input CreateOrderInput, actor *outbox.ActorRef) (*models.Order, error) {
	start := time.Now()
	order, err := s.create(ctx, scope, input, actor)
	s.observe("create", start, err)
	return order, err
}

func (s *service) create(ctx context.Context, scope tenant.Scope, input CreateOrderInput, actor *outbox.ActorRef) (*models.Order, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	customer, err := s.customers.GetCustomer(ctx, scope, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.customers.GetAddress(ctx, scope, input.CustomerID, input.AddressID); err != nil {
		return nil, err
	}

	products, err := s.loadProducts(ctx, scope, input.Items)
	if err != nil {
		return nil, err
	}

	// Unit prices are snapshotted at product-load time; the line items and
	// the total below all use this one snapshot, even if the catalog price
	// moves before the decrement. No stock has been touched yet, so a
	// rejection here needs no compensation.
	total := decimal.Zero
	for _, item := range input.Items {
		price := products[item.ProductID].UnitPrice
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if err := s.payments.Validate(ctx, total, input.Payment); err != nil {
		return nil, err
	}

	// Decrement in input order so conflict behavior is deterministic across
	// retries of the same request.
	applied := make([]CreateOrderItemInput, 0, len(input.Items))
	for _, item := range input.Items {
		if err := s.ledger.CheckAndDecrease(ctx, scope, item.ProductID, item.Quantity); err != nil {
			s.compensate(ctx, scope, applied)
			return nil, err
		}
		applied = append(applied, item)
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:          uuid.New(),
		CompanyID:   customer.CompanyID,
		CustomerID:  customer.ID,
		AddressID:   input.AddressID,
		Status:      enums.OrderStatusPending,
		TotalAmount: total,
		OrderedAt:   now,
	}
	for _, item := range input.Items {
		product := products[item.ProductID]
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: product.ID,
			Name:      product.Title,
			Quantity:  item.Quantity,
			UnitPrice: product.UnitPrice,
			LineTotal: product.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateOrder(ctx, order); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actor,
			Data:          buildCreatedEvent(order),
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		// The order did not persist; the reserved stock must go back.
		s.compensate(ctx, scope, applied)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting order")
	}

	return order, nil
}

func (s *service) Cancel(ctx context.Context, scope tenant.Scope, orderID uuid.UUID, actor *outbox.ActorRef) (*models.Order, error) {
	start := time.Now()
	order, err := s.cancel(ctx, scope, orderID, actor)
	s.observe("cancel", start, err)
	return order, err
}

func (s *service) cancel(ctx context.Context, scope tenant.Scope, orderID uuid.UUID, actor *outbox.ActorRef) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, scope, orderID)
	if err != nil {
		return nil, err
	}
	return s.cancelLoaded(ctx, scope, order, actor)
}

// cancelLoaded restores every item first and flips the status last, so a
// failure mid-restore leaves the order status untouched and the operation
// retryable.
func (s *service) cancelLoaded(ctx context.Context, scope tenant.Scope, order *models.Order, actor *outbox.ActorRef) (*models.Order, error) {
	if !CanCancel(order.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order cannot be cancelled while %s", order.Status)).
			WithDetails(map[string]any{"status": string(order.Status)})
	}

	restored := make([]StockRestoredEventItem, 0, len(order.Items))
	for _, item := range order.Items {
		if err := s.restoreWithRetry(ctx, scope, item.ProductID, item.Quantity); err != nil {
			if len(restored) > 0 {
				s.logDataIntegrity(ctx, order.ID, "cancellation restored some items before failing", err)
			}
			return nil, err
		}
		restored = append(restored, StockRestoredEventItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	cancelledAt := time.Now().UTC()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.WithTx(tx).TransitionStatus(ctx, scope, order.ID, order.Status, enums.OrderStatusCancelled, &cancelledAt)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeConcurrencyConflict, "order changed concurrently, please retry").
				WithDetails(map[string]any{"orderId": order.ID.String()})
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actor,
			Data: OrderCancelledEvent{
				OrderID:   order.ID,
				CompanyID: order.CompanyID,
				Restored:  restored,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		s.logDataIntegrity(ctx, order.ID, "stock restored but cancellation status write failed", err)
		return nil, err
	}

	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &cancelledAt
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, scope tenant.Scope, orderID uuid.UUID, next enums.OrderStatus, actor *outbox.ActorRef) (*models.Order, error) {
	start := time.Now()
	order, err := s.updateStatus(ctx, scope, orderID, next, actor)
	s.observe("update_status", start, err)
	return order, err
}

func (s *service) updateStatus(ctx context.Context, scope tenant.Scope, orderID uuid.UUID, next enums.OrderStatus, actor *outbox.ActorRef) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, scope, orderID)
	if err != nil {
		return nil, err
	}

	target, err := NextStatus(order.Status, next)
	if err != nil {
		return nil, err
	}
	if target == enums.OrderStatusCancelled {
		// Cancellation has stock side effects and follows the restore
		// discipline.
		return s.cancelLoaded(ctx, scope, order, actor)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.WithTx(tx).TransitionStatus(ctx, scope, order.ID, order.Status, target, nil)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeConcurrencyConflict, "order changed concurrently, please retry").
				WithDetails(map[string]any{"orderId": order.ID.String()})
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStateChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actor,
			Data: OrderStateChangedEvent{
				OrderID:   order.ID,
				CompanyID: order.CompanyID,
				From:      order.Status,
				To:        target,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	order.Status = target
	return order, nil
}

func (s *service) Get(ctx context.Context, scope tenant.Scope, orderID uuid.UUID) (*models.Order, error) {
	return s.repo.GetOrder(ctx, scope, orderID)
}

func (s *service) List(ctx context.Context, scope tenant.Scope, params pagination.Params) ([]models.Order, string, error) {
	return s.repo.ListOrders(ctx, scope, params)
}

// compensate undoes the stock decrements of a failed creation. A restore that
// still fails after retries is a data-integrity incident; the original
// failure is what the caller sees.
func (s *service) compensate(ctx context.Context, scope tenant.Scope, applied []CreateOrderItemInput) {
	var failures error
	for _, item := range applied {
		if err := s.restoreWithRetry(ctx, scope, item.ProductID, item.Quantity); err != nil {
			failures = multierr.Append(failures, fmt.Errorf("restore product %s qty %d: %w", item.ProductID, item.Quantity, err))
		}
	}
	if failures != nil {
		s.logDataIntegrity(ctx, uuid.Nil, "compensating stock restore failed", failures)
	}
}

func (s *service) restoreWithRetry(ctx context.Context, scope tenant.Scope, productID uuid.UUID, quantity int) error {
	var err error
	for attempt := 0; attempt < restoreAttempts; attempt++ {
		err = s.ledger.Restore(ctx, scope, productID, quantity)
		if err == nil {
			return nil
		}
		if !pkgerrors.IsRetryable(err) {
			return err
		}
	}
	return err
}

func (s *service) loadProducts(ctx context.Context, scope tenant.Scope, items []CreateOrderItemInput) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	rows, err := s.repo.GetProducts(ctx, scope, ids)
	if err != nil {
		return nil, err
	}

	products := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		products[row.ID] = row
	}
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"productId": item.ProductID.String()})
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available").
				WithDetails(map[string]any{"productId": item.ProductID.String()})
		}
	}
	return products, nil
}

func validateCreateInput(input CreateOrderInput) error {
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.AddressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	seen := make(map[uuid.UUID]bool, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"productId": item.ProductID.String()})
		}
		if seen[item.ProductID] {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in order").
				WithDetails(map[string]any{"productId": item.ProductID.String()})
		}
		seen[item.ProductID] = true
	}
	return nil
}

func buildCreatedEvent(order *models.Order) OrderCreatedEvent {
	event := OrderCreatedEvent{
		OrderID:     order.ID,
		CompanyID:   order.CompanyID,
		CustomerID:  order.CustomerID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		TotalAmount: order.TotalAmount.StringFixed(2),
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, OrderCreatedEventItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		})
	}
	return event
}

func (s *service) observe(operation string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveDuration(operation, time.Since(start))
		s.metrics.IncOutcome(operation, outcomeLabel(err))
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConcurrencyConflict {
			s.metrics.IncStockConflict(operation)
		}
	}
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "error"
}

func (s *service) logDataIntegrity(ctx context.Context, orderID uuid.UUID, msg string, err error) {
	if s.logg == nil {
		return
	}
	fields := map[string]any{"incident": "data_integrity"}
	if orderID != uuid.Nil {
		fields["order_id"] = orderID.String()
	}
	s.logg.Error(s.logg.WithFields(ctx, fields), msg, err)
}
