package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/oventura/traderow-backend/pkg/db/models"
	"github.com/oventura/traderow-backend/pkg/enums"
	"github.com/oventura/traderow-backend/pkg/logger"
	"github.com/oventura/traderow-backend/pkg/outbox"
	"github.com/oventura/traderow-backend/pkg/outbox/idempotency"
)

const orderNotificationConsumer = "orders-worker"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches order domain events and materializes in-app notifications.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	handler, ok := handlers[eventType]
	if !ok {
		c.logg.Info(logCtx, "skipping unhandled event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	notification, err := handler(envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "notification write failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "notification created")
	return processResult{ack: true}
}

var handlers = map[enums.OutboxEventType]func(json.RawMessage) (*models.Notification, error){
	enums.EventOrderCreated:      buildCreatedNotification,
	enums.EventOrderStateChanged: buildStateChangedNotification,
	enums.EventOrderCancelled:    buildCancelledNotification,
}

type orderCreatedPayload struct {
	OrderID     uuid.UUID `json:"order_id"`
	CompanyID   uuid.UUID `json:"company_id"`
	OrderNumber int64     `json:"order_number"`
	TotalAmount string    `json:"total_amount"`
}

func buildCreatedNotification(data json.RawMessage) (*models.Notification, error) {
	var payload orderCreatedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.CompanyID == uuid.Nil {
		return nil, fmt.Errorf("company id missing")
	}
	orderID := payload.OrderID
	return &models.Notification{
		CompanyID: payload.CompanyID,
		OrderID:   &orderID,
		Type:      enums.NotificationOrderCreated,
		Title:     "New order received",
		Message:   fmt.Sprintf("Order #%d was placed for %s.", payload.OrderNumber, payload.TotalAmount),
	}, nil
}

type orderStateChangedPayload struct {
	OrderID   uuid.UUID         `json:"order_id"`
	CompanyID uuid.UUID         `json:"company_id"`
	From      enums.OrderStatus `json:"from"`
	To        enums.OrderStatus `json:"to"`
}

func buildStateChangedNotification(data json.RawMessage) (*models.Notification, error) {
	var payload orderStateChangedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.CompanyID == uuid.Nil {
		return nil, fmt.Errorf("company id missing")
	}
	orderID := payload.OrderID
	return &models.Notification{
		CompanyID: payload.CompanyID,
		OrderID:   &orderID,
		Type:      enums.NotificationOrderStateChanged,
		Title:     "Order status updated",
		Message:   fmt.Sprintf("Order %s moved from %s to %s.", payload.OrderID, payload.From, payload.To),
	}, nil
}

type orderCancelledPayload struct {
	OrderID   uuid.UUID `json:"order_id"`
	CompanyID uuid.UUID `json:"company_id"`
	Restored  []struct {
		ProductID uuid.UUID `json:"product_id"`
		Quantity  int       `json:"quantity"`
	} `json:"restored"`
}

func buildCancelledNotification(data json.RawMessage) (*models.Notification, error) {
	var payload orderCancelledPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.CompanyID == uuid.Nil {
		return nil, fmt.Errorf("company id missing")
	}
	units := 0
	for _, item := range payload.Restored {
		units += item.Quantity
	}
	orderID := payload.OrderID
	return &models.Notification{
		CompanyID: payload.CompanyID,
		OrderID:   &orderID,
		Type:      enums.NotificationOrderCancelled,
		Title:     "Order cancelled",
		Message:   fmt.Sprintf("Order %s was cancelled and %d units returned to stock.", payload.OrderID, units),
	}, nil
}
