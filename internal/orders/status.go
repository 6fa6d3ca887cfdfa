package orders

import (
	"github.com/oventura/traderow-backend/pkg/enums"
	pkgerrors "github.com/oventura/traderow-backend/pkg/errors"
)

// allowedTransitions is the complete order workflow. Delivered and Cancelled
// are terminal; Shipped orders cannot be cancelled here, returns go through a
// separate flow.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:  {},
	enums.OrderStatusCancelled:  {},
}

// NextStatus validates a requested transition and returns the resulting
// status. It is a pure function; applying the new status and any side effects
// (stock restore on cancellation) is the caller's job.
func NextStatus(current, requested enums.OrderStatus) (enums.OrderStatus, error) {
	if !requested.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"requested": string(requested)})
	}
	for _, next := range allowedTransitions[current] {
		if next == requested {
			return requested, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeStateConflict, "invalid status transition").
		WithDetails(map[string]any{
			"from": string(current),
			"to":   string(requested),
		})
}

// CanCancel reports whether an order in the given status may be cancelled.
func CanCancel(current enums.OrderStatus) bool {
	_, err := NextStatus(current, enums.OrderStatusCancelled)
	return err == nil
}
