package enums

// NotificationType labels in-app notifications produced from order events.
type NotificationType string

const (
	NotificationOrderCreated      NotificationType = "order_created"
	NotificationOrderCancelled    NotificationType = "order_cancelled"
	NotificationOrderStateChanged NotificationType = "order_state_changed"
)
