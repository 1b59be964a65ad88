package eventbus

import "time"

// Billing lifecycle event types published by the payment processor.
const (
	EventPaymentSucceeded    = "billing.payment.succeeded"
	EventPaymentFailed       = "billing.payment.failed"
	EventNotificationSent    = "billing.notification.sent"
	EventNotificationFailed  = "billing.notification.failed"
	EventNotificationSkipped = "billing.notification.skipped"
)

// Event represents an application event published to the bus.
type Event struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// Listener is a function that handles an event.
type Listener func(Event)
