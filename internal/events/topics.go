package events

import "time"

// Topic constants for domain events emitted by the storefront.
const (
	TopicOrderConfirmed = "order.confirmed"
)

// DefaultTopics returns the topics the worker subscribes to.
func DefaultTopics() []string {
	return []string{TopicOrderConfirmed}
}

// OrderLine is one purchased line in an order.confirmed payload.
type OrderLine struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Total     int64  `json:"total"`
}

// OrderConfirmed is the payload of TopicOrderConfirmed. Amounts are CLP.
type OrderConfirmed struct {
	OrderID           string      `json:"orderId"`
	Email             string      `json:"email"`
	Locale            string      `json:"locale"`
	Items             []OrderLine `json:"items"`
	Total             int64       `json:"total"`
	EstimatedDelivery string      `json:"estimatedDelivery"`
	ConfirmedAt       time.Time   `json:"confirmedAt"`
}
