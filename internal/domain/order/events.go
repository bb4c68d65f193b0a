package order

import "time"

const AggregateType = "Order"

const EventOrderStatusChanged = "OrderStatusChanged"

// OrderStatusChanged is published after a status transition commits
type OrderStatusChanged struct {
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_id"`
	UserEmail     string    `json:"user_email"`
	OldStatus     Status    `json:"old_status"`
	NewStatus     Status    `json:"new_status"`
	PaymentStatus *string   `json:"payment_status"`
	Total         int       `json:"total"`
	ChangedBy     string    `json:"changed_by"`
	ChangedAt     time.Time `json:"changed_at"`
}
