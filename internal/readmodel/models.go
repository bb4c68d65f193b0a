package readmodel

import "time"

// UserReadModel is the read model for users (customers and staff)
type UserReadModel struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	IsStaff      bool      `json:"is_staff"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// OrderItemReadModel represents a line item in an order
type OrderItemReadModel struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       int    `json:"price"`
}

// Subtotal returns price * quantity
func (i OrderItemReadModel) Subtotal() int {
	return i.Price * i.Quantity
}

// PaymentReadModel is the payment attached to an order.
// CompletedAt is stamped once when the payment first completes and is never cleared.
type PaymentReadModel struct {
	Status      string     `json:"status"`
	Amount      int        `json:"amount"`
	Method      string     `json:"method,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// OrderReadModel is the read model for orders
type OrderReadModel struct {
	ID         string               `json:"order_id"` // External identifier
	UserID     string               `json:"user_id"`
	Username   string               `json:"username"`
	UserEmail  string               `json:"user_email"`
	Status     string               `json:"status"`
	FirstName  string               `json:"first_name"`
	LastName   string               `json:"last_name"`
	Email      string               `json:"email"`
	Phone      string               `json:"phone,omitempty"`
	Address    string               `json:"address,omitempty"`
	City       string               `json:"city,omitempty"`
	PostalCode string               `json:"postal_code,omitempty"`
	Total      int                  `json:"total"`
	Items      []OrderItemReadModel `json:"items"`
	Payment    *PaymentReadModel    `json:"payment"` // nil when the order has no payment
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate without touching stored state
func (o *OrderReadModel) Clone() *OrderReadModel {
	if o == nil {
		return nil
	}
	c := *o
	if o.Items != nil {
		c.Items = make([]OrderItemReadModel, len(o.Items))
		copy(c.Items, o.Items)
	}
	if o.Payment != nil {
		p := *o.Payment
		if o.Payment.CompletedAt != nil {
			t := *o.Payment.CompletedAt
			p.CompletedAt = &t
		}
		c.Payment = &p
	}
	return &c
}
