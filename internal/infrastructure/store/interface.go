package store

import (
	"context"
	"errors"

	"github.com/example/ec-orders/internal/readmodel"
)

var ErrNotFound = errors.New("record not found")

// ListOrdersParams contains parameters for order listing.
// Empty fields match everything; set fields are ANDed.
type ListOrdersParams struct {
	Status string
	Search string
	UserID string
	Limit  int
}

// OrderUpdateFunc mutates a locked working copy of an order and its payment.
// Returning an error aborts the update and nothing is written.
type OrderUpdateFunc func(o *readmodel.OrderReadModel) error

// OrderStoreInterface defines the interface for order storage
type OrderStoreInterface interface {
	// GetOrder returns an order with its items and payment, or ErrNotFound
	GetOrder(ctx context.Context, orderID string) (*readmodel.OrderReadModel, error)

	// ListOrders returns matching orders, newest first
	ListOrders(ctx context.Context, params ListOrdersParams) ([]*readmodel.OrderReadModel, error)

	// CountByStatus groups orders by status in a single pass.
	// An empty userID counts every order.
	CountByStatus(ctx context.Context, userID string) (map[string]int, error)

	// CountOrders returns the total number of orders, independent of status
	CountOrders(ctx context.Context, userID string) (int, error)

	// UpdateOrder applies fn under a lock scoped to the order and persists the
	// order and payment rows as one unit.
	UpdateOrder(ctx context.Context, orderID string, fn OrderUpdateFunc) (*readmodel.OrderReadModel, error)
}

// UserStoreInterface defines the interface for user lookups
type UserStoreInterface interface {
	GetUserByID(ctx context.Context, id string) (*readmodel.UserReadModel, error)
	GetUserByUsername(ctx context.Context, username string) (*readmodel.UserReadModel, error)
	CreateUser(ctx context.Context, u *readmodel.UserReadModel) error
}
