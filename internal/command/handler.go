package command

import (
	"context"

	"github.com/example/ec-orders/internal/domain/order"
)

// OrderService is the write side of the order domain
type OrderService interface {
	TransitionStatus(ctx context.Context, orderID, requested string, actor order.Actor) (*order.TransitionResult, error)
	MarkDelivered(ctx context.Context, orderID string, actor order.Actor) (*order.TransitionResult, error)
}

type Handler struct {
	orderSvc OrderService
}

func NewHandler(orderSvc OrderService) *Handler {
	return &Handler{orderSvc: orderSvc}
}

// TransitionOrderStatus moves an order to a staff-chosen status
func (h *Handler) TransitionOrderStatus(ctx context.Context, actor order.Actor, cmd TransitionOrderStatus) (*order.TransitionResult, error) {
	return h.orderSvc.TransitionStatus(ctx, cmd.OrderID, cmd.Status, actor)
}

// MarkOrderDelivered lets a customer confirm receipt of a shipped order
func (h *Handler) MarkOrderDelivered(ctx context.Context, actor order.Actor, cmd MarkOrderDelivered) (*order.TransitionResult, error) {
	return h.orderSvc.MarkDelivered(ctx, cmd.OrderID, actor)
}
