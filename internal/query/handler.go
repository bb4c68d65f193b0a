package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/ec-orders/internal/domain/order"
	"github.com/example/ec-orders/internal/infrastructure/store"
	"github.com/example/ec-orders/internal/readmodel"
	"go.uber.org/zap"
)

// RecentOrdersLimit is the number of orders shown on the dashboard
const RecentOrdersLimit = 5

// StatsService is the part of the order domain the read side depends on
type StatsService interface {
	Authorize(actor order.Actor) error
	CountByStatus(ctx context.Context) (*order.StatusStats, error)
	CountByStatusForUser(ctx context.Context, userID string) (*order.StatusStats, error)
	PendingCount(ctx context.Context, actor order.Actor) (int, error)
}

// ListFilter narrows the admin order list. Empty fields match everything.
type ListFilter struct {
	Status string `json:"status"`
	Search string `json:"search"`
}

type CustomerOrders struct {
	Orders []*readmodel.OrderReadModel `json:"orders"`
	Stats  *order.StatusStats          `json:"stats"`
}

type AdminOrderList struct {
	Orders        []*readmodel.OrderReadModel `json:"orders"`
	Stats         *order.StatusStats          `json:"stats"`
	StatusChoices []order.StatusChoice        `json:"status_choices"`
	Filter        ListFilter                  `json:"filter"`
}

type AdminOrderDetail struct {
	Order         *readmodel.OrderReadModel `json:"order"`
	StatusChoices []order.StatusChoice      `json:"status_choices"`
}

type Dashboard struct {
	Stats        *order.StatusStats          `json:"stats"`
	RecentOrders []*readmodel.OrderReadModel `json:"recent_orders"`
}

type Handler struct {
	orders store.OrderStoreInterface
	stats  StatsService
	logger *zap.Logger
}

func NewHandler(orders store.OrderStoreInterface, stats StatsService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{orders: orders, stats: stats, logger: logger.Named("query")}
}

// Customer queries

// ListOrdersByUser returns the caller's orders newest first with their own status counts
func (h *Handler) ListOrdersByUser(ctx context.Context, userID string) (*CustomerOrders, error) {
	stats, err := h.stats.CountByStatusForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	orders, err := h.list(ctx, store.ListOrdersParams{UserID: userID})
	if err != nil {
		return nil, err
	}
	return &CustomerOrders{Orders: orders, Stats: stats}, nil
}

// GetOrderForUser returns an order only if userID owns it
func (h *Handler) GetOrderForUser(ctx context.Context, orderID, userID string) (*readmodel.OrderReadModel, error) {
	o, err := h.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("%w: %s", order.ErrOrderNotFound, orderID)
	}
	return o, nil
}

// Staff queries

// ListOrders returns statistics over all orders, then the filtered list
func (h *Handler) ListOrders(ctx context.Context, actor order.Actor, filter ListFilter) (*AdminOrderList, error) {
	if err := h.stats.Authorize(actor); err != nil {
		return nil, err
	}
	stats, err := h.stats.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := h.list(ctx, store.ListOrdersParams{Status: filter.Status, Search: filter.Search})
	if err != nil {
		return nil, err
	}
	return &AdminOrderList{
		Orders:        orders,
		Stats:         stats,
		StatusChoices: order.StatusChoices(),
		Filter:        filter,
	}, nil
}

func (h *Handler) GetOrder(ctx context.Context, actor order.Actor, orderID string) (*AdminOrderDetail, error) {
	if err := h.stats.Authorize(actor); err != nil {
		return nil, err
	}
	o, err := h.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &AdminOrderDetail{Order: o, StatusChoices: order.StatusChoices()}, nil
}

// Dashboard returns overall statistics and the most recent orders
func (h *Handler) Dashboard(ctx context.Context, actor order.Actor) (*Dashboard, error) {
	if err := h.stats.Authorize(actor); err != nil {
		return nil, err
	}
	stats, err := h.stats.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := h.list(ctx, store.ListOrdersParams{Limit: RecentOrdersLimit})
	if err != nil {
		return nil, err
	}
	return &Dashboard{Stats: stats, RecentOrders: recent}, nil
}

// PendingCount returns the number of pending orders, 0 for non-staff callers
func (h *Handler) PendingCount(ctx context.Context, actor order.Actor) (int, error) {
	return h.stats.PendingCount(ctx, actor)
}

// StatusChoices exposes the status vocabulary
func (h *Handler) StatusChoices() []order.StatusChoice {
	return order.StatusChoices()
}

func (h *Handler) get(ctx context.Context, orderID string) (*readmodel.OrderReadModel, error) {
	o, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", order.ErrOrderNotFound, orderID)
		}
		h.logger.Error("Error getting order", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", order.ErrPersistence, err)
	}
	return o, nil
}

func (h *Handler) list(ctx context.Context, params store.ListOrdersParams) ([]*readmodel.OrderReadModel, error) {
	orders, err := h.orders.ListOrders(ctx, params)
	if err != nil {
		h.logger.Error("Error listing orders", zap.Any("params", params), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", order.ErrPersistence, err)
	}
	return orders, nil
}
