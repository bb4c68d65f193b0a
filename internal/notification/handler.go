package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/ec-orders/internal/domain/order"
	"github.com/example/ec-orders/internal/email"
	"github.com/example/ec-orders/internal/infrastructure/store"
	"go.uber.org/zap"
)

// Mailer delivers status change emails
type Mailer interface {
	SendStatusUpdate(to string, update email.StatusUpdate) error
}

// Handler turns order events into customer notifications
type Handler struct {
	mailer Mailer
	users  store.UserStoreInterface
	logger *zap.Logger
}

// NewHandler creates a new notification handler. users is consulted only when
// an event carries no recipient address and may be nil.
func NewHandler(mailer Mailer, users store.UserStoreInterface, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		mailer: mailer,
		users:  users,
		logger: logger.Named("notifier"),
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	if event.EventType != order.EventOrderStatusChanged {
		return nil
	}
	return h.handleStatusChanged(ctx, event)
}

func (h *Handler) handleStatusChanged(ctx context.Context, event store.Event) error {
	var e order.OrderStatusChanged
	if err := json.Unmarshal(event.Data, &e); err != nil {
		return fmt.Errorf("decode %s: %w", event.EventType, err)
	}

	logger := h.logger.With(zap.String("order_id", e.OrderID), zap.String("event_id", event.ID))
	if e.OldStatus == e.NewStatus {
		logger.Debug("Status unchanged, skipping notification", zap.String("status", string(e.NewStatus)))
		return nil
	}

	to, err := h.recipient(ctx, e)
	if err != nil {
		return err
	}
	if to == "" {
		logger.Warn("No recipient for status notification", zap.String("user_id", e.UserID))
		return nil
	}

	update := email.StatusUpdate{
		OrderID:       e.OrderID,
		OldLabel:      e.OldStatus.Label(),
		NewLabel:      e.NewStatus.Label(),
		PaymentStatus: e.PaymentStatus,
		Total:         e.Total,
	}
	if err := h.mailer.SendStatusUpdate(to, update); err != nil {
		return fmt.Errorf("send status email for order %s: %w", e.OrderID, err)
	}

	logger.Info("Status notification sent",
		zap.String("old_status", string(e.OldStatus)),
		zap.String("new_status", string(e.NewStatus)))
	return nil
}

func (h *Handler) recipient(ctx context.Context, e order.OrderStatusChanged) (string, error) {
	if e.UserEmail != "" || h.users == nil || e.UserID == "" {
		return e.UserEmail, nil
	}

	user, err := h.users.GetUserByID(ctx, e.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("look up user %s: %w", e.UserID, err)
	}
	return user.Email, nil
}
