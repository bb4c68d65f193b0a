package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/ec-orders/internal/infrastructure/store"
	"github.com/example/ec-orders/internal/readmodel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/example/ec-orders/internal/domain/order")

// Actor is the caller identity supplied by the auth layer
type Actor struct {
	UserID   string
	Username string
	IsStaff  bool
}

// Authorizer decides whether an actor may run staff operations
type Authorizer func(Actor) bool

// RequireStaff is the default Authorizer
func RequireStaff(a Actor) bool {
	return a.IsStaff
}

// EventPublisher publishes committed changes to the message bus
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// StatsCache caches status statistics per scope ("" for all orders, otherwise a user id).
// Every Invalidate advances the generation. Set must drop stats computed at an
// older generation so a read racing a transition cannot re-cache old counts.
type StatsCache interface {
	Get(ctx context.Context, scope string) (*StatusStats, bool)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, scope string, generation int64, stats *StatusStats)
	Invalidate(ctx context.Context)
}

// TransitionResult is reported back to the caller after a successful transition
type TransitionResult struct {
	OrderID        string  `json:"order_id"`
	OldStatus      Status  `json:"old_status"`
	NewStatus      Status  `json:"new_status"`
	NewStatusLabel string  `json:"new_status_display"`
	PaymentStatus  *string `json:"payment_status"`
	PaymentChanged bool    `json:"payment_changed"`
}

// StatusStats holds order counts for every enumerated status.
// CalculatedTotal is the sum of Counts and must equal Total; Breakdown is the
// raw grouping and may contain statuses outside the enumeration.
type StatusStats struct {
	Counts          map[Status]int `json:"counts"`
	Total           int            `json:"total"`
	CalculatedTotal int            `json:"calculated_total"`
	Consistent      bool           `json:"consistent"`
	Breakdown       map[string]int `json:"status_breakdown"`
}

// Count returns the count for a status, zero when absent
func (s *StatusStats) Count(status Status) int {
	return s.Counts[status]
}

type Service struct {
	orders    store.OrderStoreInterface
	authorize Authorizer
	publisher EventPublisher
	cache     StatsCache
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithAuthorizer(a Authorizer) Option { return func(s *Service) { s.authorize = a } }

func WithPublisher(p EventPublisher) Option { return func(s *Service) { s.publisher = p } }

func WithStatsCache(c StatsCache) Option { return func(s *Service) { s.cache = c } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(orders store.OrderStoreInterface, opts ...Option) *Service {
	s := &Service{
		orders:    orders,
		authorize: RequireStaff,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("order")
	return s
}

// Authorize checks the actor against the staff predicate
func (s *Service) Authorize(actor Actor) error {
	if !s.authorize(actor) {
		return fmt.Errorf("%w: user %q", ErrUnauthorized, actor.Username)
	}
	return nil
}

// TransitionStatus moves an order to the requested status and derives the
// payment status from the rule table. Both writes commit together or not at all.
func (s *Service) TransitionStatus(ctx context.Context, orderID, requested string, actor Actor) (*TransitionResult, error) {
	ctx, span := tracer.Start(ctx, "order.TransitionStatus", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.requested_status", requested),
	))
	defer span.End()

	if err := s.Authorize(actor); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	newStatus, err := ParseStatus(requested)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result, err := s.apply(ctx, orderID, newStatus, actor, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

// MarkDelivered lets the owner of a shipped order confirm delivery
func (s *Service) MarkDelivered(ctx context.Context, orderID string, actor Actor) (*TransitionResult, error) {
	ctx, span := tracer.Start(ctx, "order.MarkDelivered", trace.WithAttributes(
		attribute.String("order.id", orderID),
	))
	defer span.End()

	if actor.UserID == "" {
		return nil, fmt.Errorf("%w: anonymous caller", ErrUnauthorized)
	}

	result, err := s.apply(ctx, orderID, StatusDelivered, actor, func(o *readmodel.OrderReadModel) error {
		// Orders owned by someone else are reported as missing
		if o.UserID != actor.UserID {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		if Status(o.Status) != StatusShipped {
			return ErrNotShipped
		}
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

func (s *Service) apply(ctx context.Context, orderID string, newStatus Status, actor Actor, guard store.OrderUpdateFunc) (*TransitionResult, error) {
	now := s.now()
	var oldStatus Status
	var paymentChanged bool

	updated, err := s.orders.UpdateOrder(ctx, orderID, func(o *readmodel.OrderReadModel) error {
		if guard != nil {
			if err := guard(o); err != nil {
				return err
			}
		}
		oldStatus = Status(o.Status)
		o.Status = string(newStatus)
		o.UpdatedAt = now
		paymentChanged = ApplyPaymentRule(newStatus, o.Payment, now)
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrNotShipped):
			return nil, err
		default:
			s.logger.Error("Order status update failed",
				zap.String("order_id", orderID),
				zap.String("requested_status", string(newStatus)),
				zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}

	result := &TransitionResult{
		OrderID:        updated.ID,
		OldStatus:      oldStatus,
		NewStatus:      newStatus,
		NewStatusLabel: newStatus.Label(),
		PaymentChanged: paymentChanged,
	}
	if updated.Payment != nil {
		ps := updated.Payment.Status
		result.PaymentStatus = &ps
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(newStatus)),
		zap.Bool("payment_changed", paymentChanged),
		zap.String("actor", actor.Username))

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	s.publish(ctx, updated, result, actor, now)

	return result, nil
}

// publish is best-effort: the transition has already committed
func (s *Service) publish(ctx context.Context, o *readmodel.OrderReadModel, result *TransitionResult, actor Actor, at time.Time) {
	if s.publisher == nil {
		return
	}

	event, err := store.NewEvent(o.ID, AggregateType, EventOrderStatusChanged, OrderStatusChanged{
		OrderID:       o.ID,
		UserID:        o.UserID,
		UserEmail:     o.UserEmail,
		OldStatus:     result.OldStatus,
		NewStatus:     result.NewStatus,
		PaymentStatus: result.PaymentStatus,
		Total:         o.Total,
		ChangedBy:     actor.Username,
		ChangedAt:     at,
	})
	if err != nil {
		s.logger.Warn("Failed to build status event", zap.String("order_id", o.ID), zap.Error(err))
		return
	}

	if err := s.publisher.Publish(ctx, o.ID, event); err != nil {
		s.logger.Warn("Failed to publish status event", zap.String("order_id", o.ID), zap.Error(err))
	}
}

// CountByStatus aggregates all orders by status
func (s *Service) CountByStatus(ctx context.Context) (*StatusStats, error) {
	return s.countByStatus(ctx, "")
}

// CountByStatusForUser aggregates one customer's orders by status
func (s *Service) CountByStatusForUser(ctx context.Context, userID string) (*StatusStats, error) {
	return s.countByStatus(ctx, userID)
}

// PendingCount returns the number of pending orders; non-staff callers get 0
func (s *Service) PendingCount(ctx context.Context, actor Actor) (int, error) {
	if !s.authorize(actor) {
		return 0, nil
	}
	stats, err := s.CountByStatus(ctx)
	if err != nil {
		return 0, err
	}
	return stats.Count(StatusPending), nil
}

func (s *Service) countByStatus(ctx context.Context, userID string) (*StatusStats, error) {
	ctx, span := tracer.Start(ctx, "order.CountByStatus")
	defer span.End()

	var generation int64
	cacheable := false
	if s.cache != nil {
		if stats, ok := s.cache.Get(ctx, userID); ok {
			return stats, nil
		}
		var err error
		generation, err = s.cache.Generation(ctx)
		cacheable = err == nil
	}

	grouped, err := s.orders.CountByStatus(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	total, err := s.orders.CountOrders(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	stats := &StatusStats{
		Counts:    make(map[Status]int, len(statusChoices)),
		Total:     total,
		Breakdown: grouped,
	}
	for _, status := range Statuses() {
		stats.Counts[status] = grouped[string(status)]
		stats.CalculatedTotal += grouped[string(status)]
	}
	stats.Consistent = stats.CalculatedTotal == stats.Total

	if !stats.Consistent {
		s.logger.Warn("Order status counts do not add up to total",
			zap.String("user_id", userID),
			zap.Int("calculated_total", stats.CalculatedTotal),
			zap.Int("total", stats.Total),
			zap.Any("breakdown", grouped))
	}

	if cacheable {
		s.cache.Set(ctx, userID, generation, stats)
	}
	return stats, nil
}
