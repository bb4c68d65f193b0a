package order

import (
	"slices"
	"time"

	"github.com/example/ec-orders/internal/readmodel"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentCancelled  PaymentStatus = "cancelled"
)

// PaymentRule maps an order status transition onto a payment status change.
// A rule matches when the new order status is in OrderStatuses and the current
// payment status is in From (or, when From is empty, not in Except).
type PaymentRule struct {
	OrderStatuses []Status
	From          []PaymentStatus
	Except        []PaymentStatus
	To            PaymentStatus
	StampComplete bool
}

func (r PaymentRule) matches(newStatus Status, current PaymentStatus) bool {
	if !slices.Contains(r.OrderStatuses, newStatus) {
		return false
	}
	if len(r.From) > 0 {
		return slices.Contains(r.From, current)
	}
	return !slices.Contains(r.Except, current)
}

// paymentRules is evaluated top to bottom; the first match wins
var paymentRules = []PaymentRule{
	{
		OrderStatuses: []Status{StatusConfirmed},
		From:          []PaymentStatus{PaymentPending},
		To:            PaymentCompleted,
		StampComplete: true,
	},
	{
		OrderStatuses: []Status{StatusCancelled},
		From:          []PaymentStatus{PaymentPending, PaymentProcessing},
		To:            PaymentCancelled,
	},
	{
		OrderStatuses: []Status{StatusProcessing, StatusShipped},
		From:          []PaymentStatus{PaymentPending},
		To:            PaymentCompleted,
		StampComplete: true,
	},
	{
		OrderStatuses: []Status{StatusDelivered},
		Except:        []PaymentStatus{PaymentCompleted},
		To:            PaymentCompleted,
		StampComplete: true,
	},
}

func (r PaymentRule) clone() PaymentRule {
	r.OrderStatuses = slices.Clone(r.OrderStatuses)
	r.From = slices.Clone(r.From)
	r.Except = slices.Clone(r.Except)
	return r
}

// PaymentRules returns a deep copy of the ordered rule table
func PaymentRules() []PaymentRule {
	out := make([]PaymentRule, len(paymentRules))
	for i, rule := range paymentRules {
		out[i] = rule.clone()
	}
	return out
}

// DerivePayment returns a copy of the first rule matching the transition, if any
func DerivePayment(newStatus Status, current PaymentStatus) (PaymentRule, bool) {
	for _, rule := range paymentRules {
		if rule.matches(newStatus, current) {
			return rule.clone(), true
		}
	}
	return PaymentRule{}, false
}

// ApplyPaymentRule updates p in place for an order moving to newStatus.
// completed_at is stamped when a rule completes the payment and is never cleared.
func ApplyPaymentRule(newStatus Status, p *readmodel.PaymentReadModel, now time.Time) bool {
	if p == nil {
		return false
	}
	rule, ok := DerivePayment(newStatus, PaymentStatus(p.Status))
	if !ok {
		return false
	}

	p.Status = string(rule.To)
	if rule.StampComplete {
		stamped := now
		p.CompletedAt = &stamped
	}
	return true
}
