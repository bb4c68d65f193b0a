package order

import (
	"testing"
	"time"

	"github.com/example/ec-orders/internal/readmodel"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

var allPaymentStatuses = []PaymentStatus{PaymentPending, PaymentProcessing, PaymentCompleted, PaymentCancelled}

// ============================================
// Rule Table Tests
// ============================================

func TestDerivePayment_Table(t *testing.T) {
	tests := []struct {
		name      string
		newStatus Status
		current   PaymentStatus
		wantMatch bool
		wantTo    PaymentStatus
		wantStamp bool
	}{
		{"confirmed completes pending", StatusConfirmed, PaymentPending, true, PaymentCompleted, true},
		{"confirmed leaves processing", StatusConfirmed, PaymentProcessing, false, "", false},
		{"confirmed leaves completed", StatusConfirmed, PaymentCompleted, false, "", false},
		{"cancelled cancels pending", StatusCancelled, PaymentPending, true, PaymentCancelled, false},
		{"cancelled cancels processing", StatusCancelled, PaymentProcessing, true, PaymentCancelled, false},
		{"cancelled leaves completed", StatusCancelled, PaymentCompleted, false, "", false},
		{"processing completes pending", StatusProcessing, PaymentPending, true, PaymentCompleted, true},
		{"processing leaves processing", StatusProcessing, PaymentProcessing, false, "", false},
		{"shipped completes pending", StatusShipped, PaymentPending, true, PaymentCompleted, true},
		{"shipped leaves cancelled", StatusShipped, PaymentCancelled, false, "", false},
		{"delivered completes pending", StatusDelivered, PaymentPending, true, PaymentCompleted, true},
		{"delivered completes processing", StatusDelivered, PaymentProcessing, true, PaymentCompleted, true},
		{"delivered completes cancelled", StatusDelivered, PaymentCancelled, true, PaymentCompleted, true},
		{"delivered leaves completed", StatusDelivered, PaymentCompleted, false, "", false},
		{"pending never changes payment", StatusPending, PaymentPending, false, "", false},
		{"refunded never changes payment", StatusRefunded, PaymentCompleted, false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := DerivePayment(tt.newStatus, tt.current)

			assert.Equal(t, tt.wantMatch, ok)
			if tt.wantMatch {
				assert.Equal(t, tt.wantTo, rule.To)
				assert.Equal(t, tt.wantStamp, rule.StampComplete)
			}
		})
	}
}

func TestPaymentRules_ReturnsCopy(t *testing.T) {
	rules := PaymentRules()
	rules[0].To = PaymentCancelled
	rules[0].From[0] = PaymentCompleted
	rules[0].OrderStatuses[0] = StatusRefunded
	rules[3].Except[0] = PaymentPending

	rule, ok := DerivePayment(StatusConfirmed, PaymentPending)
	assert.True(t, ok)
	assert.Equal(t, PaymentCompleted, rule.To)

	rule, ok = DerivePayment(StatusDelivered, PaymentPending)
	assert.True(t, ok)
	assert.Equal(t, PaymentCompleted, rule.To)

	_, ok = DerivePayment(StatusDelivered, PaymentCompleted)
	assert.False(t, ok)
}

func TestDerivePayment_ReturnsCopy(t *testing.T) {
	rule, ok := DerivePayment(StatusCancelled, PaymentProcessing)
	assert.True(t, ok)
	rule.From[0] = PaymentCompleted
	rule.From[1] = PaymentCompleted

	_, ok = DerivePayment(StatusCancelled, PaymentPending)
	assert.True(t, ok)
	_, ok = DerivePayment(StatusCancelled, PaymentCompleted)
	assert.False(t, ok)
}

func TestApplyPaymentRule_NilPayment(t *testing.T) {
	assert.False(t, ApplyPaymentRule(StatusDelivered, nil, time.Now()))
}

func TestApplyPaymentRule_CancelKeepsCompletedAt(t *testing.T) {
	stamped := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := &readmodel.PaymentReadModel{Status: string(PaymentProcessing), CompletedAt: &stamped}

	changed := ApplyPaymentRule(StatusCancelled, p, time.Now())

	assert.True(t, changed)
	assert.Equal(t, string(PaymentCancelled), p.Status)
	assert.Equal(t, stamped, *p.CompletedAt)
}

// ============================================
// Property Tests
// ============================================

func TestApplyPaymentRule_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("confirming a pending payment completes it and stamps completed_at", prop.ForAll(
		func(unix int64) bool {
			now := time.Unix(unix, 0)
			p := &readmodel.PaymentReadModel{Status: string(PaymentPending)}

			ApplyPaymentRule(StatusConfirmed, p, now)

			return p.Status == string(PaymentCompleted) && p.CompletedAt != nil && p.CompletedAt.Equal(now)
		},
		gen.Int64Range(0, 4102444800),
	))

	properties.Property("cancelling a pending or processing payment never touches completed_at", prop.ForAll(
		func(processing bool, hadStamp bool) bool {
			p := &readmodel.PaymentReadModel{Status: string(PaymentPending)}
			if processing {
				p.Status = string(PaymentProcessing)
			}
			var before *time.Time
			if hadStamp {
				stamp := time.Unix(1700000000, 0)
				p.CompletedAt = &stamp
				before = &stamp
			}

			ApplyPaymentRule(StatusCancelled, p, time.Now())

			if p.Status != string(PaymentCancelled) {
				return false
			}
			if before == nil {
				return p.CompletedAt == nil
			}
			return p.CompletedAt != nil && p.CompletedAt.Equal(*before)
		},
		gen.Bool(),
		gen.Bool(),
	))

	properties.Property("pending and refunded never change payment", prop.ForAll(
		func(statusIdx, paymentIdx int) bool {
			newStatus := []Status{StatusPending, StatusRefunded}[statusIdx]
			current := allPaymentStatuses[paymentIdx]
			p := &readmodel.PaymentReadModel{Status: string(current)}

			changed := ApplyPaymentRule(newStatus, p, time.Now())

			return !changed && p.Status == string(current) && p.CompletedAt == nil
		},
		gen.IntRange(0, 1),
		gen.IntRange(0, len(allPaymentStatuses)-1),
	))

	properties.Property("at most one rule decides each transition", prop.ForAll(
		func(statusIdx, paymentIdx int) bool {
			newStatus := Statuses()[statusIdx]
			current := allPaymentStatuses[paymentIdx]

			matches := 0
			for _, rule := range PaymentRules() {
				if rule.matches(newStatus, current) {
					matches++
				}
			}
			return matches <= 1
		},
		gen.IntRange(0, 6),
		gen.IntRange(0, len(allPaymentStatuses)-1),
	))

	properties.TestingRun(t)
}
