package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/example/ec-orders/internal/domain/order"
	"github.com/example/ec-orders/internal/email"
	"github.com/example/ec-orders/internal/infrastructure/store"
	"github.com/example/ec-orders/internal/infrastructure/store/mocks"
	"github.com/example/ec-orders/internal/readmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to     string
	update email.StatusUpdate
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendStatusUpdate(to string, update email.StatusUpdate) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, update: update})
	return nil
}

func statusEvent(t *testing.T, data order.OrderStatusChanged) []byte {
	t.Helper()
	event, err := store.NewEvent(data.OrderID, order.AggregateType, order.EventOrderStatusChanged, data)
	require.NoError(t, err)
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return raw
}

func TestHandleEvent_SendsStatusEmail(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewHandler(mailer, nil, nil)
	completed := "completed"

	err := h.HandleEvent(context.Background(), []byte("o1"), statusEvent(t, order.OrderStatusChanged{
		OrderID:       "o1",
		UserID:        "u1",
		UserEmail:     "alice@example.com",
		OldStatus:     order.StatusPending,
		NewStatus:     order.StatusConfirmed,
		PaymentStatus: &completed,
		Total:         3000,
	}))

	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "alice@example.com", mailer.sent[0].to)
	assert.Equal(t, email.StatusUpdate{
		OrderID:       "o1",
		OldLabel:      "Pending",
		NewLabel:      "Confirmed",
		PaymentStatus: &completed,
		Total:         3000,
	}, mailer.sent[0].update)
}

func TestHandleEvent_LooksUpMissingEmail(t *testing.T) {
	mailer := &fakeMailer{}
	users := mocks.NewMockOrderStore()
	users.SetUser(&readmodel.UserReadModel{ID: "u1", Email: "stored@example.com"})
	h := NewHandler(mailer, users, nil)

	err := h.HandleEvent(context.Background(), nil, statusEvent(t, order.OrderStatusChanged{
		OrderID: "o1", UserID: "u1", OldStatus: order.StatusProcessing, NewStatus: order.StatusShipped,
	}))

	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "stored@example.com", mailer.sent[0].to)
}

func TestHandleEvent_UnknownUserIsSkipped(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewHandler(mailer, mocks.NewMockOrderStore(), nil)

	err := h.HandleEvent(context.Background(), nil, statusEvent(t, order.OrderStatusChanged{
		OrderID: "o1", UserID: "ghost", OldStatus: order.StatusProcessing, NewStatus: order.StatusShipped,
	}))

	require.NoError(t, err)
	assert.Empty(t, mailer.sent)
}

func TestHandleEvent_SameStatusIsSkipped(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewHandler(mailer, nil, nil)

	err := h.HandleEvent(context.Background(), nil, statusEvent(t, order.OrderStatusChanged{
		OrderID: "o1", UserEmail: "alice@example.com", OldStatus: order.StatusShipped, NewStatus: order.StatusShipped,
	}))

	require.NoError(t, err)
	assert.Empty(t, mailer.sent)
}

func TestHandleEvent_IgnoresOtherEvents(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewHandler(mailer, nil, nil)
	event, err := store.NewEvent("o1", order.AggregateType, "OrderPlaced", map[string]string{"order_id": "o1"})
	require.NoError(t, err)
	raw, err := json.Marshal(event)
	require.NoError(t, err)

	require.NoError(t, h.HandleEvent(context.Background(), nil, raw))
	assert.Empty(t, mailer.sent)
}

func TestHandleEvent_Errors(t *testing.T) {
	h := NewHandler(&fakeMailer{}, nil, nil)
	assert.Error(t, h.HandleEvent(context.Background(), nil, []byte("not json")))

	bad, err := json.Marshal(store.Event{EventType: order.EventOrderStatusChanged, Data: json.RawMessage(`"oops"`)})
	require.NoError(t, err)
	assert.Error(t, h.HandleEvent(context.Background(), nil, bad))

	failing := NewHandler(&fakeMailer{err: errors.New("smtp down")}, nil, nil)
	err = failing.HandleEvent(context.Background(), nil, statusEvent(t, order.OrderStatusChanged{
		OrderID: "o1", UserEmail: "alice@example.com", OldStatus: order.StatusPending, NewStatus: order.StatusCancelled,
	}))
	assert.ErrorContains(t, err, "smtp down")
}
