package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/ec-orders/internal/readmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.PutOrder(&readmodel.OrderReadModel{ID: "o1", UserID: "u1", Username: "alice", Status: "pending", CreatedAt: base,
		Payment: &readmodel.PaymentReadModel{Status: "pending"}})
	s.PutOrder(&readmodel.OrderReadModel{ID: "o2", UserID: "u1", Username: "alice", Status: "shipped", CreatedAt: base.Add(time.Hour)})
	s.PutOrder(&readmodel.OrderReadModel{ID: "o3", UserID: "u2", Username: "bob", Status: "pending", CreatedAt: base.Add(2 * time.Hour)})
	return s
}

// ============================================
// Read Tests
// ============================================

func TestMemoryStore_GetOrder(t *testing.T) {
	s := seedMemoryStore(t)
	ctx := context.Background()

	o, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "alice", o.Username)

	// Returned value is a copy
	o.Payment.Status = "completed"
	again, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "pending", again.Payment.Status)

	_, err = s.GetOrder(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListOrders(t *testing.T) {
	s := seedMemoryStore(t)
	ctx := context.Background()

	all, err := s.ListOrders(ctx, ListOrdersParams{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "o3", all[0].ID)
	assert.Equal(t, "o1", all[2].ID)

	pending, err := s.ListOrders(ctx, ListOrdersParams{Status: "pending", Search: "ALICE"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "o1", pending[0].ID)

	limited, err := s.ListOrders(ctx, ListOrdersParams{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	mine, err := s.ListOrders(ctx, ListOrdersParams{UserID: "u2"})
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestMemoryStore_Counts(t *testing.T) {
	s := seedMemoryStore(t)
	ctx := context.Background()

	counts, err := s.CountByStatus(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"pending": 2, "shipped": 1}, counts)

	total, err := s.CountOrders(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	counts, err = s.CountByStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"pending": 1, "shipped": 1}, counts)

	total, err = s.CountOrders(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

// ============================================
// Update Tests
// ============================================

func TestMemoryStore_UpdateOrder_Commits(t *testing.T) {
	s := seedMemoryStore(t)
	ctx := context.Background()

	updated, err := s.UpdateOrder(ctx, "o1", func(o *readmodel.OrderReadModel) error {
		o.Status = "confirmed"
		o.Payment.Status = "completed"
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "confirmed", updated.Status)

	stored, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "confirmed", stored.Status)
	assert.Equal(t, "completed", stored.Payment.Status)
}

func TestMemoryStore_UpdateOrder_FailureLeavesStateUntouched(t *testing.T) {
	s := seedMemoryStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := s.UpdateOrder(ctx, "o1", func(o *readmodel.OrderReadModel) error {
		o.Status = "confirmed"
		o.Payment.Status = "completed"
		return boom
	})

	assert.ErrorIs(t, err, boom)
	stored, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "pending", stored.Status)
	assert.Equal(t, "pending", stored.Payment.Status)
}

func TestMemoryStore_UpdateOrder_NotFound(t *testing.T) {
	s := NewMemoryStore()

	called := false
	_, err := s.UpdateOrder(context.Background(), "missing", func(o *readmodel.OrderReadModel) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, called)
}

func TestMemoryStore_UpdateOrder_CanceledContext(t *testing.T) {
	s := seedMemoryStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.UpdateOrder(ctx, "o1", func(o *readmodel.OrderReadModel) error { return nil })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_UpdateOrder_SerializesPerOrder(t *testing.T) {
	s := seedMemoryStore(t)
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateOrder(ctx, "o1", func(o *readmodel.OrderReadModel) error {
				o.Total++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, workers, stored.Total)
}

// ============================================
// User Tests
// ============================================

func TestMemoryStore_Users(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &readmodel.UserReadModel{ID: "u1", Username: "alice", IsStaff: true}))

	byID, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, byID.IsStaff)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", byName.ID)

	_, err = s.GetUserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}
