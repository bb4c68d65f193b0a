package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-orders/internal/infrastructure/store"
	"github.com/example/ec-orders/internal/readmodel"
)

// MockOrderStore is a mock implementation of OrderStoreInterface and
// UserStoreInterface for testing
type MockOrderStore struct {
	mu     sync.Mutex
	orders map[string]*readmodel.OrderReadModel
	users  map[string]*readmodel.UserReadModel

	// For tracking calls in tests
	UpdateCalls        []string
	ListCalls          []store.ListOrdersParams
	CountByStatusCalls []string

	// UpdateErr is returned before the update function runs
	UpdateErr error
	// PersistErr is returned after the update function runs; nothing is committed
	PersistErr error
	// CountErr is returned by CountByStatus and CountOrders
	CountErr error
	// ListErr is returned by ListOrders
	ListErr error
}

// NewMockOrderStore creates a new MockOrderStore
func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{
		orders: make(map[string]*readmodel.OrderReadModel),
		users:  make(map[string]*readmodel.UserReadModel),
	}
}

// SetOrder stores an order directly for testing
func (m *MockOrderStore) SetOrder(o *readmodel.OrderReadModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o.Clone()
}

// SetUser stores a user directly for testing
func (m *MockOrderStore) SetUser(u *readmodel.UserReadModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *u
	m.users[u.ID] = &copied
}

// Stored returns the committed state of an order, bypassing call tracking
func (m *MockOrderStore) Stored(orderID string) *readmodel.OrderReadModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[orderID].Clone()
}

func (m *MockOrderStore) GetOrder(ctx context.Context, orderID string) (*readmodel.OrderReadModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return o.Clone(), nil
}

func (m *MockOrderStore) ListOrders(ctx context.Context, params store.ListOrdersParams) ([]*readmodel.OrderReadModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListCalls = append(m.ListCalls, params)
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	orders := make([]*readmodel.OrderReadModel, 0, len(m.orders))
	for _, o := range m.orders {
		if store.MatchesOrder(params, o) {
			orders = append(orders, o.Clone())
		}
	}
	store.SortNewestFirst(orders)
	if params.Limit > 0 && len(orders) > params.Limit {
		orders = orders[:params.Limit]
	}
	return orders, nil
}

func (m *MockOrderStore) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CountByStatusCalls = append(m.CountByStatusCalls, userID)
	if m.CountErr != nil {
		return nil, m.CountErr
	}

	counts := make(map[string]int)
	for _, o := range m.orders {
		if userID == "" || o.UserID == userID {
			counts[o.Status]++
		}
	}
	return counts, nil
}

func (m *MockOrderStore) CountOrders(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CountErr != nil {
		return 0, m.CountErr
	}

	n := 0
	for _, o := range m.orders {
		if userID == "" || o.UserID == userID {
			n++
		}
	}
	return n, nil
}

// UpdateOrder holds the store lock for the whole update, so every update
// serializes
func (m *MockOrderStore) UpdateOrder(ctx context.Context, orderID string, fn store.OrderUpdateFunc) (*readmodel.OrderReadModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls = append(m.UpdateCalls, orderID)
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}

	current, ok := m.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	if m.PersistErr != nil {
		return nil, m.PersistErr
	}

	m.orders[orderID] = working
	return working.Clone(), nil
}

func (m *MockOrderStore) GetUserByID(ctx context.Context, id string) (*readmodel.UserReadModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *MockOrderStore) GetUserByUsername(ctx context.Context, username string) (*readmodel.UserReadModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MockOrderStore) CreateUser(ctx context.Context, u *readmodel.UserReadModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *u
	m.users[u.ID] = &copied
	return nil
}
