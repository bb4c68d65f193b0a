package store

import (
	"context"
	"sync"

	"github.com/example/ec-orders/internal/readmodel"
)

// MemoryStore is an in-memory order and user store.
// Updates on the same order serialize on a per-order mutex; different orders
// proceed in parallel.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*readmodel.OrderReadModel // orderID -> order
	users  map[string]*readmodel.UserReadModel  // userID -> user
	locks  sync.Map                             // orderID -> *sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]*readmodel.OrderReadModel),
		users:  make(map[string]*readmodel.UserReadModel),
	}
}

// PutOrder inserts or replaces an order
func (s *MemoryStore) PutOrder(o *readmodel.OrderReadModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o.Clone()
}

// GetOrder retrieves an order by its external id
func (s *MemoryStore) GetOrder(ctx context.Context, orderID string) (*readmodel.OrderReadModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return o.Clone(), nil
}

// ListOrders returns orders matching params, newest first
func (s *MemoryStore) ListOrders(ctx context.Context, params ListOrdersParams) ([]*readmodel.OrderReadModel, error) {
	s.mu.RLock()
	orders := make([]*readmodel.OrderReadModel, 0, len(s.orders))
	for _, o := range s.orders {
		if MatchesOrder(params, o) {
			orders = append(orders, o.Clone())
		}
	}
	s.mu.RUnlock()

	SortNewestFirst(orders)
	if params.Limit > 0 && len(orders) > params.Limit {
		orders = orders[:params.Limit]
	}
	return orders, nil
}

// CountByStatus counts orders per status in one pass
func (s *MemoryStore) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, o := range s.orders {
		if userID != "" && o.UserID != userID {
			continue
		}
		counts[o.Status]++
	}
	return counts, nil
}

// CountOrders returns the number of stored orders
func (s *MemoryStore) CountOrders(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if userID == "" {
		return len(s.orders), nil
	}
	n := 0
	for _, o := range s.orders {
		if o.UserID == userID {
			n++
		}
	}
	return n, nil
}

// UpdateOrder applies fn to a copy of the order under its lock and swaps the
// copy in only when fn succeeds
func (s *MemoryStore) UpdateOrder(ctx context.Context, orderID string, fn OrderUpdateFunc) (*readmodel.OrderReadModel, error) {
	lock := s.lockFor(orderID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	current, ok := s.orders[orderID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.orders[orderID] = working
	s.mu.Unlock()

	return working.Clone(), nil
}

func (s *MemoryStore) lockFor(orderID string) *sync.Mutex {
	l, _ := s.locks.LoadOrStore(orderID, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// User operations

func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (*readmodel.UserReadModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*readmodel.UserReadModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *readmodel.UserReadModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *u
	s.users[u.ID] = &copied
	return nil
}
