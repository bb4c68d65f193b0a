package mocks

import (
	"context"
	"sync"
)

// PublishCall records parameters passed to Publish
type PublishCall struct {
	Key   string
	Event any
}

// MockPublisher records published events
type MockPublisher struct {
	mu    sync.Mutex
	Calls []PublishCall
	Err   error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Calls: make([]PublishCall, 0)}
}

func (m *MockPublisher) Publish(ctx context.Context, key string, event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, PublishCall{Key: key, Event: event})
	return m.Err
}

// Published returns a snapshot of recorded calls
func (m *MockPublisher) Published() []PublishCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]PublishCall, len(m.Calls))
	copy(out, m.Calls)
	return out
}
