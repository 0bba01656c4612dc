package api

import (
	"context"
	"sync"
)

// MockClient is a mock implementation of Querier for testing
type MockClient struct {
	// Mock return values
	Reply string
	Err   error

	// QueryFunc, when set, overrides Reply/Err
	QueryFunc func(ctx context.Context, req QueryRequest) (string, error)

	mu          sync.Mutex
	calls       int
	lastRequest QueryRequest
}

// Ensure MockClient implements Querier
var _ Querier = (*MockClient)(nil)

func (m *MockClient) Query(ctx context.Context, req QueryRequest) (string, error) {
	m.mu.Lock()
	m.calls++
	m.lastRequest = req
	fn := m.QueryFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return m.Reply, m.Err
}

// Calls returns how many times Query was invoked
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent request
func (m *MockClient) LastRequest() QueryRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}
