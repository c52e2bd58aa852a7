package ai

import (
	"context"
	"sync"
)

// MockProvider is a test double for AI providers. It is safe for concurrent
// use because course assembly fans chapter calls out across goroutines.
type MockProvider struct {
	Response string
	Err      error
	// Handler, when set, decides the reply for each request and takes
	// precedence over Response and Err.
	Handler func(req CompletionRequest) (string, error)

	mu          sync.Mutex
	LastRequest *CompletionRequest // captures the last request for inspection
	requests    []CompletionRequest
}

// NewMockProvider creates a MockProvider that returns the given response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

// NewMockHandler creates a MockProvider driven by fn.
func NewMockHandler(fn func(req CompletionRequest) (string, error)) *MockProvider {
	return &MockProvider{Handler: fn}
}

func (m *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.mu.Lock()
	m.LastRequest = &req
	m.requests = append(m.requests, req)
	handler, response, err := m.Handler, m.Response, m.Err
	m.mu.Unlock()

	if handler != nil {
		response, err = handler(req)
	}
	if err != nil {
		return CompletionResponse{}, err
	}
	return CompletionResponse{
		Content:      response,
		Model:        "mock",
		InputTokens:  10,
		OutputTokens: len(response),
	}, nil
}

// Requests returns a copy of every request seen so far.
func (m *MockProvider) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CompletionRequest{}, m.requests...)
}

// Calls returns the number of Complete calls.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "mock", Name: "Mock Model", MaxTokens: 4096, Description: "Test mock"},
	}
}

func (m *MockProvider) HealthCheck(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}
