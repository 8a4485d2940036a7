// Package llmtest provides a scriptable llm.Client for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/jonathan/velvet-rope/internal/llm"
)

// MockClient implements llm.Client for testing
type MockClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GetModelFunc        func(tier llm.ModelTier) string
	CloseFunc           func() error

	mu      sync.Mutex
	prompts []string
}

// GenerateContent implements llm.Client.
func (m *MockClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.record(prompt)
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

// GenerateJSON implements llm.Client.
func (m *MockClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.record(prompt)
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return "[]", nil
}

// GetModel implements llm.Client.
func (m *MockClient) GetModel(tier llm.ModelTier) string {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(tier)
	}
	return "mock-model"
}

// Close implements llm.Client.
func (m *MockClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns how many generate calls were made.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of every prompt received, in call order.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func (m *MockClient) record(prompt string) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
}
