package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/copycraft-api/internal/generation"
	"github.com/phrazzld/copycraft-api/internal/schema"
)

// MockInvoker implements generation.Invoker for testing
type MockInvoker struct {
	// InvokeFn allows test cases to mock the Invoke behavior
	InvokeFn func(ctx context.Context, prompt string, output *schema.Descriptor) (any, error)

	// Default response values
	Reply any
	Err   error

	mu          sync.Mutex
	prompts     []string
	descriptors []*schema.Descriptor
}

// Invoke implements the generation.Invoker interface
func (m *MockInvoker) Invoke(ctx context.Context, prompt string, output *schema.Descriptor) (any, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.descriptors = append(m.descriptors, output)
	m.mu.Unlock()

	if m.InvokeFn != nil {
		return m.InvokeFn(ctx, prompt, output)
	}
	return m.Reply, m.Err
}

// Calls returns how many times Invoke was called.
func (m *MockInvoker) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns every prompt passed to Invoke, in call order.
func (m *MockInvoker) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// LastPrompt returns the most recent prompt, or "" if Invoke was never called.
func (m *MockInvoker) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// Descriptors returns every output descriptor passed to Invoke.
func (m *MockInvoker) Descriptors() []*schema.Descriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*schema.Descriptor(nil), m.descriptors...)
}

// Reset clears the call tracking state
func (m *MockInvoker) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = nil
	m.descriptors = nil
}

// NewMockInvokerWithReply creates a MockInvoker that returns the given raw reply
func NewMockInvokerWithReply(reply any) *MockInvoker {
	return &MockInvoker{Reply: reply}
}

// NewMockInvokerWithError creates a MockInvoker that returns the given error
func NewMockInvokerWithError(err error) *MockInvoker {
	return &MockInvoker{Err: err}
}

// MockInvokerWithTransientFailure creates a MockInvoker that simulates a transient failure
func MockInvokerWithTransientFailure() *MockInvoker {
	return &MockInvoker{Err: generation.ErrTransientFailure}
}

// MockInvokerWithContentBlocked creates a MockInvoker that simulates content being blocked
func MockInvokerWithContentBlocked() *MockInvoker {
	return &MockInvoker{Err: generation.ErrContentBlocked}
}
