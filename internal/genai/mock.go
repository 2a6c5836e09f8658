// internal/genai/mock.go
package genai

import (
	"context"
	"sync"

	"career-advisor/internal/common/errors"
	"career-advisor/internal/models"
)

// MockCall records one Respond invocation.
type MockCall struct {
	Transcript []models.Turn
	Mode       Mode
}

// MockBackend returns canned responses in FIFO order and records every
// call. Safe for concurrent use.
type MockBackend struct {
	mu        sync.Mutex
	responses []string
	failWith  error
	Calls     []MockCall

	// OnRespond, when set, runs at the start of every Respond call.
	// Tests use it to race concurrent session writes against an
	// in-flight generation.
	OnRespond func()
}

func NewMockBackend(responses ...string) *MockBackend {
	return &MockBackend{responses: responses}
}

// FailWith arms the mock to return the given error on every call until
// cleared with FailWith(nil).
func (m *MockBackend) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// Enqueue appends more canned responses.
func (m *MockBackend) Enqueue(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

func (m *MockBackend) Available() bool { return true }

func (m *MockBackend) Respond(_ context.Context, transcript []models.Turn, mode Mode) (string, error) {
	if m.OnRespond != nil {
		m.OnRespond()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{
		Transcript: append([]models.Turn(nil), transcript...),
		Mode:       mode,
	})

	if m.failWith != nil {
		return "", errors.NewGenerationBackendError(m.failWith)
	}
	if len(m.responses) == 0 {
		return "Tell me more about what you enjoy doing.", nil
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next, nil
}

// CallCount returns how many times Respond ran.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
