package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockReply is a canned completion for the MockClient.
type MockReply struct {
	Content json.RawMessage
	Err     error
}

// MockClient is a deterministic Client for tests and offline runs.
// Replies are served FIFO; an empty queue yields ErrUnavailable, which
// drives callers onto their deterministic fallback paths.
type MockClient struct {
	mu      sync.Mutex
	replies []MockReply

	// Prompts records every prompt received, in order.
	Prompts []Prompt
}

// NewMockClient creates a MockClient with the given canned replies.
func NewMockClient(replies ...MockReply) *MockClient {
	return &MockClient{replies: replies}
}

func (m *MockClient) Complete(_ context.Context, p Prompt) (*Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, p)

	if len(m.replies) == 0 {
		return nil, &ErrUnavailable{}
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]

	if reply.Err != nil {
		return nil, reply.Err
	}
	return &Completion{Content: reply.Content, Model: "mock"}, nil
}

func (m *MockClient) ModelID() string { return "mock" }

// Queue appends a canned reply.
func (m *MockClient) Queue(reply MockReply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, reply)
}

// Calls returns the number of Complete calls made.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
