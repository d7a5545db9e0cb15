package landmarks

import (
	"context"
	"sync"
)

// MockSource replays scripted frames for testing.
type MockSource struct {
	mu     sync.Mutex
	frames []Frame
	errs   map[int]error
	calls  int
	pos    int
	closed bool
}

// NewMockSource creates a mock that yields frames in order, then ErrEndOfStream.
func NewMockSource(frames ...Frame) *MockSource {
	return &MockSource{frames: frames, errs: make(map[int]error)}
}

// FailAt makes the i-th call to Next return err instead of a frame.
func (m *MockSource) FailAt(i int, err error) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[i] = err
	return m
}

// Next implements Source.
func (m *MockSource) Next(ctx context.Context) (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Frame{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	call := m.calls
	m.calls++
	if err, ok := m.errs[call]; ok {
		return Frame{}, err
	}

	if m.pos >= len(m.frames) {
		return Frame{}, ErrEndOfStream
	}
	f := m.frames[m.pos]
	m.pos++
	return f, nil
}

// Close implements Source.
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls returns how many times Next was invoked.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
