package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Event names emitted by the editing services.
const (
	EventLayoutChanged = "site:layout-changed"
	EventPublished     = "site:published"
	EventOnboarded     = "site:onboarded"
	EventSlugChecked   = "slug:checked"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from whatever surface observes them
// ─────────────────────────────────────────────────────────────

// EventEmitter receives notifications about editing activity. The tool server
// wires a LogEmitter; tests use MockEmitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes every event to a zap logger.
type LogEmitter struct {
	Logger *zap.Logger
}

func (e LogEmitter) Emit(_ context.Context, event string, data any) {
	e.Logger.Info("event", zap.String("event", event), zap.Any("data", data))
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Names returns the recorded event names in emission order.
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Event
	}
	return out
}
