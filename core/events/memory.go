package events

import "sync"

// Memory buffers emitted events in order. It backs tests and the daemon's
// log bridge; it is not meant as a durable event store.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements the Emitter interface.
func (m *Memory) Emit(evt Event) {
	if m == nil || evt == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

// Events returns a snapshot of the buffered events in emission order.
func (m *Memory) Events() []Event {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Reset drops all buffered events.
func (m *Memory) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
