package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/Londondannyboy/quest-sub002/internal/logger"
)

// ObserverManager fans events out to every registered Observer, each
// notified in its own goroutine so a slow or panicking observer never
// blocks the executor (spec §4.1 "observers... non-blocking").
type ObserverManager struct {
	mu         sync.RWMutex
	observers  []Observer
	logger     *logger.Logger
	bufferSize int
}

// ManagerOption configures an ObserverManager.
type ManagerOption func(*ObserverManager)

// WithLogger attaches a logger for observer failure/panic reporting.
func WithLogger(l *logger.Logger) ManagerOption {
	return func(m *ObserverManager) { m.logger = l }
}

// NewObserverManager builds an ObserverManager.
func NewObserverManager(opts ...ManagerOption) *ObserverManager {
	m := &ObserverManager{bufferSize: 100}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds an observer. Returns an error if its name is already taken.
func (m *ObserverManager) Register(o Observer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.observers {
		if existing.Name() == o.Name() {
			return fmt.Errorf("observer %q already registered", o.Name())
		}
	}
	m.observers = append(m.observers, o)
	return nil
}

// Unregister removes an observer by name.
func (m *ObserverManager) Unregister(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.observers {
		if o.Name() == name {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("observer %q not found", name)
}

// Notify delivers event to every registered observer, non-blocking.
func (m *ObserverManager) Notify(ctx context.Context, event Event) {
	m.mu.RLock()
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.RUnlock()

	for _, o := range observers {
		go m.notifyOne(ctx, o, event)
	}
}

func (m *ObserverManager) notifyOne(ctx context.Context, o Observer, event Event) {
	defer func() {
		if r := recover(); r != nil {
			if m.logger != nil {
				m.logger.ErrorContext(ctx, "observer panic recovered",
					"observer", o.Name(), "event_type", string(event.Type), "panic", r)
			}
		}
	}()

	if filter := o.Filter(); filter != nil && !filter.ShouldNotify(event) {
		return
	}

	if err := o.OnEvent(ctx, event); err != nil {
		if m.logger != nil {
			m.logger.ErrorContext(ctx, "observer notification failed",
				"observer", o.Name(), "event_type", string(event.Type), "error", err)
		}
	}
}

// Count returns the number of registered observers.
func (m *ObserverManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.observers)
}
