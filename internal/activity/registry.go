package activity

import (
	"fmt"
	"sync"
)

// Manager registers and retrieves Activities by name, mirroring the
// teacher's pkg/executor.Manager registry for node-type executors.
type Manager struct {
	mu         sync.RWMutex
	activities map[string]Activity
}

// NewManager builds an empty Manager.
func NewManager() *Manager {
	return &Manager{activities: make(map[string]Activity)}
}

// Register adds or replaces the Activity for its own Name().
func (m *Manager) Register(a Activity) error {
	if a.Name() == "" {
		return fmt.Errorf("activity name must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities[a.Name()] = a
	return nil
}

// Get retrieves an Activity by name.
func (m *Manager) Get(name string) (Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.activities[name]
	if !ok {
		return nil, &ErrActivityNotFound{Name: name}
	}
	return a, nil
}

// Has reports whether an Activity is registered under name.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.activities[name]
	return ok
}

// List returns every registered activity name.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.activities))
	for name := range m.activities {
		names = append(names, name)
	}
	return names
}

// Unregister removes the Activity registered under name.
func (m *Manager) Unregister(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.activities[name]; !ok {
		return &ErrActivityNotFound{Name: name}
	}
	delete(m.activities, name)
	return nil
}
