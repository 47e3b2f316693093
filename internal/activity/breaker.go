package activity

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/logger"
)

// BreakerManager keeps one gobreaker.CircuitBreaker per adapter name, so a
// failing adapter (e.g. an image provider returning 5xx) trips in
// isolation without affecting unrelated adapters. Grounded on the
// per-channel circuit breaker manager pattern in
// jordigilh-kubernaut (circuitbreaker.NewManager wrapping
// gobreaker.Settings with ReadyToTrip/OnStateChange hooks).
type BreakerManager struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	log      *logger.Logger
}

// NewBreakerManager builds an empty manager. log may be nil.
func NewBreakerManager(log *logger.Logger) *BreakerManager {
	return &BreakerManager{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		log:      log,
	}
}

func (m *BreakerManager) forAdapter(name string) *gobreaker.CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.breakers[name]; ok {
		return b
	}

	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if m.log != nil {
				m.log.Info("circuit breaker state change", "adapter", name, "from", from.String(), "to", to.String())
			}
		},
	})
	m.breakers[name] = b
	return b
}

// Call runs fn through adapterName's breaker. An open breaker yields a
// *domain.Error classed ClassDependency (not retriable on the spot — the
// breaker itself governs when traffic resumes).
func (m *BreakerManager) Call(ctx context.Context, adapterName string, fn func(ctx context.Context) (any, error)) (any, error) {
	b := m.forAdapter(adapterName)

	out, err := b.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, domain.Dependency(domain.CodeCircuitOpen, "adapter "+adapterName+" circuit is open", err)
	}
	return out, err
}

// State reports the current breaker state for adapterName, creating the
// breaker if it does not yet exist.
func (m *BreakerManager) State(adapterName string) gobreaker.State {
	return m.forAdapter(adapterName).State()
}
