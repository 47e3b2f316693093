package activity

import (
	"context"

	"github.com/Londondannyboy/quest-sub002/internal/config"
	"github.com/Londondannyboy/quest-sub002/internal/logger"
)

// GuardedManager composes the registry with the two cross-cutting
// policies every adapter call must pass through: a per-adapter Redis
// rate limit, then a per-adapter circuit breaker (spec §4.1, §5, §6).
// Phases call Invoke rather than reaching into Manager directly, so the
// policy wrapping can't be forgotten on a new call site.
type GuardedManager struct {
	manager  *Manager
	limiter  *RedisRateLimiter
	breakers *BreakerManager
	limits   config.RateLimitConfig
	log      *logger.Logger
}

// NewGuardedManager builds a GuardedManager. limiter may be nil, in which
// case rate limiting is skipped (used by tests that have no Redis).
func NewGuardedManager(manager *Manager, limiter *RedisRateLimiter, limits config.RateLimitConfig, log *logger.Logger) *GuardedManager {
	return &GuardedManager{
		manager:  manager,
		limiter:  limiter,
		breakers: NewBreakerManager(log),
		limits:   limits,
		log:      log,
	}
}

// Invoke runs the named activity's input through rate limiting, then the
// circuit breaker, then the activity itself.
func (g *GuardedManager) Invoke(ctx context.Context, name string, input any) (any, error) {
	act, err := g.manager.Get(name)
	if err != nil {
		return nil, err
	}

	if g.limiter != nil {
		if limit, ok := g.limits.PerAdapter[name]; ok {
			if err := g.limiter.Allow(ctx, name, limit); err != nil {
				return nil, err
			}
		}
	}

	return g.breakers.Call(ctx, name, func(ctx context.Context) (any, error) {
		return act.Execute(ctx, input)
	})
}

// Manager exposes the underlying registry for callers (e.g. startup
// wiring) that need to register activities before first Invoke.
func (g *GuardedManager) Manager() *Manager { return g.manager }
