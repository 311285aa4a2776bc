// Package health caches liveness probes of the scoring backend so that a
// burst of /health requests does not fan out to it.
package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/noot-app/carcinogenscan/internal/backend"
)

// Probe performs one uncached check
type Probe func(ctx context.Context) error

// Pinger is implemented by the backend client
type Pinger interface {
	Health(ctx context.Context) backend.Result
}

// BackendProbe probes the backend /health endpoint; any 2xx is healthy
func BackendProbe(p Pinger) Probe {
	return func(ctx context.Context) error {
		if res := p.Health(ctx); res.Failed() {
			return errors.New(res.Error)
		}
		return nil
	}
}

// Checker runs a probe at most once per ttl and shares the result
type Checker struct {
	probe Probe
	ttl   time.Duration
	log   *slog.Logger
	now   func() time.Time

	mu        sync.RWMutex
	lastCheck time.Time
	lastError error
}

// NewChecker creates a caching checker
func NewChecker(probe Probe, ttl time.Duration, logger *slog.Logger) *Checker {
	return &Checker{
		probe: probe,
		ttl:   ttl,
		log:   logger,
		now:   time.Now,
	}
}

// Check returns the cached result when it is younger than ttl, otherwise probes
func (c *Checker) Check(ctx context.Context) error {
	c.mu.RLock()
	if c.fresh() {
		err := c.lastError
		c.mu.RUnlock()
		c.log.Debug("Health check: using cached result", "cached_error", err != nil)
		return err
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// another goroutine may have refreshed while we waited for the write lock
	if c.fresh() {
		return c.lastError
	}

	c.log.Debug("Health check: probing backend")
	err := c.probe(ctx)
	c.lastCheck = c.now()
	c.lastError = err
	if err != nil {
		c.log.Warn("Backend health check failed", "error", err)
	}
	return err
}

// LastChecked returns when the probe last ran
func (c *Checker) LastChecked() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastCheck
}

func (c *Checker) fresh() bool {
	return !c.lastCheck.IsZero() && c.now().Sub(c.lastCheck) < c.ttl
}
