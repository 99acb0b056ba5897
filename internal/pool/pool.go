// Package pool rotates through the configured backends and avoids the ones
// that recently failed.
package pool

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/abandonsearch/place-rater/internal/clock"
	"github.com/abandonsearch/place-rater/internal/model"
)

// Bounds on the wait when every backend is cooling.
const (
	MinWait        = 100 * time.Millisecond
	DefaultMaxWait = 15 * time.Second
)

// Pool is an ordered, fixed set of backends with a rotating cursor.
type Pool struct {
	backends  []model.Backend
	cursor    int
	cooldowns *CooldownMap
	clock     clock.Clock
	maxWait   time.Duration
}

// Option configures a Pool.
type Option func(*Pool)

// WithMaxWait caps the wait when all backends are cooling.
func WithMaxWait(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.maxWait = d
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(p *Pool) { p.clock = c }
}

// WithCooldowns shares an existing cooldown map.
func WithCooldowns(c *CooldownMap) Option {
	return func(p *Pool) { p.cooldowns = c }
}

// New builds a pool over backends in the given order.
func New(backends []model.Backend, opts ...Option) (*Pool, error) {
	if len(backends) == 0 {
		return nil, eris.New("pool: at least one backend is required")
	}
	p := &Pool{
		backends:  append([]model.Backend(nil), backends...),
		cooldowns: NewCooldownMap(),
		clock:     clock.Real{},
		maxWait:   DefaultMaxWait,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Size returns the number of backends.
func (p *Pool) Size() int { return len(p.backends) }

// Backends returns the pool members in order.
func (p *Pool) Backends() []model.Backend {
	return append([]model.Backend(nil), p.backends...)
}

// Cooldowns returns the map the pool consults.
func (p *Pool) Cooldowns() *CooldownMap { return p.cooldowns }

// Next returns the next backend that is not cooling, scanning at most one
// full rotation. When every backend is cooling it waits until the earliest
// expiry (at least MinWait, at most the max wait) and returns the backend
// under the cursor regardless of its cooldown. The cursor always advances.
func (p *Pool) Next(ctx context.Context) model.Backend {
	n := len(p.backends)
	now := p.clock.Now()
	for range n {
		b := p.advance()
		if !p.cooldowns.Cooling(b, now) {
			return b
		}
	}

	soonest := p.cooldowns.Until(p.backends[0])
	for _, b := range p.backends[1:] {
		if u := p.cooldowns.Until(b); u.Before(soonest) {
			soonest = u
		}
	}
	wait := min(max(soonest.Sub(now), MinWait), p.maxWait)

	zap.L().Info("pool: all backends cooling, waiting",
		zap.Duration("wait", wait),
		zap.Int("backends", n),
	)
	// A cancelled context ends the wait early; the caller observes ctx.
	_ = p.clock.Sleep(ctx, wait)

	return p.advance()
}

func (p *Pool) advance() model.Backend {
	b := p.backends[p.cursor%len(p.backends)]
	p.cursor = (p.cursor + 1) % len(p.backends)
	return b
}
