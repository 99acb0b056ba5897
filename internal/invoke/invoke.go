// Package invoke connects the rater to model providers. It builds the prompt,
// response schema and image parts from a place, and routes each call to the
// client registered for the backend's provider.
package invoke

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/abandonsearch/place-rater/internal/model"
	"github.com/abandonsearch/place-rater/internal/resilience"
)

// Invoker sends one place to one backend and returns the raw response text.
// Errors are retryable unless wrapped in a resilience.FatalError.
type Invoker interface {
	Invoke(ctx context.Context, backend model.Backend, place model.Place) (string, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, backend model.Backend, place model.Place) (string, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, backend model.Backend, place model.Place) (string, error) {
	return f(ctx, backend, place)
}

type route struct {
	invoker Invoker
	perMin  int
}

// Router dispatches by provider and paces calls per backend.
type Router struct {
	mu       sync.Mutex
	routes   map[string]route
	limiters map[string]*AdaptiveLimiter
}

// NewRouter returns a router with no providers.
func NewRouter() *Router {
	return &Router{
		routes:   make(map[string]route),
		limiters: make(map[string]*AdaptiveLimiter),
	}
}

// Register routes provider to inv. A positive perMinute limits calls to each
// backend of that provider; zero or less disables pacing.
func (r *Router) Register(provider string, inv Invoker, perMinute int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[provider] = route{invoker: inv, perMin: perMinute}
}

// Has reports whether provider has a registered invoker.
func (r *Router) Has(provider string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.routes[provider]
	return ok
}

// Invoke implements Invoker.
func (r *Router) Invoke(ctx context.Context, backend model.Backend, place model.Place) (string, error) {
	r.mu.Lock()
	rt, ok := r.routes[backend.Provider]
	r.mu.Unlock()
	if !ok {
		return "", resilience.NewFatalError(
			eris.Errorf("invoke: no invoker registered for provider %q", backend.Provider))
	}

	lim := r.limiter(backend, rt.perMin)
	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return "", resilience.NewFatalError(eris.Wrap(err, "invoke: rate limiter wait"))
		}
	}

	text, err := rt.invoker.Invoke(ctx, backend, place)
	if lim != nil {
		var te *resilience.TransientError
		switch {
		case err == nil:
			lim.OnSuccess()
		case errors.As(err, &te) && te.StatusCode == http.StatusTooManyRequests:
			lim.OnRateLimit()
			zap.L().Warn("invoke: backend rate limited",
				zap.String("backend", backend.Key()),
				zap.Float64("new_rate_per_sec", float64(lim.Limit())),
			)
		}
	}
	return text, err
}

func (r *Router) limiter(backend model.Backend, perMin int) *AdaptiveLimiter {
	if perMin <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := backend.Key()
	lim, ok := r.limiters[key]
	if !ok {
		lim = NewAdaptiveLimiter(rate.Limit(float64(perMin)/60.0), 1)
		r.limiters[key] = lim
	}
	return lim
}
