package rating

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/abandonsearch/place-rater/internal/clock"
	"github.com/abandonsearch/place-rater/internal/invoke"
	"github.com/abandonsearch/place-rater/internal/model"
	"github.com/abandonsearch/place-rater/internal/resilience"
)

// Result is the outcome of one guarded backend call.
type Result struct {
	Kind    resilience.Outcome
	Payload model.Payload
	// Raw is the response text on success.
	Raw string
	Err error
}

// Executor calls one backend with bounded retries.
type Executor struct {
	invoker invoke.Invoker
	retry   resilience.RetryConfig
}

// NewExecutor builds an executor. Backoff sleeps go through clk.
func NewExecutor(inv invoke.Invoker, retry resilience.RetryConfig, clk clock.Clock) *Executor {
	if clk == nil {
		clk = clock.Real{}
	}
	retry.Sleep = clk.Sleep
	return &Executor{invoker: inv, retry: retry}
}

// Call sends place to backend. Every non-fatal failure is retried; after the
// last attempt the result is retryable and carries a TransientError. A fatal
// error or a cancelled context ends the call with a fatal result. Call never
// writes artifacts.
func (e *Executor) Call(ctx context.Context, backend model.Backend, place model.Place) Result {
	cfg := e.retry
	cfg.OnRetry = resilience.RetryLogger("model call", zap.String("backend", backend.Key()))

	raw, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
		text, err := e.invoker.Invoke(ctx, backend, place)
		if err != nil && !resilience.IsFatal(err) {
			return "", resilience.AsTransient(err)
		}
		return text, err
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !resilience.IsFatal(err) {
			err = resilience.NewFatalError(eris.Wrapf(ctxErr, "rating: call to %s cancelled", backend.Key()))
		}
		return Result{
			Kind:    resilience.Classify(err),
			Payload: model.Missing(err.Error()),
			Err:     err,
		}
	}

	return Result{
		Kind:    resilience.OutcomeOK,
		Payload: ParsePayload(raw),
		Raw:     raw,
	}
}
