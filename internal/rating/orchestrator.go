package rating

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/abandonsearch/place-rater/internal/artifact"
	"github.com/abandonsearch/place-rater/internal/clock"
	"github.com/abandonsearch/place-rater/internal/model"
	"github.com/abandonsearch/place-rater/internal/pool"
)

// Policy holds the fallback timings.
type Policy struct {
	// Cooldown is how long a failed backend is avoided.
	Cooldown time.Duration
	// EmptyPause is slept after an empty answer.
	EmptyPause time.Duration
	// FailurePause is slept after a failed call.
	FailurePause time.Duration
}

// DefaultPolicy returns a 60s cooldown, 300ms empty pause and 500ms failure
// pause.
func DefaultPolicy() Policy {
	return Policy{
		Cooldown:     60 * time.Second,
		EmptyPause:   300 * time.Millisecond,
		FailurePause: 500 * time.Millisecond,
	}
}

// Source says where a finalized record's ratings came from.
type Source int

const (
	// SourceLive means a backend answered with a usable payload.
	SourceLive Source = iota
	// SourceRecovered means the newest stored artifact for the index was used.
	SourceRecovered
	// SourceSentinel means nothing usable existed.
	SourceSentinel
)

func (s Source) String() string {
	switch s {
	case SourceLive:
		return "live"
	case SourceRecovered:
		return "recovered"
	case SourceSentinel:
		return "sentinel"
	default:
		return "unknown"
	}
}

// Outcome describes how Process produced a record.
type Outcome struct {
	Source Source
	// Backend answered the live call. Zero unless Source is SourceLive.
	Backend  model.Backend
	Attempts int
	// Tried lists every backend tried with how it ended, in order.
	Tried []string
	// Cancelled is set when ctx ended during processing. The record must
	// not be persisted.
	Cancelled bool
}

// Orchestrator runs the per-record fallback over the pool.
type Orchestrator struct {
	pool   *pool.Pool
	exec   *Executor
	log    artifact.Log
	clock  clock.Clock
	policy Policy
}

// NewOrchestrator wires the pool, executor and artifact log. The pool's
// cooldown map is updated on failures.
func NewOrchestrator(p *pool.Pool, exec *Executor, log artifact.Log, clk clock.Clock, policy Policy) *Orchestrator {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Orchestrator{pool: p, exec: exec, log: log, clock: clk, policy: policy}
}

// Process produces the finalized record for place at 1-based index. It tries
// up to one backend per pool member, skipping backends still cooling without
// counting an attempt. Every successful answer is stored as an artifact. The
// first non-empty answer wins. When none does, the newest artifact for index
// is used, or the no-usable-output sentinel.
func (o *Orchestrator) Process(ctx context.Context, place model.Place, index int) (model.FinalizedRecord, Outcome) {
	var out Outcome
	cooldowns := o.pool.Cooldowns()

	for range o.pool.Size() {
		if ctx.Err() != nil {
			out.Cancelled = true
			break
		}

		b := o.pool.Next(ctx)
		if until := cooldowns.Until(b); until.After(o.clock.Now()) {
			zap.L().Debug("rating: skipping cooled backend",
				zap.Int("index", index),
				zap.String("backend", b.Key()),
				zap.Time("cooldown_until", until),
			)
			continue
		}

		out.Attempts++
		zap.L().Info("rating: calling backend",
			zap.Int("index", index),
			zap.String("backend", b.Key()),
			zap.Int("attempt", out.Attempts),
		)

		res := o.exec.Call(ctx, b, place)
		if res.Err != nil {
			if ctx.Err() != nil {
				out.Cancelled = true
				out.Tried = append(out.Tried, b.Key()+"(cancelled)")
				break
			}
			zap.L().Warn("rating: backend failed, cooling it",
				zap.Int("index", index),
				zap.String("backend", b.Key()),
				zap.Int("attempt", out.Attempts),
				zap.Stringer("outcome", res.Kind),
				zap.Error(res.Err),
			)
			cooldowns.Set(b, o.clock.Now().Add(o.policy.Cooldown))
			out.Tried = append(out.Tried, b.Key()+"("+res.Kind.String()+")")
			o.pause(ctx, o.policy.FailurePause)
			continue
		}

		o.store(ctx, index, b, out.Attempts, res.Raw)

		if IsEmpty(res.Payload) {
			zap.L().Warn("rating: backend returned empty analysis, trying next",
				zap.Int("index", index),
				zap.String("backend", b.Key()),
				zap.Int("attempt", out.Attempts),
			)
			out.Tried = append(out.Tried, b.Key()+"(empty)")
			o.pause(ctx, o.policy.EmptyPause)
			continue
		}

		out.Source = SourceLive
		out.Backend = b
		out.Tried = append(out.Tried, b.Key()+"(ok)")
		return Merge(place, res.Payload), out
	}

	if out.Cancelled {
		out.Source = SourceSentinel
		return Merge(place, model.Missing(model.NoUsableOutput)), out
	}

	zap.L().Error("rating: no backend produced usable output",
		zap.Int("index", index),
		zap.Int("attempt", out.Attempts),
		zap.Strings("tried", out.Tried),
	)

	payload, found := Recover(ctx, o.log, index)
	out.Source = SourceSentinel
	if found {
		out.Source = SourceRecovered
	}
	return Merge(place, payload), out
}

func (o *Orchestrator) store(ctx context.Context, index int, b model.Backend, attempt int, raw string) {
	// Stored even when ctx is ending.
	err := o.log.Write(context.WithoutCancel(ctx), artifact.Artifact{
		Index:     index,
		Backend:   b,
		Attempt:   attempt,
		Raw:       raw,
		WrittenAt: o.clock.Now(),
	})
	if err != nil {
		zap.L().Error("rating: failed to store artifact",
			zap.Int("index", index),
			zap.String("backend", b.Key()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator) pause(ctx context.Context, d time.Duration) {
	if d > 0 {
		_ = o.clock.Sleep(ctx, d)
	}
}

// Recover returns the payload of the newest artifact for index. found is
// false when there is none, in which case the payload is the sentinel. A
// read failure is logged and also gives the sentinel.
func Recover(ctx context.Context, log artifact.Log, index int) (payload model.Payload, found bool) {
	a, err := log.Latest(ctx, index)
	if err != nil {
		zap.L().Error("rating: failed to read stored artifact",
			zap.Int("index", index),
			zap.Error(err),
		)
		return model.Missing(model.NoUsableOutput), false
	}
	if a == nil {
		return model.Missing(model.NoUsableOutput), false
	}
	zap.L().Info("rating: using stored artifact",
		zap.Int("index", index),
		zap.String("backend", a.Backend.Key()),
		zap.Int("attempt", a.Attempt),
	)
	return ParsePayload(a.Raw), true
}
