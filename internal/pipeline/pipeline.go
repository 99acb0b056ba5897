// Package pipeline drives a full rating run: resume, then rate every
// remaining place in order and persist the ledger after each one.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/abandonsearch/place-rater/internal/artifact"
	"github.com/abandonsearch/place-rater/internal/clock"
	"github.com/abandonsearch/place-rater/internal/ledger"
	"github.com/abandonsearch/place-rater/internal/model"
	"github.com/abandonsearch/place-rater/internal/rating"
	"github.com/abandonsearch/place-rater/internal/resume"
)

// Processor rates one place. *rating.Orchestrator implements it.
type Processor interface {
	Process(ctx context.Context, place model.Place, index int) (model.FinalizedRecord, rating.Outcome)
}

// Summary reports what a run did.
type Summary struct {
	Total          int `json:"total" yaml:"total"`
	PreviouslyDone int `json:"previously_done" yaml:"previously_done"`
	Replayed       int `json:"replayed" yaml:"replayed"`
	Start          int `json:"start" yaml:"start"`
	Processed      int `json:"processed" yaml:"processed"`
	Live           int `json:"live" yaml:"live"`
	Recovered      int `json:"recovered" yaml:"recovered"`
	Sentinel       int `json:"sentinel" yaml:"sentinel"`
	// SaveFailures counts records whose ledger write failed.
	SaveFailures int `json:"save_failures" yaml:"save_failures"`
}

// Runner owns the state of one run.
type Runner struct {
	places    []model.Place
	ledger    *ledger.Ledger
	artifacts artifact.Log
	proc      Processor
	clock     clock.Clock
}

// New builds a runner over places. The ledger is expected to be loaded
// already.
func New(places []model.Place, l *ledger.Ledger, artifacts artifact.Log, proc Processor, clk clock.Clock) *Runner {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Runner{places: places, ledger: l, artifacts: artifacts, proc: proc, clock: clk}
}

// Run resumes from the ledger and artifacts and processes the remaining
// places sequentially. A cancelled context stops the run; the record in
// flight at that moment is not persisted, so the next run retries it.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	total := len(r.places)
	sum := &Summary{Total: total, PreviouslyDone: r.ledger.Len()}

	start, err := resume.Resume(ctx, r.ledger, r.artifacts, r.places)
	if err != nil {
		return sum, err
	}
	sum.Replayed = r.ledger.Len() - sum.PreviouslyDone
	sum.Start = start

	if start > total {
		zap.L().Info("pipeline: nothing to do",
			zap.Int("start", start),
			zap.Int("total", total),
		)
		return sum, nil
	}

	for idx := start; idx <= total; idx++ {
		if err := ctx.Err(); err != nil {
			return sum, eris.Wrapf(err, "pipeline: stopped before index %d", idx)
		}

		place := r.places[idx-1].WithDefaults()
		log := zap.L().With(zap.Int("index", idx), zap.Int("total", total))
		title := place.Title()
		if title == "" {
			title = "<no title>"
		}
		log.Info("pipeline: processing", zap.String("title", title))

		began := r.clock.Now()
		rec, out := r.proc.Process(ctx, place, idx)
		if out.Cancelled || ctx.Err() != nil {
			log.Warn("pipeline: interrupted, record discarded")
			cause := context.Cause(ctx)
			if cause == nil {
				cause = context.Canceled
			}
			return sum, eris.Wrapf(cause, "pipeline: interrupted at index %d", idx)
		}

		if err := r.ledger.Append(rec); err != nil {
			sum.SaveFailures++
			log.Error("pipeline: failed to write output",
				zap.String("path", r.ledger.Path()),
				zap.String("backend", out.Backend.Key()),
				zap.Int("attempt", out.Attempts),
				zap.Error(err),
			)
		} else {
			log.Info("pipeline: saved results",
				zap.Int("saved", r.ledger.Len()),
				zap.String("path", r.ledger.Path()),
			)
		}

		sum.Processed++
		switch out.Source {
		case rating.SourceLive:
			sum.Live++
		case rating.SourceRecovered:
			sum.Recovered++
		default:
			sum.Sentinel++
		}

		log.Info("pipeline: completed",
			zap.Stringer("source", out.Source),
			zap.Int("attempts", out.Attempts),
			zap.Duration("elapsed", r.clock.Now().Sub(began)),
		)
	}

	zap.L().Info("pipeline: all done",
		zap.Int("entries", r.ledger.Len()),
		zap.Int("processed", sum.Processed),
		zap.String("output", r.ledger.Path()),
	)
	return sum, nil
}
