// Package resume rebuilds the output ledger of an interrupted run from the
// stored artifacts and decides where processing continues.
package resume

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/abandonsearch/place-rater/internal/artifact"
	"github.com/abandonsearch/place-rater/internal/ledger"
	"github.com/abandonsearch/place-rater/internal/model"
	"github.com/abandonsearch/place-rater/internal/rating"
)

// Resume extends l with records replayed from log for every index past the
// ledger's end that has artifacts (or lies below one that does), persists
// the ledger when it changed, and returns the 1-based index to process next.
// A start index greater than len(places) means there is nothing left to do.
//
// Indices beyond len(places) are replayed against an empty place. A persist
// failure is logged; the replayed entries stay in memory.
func Resume(ctx context.Context, l *ledger.Ledger, log artifact.Log, places []model.Place) (int, error) {
	maxIdx, err := artifact.MaxIndex(ctx, log)
	if err != nil {
		return 0, eris.Wrap(err, "resume: list artifact indices")
	}

	done := l.Len()
	if maxIdx > done {
		zap.L().Info("resume: reconstructing entries from artifacts",
			zap.Int("ledger_entries", done),
			zap.Int("max_artifact_index", maxIdx),
		)
		for idx := done + 1; idx <= maxIdx; idx++ {
			place := model.Place{}
			if idx <= len(places) {
				place = places[idx-1]
			}
			payload, found := rating.Recover(ctx, log, idx)
			if err := l.Add(rating.Merge(place, payload)); err != nil {
				return 0, eris.Wrapf(err, "resume: replay index %d", idx)
			}
			zap.L().Debug("resume: reconstructed index",
				zap.Int("index", idx),
				zap.Bool("from_artifact", found),
			)
		}

		if err := l.Save(); err != nil {
			zap.L().Error("resume: failed to persist reconstructed ledger",
				zap.String("path", l.Path()),
				zap.Error(err),
			)
		} else {
			zap.L().Info("resume: wrote reconstructed entries",
				zap.String("path", l.Path()),
				zap.Int("entries", l.Len()),
			)
		}
	}

	return l.Len() + 1, nil
}
