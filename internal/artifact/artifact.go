// Package artifact persists the raw text of every model response so an
// interrupted run can rebuild its output, and so operators can inspect what
// each backend returned.
package artifact

import (
	"context"
	"time"

	"github.com/abandonsearch/place-rater/internal/model"
)

// Artifact is one raw model response for one record index.
type Artifact struct {
	Index     int
	Backend   model.Backend
	Attempt   int
	Raw       string
	WrittenAt time.Time
}

// Log stores artifacts. Implementations only need to derive the index of an
// artifact and order artifacts of the same index by recency.
type Log interface {
	// Write persists a. A zero WrittenAt means "now".
	Write(ctx context.Context, a Artifact) error
	// Indices returns every record index with at least one artifact, ascending.
	Indices(ctx context.Context) ([]int, error)
	// Latest returns the most recently written artifact for index, or nil
	// when there is none.
	Latest(ctx context.Context, index int) (*Artifact, error)
	Close() error
}

// MaxIndex returns the highest index in log, or 0 when the log is empty.
func MaxIndex(ctx context.Context, log Log) (int, error) {
	indices, err := log.Indices(ctx)
	if err != nil {
		return 0, err
	}
	if len(indices) == 0 {
		return 0, nil
	}
	return indices[len(indices)-1], nil
}
