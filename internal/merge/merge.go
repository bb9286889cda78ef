// Package merge folds a fresh batch into the previously persisted canonical set.
package merge

import (
	"context"
	"fmt"

	"jobwatch-engine/internal/dedupe"
	"jobwatch-engine/internal/domain"

	"go.uber.org/zap"
)

// Baseline supplies the canonical set from the previous run.
type Baseline interface {
	Load(ctx context.Context) ([]domain.JobRecord, error)
}

// Result is the merged canonical set.
type Result struct {
	Records        []domain.JobRecord
	NewCount       int
	BaselineSize   int
	BaselineLoaded bool
	// Collapsed counts previous entries that deduplicated into each other on this
	// merge. NewCount is understated by this amount.
	Collapsed int
}

type Merger struct {
	Dedupe *dedupe.Deduper
	Log    *zap.Logger
}

func New(d *dedupe.Deduper, log *zap.Logger) *Merger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Merger{Dedupe: d, Log: log}
}

// Merge unions newBatch with the baseline, previous records first. When the baseline
// cannot be loaded the batch alone becomes the result.
func (m *Merger) Merge(ctx context.Context, newBatch []domain.JobRecord, baseline Baseline) Result {
	previous, err := baseline.Load(ctx)
	if err != nil {
		m.Log.Warn("could not load previous dataset, treating batch as the whole set",
			zap.Error(fmt.Errorf("%w: %v", domain.ErrBaselineUnavailable, err)))
		return Result{Records: newBatch, NewCount: len(newBatch)}
	}
	m.Log.Info("loaded previous dataset", zap.Int("records", len(previous)))

	all := make([]domain.JobRecord, 0, len(previous)+len(newBatch))
	all = append(all, previous...)
	all = append(all, newBatch...)
	merged := m.Dedupe.Dedupe(all)

	res := Result{
		Records:        merged,
		NewCount:       max(0, len(merged)-len(previous)),
		BaselineSize:   len(previous),
		BaselineLoaded: true,
	}

	if collapsed := len(previous) - len(m.Dedupe.Dedupe(previous)); collapsed > 0 {
		res.Collapsed = collapsed
		m.Log.Warn("previous dataset entries collapsed into each other; new count is understated",
			zap.Int("collapsed", collapsed))
	}

	m.Log.Info("merged", zap.Int("total", len(merged)), zap.Int("new", res.NewCount))
	return res
}

// BaselineFunc adapts a function to Baseline.
type BaselineFunc func(ctx context.Context) ([]domain.JobRecord, error)

func (f BaselineFunc) Load(ctx context.Context) ([]domain.JobRecord, error) { return f(ctx) }

// Empty is the baseline of a first run.
var Empty Baseline = BaselineFunc(func(context.Context) ([]domain.JobRecord, error) { return nil, nil })
