package util

import (
	"context"
	"errors"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape/types"

	"go.uber.org/zap"
)

// ParseFunc turns one fetched page into candidates plus the number of cards it had to skip.
type ParseFunc func(body []byte) (records []domain.JobRecord, skipped int)

// Paginate walks pages 1..maxPages. A failed fetch stops the walk and its error is
// returned alongside whatever was collected; an empty page ends it quietly.
func Paginate(
	ctx context.Context,
	log *zap.Logger,
	f types.Fetcher,
	maxPages int,
	urlFor func(page int) string,
	parse ParseFunc,
	counters *types.Counters,
) ([]domain.JobRecord, error) {
	var out []domain.JobRecord

	for page := 1; page <= maxPages; page++ {
		u := urlFor(page)
		body, err := f.Fetch(ctx, u)
		if err != nil {
			counters.FetchFailures++
			if errors.Is(err, context.Canceled) {
				return out, err
			}
			log.Warn("page fetch failed, stopping pagination",
				zap.Int("page", page), zap.String("url", u), zap.Error(err))
			return out, err
		}
		counters.Pages++

		recs, skipped := parse(body)
		counters.Skipped += skipped
		if len(recs) == 0 {
			log.Info("no jobs on page, stopping pagination", zap.Int("page", page))
			break
		}

		counters.Candidates += len(recs)
		out = append(out, recs...)
		log.Info("page parsed", zap.Int("page", page), zap.Int("jobs", len(recs)))

		if page < maxPages {
			if err := f.Pause(ctx); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}
