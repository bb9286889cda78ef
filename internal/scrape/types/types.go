package types

import (
	"context"

	"jobwatch-engine/internal/domain"
)

// Scraper is one job source. Scrape returns whatever candidates it collected even
// when it also returns an error; the error only says the walk stopped early.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context, role, location string) ([]domain.JobRecord, error)
	Counters() Counters
}

// Fetcher is the page source a Scraper drives; *fetch.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Pause(ctx context.Context) error
}

// Counters summarise one Scrape call.
type Counters struct {
	Pages         int // pages fetched and parsed
	FetchFailures int
	Retries       int
	Candidates    int // records emitted before filtering
	Skipped       int // cards that could not be converted
	Filtered      int // dropped by a post-filter (wellfound regions)
}

// Add accumulates o into c.
func (c *Counters) Add(o Counters) {
	c.Pages += o.Pages
	c.FetchFailures += o.FetchFailures
	c.Retries += o.Retries
	c.Candidates += o.Candidates
	c.Skipped += o.Skipped
	c.Filtered += o.Filtered
}

// ScrapeResult is what the pipeline keeps per source.
type ScrapeResult struct {
	Source   string
	Records  []domain.JobRecord
	Counters Counters
	Err      error
}
