package pipeline

import (
	"go.uber.org/zap"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/fetch"
	"jobwatch-engine/internal/scrape/indeed"
	"jobwatch-engine/internal/scrape/linkedin"
	"jobwatch-engine/internal/scrape/naukri"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"
	"jobwatch-engine/internal/scrape/wellfound"
)

// Source pairs a scraper with the client it fetches through. Client may be nil.
type Source struct {
	Scraper types.Scraper
	Client  *fetch.Client
}

// SourceFactory builds the enabled sources for one role. It is called once per run so
// every run starts with fresh clients and counters.
type SourceFactory func(role string) []Source

// FetchConfig converts the fetch section into a client config.
func FetchConfig(fc config.FetchConfig) fetch.Config {
	return fetch.Config{
		MaxRetries: fc.MaxRetries,
		RetryDelay: fc.RetryDelay.D(),
		DelayMin:   fc.DelayMin.D(),
		DelayMax:   fc.DelayMax.D(),
		Timeout:    fc.Timeout.D(),
		UserAgents: fc.UserAgents,
	}
}

// Sources returns the factory for the configured sources, in the order naukri,
// indeed, linkedin, wellfound. All clients share limiter.
func Sources(cfg config.Config, limiter *util.HostLimiter, log *zap.Logger) SourceFactory {
	if log == nil {
		log = zap.NewNop()
	}
	fc := FetchConfig(cfg.Fetch)
	maxPages := cfg.Pagination.MaxPages

	return func(role string) []Source {
		var out []Source

		if cfg.Sources.Naukri.Enabled {
			c := fetch.New(fc, limiter, nil, log.Named("fetch"))
			s := naukri.New(naukri.Config{
				MaxPages:     maxPages,
				Experience:   cfg.Search.Experience,
				DefaultTitle: role,
			}, c, log.Named("naukri"))
			out = append(out, Source{Scraper: s, Client: c})
		}

		if cfg.Sources.Indeed.Enabled {
			c := fetch.New(fc, limiter, fetch.NavigationHeaders(indeed.DefaultBaseURL+"/"), log.Named("fetch"))
			s := indeed.New(indeed.Config{
				MaxPages:     maxPages,
				DefaultTitle: role,
			}, c, log.Named("indeed"))
			out = append(out, Source{Scraper: s, Client: c})
		}

		if cfg.Sources.LinkedIn.Enabled {
			c := fetch.New(fc, limiter, nil, log.Named("fetch"))
			searcher := linkedin.NewGuestSearcher(c, maxPages, log.Named("linkedin"))
			s := linkedin.New(linkedin.Config{
				ResultsWanted: cfg.Sources.LinkedIn.ResultsWanted,
				HoursOld:      cfg.Sources.LinkedIn.HoursOld,
			}, searcher, log.Named("linkedin"))
			out = append(out, Source{Scraper: s, Client: c})
		}

		if cfg.Sources.Wellfound.Enabled {
			c := fetch.New(fc, limiter, fetch.NavigationHeaders(wellfound.DefaultBaseURL+"/"), log.Named("fetch"))
			s := wellfound.New(wellfound.Config{
				DefaultTitle:  role,
				TargetRegions: cfg.Sources.Wellfound.TargetRegions,
			}, c, log.Named("wellfound"))
			out = append(out, Source{Scraper: s, Client: c})
		}

		return out
	}
}
