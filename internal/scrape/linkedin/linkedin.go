package linkedin

import (
	"context"
	"fmt"
	"math"
	"strings"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Row is one posting as returned by a search backend. Zero amounts mean unknown.
type Row struct {
	Company    string
	Title      string
	Location   string
	JobURL     string
	DatePosted string
	MinAmount  float64
	MaxAmount  float64
	Currency   string
	Interval   string // yearly, monthly, hourly...
}

// Query is what the scraper asks a Searcher for.
type Query struct {
	Role          string
	Location      string
	ResultsWanted int
	HoursOld      int
	EntryLevel    bool
}

// Searcher is the delegated search backend. GuestSearcher is the built-in one.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Row, error)
}

type Config struct {
	ResultsWanted int
	HoursOld      int
}

type Scraper struct {
	cfg      Config
	searcher Searcher
	log      *zap.Logger
	counters types.Counters
}

func New(cfg Config, searcher Searcher, log *zap.Logger) *Scraper {
	if cfg.ResultsWanted <= 0 {
		cfg.ResultsWanted = 50
	}
	if cfg.HoursOld <= 0 {
		cfg.HoursOld = 168
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scraper{cfg: cfg, searcher: searcher, log: log}
}

func (s *Scraper) Name() string { return domain.PlatformLinkedIn }

func (s *Scraper) Counters() types.Counters { return s.counters }

func (s *Scraper) Scrape(ctx context.Context, role, location string) ([]domain.JobRecord, error) {
	s.counters = types.Counters{}
	s.log.Info("searching", zap.String("role", role), zap.String("location", location))

	rows, err := s.searcher.Search(ctx, Query{
		Role:          role,
		Location:      location,
		ResultsWanted: s.cfg.ResultsWanted,
		HoursOld:      s.cfg.HoursOld,
		EntryLevel:    true,
	})
	if c, ok := s.searcher.(interface{ Counters() types.Counters }); ok {
		s.counters.Add(c.Counters())
	}
	if err != nil {
		s.log.Error("search failed", zap.Error(err))
	}

	out := make([]domain.JobRecord, 0, len(rows))
	for _, r := range rows {
		rec, ok := RowToRecord(r)
		if !ok {
			s.counters.Skipped++
			s.log.Debug("skipping row", zap.String("url", r.JobURL))
			continue
		}
		out = append(out, rec)
	}
	s.counters.Candidates = len(out)
	s.log.Info("scrape finished", zap.Int("jobs", len(out)))
	return out, err
}

// RowToRecord converts a search row. Rows missing company or title are rejected.
func RowToRecord(r Row) (domain.JobRecord, bool) {
	company := strings.TrimSpace(r.Company)
	title := strings.TrimSpace(r.Title)
	if company == "" || title == "" {
		return domain.JobRecord{}, false
	}
	return domain.NewRecord(company, title, r.Location, domain.PlatformLinkedIn,
		r.DatePosted, FormatSalary(r), util.CanonicalURL(r.JobURL)), true
}

// FormatSalary renders "INR500,000 - INR800,000 (yearly)"; empty when no minimum is known.
func FormatSalary(r Row) string {
	if r.MinAmount <= 0 {
		return ""
	}
	s := r.Currency + grouped(r.MinAmount)
	if r.MaxAmount > 0 {
		s = fmt.Sprintf("%s - %s%s", s, r.Currency, grouped(r.MaxAmount))
	}
	if r.Interval != "" {
		s += " (" + r.Interval + ")"
	}
	return s
}

func grouped(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}
