// Package pipeline runs one scrape → normalize → dedupe → merge pass and hands the
// merged canonical set to the store, the exporters and the lead helper.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/dedupe"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/export"
	"jobwatch-engine/internal/leads"
	"jobwatch-engine/internal/merge"
	"jobwatch-engine/internal/metrics"
	"jobwatch-engine/internal/normalize"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/store"
)

// Runner holds what stays fixed across runs. Store and Metrics are optional.
type Runner struct {
	Config  config.Config
	Sources SourceFactory
	Store   *store.DB
	Metrics *metrics.Metrics
	Log     *zap.Logger
	Now     func() time.Time
}

// Summary describes one run.
type Summary struct {
	Role       string
	Location   string
	StartedAt  time.Time
	FinishedAt time.Time

	Sources   []types.ScrapeResult // Records is left nil; see Found
	Found     map[string]int
	Raw       int
	Normalize normalize.Stats
	Deduped   int
	Merge     merge.Result

	// Output paths, empty when that output failed or was skipped.
	XLSXPath  string
	CSVPath   string
	LeadsPath string
}

// RunOnce scrapes every source for role/location and folds the result into the
// canonical set. Source, extraction, validation and baseline failures only shrink
// the result; the returned error is set only when ctx ends before the merge, in
// which case nothing is persisted.
func (r *Runner) RunOnce(ctx context.Context, role, location string) (Summary, error) {
	log := r.log()
	sum := Summary{Role: role, Location: location, StartedAt: r.now(), Found: map[string]int{}}

	log.Info("run started", zap.String("role", role), zap.String("location", location))

	results := r.scrapeAll(ctx, role, location)
	var all []domain.JobRecord
	for i := range results {
		all = append(all, results[i].Records...)
		sum.Found[results[i].Source] = len(results[i].Records)
		results[i].Records = nil
	}
	sum.Sources = results
	sum.Raw = len(all)
	log.Info("raw totals", zap.Int("jobs", len(all)), zap.Int("sources", len(results)))

	if err := ctx.Err(); err != nil {
		log.Warn("run interrupted before merge; nothing written", zap.Error(err))
		return sum, err
	}

	n := normalize.New(log.Named("normalize"))
	n.Now = r.now
	valid, nstats := n.Process(all)
	sum.Normalize = nstats

	d := r.deduper()
	deduped := d.Dedupe(valid)
	sum.Deduped = len(deduped)

	sum.Merge = merge.New(d, log.Named("merge")).Merge(ctx, deduped, r.baseline())

	r.persist(ctx, &sum)

	sum.FinishedAt = r.now()
	r.record(ctx, sum)
	r.logSummary(sum)
	return sum, nil
}

// RunRoles runs the roles one after another; each run merges into the set the
// previous one left behind.
func (r *Runner) RunRoles(ctx context.Context, roles []string, location string) ([]Summary, error) {
	var out []Summary
	for _, role := range roles {
		sum, err := r.RunOnce(ctx, role, location)
		out = append(out, sum)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (r *Runner) scrapeAll(ctx context.Context, role, location string) []types.ScrapeResult {
	srcs := r.Sources(role)
	results := make([]types.ScrapeResult, len(srcs))

	if !r.Config.Pipeline.ConcurrentSources {
		for i, s := range srcs {
			results[i] = r.scrapeOne(ctx, s, role, location)
		}
		return results
	}

	var g errgroup.Group
	for i, s := range srcs {
		g.Go(func() error {
			results[i] = r.scrapeOne(ctx, s, role, location)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// scrapeOne never fails the run: errors and panics end up in the result.
func (r *Runner) scrapeOne(ctx context.Context, s Source, role, location string) (res types.ScrapeResult) {
	name := s.Scraper.Name()
	log := r.log().With(zap.String("source", name))
	res.Source = name

	defer func() {
		if p := recover(); p != nil {
			res.Records = nil
			res.Err = fmt.Errorf("%s scraper panicked: %v", name, p)
			log.Error("scraper failed", zap.Error(res.Err))
		}
	}()

	log.Info("scraping")
	recs, err := s.Scraper.Scrape(ctx, role, location)
	res.Records = recs
	res.Err = err
	res.Counters = s.Scraper.Counters()
	if s.Client != nil {
		res.Counters.Retries = int(s.Client.Stats().Retries)
	}

	if err != nil {
		log.Warn("source stopped early", zap.Int("jobs", len(recs)), zap.Error(err))
	} else {
		log.Info("source done", zap.Int("jobs", len(recs)))
	}
	return res
}

func (r *Runner) deduper() *dedupe.Deduper {
	d := dedupe.New(r.log().Named("dedupe"))
	dc := r.Config.Dedupe
	if len(dc.PlatformPriority) > 0 {
		d.Priority = dc.PlatformPriority
	}
	if dc.CompanyThreshold > 0 {
		d.CompanyMin = dc.CompanyThreshold
	}
	if dc.TitleThreshold > 0 {
		d.TitleMin = dc.TitleThreshold
	}
	if dc.LocationThreshold > 0 {
		d.LocationMin = dc.LocationThreshold
	}
	return d
}

func (r *Runner) baseline() merge.Baseline {
	switch r.Config.Storage.Baseline {
	case config.BaselineXLSX:
		return export.Workbook{Path: r.Config.OutputPath(r.Config.Output.XLSXFile)}
	case config.BaselineCSV:
		return export.CSV{Path: r.Config.OutputPath(r.Config.Output.CSVFile)}
	}
	if r.Store == nil {
		return merge.BaselineFunc(func(context.Context) ([]domain.JobRecord, error) {
			return nil, fmt.Errorf("sqlite baseline selected but no store is open")
		})
	}
	return r.Store
}

// persist writes the merged set everywhere it goes. A failing output is logged and
// the others still run.
func (r *Runner) persist(ctx context.Context, sum *Summary) {
	log := r.log()
	final := sum.Merge.Records
	cfg := r.Config

	// an empty merge never replaces stored rows, same as the file exports
	if r.Store != nil && len(final) > 0 {
		if err := r.Store.ReplaceAll(ctx, final); err != nil {
			log.Error("could not update store", zap.Error(err))
		}
	}

	xlsxPath := cfg.OutputPath(cfg.Output.XLSXFile)
	if err := export.WriteWorkbook(xlsxPath, final); err != nil {
		log.Error("could not update Excel file (maybe it is open?)", zap.String("path", xlsxPath), zap.Error(err))
	} else if len(final) > 0 {
		sum.XLSXPath = xlsxPath
	}

	csvPath := cfg.OutputPath(cfg.Output.CSVFile)
	if err := export.WriteCSV(csvPath, final); err != nil {
		log.Error("could not update CSV file", zap.String("path", csvPath), zap.Error(err))
	} else if len(final) > 0 {
		sum.CSVPath = csvPath
	}

	found := leads.Find(leads.Companies(final))
	leadsPath := cfg.OutputPath(cfg.Output.LeadsFile)
	if err := leads.WriteCSV(leadsPath, found); err != nil {
		log.Error("could not write HR leads", zap.String("path", leadsPath), zap.Error(err))
	} else if len(found) > 0 {
		sum.LeadsPath = leadsPath
		log.Info("HR leads written", zap.Int("companies", len(found)))
	}
}

func (r *Runner) record(ctx context.Context, sum Summary) {
	log := r.log()

	if r.Store != nil {
		err := r.Store.RecordRun(ctx, store.Run{
			StartedAt:  sum.StartedAt,
			FinishedAt: sum.FinishedAt,
			Role:       sum.Role,
			Location:   sum.Location,
			Raw:        sum.Raw,
			Valid:      sum.Normalize.Valid,
			Deduped:    sum.Deduped,
			Final:      len(sum.Merge.Records),
			New:        sum.Merge.NewCount,
			Sources:    sum.Found,
		})
		if err != nil {
			log.Error("could not record run", zap.Error(err))
		}
	}

	m := r.Metrics
	if m == nil {
		return
	}
	for _, s := range sum.Sources {
		m.PagesFetched.WithLabelValues(s.Source).Add(float64(s.Counters.Pages))
		m.FetchFailures.WithLabelValues(s.Source).Add(float64(s.Counters.FetchFailures))
		m.FetchRetries.WithLabelValues(s.Source).Add(float64(s.Counters.Retries))
		m.Cards.WithLabelValues(s.Source).Add(float64(s.Counters.Candidates))
		m.ExtractionFailures.WithLabelValues(s.Source).Add(float64(s.Counters.Skipped))
	}
	m.RecordsRejected.Add(float64(sum.Normalize.Rejected))
	m.DuplicatesRemoved.Add(float64(sum.Normalize.Valid - sum.Deduped))
	m.RecordsNew.Add(float64(sum.Merge.NewCount))
	m.CanonicalSize.Set(float64(len(sum.Merge.Records)))
	m.LastRunTimestamp.Set(float64(sum.FinishedAt.Unix()))
	m.RunDuration.Observe(sum.FinishedAt.Sub(sum.StartedAt).Seconds())

	if err := m.WriteTextfile(r.Config.Path(r.Config.Metrics.Textfile)); err != nil {
		log.Error("could not write metrics textfile", zap.Error(err))
	}
}

func (r *Runner) logSummary(sum Summary) {
	log := r.log().Named("summary")
	for _, s := range sum.Sources {
		fields := []zap.Field{
			zap.String("source", s.Source),
			zap.Int("jobs", sum.Found[s.Source]),
			zap.Int("pages", s.Counters.Pages),
			zap.Int("fetch_failures", s.Counters.FetchFailures),
			zap.Int("retries", s.Counters.Retries),
			zap.Int("skipped", s.Counters.Skipped),
			zap.Int("filtered", s.Counters.Filtered),
		}
		if s.Err != nil {
			fields = append(fields, zap.Error(s.Err))
		}
		log.Info("source", fields...)
	}
	log.Info("totals",
		zap.Int("raw", sum.Raw),
		zap.Int("valid", sum.Normalize.Valid),
		zap.Int("rejected", sum.Normalize.Rejected),
		zap.Int("unknown_dates", sum.Normalize.UnknownDates),
		zap.Int("deduped", sum.Deduped),
		zap.Int("final", len(sum.Merge.Records)),
		zap.Int("new", sum.Merge.NewCount),
		zap.Duration("took", sum.FinishedAt.Sub(sum.StartedAt)),
	)
	log.Info("outputs",
		zap.String("xlsx", orNA(sum.XLSXPath)),
		zap.String("csv", orNA(sum.CSVPath)),
		zap.String("leads", orNA(sum.LeadsPath)),
	)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) log() *zap.Logger {
	if r.Log != nil {
		return r.Log
	}
	return zap.NewNop()
}
