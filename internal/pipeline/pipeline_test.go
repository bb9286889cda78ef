package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/export"
	"jobwatch-engine/internal/metrics"
	"jobwatch-engine/internal/scrape/naukri"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/store"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeScraper struct {
	name   string
	recs   []domain.JobRecord
	err    error
	panics bool
	delay  time.Duration
}

func (f *fakeScraper) Name() string { return f.name }

func (f *fakeScraper) Scrape(ctx context.Context, role, location string) ([]domain.JobRecord, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics {
		panic("selector blew up")
	}
	return append([]domain.JobRecord(nil), f.recs...), f.err
}

func (f *fakeScraper) Counters() types.Counters {
	return types.Counters{Pages: 1, Candidates: len(f.recs)}
}

// blankPages serves a page without any job cards.
type blankPages struct{ calls atomic.Int32 }

func (b *blankPages) Fetch(ctx context.Context, url string) ([]byte, error) {
	b.calls.Add(1)
	return []byte(`<html><body><div class="no-results">No jobs</div></body></html>`), nil
}

func (b *blankPages) Pause(ctx context.Context) error { return nil }

func rec(company, title, platform string) domain.JobRecord {
	return domain.NewRecord(company, title, "Bangalore", platform, "Today", "",
		"https://example.com/"+strings.ReplaceAll(strings.ToLower(company), " ", "-"))
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.App.DataDir = t.TempDir()
	return cfg
}

func openStore(t *testing.T, cfg config.Config) *store.DB {
	t.Helper()
	db, err := store.Open(context.Background(), cfg.Path(cfg.Storage.DBFile))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func fixed(srcs ...types.Scraper) SourceFactory {
	return func(string) []Source {
		out := make([]Source, len(srcs))
		for i, s := range srcs {
			out[i] = Source{Scraper: s}
		}
		return out
	}
}

func TestRunOnceEmptyFirstPageContributesZero(t *testing.T) {
	cfg := testConfig(t)
	pages := &blankPages{}
	r := &Runner{
		Config: cfg,
		Sources: fixed(
			naukri.New(naukri.Config{MaxPages: 3, DefaultTitle: "Data Analyst"}, pages, nil),
			&fakeScraper{name: domain.PlatformIndeed, recs: []domain.JobRecord{
				rec("Acme Analytics", "Data Analyst", domain.PlatformIndeed),
				rec("Globex Corp", "Junior Data Analyst", domain.PlatformIndeed),
			}},
		),
		Store: openStore(t, cfg),
		Now:   func() time.Time { return fixedNow },
	}

	sum, err := r.RunOnce(context.Background(), "Data Analyst", "India")
	require.NoError(t, err)

	assert.Equal(t, int32(1), pages.calls.Load(), "pagination stops after the empty first page")
	assert.Equal(t, 0, sum.Found[domain.PlatformNaukri])
	assert.Equal(t, 2, sum.Found[domain.PlatformIndeed])
	require.Len(t, sum.Merge.Records, 2)
	assert.Equal(t, 2, sum.Merge.NewCount)

	first := sum.Merge.Records[0]
	assert.Equal(t, domain.CategoryToday, first.PostingCategory)
	assert.Equal(t, "10 Mar 2026", first.DatePosted)
	assert.Equal(t, domain.SalaryNotDisclosed, first.SalaryPackage)

	for _, p := range []string{sum.XLSXPath, sum.CSVPath, sum.LeadsPath} {
		require.NotEmpty(t, p)
		assert.FileExists(t, p)
	}
}

func TestRunOnceIsolatesFailingSources(t *testing.T) {
	cfg := testConfig(t)
	r := &Runner{
		Config: cfg,
		Sources: fixed(
			&fakeScraper{name: domain.PlatformNaukri, err: fmt.Errorf("%w: page 1", domain.ErrFetchFailed)},
			&fakeScraper{name: domain.PlatformIndeed, panics: true},
			&fakeScraper{name: domain.PlatformLinkedIn, recs: []domain.JobRecord{
				rec("Initech Systems", "Data Analyst", domain.PlatformLinkedIn),
				rec("Unknown", "Data Analyst", domain.PlatformLinkedIn),
			}},
		),
		Now: func() time.Time { return fixedNow },
	}
	r.Config.Storage.Baseline = config.BaselineCSV

	sum, err := r.RunOnce(context.Background(), "Data Analyst", "India")
	require.NoError(t, err)

	require.Len(t, sum.Sources, 3)
	assert.ErrorIs(t, sum.Sources[0].Err, domain.ErrFetchFailed)
	assert.ErrorContains(t, sum.Sources[1].Err, "panicked")
	assert.NoError(t, sum.Sources[2].Err)
	assert.Equal(t, 0, sum.Found[domain.PlatformNaukri])
	assert.Equal(t, 0, sum.Found[domain.PlatformIndeed])

	assert.Equal(t, 2, sum.Raw)
	assert.Equal(t, 1, sum.Normalize.Rejected)
	require.Len(t, sum.Merge.Records, 1)
	assert.Equal(t, "Initech Systems", sum.Merge.Records[0].Company)
}

func TestRunOnceMergesWithPreviousRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Textfile = "metrics/jobwatch.prom"
	db := openStore(t, cfg)
	m := metrics.New()

	src := &fakeScraper{name: domain.PlatformNaukri, recs: []domain.JobRecord{
		rec("Acme Analytics", "Data Analyst", domain.PlatformNaukri),
		rec("Globex Corp", "Business Analyst", domain.PlatformNaukri),
	}}
	r := &Runner{Config: cfg, Sources: fixed(src), Store: db, Metrics: m, Now: func() time.Time { return fixedNow }}

	_, err := r.RunOnce(context.Background(), "Data Analyst", "India")
	require.NoError(t, err)

	src.recs = []domain.JobRecord{
		rec("Globex Corp", "Business Analyst", domain.PlatformNaukri),
		rec("Initech Systems", "Data Scientist", domain.PlatformNaukri),
	}
	sum, err := r.RunOnce(context.Background(), "Data Analyst", "India")
	require.NoError(t, err)

	assert.True(t, sum.Merge.BaselineLoaded)
	assert.Equal(t, 2, sum.Merge.BaselineSize)
	assert.Len(t, sum.Merge.Records, 3)
	assert.Equal(t, 1, sum.Merge.NewCount)

	n, err := db.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	runs, err := db.RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 1, runs[0].New)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.RecordsNew))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.CanonicalSize))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.PagesFetched.WithLabelValues(domain.PlatformNaukri)))
	assert.FileExists(t, filepath.Join(cfg.App.DataDir, "metrics", "jobwatch.prom"))

	onDisk, err := export.ReadCSV(cfg.OutputPath(cfg.Output.CSVFile))
	require.NoError(t, err)
	assert.Len(t, onDisk, 3)
}

func TestRunOnceEmptyMergeKeepsStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Baseline = config.BaselineCSV
	db := openStore(t, cfg)

	src := &fakeScraper{name: domain.PlatformIndeed, recs: []domain.JobRecord{
		rec("Acme Analytics", "Data Analyst", domain.PlatformIndeed),
		rec("Globex Corp", "Business Analyst", domain.PlatformIndeed),
	}}
	r := &Runner{Config: cfg, Sources: fixed(src), Store: db, Now: func() time.Time { return fixedNow }}

	_, err := r.RunOnce(context.Background(), "Data Analyst", "India")
	require.NoError(t, err)

	// baseline file gone and the only source failing leaves nothing to merge
	require.NoError(t, os.Remove(cfg.OutputPath(cfg.Output.CSVFile)))
	src.recs, src.err = nil, fmt.Errorf("%w: page 1", domain.ErrFetchFailed)

	sum, err := r.RunOnce(context.Background(), "Data Analyst", "India")
	require.NoError(t, err)
	assert.Empty(t, sum.Merge.Records)

	n, err := db.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRunOnceWorkbookBaseline(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Baseline = config.BaselineXLSX
	src := &fakeScraper{name: domain.PlatformWellfound, recs: []domain.JobRecord{
		rec("Acme Analytics", "Data Analyst", domain.PlatformWellfound),
	}}
	r := &Runner{Config: cfg, Sources: fixed(src), Now: func() time.Time { return fixedNow }}

	first, err := r.RunOnce(context.Background(), "Data Analyst", "India")
	require.NoError(t, err)
	assert.Zero(t, first.Merge.BaselineSize)

	src.recs = append(src.recs, rec("Hooli", "Data Analyst", domain.PlatformWellfound))
	second, err := r.RunOnce(context.Background(), "Data Analyst", "India")
	require.NoError(t, err)
	assert.Equal(t, 1, second.Merge.BaselineSize)
	assert.Equal(t, 1, second.Merge.NewCount)
	assert.Len(t, second.Merge.Records, 2)
}

func TestRunOnceConcurrentKeepsSourceOrder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.ConcurrentSources = true
	r := &Runner{
		Config: cfg,
		Sources: fixed(
			&fakeScraper{name: domain.PlatformNaukri, delay: 50 * time.Millisecond,
				recs: []domain.JobRecord{rec("Acme Analytics", "Data Analyst", domain.PlatformNaukri)}},
			&fakeScraper{name: domain.PlatformIndeed,
				recs: []domain.JobRecord{rec("Globex Corp", "Data Analyst", domain.PlatformIndeed)}},
		),
		Now: func() time.Time { return fixedNow },
	}
	r.Config.Storage.Baseline = config.BaselineCSV

	sum, err := r.RunOnce(context.Background(), "Data Analyst", "India")
	require.NoError(t, err)
	require.Len(t, sum.Sources, 2)
	assert.Equal(t, domain.PlatformNaukri, sum.Sources[0].Source)
	assert.Equal(t, domain.PlatformIndeed, sum.Sources[1].Source)
	assert.Len(t, sum.Merge.Records, 2)
}

func TestRunOnceCancelledWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{
		Config: cfg,
		Sources: fixed(&fakeScraper{name: domain.PlatformNaukri,
			recs: []domain.JobRecord{rec("Acme Analytics", "Data Analyst", domain.PlatformNaukri)}}),
		Now: func() time.Time { return fixedNow },
	}

	_, err := r.RunOnce(ctx, "Data Analyst", "India")
	require.True(t, errors.Is(err, context.Canceled))
	_, statErr := os.Stat(cfg.OutputPath(cfg.Output.XLSXFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunRoles(t *testing.T) {
	cfg := testConfig(t)
	var roles []string
	r := &Runner{
		Config: cfg,
		Sources: func(role string) []Source {
			roles = append(roles, role)
			return []Source{{Scraper: &fakeScraper{name: domain.PlatformNaukri,
				recs: []domain.JobRecord{rec("Acme "+role, role, domain.PlatformNaukri)}}}}
		},
		Store: openStore(t, cfg),
		Now:   func() time.Time { return fixedNow },
	}

	sums, err := r.RunRoles(context.Background(), []string{"Data Analyst", "Data Scientist"}, "India")
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, []string{"Data Analyst", "Data Scientist"}, roles)
	assert.Len(t, sums[1].Merge.Records, 2)
	assert.Equal(t, 1, sums[1].Merge.NewCount)
}

func TestSourcesFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.Indeed.Enabled = false

	srcs := Sources(cfg, nil, nil)("Data Analyst")
	var names []string
	for _, s := range srcs {
		names = append(names, s.Scraper.Name())
		assert.NotNil(t, s.Client)
	}
	assert.Equal(t, []string{domain.PlatformNaukri, domain.PlatformLinkedIn, domain.PlatformWellfound}, names)
}
