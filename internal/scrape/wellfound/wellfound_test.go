package wellfound

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/fetch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const nextData = `<html><head><script id="__NEXT_DATA__" type="application/json">{
  "props": {"pageProps": {"apolloState": {
    "JobListing:1": {"title": "Data Analyst", "company": {"name": "Acme"}, "locationNames": ["Bengaluru"], "compensation": "₹8L – ₹12L", "slug": "1-data-analyst", "liveStartAt": 1700000000},
    "JobListing:2": {"jobTitle": "Analyst", "companyName": "Berlin GmbH", "location": "Berlin, Germany", "url": "/jobs/2"},
    "JobListing:3": {"title": "Remote Analyst", "startup": {"name": "Gamma"}, "postedAt": "2 days ago"},
    "Tag:9": {"name": "sql", "companyCount": 4}
  }}}
}</script></head><body></body></html>`

func TestParsePagePayload(t *testing.T) {
	recs, skipped, via := ParsePage([]byte(nextData), "Data Analyst", zap.NewNop())
	assert.Equal(t, "payload", via)
	require.Len(t, recs, 3)
	assert.Equal(t, 1, skipped, "Tag:9 mentions company but has none")

	a := recs[0]
	assert.Equal(t, "Acme", a.Company)
	assert.Equal(t, "Data Analyst", a.Title)
	assert.Equal(t, "Bengaluru", a.Location)
	assert.Equal(t, "₹8L – ₹12L", a.SalaryPackage)
	assert.Equal(t, "https://wellfound.com/jobs/1-data-analyst", a.JobLink)
	assert.Equal(t, "2023-11-14T22:13:20Z", a.DatePostedRaw)
	assert.Equal(t, domain.PlatformWellfound, a.PlatformSource)

	assert.Equal(t, "Berlin GmbH", recs[1].Company)
	assert.Equal(t, "https://wellfound.com/jobs/2", recs[1].JobLink)
	assert.Equal(t, "Gamma", recs[2].Company)
	assert.Equal(t, "2 days ago", recs[2].DatePostedRaw)
}

func TestParsePageMarkupFallback(t *testing.T) {
	html := `<div data-test="JobListing">
  <h2 class="styles_title__x">Junior Analyst</h2>
  <a class="styles_companyLink__y" href="/company/delta">Delta</a>
  <span class="styles_location__z">Mumbai</span>
  <span class="styles_compensation__q">₹5L</span>
</div>`
	recs, _, via := ParsePage([]byte(html), "Data Analyst", zap.NewNop())
	assert.Equal(t, "markup", via)
	require.Len(t, recs, 1)
	assert.Equal(t, "Delta", recs[0].Company)
	assert.Equal(t, "Junior Analyst", recs[0].Title)
	assert.Equal(t, "Mumbai", recs[0].Location)
	assert.Equal(t, "₹5L", recs[0].SalaryPackage)
	assert.Equal(t, "https://wellfound.com/company/delta", recs[0].JobLink)
}

func TestParsePageMarkupPageWrapper(t *testing.T) {
	html := `<div class="jobs-page">
<div class="job-card"><h2 class="title">Analyst A</h2><a class="company" href="/jobs/1">Acme</a></div>
<div class="job-card"><h2 class="title">Analyst B</h2><a class="company" href="/jobs/2">Beta</a></div>
</div>`
	recs, skipped, via := ParsePage([]byte(html), "Data Analyst", zap.NewNop())
	assert.Equal(t, "markup", via)
	assert.Zero(t, skipped)
	require.Len(t, recs, 2)
	assert.Equal(t, "Acme", recs[0].Company)
	assert.Equal(t, "Analyst A", recs[0].Title)
	assert.Equal(t, "Beta", recs[1].Company)
	assert.Equal(t, "https://wellfound.com/jobs/2", recs[1].JobLink)
}

func TestFilterRegions(t *testing.T) {
	recs := []domain.JobRecord{
		{Company: "A", Location: "Bengaluru, Karnataka"},
		{Company: "B", Location: "Berlin, Germany"},
		{Company: "C", Location: ""},
		{Company: "D", Location: "Remote, India"},
	}
	got := FilterRegions(recs, DefaultRegions)
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].Company)
	assert.Equal(t, "C", got[1].Company)
	assert.Equal(t, "D", got[2].Company)
}

func TestScrapeMovesPastFailedCandidate(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/role/l/data-analyst/india":
			w.WriteHeader(http.StatusForbidden)
		case "/jobs":
			fmt.Fprint(w, nextData)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	fc := fetch.New(fetch.Config{MaxRetries: 1, Timeout: 5 * time.Second}, nil, nil, nil)
	fc.Sleep = func(context.Context, time.Duration) error { return nil }

	s := New(Config{BaseURL: srv.URL}, fc, zap.NewNop())
	recs, err := s.Scrape(context.Background(), "Data Analyst", "India")
	require.NoError(t, err)
	assert.Equal(t, []string{"/role/l/data-analyst/india", "/jobs"}, paths)

	require.Len(t, recs, 2, "the Berlin posting is filtered out")
	assert.Equal(t, 1, s.Counters().Filtered)
	assert.Equal(t, 1, s.Counters().FetchFailures)
}

func TestCandidateURLs(t *testing.T) {
	s := New(Config{}, nil, nil)
	assert.Equal(t, []string{
		"https://wellfound.com/role/l/data-analyst/india",
		"https://wellfound.com/jobs?role=Data+Analyst+Entry+Level&location=India",
		"https://wellfound.com/role/data-analyst",
	}, s.CandidateURLs("Data Analyst", "India"))
}
