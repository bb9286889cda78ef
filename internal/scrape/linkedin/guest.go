package linkedin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const DefaultGuestURL = "https://www.linkedin.com/jobs-guest/jobs/api/seeMoreJobPostings/search"

// GuestSearcher pages LinkedIn's public guest search endpoint, which returns bare
// base-search-card fragments.
type GuestSearcher struct {
	BaseURL  string
	PageSize int
	MaxPages int

	fc       types.Fetcher
	log      *zap.Logger
	counters types.Counters
}

func NewGuestSearcher(fc types.Fetcher, maxPages int, log *zap.Logger) *GuestSearcher {
	if maxPages < 1 {
		maxPages = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GuestSearcher{
		BaseURL:  DefaultGuestURL,
		PageSize: 10,
		MaxPages: maxPages,
		fc:       fc,
		log:      log,
	}
}

func (g *GuestSearcher) Counters() types.Counters { return g.counters }

// SearchURL returns the guest endpoint URL for the page starting at offset start.
func (g *GuestSearcher) SearchURL(q Query, start int) string {
	v := url.Values{}
	v.Set("keywords", q.Role)
	v.Set("location", q.Location)
	v.Set("start", strconv.Itoa(start))
	if q.EntryLevel {
		v.Set("f_E", "2")
	}
	if q.HoursOld > 0 {
		v.Set("f_TPR", fmt.Sprintf("r%d", q.HoursOld*3600))
	}
	return g.BaseURL + "?" + v.Encode()
}

func (g *GuestSearcher) Search(ctx context.Context, q Query) ([]Row, error) {
	g.counters = types.Counters{}

	var rows []Row
	seen := map[string]bool{}
	for page := 0; page < g.MaxPages; page++ {
		if q.ResultsWanted > 0 && len(rows) >= q.ResultsWanted {
			break
		}
		u := g.SearchURL(q, page*g.PageSize)
		body, err := g.fc.Fetch(ctx, u)
		if err != nil {
			g.counters.FetchFailures++
			if !errors.Is(err, context.Canceled) {
				g.log.Warn("guest search page failed", zap.Int("page", page+1), zap.Error(err))
			}
			return rows, err
		}
		g.counters.Pages++

		got := ParseCards(body)
		if len(got) == 0 {
			g.log.Info("no cards on page, stopping", zap.Int("page", page+1))
			break
		}
		for _, r := range got {
			if r.JobURL != "" && seen[r.JobURL] {
				continue
			}
			seen[r.JobURL] = true
			rows = append(rows, r)
		}

		if page+1 < g.MaxPages && (q.ResultsWanted <= 0 || len(rows) < q.ResultsWanted) {
			if err := g.fc.Pause(ctx); err != nil {
				return rows, err
			}
		}
	}

	if q.ResultsWanted > 0 && len(rows) > q.ResultsWanted {
		rows = rows[:q.ResultsWanted]
	}
	return rows, nil
}

// ParseCards reads every base-search-card in a guest search fragment.
func ParseCards(body []byte) []Row {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var rows []Row
	util.Cascade(doc.Selection,
		util.Sel("div.base-search-card"),
		util.Sel("div.base-card, li > div.job-search-card"),
	).Each(func(_ int, card *goquery.Selection) {
		r := Row{
			Title:    util.TextOf(card, util.Sel(".base-search-card__title"), util.Sel("h3")),
			Company:  util.TextOf(card, util.Sel(".base-search-card__subtitle a"), util.Sel(".base-search-card__subtitle"), util.Sel("h4")),
			Location: util.TextOf(card, util.Sel(".job-search-card__location")),
		}
		if href, ok := card.Find("a.base-card__full-link, a[href*='/jobs/view/']").First().Attr("href"); ok {
			r.JobURL = stripQuery(href)
		}

		tm := card.Find("time").First()
		if dt, ok := tm.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
			r.DatePosted = strings.TrimSpace(dt)
		} else {
			r.DatePosted = util.CleanText(tm.Text())
		}

		if sal := util.TextOf(card, util.Sel(".job-search-card__salary-info")); sal != "" {
			r.MinAmount, r.MaxAmount, r.Currency, r.Interval = ParseSalary(sal)
		}
		rows = append(rows, r)
	})
	return rows
}

func stripQuery(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return strings.TrimSpace(href)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

var (
	reAmount = regexp.MustCompile(`(?i)(₹|\$|€|£|INR|USD|EUR|GBP)?\s*(\d[\d,]*(?:\.\d+)?)(?:\s*([km])\b)?`)

	currencyCodes = map[string]string{"₹": "INR", "$": "USD", "€": "EUR", "£": "GBP"}

	intervals = []struct{ marker, name string }{
		{"/yr", "yearly"}, {"year", "yearly"}, {"annum", "yearly"},
		{"/mo", "monthly"}, {"month", "monthly"},
		{"/wk", "weekly"}, {"week", "weekly"},
		{"/day", "daily"}, {"day", "daily"},
		{"/hr", "hourly"}, {"hour", "hourly"},
	}
)

// ParseSalary reads salary-info text like "₹5,00,000.00 - ₹8,00,000.00 /yr" or
// "$120K/yr - $150K/yr". A single amount leaves hi at zero.
func ParseSalary(text string) (lo, hi float64, currency, interval string) {
	matches := reAmount.FindAllStringSubmatch(text, 2)
	amounts := make([]float64, 0, 2)
	for _, m := range matches {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		if err != nil {
			continue
		}
		switch strings.ToLower(m[3]) {
		case "k":
			v *= 1_000
		case "m":
			v *= 1_000_000
		}
		if currency == "" && m[1] != "" {
			currency = strings.ToUpper(m[1])
			if code, ok := currencyCodes[m[1]]; ok {
				currency = code
			}
		}
		amounts = append(amounts, v)
	}
	if len(amounts) > 0 {
		lo = amounts[0]
	}
	if len(amounts) > 1 {
		hi = amounts[1]
	}

	low := strings.ToLower(text)
	for _, iv := range intervals {
		if strings.Contains(low, iv.marker) {
			interval = iv.name
			break
		}
	}
	return lo, hi, currency, interval
}
