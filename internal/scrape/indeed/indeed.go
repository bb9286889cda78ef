package indeed

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://in.indeed.com"

type Config struct {
	BaseURL      string
	MaxPages     int
	DefaultTitle string
}

type Scraper struct {
	cfg      Config
	fc       types.Fetcher
	log      *zap.Logger
	counters types.Counters
}

func New(cfg Config, fc types.Fetcher, log *zap.Logger) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scraper{cfg: cfg, fc: fc, log: log}
}

func (s *Scraper) Name() string { return domain.PlatformIndeed }

func (s *Scraper) Counters() types.Counters { return s.counters }

// SearchURL pages by result offset: page 1 starts at 0, page 2 at 10.
func (s *Scraper) SearchURL(role, location string, page int) string {
	q := url.Values{}
	q.Set("q", role)
	q.Set("l", location)
	q.Set("sccl", "entry_level")
	q.Set("start", fmt.Sprint((page-1)*10))
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/jobs?" + q.Encode()
}

func (s *Scraper) Scrape(ctx context.Context, role, location string) ([]domain.JobRecord, error) {
	s.counters = types.Counters{}
	title := util.FirstNonEmpty(role, s.cfg.DefaultTitle)

	jobs, err := util.Paginate(ctx, s.log, s.fc, s.cfg.MaxPages,
		func(page int) string { return s.SearchURL(role, location, page) },
		func(body []byte) ([]domain.JobRecord, int) { return ParsePage(body, title, s.log) },
		&s.counters,
	)
	s.log.Info("scrape finished", zap.Int("jobs", len(jobs)), zap.Int("pages", s.counters.Pages))
	return jobs, err
}

var (
	reCard     = regexp.MustCompile(`(?i)job_seen_beacon|jobsearch-ResultsList|cardOutline|result`)
	reTitleH2  = regexp.MustCompile(`(?i)jobTitle|title`)
	reTitleA   = regexp.MustCompile(`(?i)jcs-JobTitle`)
	reCompany  = regexp.MustCompile(`(?i)companyName|company`)
	reLocation = regexp.MustCompile(`(?i)companyLocation|location`)
	reSalary   = regexp.MustCompile(`(?i)salary-snippet|salaryOnly`)
	reDate     = regexp.MustCompile(`(?i)date|days`)
)

var cardProbes = []util.Probe{
	util.ClassLike("div", reCard),
	util.Sel("div.job_seen_beacon, li.css-1ac2h1w, div.resultContent, td.resultContent"),
	util.Sel("[data-jk], .tapItem, .job-seen-beacon"),
}

// salaryMarkers separate pay text from the other attribute snippets (shift, job type).
var salaryMarkers = []string{"₹", "INR", "lakh", "LPA", "per", "annum", ","}

// ParsePage extracts every job card from one results page.
func ParsePage(body []byte, defaultTitle string, log *zap.Logger) ([]domain.JobRecord, int) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Debug("parse page", zap.Error(err))
		return nil, 0
	}

	var (
		out     []domain.JobRecord
		skipped int
	)
	util.Cascade(doc.Selection, cardProbes...).Each(func(_ int, card *goquery.Selection) {
		rec, err := parseCard(card, defaultTitle)
		if err != nil {
			skipped++
			log.Debug("skipping card", zap.Error(err))
			return
		}
		out = append(out, rec)
	})
	return out, skipped
}

func parseCard(card *goquery.Selection, defaultTitle string) (domain.JobRecord, error) {
	titleEl := util.FirstOf(card,
		util.ClassLike("h2", reTitleH2),
		util.ClassLike("a", reTitleA),
		util.Sel("h2.jobTitle a, a.jcs-JobTitle, .jobTitle > a, h2 a"),
	)

	// the visible title sits in a span inside the anchor
	title := util.CleanText(titleEl.Find("span").First().Text())
	if title == "" {
		title = util.CleanText(titleEl.Text())
	}

	company := util.TextOf(card,
		util.AttrEq("span", "data-testid", "company-name"),
		util.ClassLike("span", reCompany),
		util.Sel("[data-testid='company-name'], .companyName, .css-1h7lukg, .company"),
	)
	if company == "" {
		return domain.JobRecord{}, fmt.Errorf("%w: card without company (title %q)", domain.ErrExtraction, title)
	}

	location := util.TextOf(card,
		util.AttrEq("div", "data-testid", "text-location"),
		util.ClassLike("div", reLocation),
		util.Sel("[data-testid='text-location'], .companyLocation, .css-1restlb"),
	)

	var salary string
	snippet := util.TextOf(card,
		util.AttrEq("div", "data-testid", "attribute_snippet_testid"),
		util.ClassLike("div", reSalary),
		util.Sel(".salary-snippet-container, .salaryOnly, .css-1ihavw2, [data-testid='attribute_snippet_testid']"),
	)
	for _, m := range salaryMarkers {
		if strings.Contains(snippet, m) {
			salary = snippet
			break
		}
	}

	posted := util.TextOf(card,
		util.ClassLike("span", reDate),
		util.Sel(".date, .css-qvloho, [data-testid='myJobsStateDate']"),
	)

	return domain.NewRecord(company, util.FirstNonEmpty(title, defaultTitle), location,
		domain.PlatformIndeed, posted, salary, jobLink(card, titleEl)), nil
}

func jobLink(card, titleEl *goquery.Selection) string {
	anchor := titleEl
	if !util.IsTag(anchor, "a") {
		anchor = titleEl.Find("a").First()
	}
	if href, ok := anchor.Attr("href"); ok && strings.TrimSpace(href) != "" {
		return util.CanonicalURL(util.AbsURL(DefaultBaseURL, href))
	}

	jk, ok := card.Attr("data-jk")
	if !ok {
		jk, ok = card.Find("[data-jk]").First().Attr("data-jk")
	}
	if ok && jk != "" {
		return DefaultBaseURL + "/viewjob?jk=" + url.QueryEscape(jk)
	}
	return ""
}
