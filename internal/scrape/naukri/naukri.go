package naukri

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://www.naukri.com"

type Config struct {
	BaseURL      string
	MaxPages     int
	Experience   int    // years; 0 is the fresher filter
	DefaultTitle string // used when a card has no readable title
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

func (s *Scraper) Name() string { return domain.PlatformNaukri }

func (s *Scraper) Counters() types.Counters { return s.counters }

// SearchURL builds the path-style listing URL; page 1 has no numeric suffix.
func (s *Scraper) SearchURL(role, location string, page int) string {
	path := fmt.Sprintf("%s-jobs-in-%s", util.Slug(role), util.Slug(location))
	if page > 1 {
		path = fmt.Sprintf("%s-%d", path, page)
	}
	return fmt.Sprintf("%s/%s?experience=%d", strings.TrimRight(s.cfg.BaseURL, "/"), path, s.cfg.Experience)
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
	reCardDiv     = regexp.MustCompile(`(?i)srp-jobtuple|cust-job-tuple|jobTuple`)
	reCardArticle = regexp.MustCompile(`(?i)jobTuple|job-tuple`)
	reTitle       = regexp.MustCompile(`(?i)title|jobTitle|desig`)
	reCompany     = regexp.MustCompile(`(?i)comp-name|company|subTitle`)
	reCompanySpan = regexp.MustCompile(`(?i)comp-name|company`)
	reLocation    = regexp.MustCompile(`(?i)loc-wrap|location|locWrap|ellipsis`)
	reLocationLi  = regexp.MustCompile(`(?i)location|fleft`)
	reSalary      = regexp.MustCompile(`(?i)sal-wrap|salary|salWrap`)
	reSalaryLi    = regexp.MustCompile(`(?i)salary`)
	reDate        = regexp.MustCompile(`(?i)job-post-day|date|freshness`)
)

var cardProbes = []util.Probe{
	util.ClassLike("div", reCardDiv),
	util.ClassLike("article", reCardArticle),
	util.Sel("div.list div.jobTupleHeader, div.srp-jobtuple-wrapper"),
	util.Sel("[data-job-id], .styles_jlc__main__VdwtF, .srp-jobtuple-wrapper"),
}

// ParsePage extracts every job card from one results page. Cards without a company
// are skipped and counted.
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
		util.ClassLike("a", reTitle),
		util.Sel("a.title, a.job-title, .row1 a, .info-block a"),
	)
	title := util.CleanText(titleEl.Text())

	var link string
	if href, ok := titleEl.Attr("href"); ok {
		link = util.CanonicalURL(util.AbsURL(DefaultBaseURL, href))
	}

	company := util.TextOf(card,
		util.ClassLike("a", reCompany),
		util.ClassLike("span", reCompanySpan),
		util.Sel("a.comp-name, a.subTitle, .comp-dtl-header a, .companyInfo a"),
	)
	if company == "" {
		return domain.JobRecord{}, fmt.Errorf("%w: card without company (title %q)", domain.ErrExtraction, title)
	}

	location := util.TextOf(card,
		util.ClassLike("span", reLocation),
		util.ClassLike("li", reLocationLi),
		util.Sel(".loc-wrap, .location, .locWrap span, .ni-job-tuple-icon-srp-location + span"),
	)

	salary := util.TextOf(card,
		util.ClassLike("span", reSalary),
		util.ClassLike("li", reSalaryLi),
		util.Sel(".sal-wrap, .salary, .ni-job-tuple-icon-srp-rupee + span"),
	)
	switch strings.ToLower(salary) {
	case "not disclosed", "not mentioned":
		salary = ""
	}

	posted := util.TextOf(card,
		util.ClassLike("span", reDate),
		util.Sel(".job-post-day, .freshness, .ni-job-tuple-icon-srp-calendar + span"),
	)

	return domain.NewRecord(company, util.FirstNonEmpty(title, defaultTitle), location,
		domain.PlatformNaukri, posted, salary, link), nil
}
