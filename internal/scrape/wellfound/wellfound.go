package wellfound

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape/payload"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://wellfound.com"

// DefaultRegions keeps postings located in India.
var DefaultRegions = []string{
	"india", "bangalore", "bengaluru", "mumbai", "delhi",
	"hyderabad", "pune", "chennai", "kolkata", "gurgaon",
	"gurugram", "noida", "ahmedabad", "jaipur", "kochi",
	"thiruvananthapuram", "lucknow", "chandigarh", "indore",
	"coimbatore", "nagpur", "visakhapatnam", "surat", "remote, india",
}

type Config struct {
	BaseURL       string
	DefaultTitle  string
	TargetRegions []string // location keywords; empty location always passes
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
	if len(cfg.TargetRegions) == 0 {
		cfg.TargetRegions = DefaultRegions
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scraper{cfg: cfg, fc: fc, log: log}
}

func (s *Scraper) Name() string { return domain.PlatformWellfound }

func (s *Scraper) Counters() types.Counters { return s.counters }

// CandidateURLs lists the listing pages tried in order: role in location, the
// entry-level jobs search, then the bare role page.
func (s *Scraper) CandidateURLs(role, location string) []string {
	base := strings.TrimRight(s.cfg.BaseURL, "/")
	return []string{
		fmt.Sprintf("%s/role/l/%s/%s", base, util.Slug(role), util.Slug(location)),
		fmt.Sprintf("%s/jobs?role=%s+Entry+Level&location=%s", base,
			url.QueryEscape(strings.TrimSpace(role)), url.QueryEscape(strings.TrimSpace(location))),
		fmt.Sprintf("%s/role/%s", base, util.Slug(role)),
	}
}

// Scrape tries each candidate URL until one yields postings. A failed fetch moves on
// to the next candidate; the error returned is the last fetch failure when nothing
// was found.
func (s *Scraper) Scrape(ctx context.Context, role, location string) ([]domain.JobRecord, error) {
	s.counters = types.Counters{}
	title := util.FirstNonEmpty(role, s.cfg.DefaultTitle)

	var (
		found   []domain.JobRecord
		lastErr error
	)
	for i, u := range s.CandidateURLs(role, location) {
		body, err := s.fc.Fetch(ctx, u)
		if err != nil {
			s.counters.FetchFailures++
			lastErr = err
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			s.log.Warn("candidate fetch failed", zap.String("url", u), zap.Error(err))
			continue
		}
		s.counters.Pages++

		recs, skipped, via := ParsePage(body, title, s.log)
		s.counters.Skipped += skipped
		if len(recs) > 0 {
			s.counters.Candidates += len(recs)
			found = recs
			s.log.Info("jobs found", zap.String("url", u), zap.String("via", via), zap.Int("jobs", len(recs)))
			lastErr = nil
			break
		}

		if i < 2 {
			if err := s.fc.Pause(ctx); err != nil {
				return nil, err
			}
		}
	}

	kept := FilterRegions(found, s.cfg.TargetRegions)
	s.counters.Filtered = len(found) - len(kept)
	s.log.Info("scrape finished", zap.Int("jobs", len(kept)), zap.Int("filtered", s.counters.Filtered))
	return kept, lastErr
}

// FilterRegions keeps records whose location mentions a region keyword or is empty.
func FilterRegions(recs []domain.JobRecord, regions []string) []domain.JobRecord {
	out := make([]domain.JobRecord, 0, len(recs))
	for _, r := range recs {
		if r.Location == "" || util.ContainsAnyFold(r.Location, regions) {
			out = append(out, r)
		}
	}
	return out
}

// ParsePage prefers the embedded state payload and falls back to markup. via names the
// path that produced the records.
func ParsePage(body []byte, defaultTitle string, log *zap.Logger) (recs []domain.JobRecord, skipped int, via string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Debug("parse page", zap.Error(err))
		return nil, 0, ""
	}

	recs, skipped = fromPayload(doc, defaultTitle, log)
	if len(recs) > 0 {
		return recs, skipped, "payload"
	}
	html, htmlSkipped := fromMarkup(doc, defaultTitle, log)
	return html, skipped + htmlSkipped, "markup"
}

var (
	titleKeys   = []string{"title", "name", "jobTitle", "role"}
	companyKeys = []string{"company", "companyName", "startup", "organization"}
)

// IsJob reports whether a payload object looks like a posting.
func IsJob(obj map[string]any) bool {
	return payload.HasAny(obj, titleKeys...) &&
		(payload.HasAny(obj, companyKeys...) || payload.Mentions(obj, "company"))
}

func fromPayload(doc *goquery.Document, defaultTitle string, log *zap.Logger) ([]domain.JobRecord, int) {
	docs, errs := payload.Documents(doc)
	for _, err := range errs {
		log.Debug("payload skipped", zap.Error(err))
	}

	var (
		out     []domain.JobRecord
		skipped int
	)
	for _, d := range docs {
		payload.Walk(d, payload.MaxDepth, func(obj map[string]any) {
			if !IsJob(obj) {
				return
			}
			rec, err := JobFromObject(obj, defaultTitle)
			if err != nil {
				skipped++
				log.Debug("skipping payload node", zap.Error(err))
				return
			}
			out = append(out, rec)
		})
	}
	return out, skipped
}

// JobFromObject maps a job-shaped payload object to a record.
func JobFromObject(obj map[string]any, defaultTitle string) (domain.JobRecord, error) {
	title := payload.First(obj, "title", "jobTitle", "name", "role")
	company := payload.Name(obj, "companyName", "company", "startup", "organization")
	if company == "" {
		return domain.JobRecord{}, fmt.Errorf("%w: payload node without company (title %q)", domain.ErrExtraction, title)
	}

	link := payload.First(obj, "url", "slug")
	if link != "" && !strings.HasPrefix(link, "http") {
		if strings.HasPrefix(link, "/") {
			link = DefaultBaseURL + link
		} else {
			link = DefaultBaseURL + "/jobs/" + link
		}
	}

	return domain.NewRecord(
		company,
		util.FirstNonEmpty(title, defaultTitle),
		payload.First(obj, "location", "locationNames"),
		domain.PlatformWellfound,
		payload.Timestamp(obj, "postedAt", "liveStartAt", "createdAt"),
		payload.First(obj, "compensation", "salary", "salaryRange"),
		link,
	), nil
}

var (
	reBroadCard = regexp.MustCompile(`(?i)job|listing|posting`)
	reTitle     = regexp.MustCompile(`(?i)title|name|role`)
	reCompany   = regexp.MustCompile(`(?i)company|startup|org`)
	reLocation  = regexp.MustCompile(`(?i)location|loc`)
	reSalary    = regexp.MustCompile(`(?i)salary|compensation|pay`)
)

func fromMarkup(doc *goquery.Document, defaultTitle string, log *zap.Logger) ([]domain.JobRecord, int) {
	cards := util.Cascade(doc.Selection,
		util.Sel("[data-test='JobListing'], .styles_component__nv7Bj, .styles_jobCard___hKKm, "+
			"div[class*='jobListing'], div[class*='JobCard'], div[class*='job-listing']"),
		util.ClassLike("div", reBroadCard),
	)

	var (
		out     []domain.JobRecord
		skipped int
	)
	cards.Each(func(_ int, card *goquery.Selection) {
		title := util.TextOf(card, util.ClassLike("h2, h3, a", reTitle))
		company := util.TextOf(card, util.ClassLike("a, span, h3", reCompany))
		if company == "" {
			skipped++
			log.Debug("skipping card", zap.Error(fmt.Errorf("%w: card without company (title %q)", domain.ErrExtraction, title)))
			return
		}

		var link string
		if href, ok := card.Find("a[href]").First().Attr("href"); ok {
			link = util.AbsURL(DefaultBaseURL, href)
		}

		out = append(out, domain.NewRecord(
			company,
			util.FirstNonEmpty(title, defaultTitle),
			util.TextOf(card, util.ClassLike("span, div", reLocation)),
			domain.PlatformWellfound,
			"",
			util.TextOf(card, util.ClassLike("span, div", reSalary)),
			link,
		))
	})
	return out, skipped
}
