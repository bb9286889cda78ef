// Package normalize turns extractor output into canonical records: relative and
// absolute posting dates become a calendar date plus a recency bucket, missing pay
// becomes the NULL marker, and records without a real company or title are dropped.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"jobwatch-engine/internal/domain"

	"go.uber.org/zap"
)

type Normalizer struct {
	Now func() time.Time
	Log *zap.Logger
}

func New(log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{Now: time.Now, Log: log}
}

// Stats count what Process did with a batch.
type Stats struct {
	Input        int
	Valid        int
	Rejected     int
	UnknownDates int
}

var (
	reDaysAgo  = regexp.MustCompile(`(\d+)\+?\s*(?:day|d)s?\s*ago`)
	reWeeks    = regexp.MustCompile(`(\d+)\s*week`)
	reMonths   = regexp.MustCompile(`(\d+)\s*month`)
	rePostedOn = regexp.MustCompile(`(?i)^(posted\s*on\s*|posted\s*)`)

	todayWords = []string{"today", "just now", "just posted", "few hours", "hour ago", "hours ago", "0 day"}

	absoluteLayouts = []string{
		"2006-1-2",
		"2-1-2006",
		"2 Jan 2006",
		"2 January 2006",
		"Jan 2, 2006",
		"January 2, 2006",
		"2/1/2006",
		"1/2/2006",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		time.RFC3339,
	}
)

// DaysAgo interprets raw posting text. ok is false when no rule applies.
func (n *Normalizer) DaysAgo(raw string) (days int, ok bool) {
	text := strings.TrimSpace(raw)
	low := strings.ToLower(text)
	if low == "" {
		return 0, false
	}

	if m := reDaysAgo.FindStringSubmatch(low); m != nil {
		return atoi(m[1]), true
	}
	for _, kw := range todayWords {
		if strings.Contains(low, kw) {
			return 0, true
		}
	}
	if strings.Contains(low, "yesterday") {
		return 1, true
	}
	if m := reWeeks.FindStringSubmatch(low); m != nil {
		return atoi(m[1]) * 7, true
	}
	if m := reMonths.FindStringSubmatch(low); m != nil {
		return atoi(m[1]) * 30, true
	}

	text = strings.TrimSpace(rePostedOn.ReplaceAllString(text, ""))
	for _, layout := range absoluteLayouts {
		t, err := time.Parse(layout, text)
		if err != nil {
			continue
		}
		d := int(civil(n.now()).Sub(civil(t)).Hours() / 24)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// Date fills DatePosted and PostingCategory from DatePostedRaw.
func (n *Normalizer) Date(j *domain.JobRecord) {
	days, ok := n.DaysAgo(j.DatePostedRaw)
	if !ok {
		j.DatePosted = ""
		j.PostingCategory = domain.CategoryUnknown
		return
	}
	j.DatePosted = civil(n.now()).AddDate(0, 0, -days).Format(domain.DateLayout)
	j.PostingCategory = domain.CategoryForDays(days)
}

var missingSalary = map[string]bool{
	"null":          true,
	"none":          true,
	"n/a":           true,
	"not disclosed": true,
	"not mentioned": true,
}

// Salary replaces absent pay text with domain.SalaryNotDisclosed.
func (n *Normalizer) Salary(j *domain.JobRecord) {
	s := strings.TrimSpace(j.SalaryPackage)
	if s == "" || missingSalary[strings.ToLower(s)] {
		j.SalaryPackage = domain.SalaryNotDisclosed
		return
	}
	j.SalaryPackage = s
}

// Validate reports why a record cannot enter the canonical set.
func (n *Normalizer) Validate(j domain.JobRecord) error {
	company := strings.TrimSpace(j.Company)
	switch {
	case company == "":
		return fmt.Errorf("%w: empty company", domain.ErrValidation)
	case strings.EqualFold(company, "unknown"):
		return fmt.Errorf("%w: unknown company", domain.ErrValidation)
	case strings.TrimSpace(j.Title) == "":
		return fmt.Errorf("%w: empty title", domain.ErrValidation)
	}
	return nil
}

// Process normalizes every record and keeps the valid ones, in input order.
func (n *Normalizer) Process(jobs []domain.JobRecord) ([]domain.JobRecord, Stats) {
	st := Stats{Input: len(jobs)}
	out := make([]domain.JobRecord, 0, len(jobs))

	for _, j := range jobs {
		n.Date(&j)
		n.Salary(&j)
		if err := n.Validate(j); err != nil {
			st.Rejected++
			n.log().Debug("rejected record", zap.String("source", j.PlatformSource),
				zap.String("title", j.Title), zap.Error(err))
			continue
		}
		if j.PostingCategory == domain.CategoryUnknown {
			st.UnknownDates++
		}
		out = append(out, j)
	}

	st.Valid = len(out)
	n.log().Info("normalized", zap.Int("input", st.Input), zap.Int("valid", st.Valid),
		zap.Int("rejected", st.Rejected), zap.Int("unknown_dates", st.UnknownDates))
	return out, st
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

func (n *Normalizer) log() *zap.Logger {
	if n.Log == nil {
		return zap.NewNop()
	}
	return n.Log
}

// civil drops the clock so day arithmetic is not skewed by time of day or zone.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
