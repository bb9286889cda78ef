// Package dedupe collapses postings of the same job seen on several boards.
package dedupe

import (
	"math"
	"sort"
	"strings"

	"jobwatch-engine/internal/domain"

	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"
)

// DefaultPriority is the survivor order when the same posting appears on several boards.
var DefaultPriority = []string{
	domain.PlatformNaukri,
	domain.PlatformLinkedIn,
	domain.PlatformIndeed,
	domain.PlatformWellfound,
}

const (
	DefaultCompanyMin  = 80
	DefaultTitleMin    = 85
	DefaultLocationMin = 60
)

// Deduper decides duplicates on fuzzy company, title and location similarity.
// Scores are 0..100.
type Deduper struct {
	Priority    []string
	CompanyMin  int
	TitleMin    int
	LocationMin int
	Log         *zap.Logger
}

func New(log *zap.Logger) *Deduper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Deduper{
		Priority:    DefaultPriority,
		CompanyMin:  DefaultCompanyMin,
		TitleMin:    DefaultTitleMin,
		LocationMin: DefaultLocationMin,
		Log:         log,
	}
}

type key struct {
	company, title, location string
}

func keyOf(j domain.JobRecord) key {
	return key{
		company:  strings.ToLower(strings.TrimSpace(j.Company)),
		title:    strings.ToLower(strings.TrimSpace(j.Title)),
		location: strings.ToLower(strings.TrimSpace(j.Location)),
	}
}

// Dedupe keeps the first record of every duplicate group after ordering by source
// priority. Sources missing from Priority rank after all listed ones, and records of
// equal rank keep their input order.
func (d *Deduper) Dedupe(jobs []domain.JobRecord) []domain.JobRecord {
	if len(jobs) == 0 {
		return jobs
	}

	sorted := make([]domain.JobRecord, len(jobs))
	copy(sorted, jobs)
	rank := d.ranks()
	sort.SliceStable(sorted, func(i, j int) bool {
		return rank(sorted[i].PlatformSource) < rank(sorted[j].PlatformSource)
	})

	var (
		unique []domain.JobRecord
		seen   []key
	)
	for _, j := range sorted {
		k := keyOf(j)
		if d.matchesAny(k, seen) {
			continue
		}
		unique = append(unique, j)
		seen = append(seen, k)
	}

	if removed := len(jobs) - len(unique); removed > 0 {
		d.log().Info("removed duplicates", zap.Int("removed", removed), zap.Int("kept", len(unique)))
	}
	return unique
}

// IsDuplicate reports whether a and b describe the same posting.
func (d *Deduper) IsDuplicate(a, b domain.JobRecord) bool {
	return d.match(keyOf(a), keyOf(b))
}

func (d *Deduper) matchesAny(k key, seen []key) bool {
	for _, s := range seen {
		if d.match(k, s) {
			return true
		}
	}
	return false
}

func (d *Deduper) match(a, b key) bool {
	if Ratio(a.company, b.company) < d.CompanyMin || Ratio(a.title, b.title) < d.TitleMin {
		return false
	}
	if a.location == "" || b.location == "" {
		return true
	}
	return Ratio(a.location, b.location) >= d.LocationMin
}

func (d *Deduper) ranks() func(string) int {
	m := make(map[string]int, len(d.Priority))
	for i, p := range d.Priority {
		if _, ok := m[p]; !ok {
			m[p] = i
		}
	}
	unlisted := len(d.Priority)
	return func(source string) int {
		if r, ok := m[source]; ok {
			return r
		}
		return unlisted
	}
}

func (d *Deduper) log() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

// Ratio is the 0..100 similarity of a and b: 2*matches/total characters, rounded.
// Identical strings score 100 and an empty string against a non-empty one scores 0.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	m := difflib.NewMatcher(runes(a), runes(b))
	return int(math.RoundToEven(100 * m.Ratio()))
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
