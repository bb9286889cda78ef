// Package report summarises an exported canonical set for the terminal.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/store"
)

type Count struct {
	Label string
	N     int
}

// Filter narrows the records a report looks at. Empty fields match everything.
type Filter struct {
	Platform string
	Category string
	Query    string // case-insensitive match on company, title or location
}

func (f Filter) match(r domain.JobRecord) bool {
	if f.Platform != "" && !strings.EqualFold(f.Platform, r.PlatformSource) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, string(r.PostingCategory)) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hay := strings.ToLower(r.Company + " " + r.Title + " " + r.Location)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

type Report struct {
	Total      int
	NewToday   int
	Platforms  []Count // most records first
	Categories []Count // recency order, empty buckets included
	Locations  []Count // top locations, most records first
	Head       []domain.JobRecord
}

// Build counts recs after filtering and keeps the first head records.
func Build(recs []domain.JobRecord, f Filter, head int) Report {
	var rep Report
	platforms := map[string]int{}
	categories := map[domain.PostingCategory]int{}
	locations := map[string]int{}

	for _, r := range recs {
		if !f.match(r) {
			continue
		}
		rep.Total++
		platforms[r.PlatformSource]++
		categories[r.PostingCategory]++
		if loc := strings.TrimSpace(r.Location); loc != "" {
			locations[loc]++
		}
		if r.PostingCategory == domain.CategoryToday {
			rep.NewToday++
		}
		if len(rep.Head) < head {
			rep.Head = append(rep.Head, r)
		}
	}

	rep.Platforms = ranked(platforms, 0)
	rep.Locations = ranked(locations, 10)
	for _, c := range domain.Categories {
		rep.Categories = append(rep.Categories, Count{Label: string(c), N: categories[c]})
	}
	return rep
}

func ranked(m map[string]int, limit int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Label: k, N: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Label < out[j].Label
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Render writes the report as tables. runs may be empty.
func Render(w io.Writer, rep Report, runs []store.Run) {
	fmt.Fprintf(w, "Total jobs: %s   Posted today: %s\n\n", humanize.Comma(int64(rep.Total)), humanize.Comma(int64(rep.NewToday)))

	counts(w, "Platform", rep.Platforms, rep.Total)
	counts(w, "Posting Category", rep.Categories, rep.Total)
	if len(rep.Locations) > 0 {
		counts(w, "Location", rep.Locations, rep.Total)
	}

	if len(rep.Head) > 0 {
		t := newTable(w)
		t.SetTitle("First %d rows", len(rep.Head))
		t.AppendHeader(table.Row{"Company", "Title", "Location", "Platform", "Date Posted", "Category", "Salary"})
		for _, r := range rep.Head {
			t.AppendRow(table.Row{r.Company, r.Title, r.Location, r.PlatformSource, r.DatePosted, r.PostingCategory, r.SalaryPackage})
		}
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, WidthMax: 30},
			{Number: 2, WidthMax: 40},
			{Number: 3, WidthMax: 25},
			{Number: 7, WidthMax: 25},
		})
		t.Render()
		fmt.Fprintln(w)
	}

	if len(runs) > 0 {
		t := newTable(w)
		t.SetTitle("Recent runs")
		t.AppendHeader(table.Row{"Started", "Role", "Location", "Raw", "Valid", "Deduped", "Final", "New", "Took"})
		for _, r := range runs {
			t.AppendRow(table.Row{
				humanize.Time(r.StartedAt), r.Role, r.Location,
				r.Raw, r.Valid, r.Deduped, r.Final, r.New,
				r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String(),
			})
		}
		t.Render()
	}
}

func counts(w io.Writer, label string, cs []Count, total int) {
	t := newTable(w)
	t.AppendHeader(table.Row{label, "Jobs", "Share"})
	for _, c := range cs {
		share := 0.0
		if total > 0 {
			share = 100 * float64(c.N) / float64(total)
		}
		t.AppendRow(table.Row{c.Label, c.N, fmt.Sprintf("%.1f%%", share)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(w)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}
