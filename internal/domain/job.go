package domain

import "strings"

// Known platform labels. Any other label is accepted and ranks below these.
const (
	PlatformNaukri    = "Naukri"
	PlatformLinkedIn  = "LinkedIn"
	PlatformIndeed    = "Indeed"
	PlatformWellfound = "Wellfound"
)

// SalaryNotDisclosed is stored when a posting carries no usable pay text.
const SalaryNotDisclosed = "NULL"

// DateLayout is the exported form of DatePosted.
const DateLayout = "02 Jan 2006"

// Columns is the canonical export order.
var Columns = []string{
	"Company Name",
	"Job Title",
	"Location",
	"Platform Source",
	"Date Posted",
	"Posting Category",
	"Salary Package",
	"Job Link",
}

// JobRecord is one observed posting in canonical shape.
type JobRecord struct {
	Company         string
	Title           string
	Location        string
	PlatformSource  string
	DatePostedRaw   string // as scraped; consumed by the normalizer
	DatePosted      string
	PostingCategory PostingCategory
	SalaryPackage   string
	JobLink         string
}

// NewRecord trims every field the way all extractors expect.
func NewRecord(company, title, location, platform, datePosted, salary, link string) JobRecord {
	return JobRecord{
		Company:        strings.TrimSpace(company),
		Title:          strings.TrimSpace(title),
		Location:       strings.TrimSpace(location),
		PlatformSource: platform,
		DatePostedRaw:  strings.TrimSpace(datePosted),
		SalaryPackage:  strings.TrimSpace(salary),
		JobLink:        strings.TrimSpace(link),
	}
}

// Row returns the record as export cells in Columns order.
func (j JobRecord) Row() []string {
	return []string{
		j.Company,
		j.Title,
		j.Location,
		j.PlatformSource,
		j.DatePosted,
		string(j.PostingCategory),
		j.SalaryPackage,
		j.JobLink,
	}
}

// RecordFromRow is the inverse of Row. Short rows leave trailing fields empty.
func RecordFromRow(cells []string) JobRecord {
	get := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	return JobRecord{
		Company:         get(0),
		Title:           get(1),
		Location:        get(2),
		PlatformSource:  get(3),
		DatePosted:      get(4),
		DatePostedRaw:   get(4),
		PostingCategory: PostingCategory(get(5)),
		SalaryPackage:   get(6),
		JobLink:         get(7),
	}
}
