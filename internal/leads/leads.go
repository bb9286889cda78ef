// Package leads produces outreach starting points for the companies in the dataset.
// Nothing here is verified: emails are pattern guesses and the LinkedIn link is a
// people search.
package leads

import (
	"strings"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/export"
)

// Columns is the leads file header.
var Columns = []string{"Company Name", "HR Emails", "HR LinkedIn"}

type Lead struct {
	Company  string
	Emails   []string
	LinkedIn string
}

// Find returns one lead per distinct company, in first-seen order. Blank and
// "unknown" companies are skipped.
func Find(companies []string) []Lead {
	seen := map[string]bool{}
	var out []Lead
	for _, c := range companies {
		c = strings.TrimSpace(c)
		low := strings.ToLower(c)
		if c == "" || low == "unknown" || low == "nan" || seen[c] {
			continue
		}
		seen[c] = true

		domainGuess := strings.ReplaceAll(low, " ", "") + ".com"
		out = append(out, Lead{
			Company: c,
			Emails:  []string{"hr@" + domainGuess, "careers@" + domainGuess},
			LinkedIn: "https://www.linkedin.com/search/results/people/?keywords=HR%20Recruiter%20" +
				strings.ReplaceAll(c, " ", "%20"),
		})
	}
	return out
}

// Companies lists the company of every record, duplicates included.
func Companies(recs []domain.JobRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Company
	}
	return out
}

// WriteCSV writes the leads file. An empty list leaves any existing file untouched.
func WriteCSV(path string, leads []Lead) error {
	if len(leads) == 0 {
		return nil
	}
	rows := make([][]string, len(leads))
	for i, l := range leads {
		rows[i] = []string{l.Company, strings.Join(l.Emails, ", "), l.LinkedIn}
	}
	return export.WriteTable(path, Columns, rows)
}
