package config

import (
	"time"

	"jobwatch-engine/internal/dedupe"
	"jobwatch-engine/internal/fetch"
)

// Default matches config/config.yml.
func Default() Config {
	var c Config
	c.App.DataDir = "."

	c.Search = SearchConfig{
		Role:           "Data Analyst",
		Location:       "India",
		Experience:     0,
		AlternateRoles: []string{"Data Scientist", "Business Analyst"},
	}
	c.Fetch = FetchConfig{
		MaxRetries:        3,
		RetryDelay:        Duration(5 * time.Second),
		DelayMin:          Duration(2 * time.Second),
		DelayMax:          Duration(5 * time.Second),
		Timeout:           Duration(30 * time.Second),
		RequestsPerSecond: 1,
		Burst:             1,
		UserAgents:        append([]string(nil), fetch.DefaultUserAgents...),
	}
	c.Pagination.MaxPages = 5

	c.Sources.Naukri.Enabled = true
	c.Sources.Indeed.Enabled = true
	c.Sources.LinkedIn.Enabled = true
	c.Sources.LinkedIn.ResultsWanted = 50
	c.Sources.LinkedIn.HoursOld = 168
	c.Sources.Wellfound.Enabled = true

	c.Dedupe = DedupeConfig{
		CompanyThreshold:  dedupe.DefaultCompanyMin,
		TitleThreshold:    dedupe.DefaultTitleMin,
		LocationThreshold: dedupe.DefaultLocationMin,
		PlatformPriority:  append([]string(nil), dedupe.DefaultPriority...),
	}

	c.Storage.DBFile = "jobwatch.db"
	c.Storage.Baseline = BaselineSQLite

	c.Output = OutputConfig{
		Dir:       "output",
		XLSXFile:  "jobs_data.xlsx",
		CSVFile:   "jobs_data.csv",
		LeadsFile: "hr_leads.csv",
	}

	c.Schedule.Time = "09:00"
	c.Log.Level = "info"
	c.Log.File = "agent.log"
	return c
}
