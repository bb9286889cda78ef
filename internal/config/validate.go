package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"jobwatch-engine/internal/domain"
)

const (
	BaselineSQLite = "sqlite"
	BaselineXLSX   = "xlsx"
	BaselineCSV    = "csv"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the errors into one, or nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("config validation failed:\n- %s", strings.Join(v.Errors, "\n- "))
}

var knownPlatforms = []string{
	domain.PlatformNaukri,
	domain.PlatformLinkedIn,
	domain.PlatformIndeed,
	domain.PlatformWellfound,
}

// NormalizeAndValidate returns a trimmed copy with blanks filled from Default, plus
// the problems found.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation
	def := Default()

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}
	orDefault := func(v *string, d string) {
		*v = strings.TrimSpace(*v)
		if *v == "" {
			*v = d
		}
	}

	out.Search.AlternateRoles = trimList(out.Search.AlternateRoles)
	out.Fetch.UserAgents = trimList(out.Fetch.UserAgents)
	out.Sources.Wellfound.TargetRegions = trimList(out.Sources.Wellfound.TargetRegions)
	out.Dedupe.PlatformPriority = trimList(out.Dedupe.PlatformPriority)

	orDefault(&out.App.DataDir, def.App.DataDir)
	orDefault(&out.Search.Location, def.Search.Location)
	orDefault(&out.Storage.DBFile, def.Storage.DBFile)
	orDefault(&out.Output.Dir, def.Output.Dir)
	orDefault(&out.Output.XLSXFile, def.Output.XLSXFile)
	orDefault(&out.Output.CSVFile, def.Output.CSVFile)
	orDefault(&out.Output.LeadsFile, def.Output.LeadsFile)
	orDefault(&out.Log.Level, def.Log.Level)
	out.Storage.Baseline = strings.ToLower(strings.TrimSpace(out.Storage.Baseline))
	orDefault(&out.Storage.Baseline, def.Storage.Baseline)
	out.Search.Role = strings.TrimSpace(out.Search.Role)

	// ---- search ----
	if out.Search.Role == "" {
		res.addErr("search.role is required")
	}
	if out.Search.Experience < 0 {
		res.addErr("search.experience must be >= 0")
	}

	// ---- fetch ----
	if out.Fetch.MaxRetries < 1 {
		res.addErr("fetch.max_retries must be >= 1")
	}
	if out.Fetch.RetryDelay.D() <= 0 {
		res.addErr("fetch.retry_delay must be > 0")
	}
	if out.Fetch.DelayMin.D() < 0 || out.Fetch.DelayMax.D() < out.Fetch.DelayMin.D() {
		res.addErr("fetch.delay_min/delay_max must satisfy 0 <= min <= max")
	}
	if out.Fetch.Timeout.D() <= 0 {
		res.addErr("fetch.timeout must be > 0")
	}
	if out.Fetch.RequestsPerSecond < 0 {
		res.addErr("fetch.requests_per_second must be >= 0")
	} else if out.Fetch.RequestsPerSecond == 0 {
		res.addWarn("fetch.requests_per_second is 0; per-host rate limiting is off.")
	}
	if len(out.Fetch.UserAgents) == 0 {
		res.addWarn("fetch.user_agents is empty; the built-in pool will be used.")
	}

	// ---- pagination ----
	if out.Pagination.MaxPages < 1 {
		res.addErr("pagination.max_pages must be >= 1")
	} else if out.Pagination.MaxPages > 20 {
		res.addWarn("pagination.max_pages is high (%d) and may get the agent blocked.", out.Pagination.MaxPages)
	}

	// ---- sources ----
	s := out.Sources
	if !s.Naukri.Enabled && !s.Indeed.Enabled && !s.LinkedIn.Enabled && !s.Wellfound.Enabled {
		res.addErr("no sources enabled: enable at least one of naukri, indeed, linkedin, wellfound")
	}
	if s.LinkedIn.Enabled && s.LinkedIn.ResultsWanted < 1 {
		res.addErr("sources.linkedin.results_wanted must be >= 1")
	}
	if s.LinkedIn.Enabled && s.LinkedIn.HoursOld < 1 {
		res.addErr("sources.linkedin.hours_old must be >= 1")
	}

	// ---- dedupe ----
	for name, v := range map[string]int{
		"company_threshold":  out.Dedupe.CompanyThreshold,
		"title_threshold":    out.Dedupe.TitleThreshold,
		"location_threshold": out.Dedupe.LocationThreshold,
	} {
		if v < 0 || v > 100 {
			res.addErr("dedupe.%s must be 0..100", name)
		}
	}
	for _, p := range out.Dedupe.PlatformPriority {
		if !containsFold(knownPlatforms, p) {
			res.addWarn("dedupe.platform_priority names unknown platform %q; its records rank with unlisted sources.", p)
		}
	}

	// ---- storage ----
	switch out.Storage.Baseline {
	case BaselineSQLite, BaselineXLSX, BaselineCSV:
	default:
		res.addErr("storage.baseline must be one of sqlite, xlsx, csv (got %q)", out.Storage.Baseline)
	}

	// ---- schedule ----
	if spec, err := out.CronSpec(); err != nil {
		res.addErr("schedule: %v", err)
	} else if _, err := cron.ParseStandard(spec); err != nil {
		res.addErr("schedule.cron %q: %v", spec, err)
	}

	// ---- log ----
	if !containsFold([]string{"debug", "info", "warn", "warning", "error"}, out.Log.Level) {
		res.addWarn("log.level %q is not recognised; using info.", out.Log.Level)
	}

	return out, res
}

// CronSpec is schedule.cron, or a daily expression built from schedule.time.
func (c Config) CronSpec() (string, error) {
	if spec := strings.TrimSpace(c.Schedule.Cron); spec != "" {
		return spec, nil
	}
	var h, m int
	t := strings.TrimSpace(c.Schedule.Time)
	if _, err := fmt.Sscanf(t, "%d:%d", &h, &m); err != nil || len(t) < 4 || h < 0 || h > 23 || m < 0 || m > 59 {
		return "", fmt.Errorf("schedule.time %q must be HH:MM", c.Schedule.Time)
	}
	return fmt.Sprintf("%d %d * * *", m, h), nil
}

func containsFold(xs []string, s string) bool {
	for _, x := range xs {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}
