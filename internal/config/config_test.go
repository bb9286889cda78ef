package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippedConfigMatchesDefault(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.yml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Search, cfg.Search)
	assert.Equal(t, def.Fetch, cfg.Fetch)
	assert.Equal(t, def.Dedupe, cfg.Dedupe)
	assert.Equal(t, def.Output, cfg.Output)

	_, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK(), res.Errors)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  role: "Data Engineer"
fetch:
  retry_delay: 7
  timeout: "1m"
sources:
  indeed:
    enabled: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Data Engineer", cfg.Search.Role)
	assert.Equal(t, "India", cfg.Search.Location)
	assert.Equal(t, 7*time.Second, cfg.Fetch.RetryDelay.D())
	assert.Equal(t, time.Minute, cfg.Fetch.Timeout.D())
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.False(t, cfg.Sources.Indeed.Enabled)
	assert.True(t, cfg.Sources.Naukri.Enabled)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("fetch:\n  timeout: \"soon\"\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := Default()
	cfg.Search.AlternateRoles = []string{" Data Scientist ", "data scientist", ""}
	cfg.Output.CSVFile = "  "
	cfg.Storage.Baseline = "XLSX"
	cfg.Dedupe.PlatformPriority = []string{"Naukri", "Monster"}

	out, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK(), res.Errors)
	assert.Equal(t, []string{"Data Scientist"}, out.Search.AlternateRoles)
	assert.Equal(t, "jobs_data.csv", out.Output.CSVFile)
	assert.Equal(t, BaselineXLSX, out.Storage.Baseline)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Monster")
}

func TestNormalizeAndValidateErrors(t *testing.T) {
	cfg := Default()
	cfg.Search.Role = " "
	cfg.Fetch.MaxRetries = 0
	cfg.Fetch.DelayMin = Duration(5 * time.Second)
	cfg.Fetch.DelayMax = Duration(time.Second)
	cfg.Pagination.MaxPages = 0
	cfg.Dedupe.TitleThreshold = 120
	cfg.Storage.Baseline = "postgres"
	cfg.Schedule.Time = "9am"
	cfg.Sources.Naukri.Enabled = false
	cfg.Sources.Indeed.Enabled = false
	cfg.Sources.LinkedIn.Enabled = false
	cfg.Sources.Wellfound.Enabled = false

	_, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
	assert.Len(t, res.Errors, 8)
	assert.ErrorContains(t, res.Err(), "search.role is required")
}

func TestCronSpec(t *testing.T) {
	cfg := Default()
	spec, err := cfg.CronSpec()
	require.NoError(t, err)
	assert.Equal(t, "0 9 * * *", spec)

	cfg.Schedule.Time = "18:45"
	spec, err = cfg.CronSpec()
	require.NoError(t, err)
	assert.Equal(t, "45 18 * * *", spec)

	cfg.Schedule.Cron = "*/30 * * * *"
	spec, err = cfg.CronSpec()
	require.NoError(t, err)
	assert.Equal(t, "*/30 * * * *", spec)

	cfg.Schedule.Cron = ""
	cfg.Schedule.Time = "25:00"
	_, err = cfg.CronSpec()
	assert.Error(t, err)
}

func TestPathsAndRoles(t *testing.T) {
	cfg := Default()
	cfg.App.DataDir = "/var/jobwatch"
	assert.Equal(t, "/var/jobwatch/jobwatch.db", cfg.Path(cfg.Storage.DBFile))
	assert.Equal(t, "/var/jobwatch/output/jobs_data.xlsx", cfg.OutputPath(cfg.Output.XLSXFile))
	assert.Equal(t, "/tmp/x.csv", cfg.OutputPath("/tmp/x.csv"))

	assert.Equal(t, []string{"Data Analyst"}, cfg.Roles(false))
	cfg.Search.AlternateRoles = append(cfg.Search.AlternateRoles, "data analyst")
	assert.Equal(t, []string{"Data Analyst", "Data Scientist", "Business Analyst"}, cfg.Roles(true))
}

func TestEnsureUserConfig(t *testing.T) {
	dir := t.TempDir()

	path, err := EnsureUserConfig(dir, filepath.Join(dir, "missing.yml"))
	require.NoError(t, err)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Search, cfg.Search)

	// an existing user file is left alone
	require.NoError(t, os.WriteFile(path, []byte("search:\n  role: \"QA\"\n"), 0o644))
	again, err := EnsureUserConfig(dir, filepath.Join("..", "..", "config", "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, path, again)
	cfg, err = Load(again)
	require.NoError(t, err)
	assert.Equal(t, "QA", cfg.Search.Role)
}

func TestResolveDataDir(t *testing.T) {
	t.Setenv(EnvDataDir, "/from/env")
	assert.Equal(t, "/from/flag", ResolveDataDir("/from/flag"))
	assert.Equal(t, "/from/env", ResolveDataDir(""))
	t.Setenv(EnvDataDir, "")
	assert.Equal(t, "", ResolveDataDir(""))
}
