package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration reads "5s"/"1m30s" strings; a bare integer is taken as seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	if n.Tag == "!!int" {
		var secs int
		if err := n.Decode(&secs); err != nil {
			return err
		}
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

func (d Duration) D() time.Duration { return time.Duration(d) }

type SearchConfig struct {
	Role           string   `yaml:"role"`
	Location       string   `yaml:"location"`
	Experience     int      `yaml:"experience"`
	AlternateRoles []string `yaml:"alternate_roles"`
}

type FetchConfig struct {
	MaxRetries        int      `yaml:"max_retries"`
	RetryDelay        Duration `yaml:"retry_delay"`
	DelayMin          Duration `yaml:"delay_min"`
	DelayMax          Duration `yaml:"delay_max"`
	Timeout           Duration `yaml:"timeout"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	Burst             int      `yaml:"burst"`
	UserAgents        []string `yaml:"user_agents"`
}

type SourcesConfig struct {
	Naukri struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"naukri"`
	Indeed struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"indeed"`
	LinkedIn struct {
		Enabled       bool `yaml:"enabled"`
		ResultsWanted int  `yaml:"results_wanted"`
		HoursOld      int  `yaml:"hours_old"`
	} `yaml:"linkedin"`
	Wellfound struct {
		Enabled       bool     `yaml:"enabled"`
		TargetRegions []string `yaml:"target_regions"`
	} `yaml:"wellfound"`
}

type DedupeConfig struct {
	CompanyThreshold  int      `yaml:"company_threshold"`
	TitleThreshold    int      `yaml:"title_threshold"`
	LocationThreshold int      `yaml:"location_threshold"`
	PlatformPriority  []string `yaml:"platform_priority"`
}

type OutputConfig struct {
	Dir       string `yaml:"dir"`
	XLSXFile  string `yaml:"xlsx_file"`
	CSVFile   string `yaml:"csv_file"`
	LeadsFile string `yaml:"leads_file"`
}

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Search SearchConfig `yaml:"search"`
	Fetch  FetchConfig  `yaml:"fetch"`

	Pagination struct {
		MaxPages int `yaml:"max_pages"`
	} `yaml:"pagination"`

	Sources SourcesConfig `yaml:"sources"`
	Dedupe  DedupeConfig  `yaml:"dedupe"`

	Storage struct {
		DBFile   string `yaml:"db_file"`
		Baseline string `yaml:"baseline"` // sqlite | xlsx | csv
	} `yaml:"storage"`

	Output OutputConfig `yaml:"output"`

	Schedule struct {
		Time string `yaml:"time"` // HH:MM, local time
		Cron string `yaml:"cron"` // overrides time when set
	} `yaml:"schedule"`

	Pipeline struct {
		ConcurrentSources bool `yaml:"concurrent_sources"`
	} `yaml:"pipeline"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`

	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
}

// Load reads path over Default, so keys missing from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Path resolves p against the data dir unless it is absolute.
func (c Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.App.DataDir, p)
}

// OutputPath resolves a file name inside output.dir.
func (c Config) OutputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return c.Path(filepath.Join(c.Output.Dir, name))
}

// Roles is the primary role followed by the alternates, without repeats.
func (c Config) Roles(withAlternates bool) []string {
	roles := []string{c.Search.Role}
	if !withAlternates {
		return roles
	}
	for _, r := range c.Search.AlternateRoles {
		if !containsFold(roles, r) {
			roles = append(roles, r)
		}
	}
	return roles
}
