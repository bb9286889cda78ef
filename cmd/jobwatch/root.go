package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/logging"
	"jobwatch-engine/internal/metrics"
	"jobwatch-engine/internal/pipeline"
	"jobwatch-engine/internal/scrape/util"
	"jobwatch-engine/internal/store"
)

type options struct {
	configPath string
	dataDir    string
	logLevel   string
}

// app is what every subcommand gets after the persistent pre-run.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	closeLog func()
}

func newRootCmd() *cobra.Command {
	var opts options
	a := &app{}

	root := &cobra.Command{
		Use:          "jobwatch",
		Short:        "Collect entry-level job postings into one deduplicated sheet",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(opts)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closeLog != nil {
				a.closeLog()
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"config file (default is <data-dir>/config.yml, seeded from config/config.yml)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "",
		"data directory (overrides $"+config.EnvDataDir+" and app.data_dir)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(newRunCmd(a), newScheduleCmd(a), newReportCmd(a))
	return root
}

func (a *app) setup(opts options) error {
	dataDir := config.ResolveDataDir(opts.dataDir)

	path := opts.configPath
	if path == "" {
		dir := dataDir
		if dir == "" {
			dir = "."
		}
		p, err := config.EnsureUserConfig(dir, filepath.Join("config", "config.yml"))
		if err != nil {
			return fmt.Errorf("config bootstrap failed: %w", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if dataDir != "" {
		cfg.App.DataDir = dataDir
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	cfg, res := config.NormalizeAndValidate(cfg)

	log, closeLog, err := logging.New(cfg.Log.Level, cfg.Path(cfg.Log.File))
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		log.Warn("config warning", zap.String("detail", w))
	}
	if err := res.Err(); err != nil {
		closeLog()
		return err
	}

	a.cfg, a.log, a.closeLog = cfg, log, closeLog
	log.Debug("config loaded", zap.String("path", path), zap.String("data_dir", cfg.App.DataDir))
	return nil
}

// runner wires a pipeline for cfg. The returned func closes the store.
func (a *app) runner(ctx context.Context, cfg config.Config) (*pipeline.Runner, func()) {
	r := &pipeline.Runner{
		Config:  cfg,
		Metrics: metrics.New(),
		Log:     a.log,
	}

	limiter := util.NewHostLimiter(cfg.Fetch.RequestsPerSecond, cfg.Fetch.Burst)
	r.Sources = pipeline.Sources(cfg, limiter, a.log)

	db, err := store.Open(ctx, cfg.Path(cfg.Storage.DBFile))
	if err != nil {
		a.log.Error("could not open store; continuing without it", zap.Error(err))
		return r, func() {}
	}
	r.Store = db
	return r, func() { _ = db.Close() }
}
