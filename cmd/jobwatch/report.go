package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/export"
	"jobwatch-engine/internal/report"
	"jobwatch-engine/internal/store"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		from   string
		rows   int
		runs   int
		filter report.Filter
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise the last export: totals, platforms, categories and the first rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			out := cmd.OutOrStdout()

			var (
				path string
				recs []domain.JobRecord
				err  error
			)
			switch from {
			case config.BaselineXLSX:
				path = cfg.OutputPath(cfg.Output.XLSXFile)
				recs, err = export.ReadWorkbook(path)
			case config.BaselineCSV:
				path = cfg.OutputPath(cfg.Output.CSVFile)
				recs, err = export.ReadCSV(path)
			default:
				return fmt.Errorf("--from must be csv or xlsx, got %q", from)
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if len(recs) == 0 {
				fmt.Fprintf(out, "No jobs exported yet (%s). Run `jobwatch run` first.\n", path)
				return nil
			}

			fmt.Fprintf(out, "Source: %s\n", path)
			report.Render(out, report.Build(recs, filter, rows), a.recentRuns(cmd, cfg, runs))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", config.BaselineCSV, "export to read: csv or xlsx")
	cmd.Flags().IntVarP(&rows, "rows", "n", 5, "rows to list")
	cmd.Flags().IntVar(&runs, "runs", 5, "recent runs to list (0 hides them)")
	cmd.Flags().StringVar(&filter.Platform, "platform", "", "only this platform")
	cmd.Flags().StringVar(&filter.Category, "category", "", `only this posting category, e.g. "Posted Today"`)
	cmd.Flags().StringVarP(&filter.Query, "search", "s", "", "match company, title or location")
	return cmd
}

// recentRuns reads run history when a store already exists; it never creates one.
func (a *app) recentRuns(cmd *cobra.Command, cfg config.Config, limit int) []store.Run {
	if limit <= 0 {
		return nil
	}
	path := cfg.Path(cfg.Storage.DBFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	db, err := store.Open(cmd.Context(), path)
	if err != nil {
		a.log.Warn("could not open store for run history", zap.Error(err))
		return nil
	}
	defer db.Close()

	rs, err := db.RecentRuns(cmd.Context(), limit)
	if err != nil {
		a.log.Warn("could not read run history", zap.Error(err))
		return nil
	}
	return rs
}
