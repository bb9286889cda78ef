package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobwatch-engine/internal/scheduler"
)

func newScheduleCmd(a *app) *cobra.Command {
	var allRoles bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run now, then again at schedule.time every day until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			spec, err := cfg.CronSpec()
			if err != nil {
				return err
			}

			r, closeStore := a.runner(cmd.Context(), cfg)
			defer closeStore()

			roles := cfg.Roles(allRoles)
			a.log.Info("scheduler configured",
				zap.String("spec", spec),
				zap.Strings("roles", roles),
				zap.String("location", cfg.Search.Location))

			return scheduler.Daily(cmd.Context(), spec, "jobwatch", func(ctx context.Context) error {
				unlock, err := acquireLock(cfg)
				if err != nil {
					return err
				}
				defer unlock()

				_, err = r.RunRoles(ctx, roles, cfg.Search.Location)
				return err
			}, a.log.Named("scheduler"))
		},
	}

	cmd.Flags().BoolVar(&allRoles, "all-roles", false, "also run search.alternate_roles")
	return cmd
}
