package main

import (
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		location string
		allRoles bool
	)

	cmd := &cobra.Command{
		Use:   "run [role]",
		Short: "Scrape every enabled source once and update the canonical set",
		Example: `  jobwatch run
  jobwatch run "Data Scientist" --location Bangalore
  jobwatch run --all-roles`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if len(args) == 1 {
				cfg.Search.Role = args[0]
			}
			if location != "" {
				cfg.Search.Location = location
			}

			unlock, err := acquireLock(cfg)
			if err != nil {
				return err
			}
			defer unlock()

			r, closeStore := a.runner(cmd.Context(), cfg)
			defer closeStore()

			_, err = r.RunRoles(cmd.Context(), cfg.Roles(allRoles), cfg.Search.Location)
			return err
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", "", "search location (default search.location)")
	cmd.Flags().BoolVar(&allRoles, "all-roles", false, "also run search.alternate_roles")
	return cmd
}
