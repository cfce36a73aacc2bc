package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"taxihub/internal/jobs"
)

var faresCmd = &cobra.Command{
	Use:   "fares",
	Short: "Fare maintenance",
}

var faresSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch fares for every active vehicle from the legacy fare API into the price store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.fetcher == nil {
			return errors.New("legacy.base_url is not configured")
		}

		n, err := jobs.NewRunner(a.vehicles, a.fetcher, nil, log).SyncLegacyFares(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "synced %d fares\n", n)
		return err
	},
}

func init() {
	faresCmd.AddCommand(faresSyncCmd)
}
