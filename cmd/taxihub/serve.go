package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "taxihub/internal/http"
	"taxihub/internal/infra"
	"taxihub/internal/jobs"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if !skipMigrate {
			if err := infra.MigrateUp(cfg.DB.DSN, log); err != nil {
				return err
			}
		}

		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		verifier, err := a.verifier(ctx, cfg)
		if err != nil {
			return err
		}

		deps := httpapi.Deps{
			Verifier:       verifier,
			Vehicles:       a.vehicles,
			Fares:          a.fares,
			Bookings:       a.bookings,
			Pool:           a.pool,
			Payments:       a.payments,
			Rates:          a.pricing,
			Ledger:         a.ledger,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			Log:            log.Named("http"),
		}
		if a.routes != nil {
			deps.Distance = a.routes
			deps.Places = a.routes
		}

		if cfg.Jobs.Enabled {
			runner := jobs.NewRunner(a.vehicles, a.fetcherOrNil(), map[string]jobs.Completer{
				"booking": a.bookings,
				"pool":    a.pool,
			}, log)
			if err := runner.Schedule(jobs.Schedule{
				VehicleRefresh:  cfg.Jobs.VehicleRefresh,
				LegacyFareSync:  cfg.Jobs.LegacyFareSync,
				BookingComplete: cfg.Jobs.BookingComplete,
			}); err != nil {
				return err
			}
			runner.Start()
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				runner.Stop(stopCtx)
			}()
		}

		srv := httpapi.NewServer(cfg.HTTP.Addr, httpapi.NewRouter(deps), log)
		err = srv.Run(ctx)
		log.Info("shutting down", zap.Error(err))
		return err
	},
}

// fetcherOrNil keeps a nil *tripfare.Fetcher from becoming a non-nil interface.
func (a *app) fetcherOrNil() jobs.FareSyncer {
	if a.fetcher == nil {
		return nil
	}
	return a.fetcher
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply pending migrations on start")
}
