package main

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taxihub/internal/infra"
	"taxihub/internal/smoke"
)

var (
	smokeBaseURL     string
	smokeConcurrency int
	smokeDuration    time.Duration
	smokePerf        bool
)

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Check a running instance: stores, schema, public API and quote throughput",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var db *pgxpool.Pool
		if pool, err := infra.NewDB(ctx, cfg.DB.DSN); err != nil {
			log.Warn("smoke: postgres unavailable", zap.Error(err))
		} else {
			db = pool
			defer pool.Close()
		}
		var rdb redis.Cmdable
		if client, err := infra.NewRedis(ctx, cfg.Redis.Addr); err != nil {
			log.Warn("smoke: redis unavailable", zap.Error(err))
		} else {
			rdb = client
			defer client.Close()
		}

		r := smoke.NewRunner(smoke.Config{
			BaseURL:     smokeBaseURL,
			Concurrency: smokeConcurrency,
			Duration:    smokeDuration,
		}, db, rdb, cmd.OutOrStdout())
		results := r.Run(ctx, smoke.DefaultCases(smokePerf))
		if n := smoke.Failed(results); n > 0 {
			return fmt.Errorf("%d of %d checks failed", n, len(results))
		}
		return nil
	},
}

func init() {
	smokeCmd.Flags().StringVar(&smokeBaseURL, "base-url", "http://localhost:8080", "API base URL")
	smokeCmd.Flags().IntVar(&smokeConcurrency, "concurrency", 10, "workers for the throughput check")
	smokeCmd.Flags().DurationVar(&smokeDuration, "duration", 5*time.Second, "length of the throughput check")
	smokeCmd.Flags().BoolVar(&smokePerf, "perf", false, "run the throughput check")
}
