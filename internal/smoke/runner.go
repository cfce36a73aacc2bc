// README: Smoke check runner for a deployed instance; HTTP, DB, Redis and throughput checks.
package smoke

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
	StatusSkip = "SKIP"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
}

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis redis.Cmdable
	out   io.Writer
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type Case struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

// NewRunner accepts nil db and redis; their checks are then skipped.
func NewRunner(cfg Config, db *pgxpool.Pool, rdb redis.Cmdable, out io.Writer) *Runner {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
		db:    db,
		redis: rdb,
		out:   out,
	}
}

// Run executes every case in order and prints one line per result.
func (r *Runner) Run(ctx context.Context, cases []Case) []Result {
	results := make([]Result, 0, len(cases))
	for _, tc := range cases {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)

		line := fmt.Sprintf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			line += fmt.Sprintf(" (%s)", res.Latency.Round(time.Millisecond))
		}
		if res.Note != "" {
			line += " - " + res.Note
		}
		fmt.Fprintln(r.out, line)
	}
	return results
}

// Failed counts FAIL results.
func Failed(results []Result) int {
	n := 0
	for _, res := range results {
		if res.Status == StatusFail {
			n++
		}
	}
	return n
}
