// README: Smoke cases for the taxihub API and its backing stores.
package smoke

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var tables = []string{
	"vehicles", "local_package_fares", "outstation_fares", "airport_fares",
	"bookings", "booking_status_events", "pool_rides", "pool_requests", "ledger_entries",
}

// DefaultCases are read-only against the API: nothing here creates bookings or rides.
func DefaultCases(withPerf bool) []Case {
	cases := []Case{
		{Name: "Env: Postgres connect", Run: dbPing},
		{Name: "Env: Redis connect", Run: redisPing},
		{Name: "Schema: tables exist", Run: tablesExist},
		httpCase("API: health", http.MethodGet, "/health", "", http.StatusOK),
		httpCase("API: vehicles", http.MethodGet, "/api/vehicles", "", http.StatusOK),
		httpCase("API: local quote", http.MethodGet, "/api/fares/quote?trip_type=local&package=8hrs-80km", "", http.StatusOK),
		httpCase("API: outstation quote", http.MethodGet, "/api/fares/quote?trip_type=outstation&distance_km=200&trip_mode=one-way", "", http.StatusOK),
		httpCase("API: airport quote", http.MethodGet, "/api/fares/quote?trip_type=airport&distance_km=18", "", http.StatusOK),
		httpCase("API: bad quote rejected", http.MethodGet, "/api/fares/quote?trip_type=boat", "", http.StatusBadRequest),
		httpCase("API: unknown booking", http.MethodGet, "/api/bookings/00000000-0000-0000-0000-000000000000", "", http.StatusNotFound),
		httpCase("API: invalid booking rejected", http.MethodPost, "/api/bookings", `{"passenger_name":""}`, http.StatusBadRequest),
		httpCase("API: unsigned webhook rejected", http.MethodPost, "/api/payments/webhook", `{}`, http.StatusBadRequest),
		httpCase("API: admin requires token", http.MethodGet, "/api/admin/bookings", "", http.StatusUnauthorized),
	}
	if withPerf {
		cases = append(cases, Case{Name: "Perf: quote throughput", Run: func(ctx context.Context, r *Runner) Result {
			return perfLoad(ctx, r, "/api/fares/quote?trip_type=outstation&distance_km=150")
		}})
	}
	return cases
}

func dbPing(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: StatusSkip, Note: "db not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	start := time.Now()
	if err := r.db.Ping(ctx); err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	return Result{Status: StatusPass, Latency: time.Since(start)}
}

func redisPing(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: StatusSkip, Note: "redis not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	start := time.Now()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	return Result{Status: StatusPass, Latency: time.Since(start)}
}

func tablesExist(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: StatusSkip, Note: "db not configured"}
	}
	rows, err := r.db.Query(ctx, `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema()`)
	if err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	defer rows.Close()
	var found []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return Result{Status: StatusFail, Note: err.Error()}
		}
		found = append(found, name)
	}
	if err := rows.Err(); err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	var missing []string
	for _, t := range tables {
		if !slices.Contains(found, t) {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return Result{Status: StatusFail, Note: "missing: " + strings.Join(missing, ", ")}
	}
	return Result{Status: StatusPass}
}

func httpCase(name, method, path, body string, want int) Case {
	return Case{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			var reader io.Reader
			if body != "" {
				reader = strings.NewReader(body)
			}
			req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
			if err != nil {
				return Result{Status: StatusFail, Note: err.Error()}
			}
			req.Header.Set("Content-Type", "application/json")
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: StatusFail, Note: err.Error()}
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			latency := time.Since(start)

			note := fmt.Sprintf("status=%d", resp.StatusCode)
			if resp.StatusCode != want {
				return Result{Status: StatusFail, Latency: latency, Note: fmt.Sprintf("%s want=%d", note, want)}
			}
			return Result{Status: StatusPass, Latency: latency, Note: note}
		},
	}
}

// perfLoad hammers one GET endpoint with Concurrency workers for Duration and reports requests per
// second and the p95 latency. Any non-2xx counts as an error.
func perfLoad(ctx context.Context, r *Runner, path string) Result {
	if r.cfg.Duration <= 0 {
		return Result{Status: StatusSkip, Note: "duration not set"}
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Duration)
	defer cancel()

	var (
		errCount  atomic.Int64
		mu        sync.Mutex
		latencies []time.Duration
		wg        sync.WaitGroup
	)
	start := time.Now()
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				req, _ := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+path, nil)
				t0 := time.Now()
				resp, err := r.httpc.Do(req)
				if err != nil {
					if ctx.Err() == nil {
						errCount.Add(1)
					}
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				if resp.StatusCode/100 != 2 {
					errCount.Add(1)
					continue
				}
				d := time.Since(t0)
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	if len(latencies) == 0 {
		return Result{Status: StatusFail, Note: fmt.Sprintf("no requests completed, errors=%d", errCount.Load())}
	}
	slices.Sort(latencies)
	p95 := latencies[(len(latencies)*95)/100]
	rps := float64(len(latencies)) / elapsed.Seconds()
	status := StatusPass
	if errCount.Load() > 0 {
		status = StatusFail
	}
	return Result{Status: status, Latency: p95, Note: fmt.Sprintf("rps=%.1f p95=%s errors=%d", rps, p95.Round(time.Millisecond), errCount.Load())}
}
