// README: Cron jobs: fleet refresh, legacy fare sync and trip auto-completion.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"taxihub/internal/logging"
	"taxihub/internal/modules/tripfare"
	"taxihub/internal/types"
)

// CompleteAfter is how long after pickup (or departure) a paid trip is closed automatically.
const CompleteAfter = 24 * time.Hour

const jobTimeout = 5 * time.Minute

type Fleet interface {
	Refresh(ctx context.Context) error
	ActiveIDs(ctx context.Context) ([]string, error)
}

type FareSyncer interface {
	FetchFares(ctx context.Context, vehicleIDs []string, tripType types.TripType, extra tripfare.Params) (map[string]float64, error)
}

// Completer is satisfied by *booking.Service and *pooling.Service.
type Completer interface {
	CompleteDue(ctx context.Context, age time.Duration) (int, error)
}

type Schedule struct {
	VehicleRefresh  string
	LegacyFareSync  string
	BookingComplete string
}

type Runner struct {
	fleet      Fleet
	fares      FareSyncer
	completers map[string]Completer
	cron       *cron.Cron
	log        *zap.Logger
}

// NewRunner accepts a nil fares syncer; the legacy sync job is then not scheduled.
func NewRunner(fleet Fleet, fares FareSyncer, completers map[string]Completer, log *zap.Logger) *Runner {
	log = logging.OrNop(log).Named("jobs")
	cl := cronLogger{log.Sugar()}
	return &Runner{
		fleet:      fleet,
		fares:      fares,
		completers: completers,
		cron:       cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		log:        log,
	}
}

// Schedule registers the jobs. An empty spec disables that job.
func (r *Runner) Schedule(s Schedule) error {
	add := func(name, spec string, fn func(ctx context.Context) error) error {
		if spec == "" {
			return nil
		}
		_, err := r.cron.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			start := time.Now()
			if err := fn(ctx); err != nil {
				r.log.Error("job failed", zap.String("job", name), zap.Error(err))
				return
			}
			r.log.Debug("job done", zap.String("job", name), zap.Duration("took", time.Since(start)))
		})
		if err != nil {
			return fmt.Errorf("schedule %s %q: %w", name, spec, err)
		}
		return nil
	}

	if err := add("vehicle-refresh", s.VehicleRefresh, r.RefreshVehicles); err != nil {
		return err
	}
	if r.fares != nil {
		if err := add("legacy-fare-sync", s.LegacyFareSync, func(ctx context.Context) error {
			_, err := r.SyncLegacyFares(ctx)
			return err
		}); err != nil {
			return err
		}
	}
	return add("trip-complete", s.BookingComplete, func(ctx context.Context) error {
		_, err := r.CompleteTrips(ctx)
		return err
	})
}

func (r *Runner) Start() {
	r.cron.Start()
}

// Stop stops scheduling and waits for running jobs or ctx, whichever comes first.
func (r *Runner) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (r *Runner) RefreshVehicles(ctx context.Context) error {
	return r.fleet.Refresh(ctx)
}

// SyncLegacyFares pulls fares for every active vehicle and trip type. It returns the number of
// fares stored; per-vehicle failures are joined into the error.
func (r *Runner) SyncLegacyFares(ctx context.Context) (int, error) {
	if r.fares == nil {
		return 0, errors.New("legacy fare sync not configured")
	}
	ids, err := r.fleet.ActiveIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("active vehicles: %w", err)
	}
	var (
		synced int
		errs   []error
	)
	for _, tt := range []types.TripType{types.TripLocal, types.TripOutstation, types.TripAirport} {
		extra := tripfare.Params{}
		if tt == types.TripLocal {
			extra.PackageID = types.DefaultPackage
		}
		got, err := r.fares.FetchFares(ctx, ids, tt, extra)
		synced += len(got)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tt, err))
		}
		if ctx.Err() != nil {
			break
		}
	}
	r.log.Info("legacy fares synced", zap.Int("vehicles", len(ids)), zap.Int("fares", synced))
	return synced, errors.Join(errs...)
}

// CompleteTrips closes paid trips whose pickup is older than CompleteAfter.
func (r *Runner) CompleteTrips(ctx context.Context) (int, error) {
	var (
		total int
		errs  []error
	)
	for name, c := range r.completers {
		n, err := c.CompleteDue(ctx, CompleteAfter)
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		if n > 0 {
			r.log.Info("trips auto-completed", zap.String("kind", name), zap.Int("count", n))
		}
	}
	return total, errors.Join(errs...)
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.s.Debugw(msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.s.Errorw(msg, append(kv, "error", err)...)
}
