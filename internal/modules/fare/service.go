// README: Fare service; cached fare lookups and tolerant per-cab fan-out.
package fare

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"taxihub/internal/events"
	"taxihub/internal/logging"
	"taxihub/internal/modules/pricing"
	"taxihub/internal/types"
)

// Calculator is the pricing collaborator (*pricing.Service).
type Calculator interface {
	Calculate(ctx context.Context, req pricing.Request) (float64, error)
}

// PackagePriceSource resolves hourly local package prices.
type PackagePriceSource interface {
	LocalPackagePrice(ctx context.Context, packageID, vehicleID string) (float64, error)
}

type Service struct {
	cache    *Cache
	calc     Calculator
	packages PackagePriceSource
	bus      *events.Bus
	log      *zap.Logger
	group    singleflight.Group
	unsub    []func()
}

func NewService(cache *Cache, calc Calculator, packages PackagePriceSource, bus *events.Bus, log *zap.Logger) *Service {
	if cache == nil {
		cache = NewCache(DefaultTTL)
	}
	s := &Service{cache: cache, calc: calc, packages: packages, bus: bus, log: logging.OrNop(log)}
	if bus != nil {
		onChange := func(_ context.Context, e events.Event) {
			s.log.Debug("fare cache cleared", zap.String("reason", string(e.Topic)))
			s.ClearCache()
		}
		s.unsub = append(s.unsub,
			bus.Subscribe(events.TopicVehiclesUpdated, onChange),
			bus.Subscribe(events.TopicLocalFaresUpdated, onChange),
			bus.Subscribe(events.TopicFareUpdated, onChange),
		)
	}
	return s
}

// Close detaches the service from the bus.
func (s *Service) Close() {
	for _, u := range s.unsub {
		u()
	}
	s.unsub = nil
}

// GetFare returns the cached fare or computes and caches it. Identical concurrent misses share one
// calculation. A calculation that started before ClearCache is never stored and never joined by
// later callers.
func (s *Service) GetFare(ctx context.Context, req pricing.Request) (float64, error) {
	key := Key(req)
	gen := s.cache.Generation()
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}
	v, err, _ := s.group.Do(flightKey(gen, key), func() (any, error) {
		if v, ok := s.cache.Get(key); ok {
			return v, nil
		}
		fare, err := s.calc.Calculate(ctx, req)
		if err != nil {
			return 0.0, err
		}
		s.cache.SetIf(key, fare, gen)
		return fare, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

type BatchRequest struct {
	DistanceKm float64
	TripType   types.TripType
	TripMode   types.TripMode
	PackageID  string
	PickupDate *time.Time
	ReturnDate *time.Time
}

// CalculateFaresForCabs prices every cab in parallel. A failing cab is reported on the bus and
// priced at 0; the batch itself never fails.
func (s *Service) CalculateFaresForCabs(ctx context.Context, cabs []string, b BatchRequest) map[string]float64 {
	out := make(map[string]float64, len(cabs))
	results := make([]float64, len(cabs))

	var g errgroup.Group
	g.SetLimit(8)
	for i, cab := range cabs {
		g.Go(func() error {
			fare, err := s.GetFare(ctx, pricing.Request{
				VehicleID:  cab,
				DistanceKm: b.DistanceKm,
				TripType:   b.TripType,
				TripMode:   b.TripMode,
				PackageID:  b.PackageID,
				PickupDate: b.PickupDate,
				ReturnDate: b.ReturnDate,
			})
			if err != nil {
				s.reportError(ctx, cab, b.TripType, err)
				fare = 0
			}
			results[i] = fare
			return nil
		})
	}
	_ = g.Wait()

	for i, cab := range cabs {
		out[cab] = results[i]
	}
	return out
}

func (s *Service) ClearCache() {
	s.cache.Clear()
}

// GetLocalPackagePrice returns a cached hourly package price. When the source fails the default
// rate card for the vehicle's class is used and the failure is reported.
func (s *Service) GetLocalPackagePrice(ctx context.Context, packageID, vehicleType string) (float64, error) {
	pkg := types.NormalizePackageID(packageID)
	if pkg == "" {
		pkg = types.DefaultPackage
	}
	key := packageKey(pkg, vehicleType)
	gen := s.cache.Generation()
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}

	v, err, _ := s.group.Do(flightKey(gen, key), func() (any, error) {
		if v, ok := s.cache.Get(key); ok {
			return v, nil
		}
		price, err := s.packages.LocalPackagePrice(ctx, pkg, vehicleType)
		if err == nil {
			s.cache.SetIf(key, price, gen)
			return price, nil
		}
		if errors.Is(err, pricing.ErrUnknownPackage) {
			return 0.0, err
		}
		s.reportError(ctx, vehicleType, types.TripLocal, err)
		fallback, ferr := pricing.LocalFare(pricing.DefaultLocalRate(vehicleType), pkg)
		if ferr != nil {
			return 0.0, ferr
		}
		return fallback, nil
	})
	if err != nil {
		return 0, err
	}
	price := v.(float64)
	s.bus.Publish(ctx, events.TopicHourlyPackageSelected, events.PackageSelected{
		PackageID: pkg, VehicleType: types.NormalizeVehicleID(vehicleType), Price: price,
	})
	return price, nil
}

func flightKey(gen uint64, key string) string {
	return strconv.FormatUint(gen, 10) + "#" + key
}

func (s *Service) reportError(ctx context.Context, vehicleID string, tripType types.TripType, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	s.log.Warn("fare calculation failed",
		zap.String("vehicle_id", vehicleID),
		zap.String("trip_type", string(tripType)),
		zap.Error(err))
	s.bus.Publish(ctx, events.TopicFareError, events.FareError{
		VehicleID: vehicleID,
		TripType:  string(tripType),
		Message:   "Could not load fare for " + vehicleID,
	})
}
