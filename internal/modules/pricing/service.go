// README: Pricing service turns a trip request and a rate card into a fare.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"taxihub/internal/events"
	"taxihub/internal/types"
)

var (
	ErrRateNotFound   = errors.New("rate not found")
	ErrBadRequest     = errors.New("bad fare request")
	ErrUnknownPackage = errors.New("unknown local package")
)

// RateStore is satisfied by *Store.
type RateStore interface {
	LocalRate(ctx context.Context, vehicleID string) (LocalRate, error)
	OutstationRate(ctx context.Context, vehicleID string) (OutstationRate, error)
	AirportRate(ctx context.Context, vehicleID string) (AirportRate, error)
	UpsertLocalRate(ctx context.Context, r LocalRate) error
	UpsertOutstationRate(ctx context.Context, r OutstationRate) error
	UpsertAirportRate(ctx context.Context, r AirportRate) error
}

type Service struct {
	store RateStore
	bus   *events.Bus
}

// NewService accepts a nil store; every lookup then uses the embedded defaults.
func NewService(store RateStore, bus *events.Bus) *Service {
	return &Service{store: store, bus: bus}
}

func (s *Service) Calculate(ctx context.Context, req Request) (float64, error) {
	if !validDistance(req.DistanceKm) {
		return 0, fmt.Errorf("%w: distance %v", ErrBadRequest, req.DistanceKm)
	}
	vehicleID := types.NormalizeVehicleID(req.VehicleID)
	if vehicleID == "" {
		return 0, fmt.Errorf("%w: missing vehicle", ErrBadRequest)
	}

	switch req.TripType {
	case types.TripLocal:
		rate, err := s.localRate(ctx, vehicleID)
		if err != nil {
			return 0, err
		}
		return LocalFare(rate, req.PackageID)
	case types.TripOutstation:
		rate, err := s.outstationRate(ctx, vehicleID)
		if err != nil {
			return 0, err
		}
		return OutstationFare(rate, req.DistanceKm, req.TripMode, req.PickupDate, req.ReturnDate)
	case types.TripAirport:
		rate, err := s.airportRate(ctx, vehicleID)
		if err != nil {
			return 0, err
		}
		return AirportFare(rate, req.DistanceKm), nil
	}
	return 0, fmt.Errorf("%w: trip type %q", ErrBadRequest, req.TripType)
}

// MaxDistanceKm bounds a single quote; anything longer is treated as bad input.
const MaxDistanceKm = 20000

func validDistance(km float64) bool {
	return !math.IsNaN(km) && !math.IsInf(km, 0) && km >= 0 && km <= MaxDistanceKm
}

// LocalPackagePrice is the hourly package price for a vehicle.
func (s *Service) LocalPackagePrice(ctx context.Context, packageID, vehicleID string) (float64, error) {
	rate, err := s.localRate(ctx, types.NormalizeVehicleID(vehicleID))
	if err != nil {
		return 0, err
	}
	return LocalFare(rate, packageID)
}

func (s *Service) localRate(ctx context.Context, vehicleID string) (LocalRate, error) {
	if s.store == nil {
		return DefaultLocalRate(vehicleID), nil
	}
	r, err := s.store.LocalRate(ctx, vehicleID)
	if errors.Is(err, ErrRateNotFound) {
		return DefaultLocalRate(vehicleID), nil
	}
	return r, err
}

func (s *Service) outstationRate(ctx context.Context, vehicleID string) (OutstationRate, error) {
	if s.store == nil {
		return DefaultOutstationRate(vehicleID), nil
	}
	r, err := s.store.OutstationRate(ctx, vehicleID)
	if errors.Is(err, ErrRateNotFound) {
		return DefaultOutstationRate(vehicleID), nil
	}
	return r, err
}

func (s *Service) airportRate(ctx context.Context, vehicleID string) (AirportRate, error) {
	if s.store == nil {
		return DefaultAirportRate(vehicleID), nil
	}
	r, err := s.store.AirportRate(ctx, vehicleID)
	if errors.Is(err, ErrRateNotFound) {
		return DefaultAirportRate(vehicleID), nil
	}
	return r, err
}

func (s *Service) UpdateLocalRate(ctx context.Context, r LocalRate) error {
	r.VehicleID = types.NormalizeVehicleID(r.VehicleID)
	if r.VehicleID == "" {
		return ErrBadRequest
	}
	if err := s.store.UpsertLocalRate(ctx, r); err != nil {
		return err
	}
	s.bus.Publish(ctx, events.TopicLocalFaresUpdated, events.FaresUpdated{TripType: string(types.TripLocal), VehicleID: r.VehicleID})
	return nil
}

func (s *Service) UpdateOutstationRate(ctx context.Context, r OutstationRate) error {
	r.VehicleID = types.NormalizeVehicleID(r.VehicleID)
	if r.VehicleID == "" {
		return ErrBadRequest
	}
	if err := s.store.UpsertOutstationRate(ctx, r); err != nil {
		return err
	}
	s.bus.Publish(ctx, events.TopicFareUpdated, events.FaresUpdated{TripType: string(types.TripOutstation), VehicleID: r.VehicleID})
	return nil
}

func (s *Service) UpdateAirportRate(ctx context.Context, r AirportRate) error {
	r.VehicleID = types.NormalizeVehicleID(r.VehicleID)
	if r.VehicleID == "" {
		return ErrBadRequest
	}
	if err := s.store.UpsertAirportRate(ctx, r); err != nil {
		return err
	}
	s.bus.Publish(ctx, events.TopicFareUpdated, events.FaresUpdated{TripType: string(types.TripAirport), VehicleID: r.VehicleID})
	return nil
}

// LocalFare defaults to the 8 hour package when packageID is empty.
func LocalFare(rate LocalRate, packageID string) (float64, error) {
	if packageID == "" {
		packageID = types.DefaultPackage
	}
	price, ok := rate.PackagePrice(packageID)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPackage, packageID)
	}
	return math.Round(price), nil
}

func OutstationFare(rate OutstationRate, distanceKm float64, mode types.TripMode, pickup, ret *time.Time) (float64, error) {
	minKm := rate.MinKmPerDay
	if minKm <= 0 {
		minKm = defaultMinKmPerDay
	}
	if mode != types.ModeRoundTrip {
		extraKm := math.Max(0, distanceKm-minKm)
		return math.Round(rate.BasePrice + extraKm*rate.PricePerKm + rate.DriverAllowance), nil
	}

	days, err := tripDays(pickup, ret)
	if err != nil {
		return 0, err
	}
	perKm := rate.RoundTripPricePerKm
	if perKm <= 0 {
		perKm = rate.PricePerKm
	}
	billableKm := math.Max(distanceKm*2, minKm*float64(days))
	fare := billableKm*perKm + rate.DriverAllowance*float64(days) + rate.NightHaltCharge*float64(days-1)
	return math.Round(fare), nil
}

func AirportFare(rate AirportRate, distanceKm float64) float64 {
	switch {
	case distanceKm <= 10:
		return math.Round(rate.Tier1Price)
	case distanceKm <= 20:
		return math.Round(rate.Tier2Price)
	case distanceKm <= 30:
		return math.Round(rate.Tier3Price)
	case distanceKm <= 40:
		return math.Round(rate.Tier4Price)
	}
	return math.Round(rate.Tier4Price + (distanceKm-40)*rate.ExtraKmCharge)
}

// tripDays counts calendar days from pickup to return inclusive; missing dates mean one day.
func tripDays(pickup, ret *time.Time) (int, error) {
	if pickup == nil || ret == nil {
		return 1, nil
	}
	if ret.Before(*pickup) {
		return 0, fmt.Errorf("%w: return before pickup", ErrBadRequest)
	}
	p := time.Date(pickup.Year(), pickup.Month(), pickup.Day(), 0, 0, 0, 0, time.UTC)
	loc := ret.In(pickup.Location())
	r := time.Date(loc.Year(), loc.Month(), loc.Day(), 0, 0, 0, 0, time.UTC)
	return int(r.Sub(p).Hours()/24) + 1, nil
}
