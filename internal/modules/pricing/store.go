// README: Rate card store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) LocalRate(ctx context.Context, vehicleID string) (LocalRate, error) {
	r := LocalRate{VehicleID: vehicleID}
	err := s.db.QueryRow(ctx, `
		SELECT price_4hrs_40km, price_8hrs_80km, price_10hrs_100km, price_extra_km, price_extra_hour
		FROM local_package_fares
		WHERE vehicle_id = $1`, vehicleID,
	).Scan(&r.Price4hrs40km, &r.Price8hrs80km, &r.Price10hrs100km, &r.PriceExtraKm, &r.PriceExtraHour)
	if errors.Is(err, pgx.ErrNoRows) {
		return LocalRate{}, ErrRateNotFound
	}
	return r, err
}

func (s *Store) OutstationRate(ctx context.Context, vehicleID string) (OutstationRate, error) {
	r := OutstationRate{VehicleID: vehicleID}
	err := s.db.QueryRow(ctx, `
		SELECT base_price, price_per_km, roundtrip_price_per_km, driver_allowance, night_halt_charge, min_km_per_day
		FROM outstation_fares
		WHERE vehicle_id = $1`, vehicleID,
	).Scan(&r.BasePrice, &r.PricePerKm, &r.RoundTripPricePerKm, &r.DriverAllowance, &r.NightHaltCharge, &r.MinKmPerDay)
	if errors.Is(err, pgx.ErrNoRows) {
		return OutstationRate{}, ErrRateNotFound
	}
	return r, err
}

func (s *Store) AirportRate(ctx context.Context, vehicleID string) (AirportRate, error) {
	r := AirportRate{VehicleID: vehicleID}
	err := s.db.QueryRow(ctx, `
		SELECT tier1_price, tier2_price, tier3_price, tier4_price, extra_km_charge
		FROM airport_fares
		WHERE vehicle_id = $1`, vehicleID,
	).Scan(&r.Tier1Price, &r.Tier2Price, &r.Tier3Price, &r.Tier4Price, &r.ExtraKmCharge)
	if errors.Is(err, pgx.ErrNoRows) {
		return AirportRate{}, ErrRateNotFound
	}
	return r, err
}

func (s *Store) UpsertLocalRate(ctx context.Context, r LocalRate) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO local_package_fares (
			vehicle_id, price_4hrs_40km, price_8hrs_80km, price_10hrs_100km, price_extra_km, price_extra_hour, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (vehicle_id) DO UPDATE SET
			price_4hrs_40km = EXCLUDED.price_4hrs_40km,
			price_8hrs_80km = EXCLUDED.price_8hrs_80km,
			price_10hrs_100km = EXCLUDED.price_10hrs_100km,
			price_extra_km = EXCLUDED.price_extra_km,
			price_extra_hour = EXCLUDED.price_extra_hour,
			updated_at = NOW()`,
		r.VehicleID, r.Price4hrs40km, r.Price8hrs80km, r.Price10hrs100km, r.PriceExtraKm, r.PriceExtraHour,
	)
	return err
}

func (s *Store) UpsertOutstationRate(ctx context.Context, r OutstationRate) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO outstation_fares (
			vehicle_id, base_price, price_per_km, roundtrip_price_per_km, driver_allowance, night_halt_charge, min_km_per_day, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (vehicle_id) DO UPDATE SET
			base_price = EXCLUDED.base_price,
			price_per_km = EXCLUDED.price_per_km,
			roundtrip_price_per_km = EXCLUDED.roundtrip_price_per_km,
			driver_allowance = EXCLUDED.driver_allowance,
			night_halt_charge = EXCLUDED.night_halt_charge,
			min_km_per_day = EXCLUDED.min_km_per_day,
			updated_at = NOW()`,
		r.VehicleID, r.BasePrice, r.PricePerKm, r.RoundTripPricePerKm, r.DriverAllowance, r.NightHaltCharge, r.MinKmPerDay,
	)
	return err
}

func (s *Store) UpsertAirportRate(ctx context.Context, r AirportRate) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO airport_fares (
			vehicle_id, tier1_price, tier2_price, tier3_price, tier4_price, extra_km_charge, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (vehicle_id) DO UPDATE SET
			tier1_price = EXCLUDED.tier1_price,
			tier2_price = EXCLUDED.tier2_price,
			tier3_price = EXCLUDED.tier3_price,
			tier4_price = EXCLUDED.tier4_price,
			extra_km_charge = EXCLUDED.extra_km_charge,
			updated_at = NOW()`,
		r.VehicleID, r.Tier1Price, r.Tier2Price, r.Tier3Price, r.Tier4Price, r.ExtraKmCharge,
	)
	return err
}
