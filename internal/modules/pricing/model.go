// README: Per-vehicle rate cards and the fare request shape.
package pricing

import (
	"time"

	"taxihub/internal/types"
)

const defaultMinKmPerDay = 300

type LocalRate struct {
	VehicleID       string  `json:"vehicle_id" yaml:"-"`
	Price4hrs40km   float64 `json:"price_4hrs_40km" yaml:"price_4hrs_40km" binding:"gte=0"`
	Price8hrs80km   float64 `json:"price_8hrs_80km" yaml:"price_8hrs_80km" binding:"gte=0"`
	Price10hrs100km float64 `json:"price_10hrs_100km" yaml:"price_10hrs_100km" binding:"gte=0"`
	PriceExtraKm    float64 `json:"price_extra_km" yaml:"price_extra_km" binding:"gte=0"`
	PriceExtraHour  float64 `json:"price_extra_hour" yaml:"price_extra_hour" binding:"gte=0"`
}

// PackagePrice returns the price of a canonical package id.
func (r LocalRate) PackagePrice(packageID string) (float64, bool) {
	switch types.NormalizePackageID(packageID) {
	case types.Package4hrs40km:
		return r.Price4hrs40km, true
	case types.Package8hrs80km:
		return r.Price8hrs80km, true
	case types.Package10hrs100km:
		return r.Price10hrs100km, true
	}
	return 0, false
}

type OutstationRate struct {
	VehicleID           string  `json:"vehicle_id" yaml:"-"`
	BasePrice           float64 `json:"base_price" yaml:"base_price" binding:"gte=0"`
	PricePerKm          float64 `json:"price_per_km" yaml:"price_per_km" binding:"gte=0"`
	RoundTripPricePerKm float64 `json:"roundtrip_price_per_km" yaml:"roundtrip_price_per_km" binding:"gte=0"`
	DriverAllowance     float64 `json:"driver_allowance" yaml:"driver_allowance" binding:"gte=0"`
	NightHaltCharge     float64 `json:"night_halt_charge" yaml:"night_halt_charge" binding:"gte=0"`
	MinKmPerDay         float64 `json:"min_km_per_day" yaml:"min_km_per_day" binding:"gte=0"`
}

type AirportRate struct {
	VehicleID     string  `json:"vehicle_id" yaml:"-"`
	Tier1Price    float64 `json:"tier1_price" yaml:"tier1_price" binding:"gte=0"` // up to 10 km
	Tier2Price    float64 `json:"tier2_price" yaml:"tier2_price" binding:"gte=0"` // up to 20 km
	Tier3Price    float64 `json:"tier3_price" yaml:"tier3_price" binding:"gte=0"` // up to 30 km
	Tier4Price    float64 `json:"tier4_price" yaml:"tier4_price" binding:"gte=0"` // up to 40 km
	ExtraKmCharge float64 `json:"extra_km_charge" yaml:"extra_km_charge" binding:"gte=0"`
}

// Request describes one fare question. Dates are only meaningful for outstation round trips.
type Request struct {
	VehicleID  string
	DistanceKm float64
	TripType   types.TripType
	TripMode   types.TripMode
	PackageID  string
	PickupDate *time.Time
	ReturnDate *time.Time
}
