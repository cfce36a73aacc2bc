// README: Per trip type response parsers for the legacy fare endpoints.
package tripfare

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"taxihub/internal/types"
)

var (
	ErrNoFare              = errors.New("no fare in response")
	ErrUnsupportedTripType = errors.New("unsupported trip type")
)

type parser func(body []byte, vehicleID string, p Params) (float64, error)

var parsers = map[types.TripType]parser{
	types.TripLocal:      parseLocal,
	types.TripOutstation: parseBasePrice,
	types.TripAirport:    parseBasePrice,
}

func parse(tripType types.TripType, body []byte, vehicleID string, p Params) (float64, error) {
	fn, ok := parsers[tripType]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedTripType, tripType)
	}
	return fn(body, vehicleID, p)
}

// number accepts both JSON numbers and the quoted numbers the PHP endpoints emit.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = number(v)
	return nil
}

type localFare struct {
	VehicleID       string `json:"vehicleId"`
	VehicleIDSnake  string `json:"vehicle_id"`
	Price4hrs40km   number `json:"price4hrs40km"`
	Price8hrs80km   number `json:"price8hrs80km"`
	Price10hrs100km number `json:"price10hrs100km"`
}

func (f localFare) id() string {
	if f.VehicleID != "" {
		return f.VehicleID
	}
	return f.VehicleIDSnake
}

func (f localFare) price(packageID string) (float64, bool) {
	switch types.NormalizePackageID(packageID) {
	case types.Package4hrs40km:
		return float64(f.Price4hrs40km), true
	case types.Package8hrs80km, "":
		return float64(f.Price8hrs80km), true
	case types.Package10hrs100km:
		return float64(f.Price10hrs100km), true
	}
	return 0, false
}

func parseLocal(body []byte, vehicleID string, p Params) (float64, error) {
	var resp struct {
		Fares []localFare `json:"fares"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode local fares: %w", err)
	}
	want := types.NormalizeVehicleID(vehicleID)
	for _, f := range resp.Fares {
		if types.NormalizeVehicleID(f.id()) != want {
			continue
		}
		price, ok := f.price(p.PackageID)
		if !ok || price <= 0 {
			return 0, fmt.Errorf("%w: package %q for %s", ErrNoFare, p.PackageID, want)
		}
		return price, nil
	}
	return 0, fmt.Errorf("%w: vehicle %s", ErrNoFare, want)
}

func parseBasePrice(body []byte, vehicleID string, _ Params) (float64, error) {
	var resp struct {
		Fare *struct {
			BasePrice *number `json:"basePrice"`
		} `json:"fare"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode fare: %w", err)
	}
	if resp.Fare == nil || resp.Fare.BasePrice == nil {
		return 0, fmt.Errorf("%w: vehicle %s", ErrNoFare, vehicleID)
	}
	return float64(*resp.Fare.BasePrice), nil
}
