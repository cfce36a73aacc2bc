// README: Trip type and mode vocabulary shared by pricing, fares and bookings.
package types

import "strings"

type TripType string

const (
	TripLocal      TripType = "local"
	TripOutstation TripType = "outstation"
	TripAirport    TripType = "airport"
)

type TripMode string

const (
	ModeOneWay    TripMode = "one-way"
	ModeRoundTrip TripMode = "round-trip"
	ModePickup    TripMode = "pickup"
	ModeDrop      TripMode = "drop"
)

// ParseTripType accepts the spellings the website sends ("Local", "outstation ", "airport-transfer").
func ParseTripType(v string) (TripType, bool) {
	s := strings.ToLower(strings.TrimSpace(v))
	switch {
	case s == "local" || strings.HasPrefix(s, "local"):
		return TripLocal, true
	case s == "outstation" || strings.HasPrefix(s, "outstation"):
		return TripOutstation, true
	case s == "airport" || strings.HasPrefix(s, "airport"):
		return TripAirport, true
	}
	return "", false
}

func ParseTripMode(v string) TripMode {
	s := strings.ToLower(strings.TrimSpace(v))
	s = strings.ReplaceAll(s, "_", "-")
	switch s {
	case "round-trip", "roundtrip", "round":
		return ModeRoundTrip
	case "pickup":
		return ModePickup
	case "drop":
		return ModeDrop
	}
	return ModeOneWay
}

// NormalizeVehicleID folds the catalogue spellings ("Innova Crysta", "innova-crysta") to one key.
func NormalizeVehicleID(v string) string {
	s := strings.ToLower(strings.TrimSpace(v))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}
