// README: Embedded fallback rate cards keyed by vehicle class.
package pricing

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"taxihub/internal/types"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type rateCard struct {
	Local      LocalRate      `yaml:"local"`
	Outstation OutstationRate `yaml:"outstation"`
	Airport    AirportRate    `yaml:"airport"`
}

var defaultCards = mustLoadDefaults(defaultsYAML)

func mustLoadDefaults(b []byte) map[string]rateCard {
	cards := map[string]rateCard{}
	if err := yaml.Unmarshal(b, &cards); err != nil {
		panic(fmt.Sprintf("pricing: bad defaults.yaml: %v", err))
	}
	return cards
}

// VehicleClass guesses the rate class of a vehicle id; sedans are the fallback.
func VehicleClass(vehicleID string) string {
	id := types.NormalizeVehicleID(vehicleID)
	switch {
	case strings.Contains(id, "innova"):
		return "innova_crysta"
	case strings.Contains(id, "ertiga"), strings.Contains(id, "suv"), strings.Contains(id, "xylo"):
		return "ertiga"
	case strings.Contains(id, "tempo"), strings.Contains(id, "traveller"), strings.Contains(id, "bus"):
		return "tempo"
	case strings.Contains(id, "luxury"), strings.Contains(id, "benz"), strings.Contains(id, "bmw"), strings.Contains(id, "audi"):
		return "luxury"
	}
	return "sedan"
}

func defaultCard(vehicleID string) rateCard {
	return defaultCards[VehicleClass(vehicleID)]
}

func DefaultLocalRate(vehicleID string) LocalRate {
	r := defaultCard(vehicleID).Local
	r.VehicleID = vehicleID
	return r
}

func DefaultOutstationRate(vehicleID string) OutstationRate {
	r := defaultCard(vehicleID).Outstation
	r.VehicleID = vehicleID
	return r
}

func DefaultAirportRate(vehicleID string) AirportRate {
	r := defaultCard(vehicleID).Airport
	r.VehicleID = vehicleID
	return r
}
