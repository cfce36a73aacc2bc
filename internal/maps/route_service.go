// README: Google Maps lookups: driving distance for quotes and pickup address suggestions.
package maps

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"googlemaps.github.io/maps"
)

var (
	ErrNoRoute    = errors.New("no route found")
	ErrBadRequest = errors.New("origin and destination required")
)

// Vizag city centre, used to bias address suggestions.
var vizag = maps.LatLng{Lat: 17.6868, Lng: 83.2185}

const suggestRadiusMeters = 60000

type api interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
	PlaceAutocomplete(ctx context.Context, r *maps.PlaceAutocompleteRequest) (maps.AutocompleteResponse, error)
}

// RouteService handles interactions with Google Maps API.
type RouteService struct {
	client api
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

type Estimate struct {
	DistanceKm float64       `json:"distance_km"`
	Duration   time.Duration `json:"duration"`
	Summary    string        `json:"summary,omitempty"`
}

// DrivingDistance returns the driving distance in whole kilometres (rounded up) of the first route.
func (s *RouteService) DrivingDistance(ctx context.Context, origin, destination string) (Estimate, error) {
	origin, destination = strings.TrimSpace(origin), strings.TrimSpace(destination)
	if origin == "" || destination == "" {
		return Estimate{}, ErrBadRequest
	}
	routes, _, err := s.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Mode:        maps.TravelModeDriving,
		Region:      "in",
	})
	if err != nil {
		return Estimate{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Estimate{}, ErrNoRoute
	}

	var meters int
	var dur time.Duration
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
		dur += leg.Duration
	}
	return Estimate{
		DistanceKm: math.Ceil(float64(meters) / 1000),
		Duration:   dur,
		Summary:    routes[0].Summary,
	}, nil
}

type Suggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// Suggest returns address predictions restricted to India and biased to Visakhapatnam.
func (s *RouteService) Suggest(ctx context.Context, input string) ([]Suggestion, error) {
	input = strings.TrimSpace(input)
	if len(input) < 3 {
		return nil, nil
	}
	loc := vizag
	resp, err := s.client.PlaceAutocomplete(ctx, &maps.PlaceAutocompleteRequest{
		Input:      input,
		Location:   &loc,
		Radius:     suggestRadiusMeters,
		Components: map[maps.Component][]string{maps.ComponentCountry: {"in"}},
	})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}
	out := make([]Suggestion, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		out = append(out, Suggestion{PlaceID: p.PlaceID, Description: p.Description})
	}
	return out, nil
}
