package maps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

type fakeAPI struct {
	routes      []maps.Route
	err         error
	lastDir     *maps.DirectionsRequest
	predictions []maps.AutocompletePrediction
	lastAuto    *maps.PlaceAutocompleteRequest
}

func (f *fakeAPI) Directions(_ context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error) {
	f.lastDir = r
	return f.routes, nil, f.err
}

func (f *fakeAPI) PlaceAutocomplete(_ context.Context, r *maps.PlaceAutocompleteRequest) (maps.AutocompleteResponse, error) {
	f.lastAuto = r
	return maps.AutocompleteResponse{Predictions: f.predictions}, f.err
}

func TestDrivingDistance(t *testing.T) {
	api := &fakeAPI{routes: []maps.Route{{
		Summary: "NH16",
		Legs: []*maps.Leg{
			{Distance: maps.Distance{Meters: 120400}, Duration: 2 * time.Hour},
			{Distance: maps.Distance{Meters: 10}, Duration: time.Minute},
		},
	}}}
	s := &RouteService{client: api}

	est, err := s.DrivingDistance(context.Background(), "RK Beach, Vizag", "Araku Valley")
	require.NoError(t, err)
	assert.Equal(t, 121.0, est.DistanceKm)
	assert.Equal(t, 2*time.Hour+time.Minute, est.Duration)
	assert.Equal(t, maps.TravelModeDriving, api.lastDir.Mode)
}

func TestDrivingDistance_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := (&RouteService{client: &fakeAPI{}}).DrivingDistance(ctx, " ", "x")
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = (&RouteService{client: &fakeAPI{}}).DrivingDistance(ctx, "a", "b")
	assert.ErrorIs(t, err, ErrNoRoute)

	boom := errors.New("quota")
	_, err = (&RouteService{client: &fakeAPI{err: boom}}).DrivingDistance(ctx, "a", "b")
	assert.ErrorIs(t, err, boom)
}

func TestSuggest(t *testing.T) {
	api := &fakeAPI{predictions: []maps.AutocompletePrediction{
		{PlaceID: "p1", Description: "Vizag Airport, Visakhapatnam"},
	}}
	s := &RouteService{client: api}

	got, err := s.Suggest(context.Background(), "vi")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Nil(t, api.lastAuto)

	got, err = s.Suggest(context.Background(), "vizag air")
	require.NoError(t, err)
	assert.Equal(t, []Suggestion{{PlaceID: "p1", Description: "Vizag Airport, Visakhapatnam"}}, got)
	assert.Equal(t, []string{"in"}, api.lastAuto.Components[maps.ComponentCountry])
}
