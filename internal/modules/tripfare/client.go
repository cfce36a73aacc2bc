// README: HTTP client for the legacy PHP fare endpoints.
package tripfare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"taxihub/internal/types"
)

var ErrUpstream = errors.New("fare endpoint error")

const maxBodyBytes = 1 << 20

var endpoints = map[types.TripType]string{
	types.TripLocal:      "direct-local-fares.php",
	types.TripOutstation: "outstation-fares.php",
	types.TripAirport:    "airport-fares.php",
}

// Params carries the optional query inputs of a fare request.
type Params struct {
	PackageID  string
	DistanceKm float64
	TripMode   types.TripMode
}

// Client returns the raw JSON body of a fare endpoint.
type Client interface {
	Get(ctx context.Context, tripType types.TripType, vehicleID string, p Params) ([]byte, error)
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

func (c *HTTPClient) Get(ctx context.Context, tripType types.TripType, vehicleID string, p Params) ([]byte, error) {
	endpoint, ok := endpoints[tripType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTripType, tripType)
	}
	q := url.Values{}
	q.Set("vehicle_id", vehicleID)
	if p.PackageID != "" {
		q.Set("package_id", p.PackageID)
	}
	if p.DistanceKm > 0 {
		q.Set("distance", strconv.FormatFloat(p.DistanceKm, 'f', -1, 64))
	}
	if p.TripMode != "" {
		q.Set("trip_mode", string(p.TripMode))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUpstream, endpoint, resp.StatusCode)
	}
	return body, nil
}
