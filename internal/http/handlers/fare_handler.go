// README: Fare quote and hourly package price handlers.
package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taxihub/internal/maps"
	"taxihub/internal/modules/fare"
	"taxihub/internal/modules/pricing"
	"taxihub/internal/types"
)

type FareService interface {
	GetFare(ctx context.Context, req pricing.Request) (float64, error)
	CalculateFaresForCabs(ctx context.Context, cabs []string, b fare.BatchRequest) map[string]float64
	GetLocalPackagePrice(ctx context.Context, packageID, vehicleType string) (float64, error)
}

// DistanceFinder is satisfied by *maps.RouteService.
type DistanceFinder interface {
	DrivingDistance(ctx context.Context, origin, destination string) (maps.Estimate, error)
}

type FareHandler struct {
	fares    FareService
	fleet    VehicleCatalog
	distance DistanceFinder
}

// NewFareHandler accepts a nil distance finder; quotes then need an explicit distance_km.
func NewFareHandler(fares FareService, fleet VehicleCatalog, distance DistanceFinder) *FareHandler {
	return &FareHandler{fares: fares, fleet: fleet, distance: distance}
}

type quoteResponse struct {
	TripType   types.TripType     `json:"trip_type"`
	TripMode   types.TripMode     `json:"trip_mode"`
	PackageID  string             `json:"package_id,omitempty"`
	DistanceKm float64            `json:"distance_km"`
	Duration   string             `json:"duration,omitempty"`
	Fares      map[string]float64 `json:"fares"`
}

// Quote prices one vehicle (?vehicle=) or every active vehicle. Distance comes from distance_km or,
// when from/to are given, from a driving route lookup.
func (h *FareHandler) Quote(c *gin.Context) {
	tripType, ok := types.ParseTripType(c.Query("trip_type"))
	if !ok {
		writeError(c, http.StatusBadRequest, "trip_type must be local, outstation or airport")
		return
	}
	resp := quoteResponse{
		TripType: tripType,
		TripMode: types.ParseTripMode(c.Query("trip_mode")),
	}
	if tripType == types.TripLocal {
		resp.PackageID = types.NormalizePackageID(c.Query("package"))
		if resp.PackageID == "" {
			resp.PackageID = types.DefaultPackage
		}
	}

	var pickup, ret *time.Time
	for _, p := range []struct {
		key string
		dst **time.Time
	}{{"pickup_date", &pickup}, {"return_date", &ret}} {
		if v := c.Query(p.key); v != "" {
			t, ok := parseDate(v)
			if !ok {
				writeError(c, http.StatusBadRequest, "invalid "+p.key)
				return
			}
			*p.dst = &t
		}
	}

	if tripType != types.TripLocal {
		km, dur, ok := h.resolveDistance(c)
		if !ok {
			return
		}
		resp.DistanceKm, resp.Duration = km, dur
	}

	ctx := c.Request.Context()
	if v := strings.TrimSpace(c.Query("vehicle")); v != "" {
		price, err := h.fares.GetFare(ctx, pricing.Request{
			VehicleID:  v,
			DistanceKm: resp.DistanceKm,
			TripType:   tripType,
			TripMode:   resp.TripMode,
			PackageID:  resp.PackageID,
			PickupDate: pickup,
			ReturnDate: ret,
		})
		if err != nil {
			writeServiceError(c, err)
			return
		}
		resp.Fares = map[string]float64{types.NormalizeVehicleID(v): price}
		writeJSON(c, http.StatusOK, resp)
		return
	}

	cabs, err := h.fleet.ActiveIDs(ctx)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp.Fares = h.fares.CalculateFaresForCabs(ctx, cabs, fare.BatchRequest{
		DistanceKm: resp.DistanceKm,
		TripType:   tripType,
		TripMode:   resp.TripMode,
		PackageID:  resp.PackageID,
		PickupDate: pickup,
		ReturnDate: ret,
	})
	writeJSON(c, http.StatusOK, resp)
}

func (h *FareHandler) resolveDistance(c *gin.Context) (float64, string, bool) {
	if v := c.Query("distance_km"); v != "" {
		km, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(km) || math.IsInf(km, 0) || km < 0 || km > pricing.MaxDistanceKm {
			writeError(c, http.StatusBadRequest, "invalid distance_km")
			return 0, "", false
		}
		return km, "", true
	}
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		writeError(c, http.StatusBadRequest, "distance_km or from and to required")
		return 0, "", false
	}
	if h.distance == nil {
		writeError(c, http.StatusServiceUnavailable, "route lookup not configured; pass distance_km")
		return 0, "", false
	}
	est, err := h.distance.DrivingDistance(c.Request.Context(), from, to)
	if err != nil {
		writeServiceError(c, err)
		return 0, "", false
	}
	return est.DistanceKm, est.Duration.Round(time.Minute).String(), true
}

type packagePriceResponse struct {
	PackageID string  `json:"package_id"`
	VehicleID string  `json:"vehicle_id"`
	Price     float64 `json:"price"`
}

func (h *FareHandler) LocalPackage(c *gin.Context) {
	vehicleID := types.NormalizeVehicleID(c.Query("vehicle"))
	if vehicleID == "" {
		writeError(c, http.StatusBadRequest, "vehicle required")
		return
	}
	pkg := types.NormalizePackageID(c.Query("package"))
	if pkg == "" {
		pkg = types.DefaultPackage
	}
	price, err := h.fares.GetLocalPackagePrice(c.Request.Context(), pkg, vehicleID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, packagePriceResponse{PackageID: pkg, VehicleID: vehicleID, Price: price})
}
