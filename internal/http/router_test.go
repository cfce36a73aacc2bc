// README: Route-level tests: auth gates, error mapping and handler wiring against stub services.
package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpapi "taxihub/internal/http"
	"taxihub/internal/infra"
	"taxihub/internal/maps"
	"taxihub/internal/modules/booking"
	"taxihub/internal/modules/fare"
	"taxihub/internal/modules/ledger"
	"taxihub/internal/modules/payment"
	"taxihub/internal/modules/pooling"
	"taxihub/internal/modules/pricing"
	"taxihub/internal/modules/vehicle"
	"taxihub/internal/types"
)

// tokenVerifier maps raw tokens to callers: "admin", "provider" or any other string as a passenger uid.
type tokenVerifier struct{}

func (tokenVerifier) VerifyIDToken(_ context.Context, raw string) (*infra.Token, error) {
	switch raw {
	case "bad":
		return nil, errors.New("expired")
	case "admin", "provider":
		return &infra.Token{UID: raw + "-uid", Claims: map[string]interface{}{"role": raw}}, nil
	}
	return &infra.Token{UID: raw, Claims: map[string]interface{}{}}, nil
}

type stubVehicles struct{}

func (stubVehicles) Active(context.Context) ([]vehicle.Vehicle, error) {
	return []vehicle.Vehicle{{ID: "sedan", Name: "Sedan", Capacity: 4, Active: true}}, nil
}
func (stubVehicles) ActiveIDs(context.Context) ([]string, error) { return []string{"sedan", "ertiga"}, nil }
func (stubVehicles) All(ctx context.Context) ([]vehicle.Vehicle, error) {
	return stubVehicles{}.Active(ctx)
}
func (stubVehicles) Get(_ context.Context, id string) (vehicle.Vehicle, error) {
	if id != "sedan" {
		return vehicle.Vehicle{}, vehicle.ErrNotFound
	}
	return vehicle.Vehicle{ID: "sedan"}, nil
}
func (stubVehicles) Upsert(_ context.Context, v vehicle.Vehicle) (vehicle.Vehicle, error) {
	return v, nil
}
func (stubVehicles) Deactivate(context.Context, string) error { return nil }

type stubFares struct {
	last pricing.Request
}

func (f *stubFares) GetFare(_ context.Context, req pricing.Request) (float64, error) {
	f.last = req
	if req.VehicleID == "boat" {
		return 0, pricing.ErrRateNotFound
	}
	return 1000 + req.DistanceKm, nil
}
func (f *stubFares) CalculateFaresForCabs(_ context.Context, cabs []string, b fare.BatchRequest) map[string]float64 {
	out := map[string]float64{}
	for _, c := range cabs {
		out[c] = 2000 + b.DistanceKm
	}
	return out
}
func (f *stubFares) GetLocalPackagePrice(_ context.Context, pkg, vehicleID string) (float64, error) {
	if pkg == "12hrs-120km" {
		return 0, pricing.ErrUnknownPackage
	}
	return 2400, nil
}

type stubDistance struct{}

func (stubDistance) DrivingDistance(_ context.Context, o, d string) (maps.Estimate, error) {
	if o == d {
		return maps.Estimate{}, maps.ErrNoRoute
	}
	return maps.Estimate{DistanceKm: 120, Duration: 150 * time.Minute}, nil
}

type stubBookings struct {
	byID    map[types.ID]*booking.Booking
	created booking.CreateCommand
	cancel  booking.CancelCommand
	filter  booking.Filter
}

func (s *stubBookings) Create(_ context.Context, cmd booking.CreateCommand) (*booking.Booking, error) {
	s.created = cmd
	if cmd.VehicleID == "boat" {
		return nil, fmt.Errorf("quote fare: %w", pricing.ErrRateNotFound)
	}
	return &booking.Booking{ID: "b-new", Number: "VTH1", PassengerUID: cmd.PassengerUID, Status: booking.StatusPending}, nil
}
func (s *stubBookings) Get(_ context.Context, id types.ID) (*booking.Booking, error) {
	if b, ok := s.byID[id]; ok {
		return b, nil
	}
	return nil, booking.ErrNotFound
}
func (s *stubBookings) List(_ context.Context, f booking.Filter) ([]booking.Booking, error) {
	s.filter = f
	return []booking.Booking{}, nil
}
func (s *stubBookings) Approve(ctx context.Context, id types.ID, _ string) (*booking.Booking, error) {
	return s.Get(ctx, id)
}
func (s *stubBookings) Reject(ctx context.Context, id types.ID, _, _ string) (*booking.Booking, error) {
	return s.Get(ctx, id)
}
func (s *stubBookings) Complete(context.Context, types.ID, string) (*booking.Booking, error) {
	return nil, booking.ErrInvalidState
}
func (s *stubBookings) Cancel(_ context.Context, cmd booking.CancelCommand) (*booking.Booking, error) {
	s.cancel = cmd
	return nil, booking.ErrDeadlinePassed
}
func (s *stubBookings) Cancellation(_ context.Context, id types.ID) (booking.Cancellation, error) {
	return booking.Cancellation{BookingID: id, Status: booking.StatusPending, CanCancel: true}, nil
}

type stubPool struct {
	published pooling.PublishCommand
	cancelBy  string
}

func (p *stubPool) PublishRide(_ context.Context, cmd pooling.PublishCommand) (*pooling.Ride, error) {
	p.published = cmd
	return &pooling.Ride{ID: "r1", ProviderUID: cmd.ProviderUID}, nil
}
func (p *stubPool) GetRide(context.Context, types.ID) (*pooling.Ride, error) {
	return nil, pooling.ErrRideNotFound
}
func (p *stubPool) Search(_ context.Context, q pooling.SearchQuery) ([]pooling.Ride, error) {
	return []pooling.Ride{}, nil
}
func (p *stubPool) GetRequest(context.Context, types.ID) (*pooling.SeatRequest, error) {
	return &pooling.SeatRequest{ID: "q1", PassengerUID: "someone"}, nil
}
func (p *stubPool) RequestSeats(context.Context, pooling.SeatCommand) (*pooling.SeatRequest, error) {
	return nil, pooling.ErrNoSeats
}
func (p *stubPool) Approve(context.Context, types.ID, string) (*pooling.SeatRequest, error) {
	return nil, pooling.ErrForbidden
}
func (p *stubPool) Reject(context.Context, types.ID, string, string) (*pooling.SeatRequest, error) {
	return &pooling.SeatRequest{ID: "q1", Status: booking.StatusRejected}, nil
}
func (p *stubPool) Cancel(context.Context, types.ID, string, string) (*pooling.SeatRequest, error) {
	return &pooling.SeatRequest{ID: "q1", Status: booking.StatusCancelled}, nil
}
func (p *stubPool) CancelRide(_ context.Context, id types.ID, providerUID, _ string) (*pooling.Ride, error) {
	p.cancelBy = providerUID
	if id == "paid" {
		return nil, pooling.ErrRideHasPaid
	}
	return &pooling.Ride{ID: id, Status: pooling.RideCancelled}, nil
}

type stubPayments struct{}

func (stubPayments) CheckoutBooking(context.Context, types.ID) (payment.Session, error) {
	return payment.Session{ID: "cs_1", URL: "https://checkout.example/cs_1"}, nil
}
func (stubPayments) CheckoutSeatRequest(context.Context, types.ID) (payment.Session, error) {
	return payment.Session{}, payment.ErrNotConfigured
}
func (stubPayments) HandleWebhook(_ context.Context, _ []byte, sig string) error {
	if sig == "" {
		return payment.ErrSignature
	}
	return nil
}

type stubRates struct{ local pricing.LocalRate }

func (r *stubRates) UpdateLocalRate(_ context.Context, l pricing.LocalRate) error {
	r.local = l
	return nil
}
func (r *stubRates) UpdateOutstationRate(context.Context, pricing.OutstationRate) error { return nil }
func (r *stubRates) UpdateAirportRate(context.Context, pricing.AirportRate) error {
	return errors.New("db down")
}

type stubLedger struct{ from, to time.Time }

func (l *stubLedger) Record(_ context.Context, e ledger.Entry) (*ledger.Entry, error) {
	e.ID = "e1"
	return &e, nil
}
func (l *stubLedger) List(_ context.Context, from, to time.Time) ([]ledger.Entry, error) {
	l.from, l.to = from, to
	return nil, nil
}
func (l *stubLedger) Summarize(_ context.Context, from, to time.Time) (ledger.Summary, error) {
	return ledger.Summary{}, ledger.ErrBadRequest
}

type fixture struct {
	router   *gin.Engine
	fares    *stubFares
	bookings *stubBookings
	pool     *stubPool
	rates    *stubRates
	ledger   *stubLedger
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		fares: &stubFares{},
		bookings: &stubBookings{byID: map[types.ID]*booking.Booking{
			"b-anon":  {ID: "b-anon", Number: "VTH260101AAAAAA", PassengerName: "Ravi", VehicleID: "sedan", TripType: types.TripLocal, Fare: types.FromRupees(2400), Status: booking.StatusPaid, PickupAt: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)},
			"b-owned": {ID: "b-owned", PassengerUID: "alice", Status: booking.StatusPending},
		}},
		pool:   &stubPool{},
		rates:  &stubRates{},
		ledger: &stubLedger{},
	}
	f.router = httpapi.NewRouter(httpapi.Deps{
		Verifier: tokenVerifier{},
		Vehicles: stubVehicles{},
		Fares:    f.fares,
		Distance: stubDistance{},
		Bookings: f.bookings,
		Pool:     f.pool,
		Payments: stubPayments{},
		Rates:    f.rates,
		Ledger:   f.ledger,
	})
	return f
}

func (f *fixture) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	w := newFixture().do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestAuthGates(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"admin route anonymous", http.MethodGet, "/api/admin/bookings", "", http.StatusUnauthorized},
		{"admin route passenger", http.MethodGet, "/api/admin/bookings", "alice", http.StatusForbidden},
		{"admin route admin", http.MethodGet, "/api/admin/bookings", "admin", http.StatusOK},
		{"publish anonymous", http.MethodPost, "/api/pool/rides", "", http.StatusUnauthorized},
		{"publish passenger", http.MethodPost, "/api/pool/rides", "alice", http.StatusForbidden},
		{"bad token on public route", http.MethodGet, "/api/bookings/b-anon", "bad", http.StatusUnauthorized},
		{"my bookings anonymous", http.MethodGet, "/api/me/bookings", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(tt.method, tt.path, nil, tt.token)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestFareQuote(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodGet, "/api/fares/quote?trip_type=outstation&distance_km=150", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, map[string]any{"sedan": 2150.0, "ertiga": 2150.0}, body["fares"])

	w = f.do(http.MethodGet, "/api/fares/quote?trip_type=Outstation&vehicle=Innova%20Crysta&from=Vizag&to=Araku&trip_mode=round_trip", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decode(t, w)
	assert.Equal(t, map[string]any{"innova_crysta": 1120.0}, body["fares"])
	assert.Equal(t, "2h30m0s", body["duration"])
	assert.Equal(t, types.ModeRoundTrip, f.fares.last.TripMode)

	w = f.do(http.MethodGet, "/api/fares/quote?trip_type=local&vehicle=sedan&package=08hr_80km", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.Package8hrs80km, f.fares.last.PackageID)
	assert.Zero(t, f.fares.last.DistanceKm)
}

func TestFareQuote_Errors(t *testing.T) {
	f := newFixture()
	tests := []struct {
		query string
		want  int
	}{
		{"trip_type=boat", http.StatusBadRequest},
		{"trip_type=airport", http.StatusBadRequest},
		{"trip_type=airport&distance_km=-3", http.StatusBadRequest},
		{"trip_type=airport&distance_km=Inf", http.StatusBadRequest},
		{"trip_type=outstation&distance_km=NaN", http.StatusBadRequest},
		{"trip_type=outstation&distance_km=1e400", http.StatusBadRequest},
		{"trip_type=airport&from=Vizag&to=Vizag", http.StatusNotFound},
		{"trip_type=airport&distance_km=12&vehicle=boat", http.StatusNotFound},
		{"trip_type=outstation&distance_km=12&pickup_date=tomorrow", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := f.do(http.MethodGet, "/api/fares/quote?"+tt.query, nil, "")
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestLocalPackage(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/api/fares/local-package?vehicle=Sedan&package=4hr_40km", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "4hrs-40km", body["package_id"])
	assert.Equal(t, "sedan", body["vehicle_id"])
	assert.Equal(t, 2400.0, body["price"])

	w = f.do(http.MethodGet, "/api/fares/local-package?vehicle=sedan&package=12hrs-120km", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(http.MethodGet, "/api/fares/local-package", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBooking(t *testing.T) {
	f := newFixture()
	body := map[string]any{
		"passenger_name":  "Alice",
		"passenger_phone": "9876543210",
		"vehicle_id":      "sedan",
		"trip_type":       "local",
		"pickup_location": "RK Beach",
		"pickup_at":       time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}
	w := f.do(http.MethodPost, "/api/bookings", body, "alice")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "alice", f.bookings.created.PassengerUID)
	assert.Equal(t, types.TripLocal, f.bookings.created.TripType)

	w = f.do(http.MethodPost, "/api/bookings", body, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, f.bookings.created.PassengerUID)

	body["vehicle_id"] = "boat"
	w = f.do(http.MethodPost, "/api/bookings", body, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	delete(body, "passenger_phone")
	w = f.do(http.MethodPost, "/api/bookings", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBooking_Visibility(t *testing.T) {
	f := newFixture()
	tests := []struct {
		id    string
		token string
		want  int
	}{
		{"b-anon", "", http.StatusOK},
		{"b-owned", "alice", http.StatusOK},
		{"b-owned", "", http.StatusForbidden},
		{"b-owned", "mallory", http.StatusForbidden},
		{"b-owned", "admin", http.StatusOK},
		{"missing", "", http.StatusNotFound},
		{"bad$id", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.id+"/"+tt.token, func(t *testing.T) {
			w := f.do(http.MethodGet, "/api/bookings/"+tt.id, nil, tt.token)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestCancelBooking(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/bookings/b-owned/cancel", map[string]string{"reason": "plans changed"}, "alice")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, booking.ActorPassenger, f.bookings.cancel.ActorType)
	assert.Equal(t, "alice", f.bookings.cancel.ActorID)
	assert.Equal(t, "plans changed", f.bookings.cancel.Reason)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/b-anon/cancel", nil)
	req.Header.Set("Authorization", "Bearer admin")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, booking.ActorAdmin, f.bookings.cancel.ActorType)
}

func TestCancellationAndCheckout(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/api/bookings/b-anon/cancellation", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["can_cancel"])

	w = f.do(http.MethodPost, "/api/bookings/b-anon/checkout", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://checkout.example/cs_1", decode(t, w)["url"])

	w = f.do(http.MethodPost, "/api/pool/requests/q1/checkout", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReceipt(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/api/bookings/b-anon/receipt", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "receipt-VTH260101AAAAAA.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestAdminBookings(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/api/admin/bookings?status=confirmed&limit=20", nil, "admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, booking.StatusApproved, f.bookings.filter.Status)
	assert.Equal(t, 20, f.bookings.filter.Limit)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/admin/bookings?status=lost", nil, "admin").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/admin/bookings/b-anon/approve", nil, "admin").Code)
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/admin/bookings/b-anon/complete", nil, "admin").Code)

	w = f.do(http.MethodGet, "/api/me/bookings", nil, "alice")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", f.bookings.filter.PassengerUID)
}

func TestPoolRoutes(t *testing.T) {
	f := newFixture()
	ride := map[string]any{
		"provider_name":  "Suresh",
		"vehicle_id":     "ertiga",
		"from_city":      "Visakhapatnam",
		"to_city":        "Vijayawada",
		"depart_at":      time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"seats":          4,
		"price_per_seat": 650,
	}
	w := f.do(http.MethodPost, "/api/pool/rides", ride, "provider")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "provider-uid", f.pool.published.ProviderUID)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/pool/rides?from=vizag&date=2026-11-01&seats=2", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/pool/rides?seats=many", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/pool/rides/r9", nil, "").Code)

	seat := map[string]any{"passenger_name": "Bob", "passenger_phone": "9000000000", "seats": 2}
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/pool/rides/r1/requests", seat, "").Code)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/pool/requests/q1/approve", nil, "provider").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/pool/requests/q1/reject", map[string]string{"reason": "full"}, "provider").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/pool/requests/q1/cancel", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/pool/requests/q1", nil, "bob").Code)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/pool/rides/r1/cancel", nil, "bob").Code)
	w = f.do(http.MethodPost, "/api/pool/rides/r1/cancel", map[string]string{"reason": "breakdown"}, "provider")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "cancelled", decode(t, w)["status"])
	assert.Equal(t, "provider-uid", f.pool.cancelBy)
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/pool/rides/paid/cancel", nil, "provider").Code)
}

func TestWebhook(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/payments/webhook", map[string]string{"type": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminFaresAndLedger(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPut, "/api/admin/fares/local/Innova%20Crysta", map[string]any{"price_8hrs_80km": 3200}, "admin")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "innova_crysta", f.rates.local.VehicleID)
	assert.Equal(t, 3200.0, f.rates.local.Price8hrs80km)

	w = f.do(http.MethodPut, "/api/admin/fares/local/sedan", map[string]any{"price_8hrs_80km": -1}, "admin")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPut, "/api/admin/fares/airport/sedan", map[string]any{"tier1_price": 800}, "admin")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", decode(t, w)["error"])

	w = f.do(http.MethodGet, "/api/admin/ledger?from=2026-01-01&to=2026-02-01", nil, "admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2026, f.ledger.from.Year())
	assert.Equal(t, time.February, f.ledger.to.Month())

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/admin/ledger/summary", nil, "admin").Code)

	entry := map[string]any{"kind": "expense", "category": "fuel", "amount_paise": 250000, "entry_date": "2026-01-05T10:00:00Z"}
	assert.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/admin/ledger", entry, "admin").Code)
}

func TestPlacesRouteOnlyWhenConfigured(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/places/autocomplete?input=rk%20beach", nil, "").Code)
}
