// README: Pool service: ride publishing, search and the seat request workflow.
package pooling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"taxihub/internal/events"
	"taxihub/internal/logging"
	"taxihub/internal/modules/booking"
	"taxihub/internal/types"
)

var (
	ErrRideNotFound    = errors.New("ride not found")
	ErrRequestNotFound = errors.New("seat request not found")
	ErrNoSeats         = errors.New("not enough seats")
	ErrBadRequest      = errors.New("bad request")
	ErrForbidden       = errors.New("not allowed for this ride")
	ErrRideClosed      = errors.New("ride is not open for requests")
	ErrRideHasPaid     = errors.New("ride has paid seat requests")
)

const defaultSearchLimit = 50

type Repository interface {
	CreateRide(ctx context.Context, r *Ride) error
	GetRide(ctx context.Context, id types.ID) (*Ride, error)
	SearchRides(ctx context.Context, q SearchQuery) ([]Ride, error)
	CreateRequest(ctx context.Context, r *SeatRequest) error
	GetRequest(ctx context.Context, id types.ID) (*SeatRequest, error)
	ListPaidDepartedBefore(ctx context.Context, cutoff time.Time) ([]SeatRequest, error)
	UpdateRequestStatus(ctx context.Context, id types.ID, from, to booking.Status, version int, u booking.Update) (bool, error)
	ReserveSeats(ctx context.Context, req *SeatRequest, at time.Time) error
	ReleaseSeats(ctx context.Context, req *SeatRequest, to booking.Status, u booking.Update) error
	// CancelRide closes the ride and moves its open requests per rideCancelTarget in one transaction.
	// It returns those requests as they were before the change.
	CancelRide(ctx context.Context, rideID types.ID, u booking.Update) ([]SeatRequest, error)
	CompleteRidesDepartedBefore(ctx context.Context, cutoff, at time.Time) (int, error)
}

type Service struct {
	repo Repository
	bus  *events.Bus
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo Repository, bus *events.Bus, log *zap.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: logging.OrNop(log), now: time.Now}
}

type PublishCommand struct {
	ProviderUID   string
	ProviderName  string
	ProviderPhone string
	VehicleID     string
	FromCity      string
	ToCity        string
	DepartAt      time.Time
	Seats         int
	PricePerSeat  float64
	Notes         string
}

type SeatCommand struct {
	RideID         types.ID
	PassengerUID   string
	PassengerName  string
	PassengerPhone string
	PassengerEmail string
	Seats          int
}

func (s *Service) PublishRide(ctx context.Context, cmd PublishCommand) (*Ride, error) {
	now := s.now()
	switch {
	case cmd.ProviderUID == "":
		return nil, fmt.Errorf("%w: provider required", ErrBadRequest)
	case normalizeCity(cmd.FromCity) == "" || normalizeCity(cmd.ToCity) == "":
		return nil, fmt.Errorf("%w: from and to cities required", ErrBadRequest)
	case normalizeCity(cmd.FromCity) == normalizeCity(cmd.ToCity):
		return nil, fmt.Errorf("%w: from and to cities must differ", ErrBadRequest)
	case !cmd.DepartAt.After(now):
		return nil, fmt.Errorf("%w: departure must be in the future", ErrBadRequest)
	case cmd.Seats <= 0 || cmd.Seats > 50:
		return nil, fmt.Errorf("%w: seats must be between 1 and 50", ErrBadRequest)
	case cmd.PricePerSeat <= 0:
		return nil, fmt.Errorf("%w: price per seat must be positive", ErrBadRequest)
	}
	r := &Ride{
		ID:             types.NewID(),
		ProviderUID:    cmd.ProviderUID,
		ProviderName:   strings.TrimSpace(cmd.ProviderName),
		ProviderPhone:  strings.TrimSpace(cmd.ProviderPhone),
		VehicleID:      types.NormalizeVehicleID(cmd.VehicleID),
		FromCity:       normalizeCity(cmd.FromCity),
		ToCity:         normalizeCity(cmd.ToCity),
		DepartAt:       cmd.DepartAt,
		TotalSeats:     cmd.Seats,
		AvailableSeats: cmd.Seats,
		PricePerSeat:   types.FromRupees(cmd.PricePerSeat),
		Notes:          strings.TrimSpace(cmd.Notes),
		Status:         RideActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateRide(ctx, r); err != nil {
		return nil, err
	}
	s.log.Info("pool ride published", zap.String("ride_id", r.ID.String()), zap.String("from", r.FromCity), zap.String("to", r.ToCity))
	return r, nil
}

func (s *Service) GetRide(ctx context.Context, id types.ID) (*Ride, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	return s.repo.GetRide(ctx, id)
}

func (s *Service) Search(ctx context.Context, q SearchQuery) ([]Ride, error) {
	q.FromCity = normalizeCity(q.FromCity)
	q.ToCity = normalizeCity(q.ToCity)
	if q.Seats <= 0 {
		q.Seats = 1
	}
	if q.Limit <= 0 || q.Limit > defaultSearchLimit {
		q.Limit = defaultSearchLimit
	}
	return s.repo.SearchRides(ctx, q)
}

func (s *Service) GetRequest(ctx context.Context, id types.ID) (*SeatRequest, error) {
	return s.repo.GetRequest(ctx, id)
}

func (s *Service) RequestSeats(ctx context.Context, cmd SeatCommand) (*SeatRequest, error) {
	if cmd.Seats <= 0 {
		return nil, fmt.Errorf("%w: seats must be positive", ErrBadRequest)
	}
	if strings.TrimSpace(cmd.PassengerName) == "" || strings.TrimSpace(cmd.PassengerPhone) == "" {
		return nil, fmt.Errorf("%w: passenger name and phone required", ErrBadRequest)
	}
	ride, err := s.repo.GetRide(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if ride.Status != RideActive || !ride.DepartAt.After(now) {
		return nil, ErrRideClosed
	}
	if ride.ProviderUID == cmd.PassengerUID {
		return nil, fmt.Errorf("%w: providers cannot book their own ride", ErrForbidden)
	}
	if cmd.Seats > ride.AvailableSeats {
		return nil, ErrNoSeats
	}
	req := &SeatRequest{
		ID:             types.NewID(),
		RideID:         ride.ID,
		PassengerUID:   cmd.PassengerUID,
		PassengerName:  strings.TrimSpace(cmd.PassengerName),
		PassengerPhone: strings.TrimSpace(cmd.PassengerPhone),
		PassengerEmail: strings.TrimSpace(cmd.PassengerEmail),
		Seats:          cmd.Seats,
		Amount:         types.Money{Amount: ride.PricePerSeat.Amount * int64(cmd.Seats), Currency: ride.PricePerSeat.Currency},
		Status:         booking.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, err
	}
	s.publish(ctx, req, booking.StatusNone, "")
	return req, nil
}

// Approve reserves the requested seats. Only the ride's provider may approve.
func (s *Service) Approve(ctx context.Context, requestID types.ID, providerUID string) (*SeatRequest, error) {
	req, _, err := s.ownedRequest(ctx, requestID, providerUID)
	if err != nil {
		return nil, err
	}
	if !booking.CanTransition(req.Status, booking.StatusApproved) {
		return nil, booking.ErrInvalidState
	}
	at := s.now()
	if err := s.repo.ReserveSeats(ctx, req, at); err != nil {
		return nil, err
	}
	return s.applied(ctx, req, booking.StatusApproved, booking.Update{At: at}), nil
}

func (s *Service) Reject(ctx context.Context, requestID types.ID, providerUID, reason string) (*SeatRequest, error) {
	req, _, err := s.ownedRequest(ctx, requestID, providerUID)
	if err != nil {
		return nil, err
	}
	return s.simple(ctx, req, booking.StatusRejected, booking.Update{Reason: optional(reason)})
}

// Cancel is the passenger's withdrawal; seats held by an approved request go back to the ride.
func (s *Service) Cancel(ctx context.Context, requestID types.ID, passengerUID, reason string) (*SeatRequest, error) {
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.PassengerUID != "" && req.PassengerUID != passengerUID {
		return nil, ErrForbidden
	}
	ride, err := s.repo.GetRide(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	if !booking.CanTransition(req.Status, booking.StatusCancelled) {
		return nil, booking.ErrInvalidState
	}
	if !booking.CanCancel(req.Status, ride.DepartAt, s.now()) {
		return nil, booking.ErrDeadlinePassed
	}
	u := booking.Update{Reason: optional(reason), At: s.now()}
	if req.HoldsSeats() {
		if err := s.repo.ReleaseSeats(ctx, req, booking.StatusCancelled, u); err != nil {
			return nil, err
		}
		return s.applied(ctx, req, booking.StatusCancelled, u), nil
	}
	return s.simple(ctx, req, booking.StatusCancelled, u)
}

// MarkPaid is idempotent for a repeated payment reference.
func (s *Service) MarkPaid(ctx context.Context, requestID types.ID, paymentRef string) (*SeatRequest, error) {
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status == booking.StatusPaid && req.PaymentRef != nil && *req.PaymentRef == paymentRef {
		return req, nil
	}
	return s.simple(ctx, req, booking.StatusPaid, booking.Update{PaymentRef: optional(paymentRef)})
}

// CancelRide withdraws a ride before departure. Pending requests are rejected and approved ones
// cancelled; a ride with paid requests cannot be withdrawn.
func (s *Service) CancelRide(ctx context.Context, rideID types.ID, providerUID, reason string) (*Ride, error) {
	ride, err := s.GetRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.ProviderUID != providerUID {
		return nil, ErrForbidden
	}
	now := s.now()
	if (ride.Status != RideActive && ride.Status != RideFull) || !ride.DepartAt.After(now) {
		return nil, ErrRideClosed
	}
	u := booking.Update{Reason: optional(reason), At: now}
	affected, err := s.repo.CancelRide(ctx, ride.ID, u)
	if err != nil {
		return nil, err
	}
	for i := range affected {
		s.applied(ctx, &affected[i], rideCancelTarget(affected[i].Status), u)
	}
	ride.Status = RideCancelled
	ride.AvailableSeats = ride.TotalSeats
	ride.UpdatedAt = now
	s.log.Info("pool ride cancelled", zap.String("ride_id", ride.ID.String()), zap.Int("requests", len(affected)))
	return ride, nil
}

// rideCancelTarget is where an open request goes when its ride is withdrawn.
func rideCancelTarget(st booking.Status) booking.Status {
	if st == booking.StatusPending {
		return booking.StatusRejected
	}
	return booking.StatusCancelled
}

// CompleteDue completes paid requests on rides that departed more than age ago, then the rides.
func (s *Service) CompleteDue(ctx context.Context, age time.Duration) (int, error) {
	cutoff := s.now().Add(-age)
	due, err := s.repo.ListPaidDepartedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	done := 0
	for i := range due {
		if _, err := s.simple(ctx, &due[i], booking.StatusCompleted, booking.Update{}); err != nil {
			if errors.Is(err, booking.ErrConflict) || errors.Is(err, booking.ErrInvalidState) {
				continue
			}
			return done, err
		}
		done++
	}
	rides, err := s.repo.CompleteRidesDepartedBefore(ctx, cutoff, s.now())
	if err != nil {
		return done, err
	}
	if rides > 0 {
		s.log.Info("pool rides completed", zap.Int("rides", rides))
	}
	return done, nil
}

func (s *Service) ownedRequest(ctx context.Context, requestID types.ID, providerUID string) (*SeatRequest, *Ride, error) {
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	ride, err := s.repo.GetRide(ctx, req.RideID)
	if err != nil {
		return nil, nil, err
	}
	if ride.ProviderUID != providerUID {
		return nil, nil, ErrForbidden
	}
	return req, ride, nil
}

func (s *Service) simple(ctx context.Context, req *SeatRequest, to booking.Status, u booking.Update) (*SeatRequest, error) {
	if !booking.CanTransition(req.Status, to) {
		return nil, booking.ErrInvalidState
	}
	if u.At.IsZero() {
		u.At = s.now()
	}
	ok, err := s.repo.UpdateRequestStatus(ctx, req.ID, req.Status, to, req.StatusVersion, u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, booking.ErrConflict
	}
	return s.applied(ctx, req, to, u), nil
}

func (s *Service) applied(ctx context.Context, req *SeatRequest, to booking.Status, u booking.Update) *SeatRequest {
	from := req.Status
	next := *req
	next.Status = to
	next.StatusVersion++
	next.UpdatedAt = u.At
	if u.Reason != nil {
		next.CancelReason = u.Reason
	}
	if u.PaymentRef != nil {
		next.PaymentRef = u.PaymentRef
	}
	reason := ""
	if u.Reason != nil {
		reason = *u.Reason
	}
	s.publish(ctx, &next, from, reason)
	return &next
}

func (s *Service) publish(ctx context.Context, req *SeatRequest, from booking.Status, reason string) {
	s.bus.Publish(ctx, events.TopicBookingStatusChanged, events.BookingStatusChanged{
		BookingID:   req.ID.String(),
		Kind:        "pool",
		From:        string(from),
		To:          string(req.Status),
		AmountPaise: req.Amount.Amount,
		Reason:      reason,
		Contact:     events.Contact{Name: req.PassengerName, Email: req.PassengerEmail, Phone: req.PassengerPhone},
	})
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
