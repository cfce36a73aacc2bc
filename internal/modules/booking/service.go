// README: Booking service implements the status machine with optimistic persistence.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"taxihub/internal/events"
	"taxihub/internal/logging"
	"taxihub/internal/modules/pricing"
	"taxihub/internal/types"
)

var (
	ErrInvalidState   = errors.New("invalid state transition")
	ErrNotFound       = errors.New("booking not found")
	ErrConflict       = errors.New("booking state conflict")
	ErrBadRequest     = errors.New("bad request")
	ErrDeadlinePassed = errors.New("cancellation window closed")
	ErrForbidden      = errors.New("booking belongs to another passenger")
)

const (
	ActorPassenger = "passenger"
	ActorAdmin     = "admin"
	ActorSystem    = "system"
	ActorPayment   = "payment"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	List(ctx context.Context, f Filter) ([]Booking, error)
	ListPaidBefore(ctx context.Context, cutoff time.Time) ([]Booking, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, u Update) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
}

// Update carries the optional columns written with a status change.
type Update struct {
	Reason     *string
	PaymentRef *string
	At         time.Time
}

// FareQuoter prices a trip in rupees.
type FareQuoter interface {
	GetFare(ctx context.Context, req pricing.Request) (float64, error)
}

type Service struct {
	repo  Repository
	fares FareQuoter
	bus   *events.Bus
	log   *zap.Logger
	now   func() time.Time
}

func NewService(repo Repository, fares FareQuoter, bus *events.Bus, log *zap.Logger) *Service {
	return &Service{repo: repo, fares: fares, bus: bus, log: logging.OrNop(log), now: time.Now}
}

type CreateCommand struct {
	PassengerUID   string
	PassengerName  string
	PassengerPhone string
	PassengerEmail string
	VehicleID      string
	TripType       types.TripType
	TripMode       types.TripMode
	PackageID      string
	PickupLocation string
	DropLocation   string
	PickupAt       time.Time
	ReturnAt       *time.Time
	DistanceKm     float64
}

type CancelCommand struct {
	BookingID types.ID
	ActorType string
	ActorID   string
	Reason    string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if err := validateCreate(cmd, s.now()); err != nil {
		return nil, err
	}
	vehicleID := types.NormalizeVehicleID(cmd.VehicleID)
	packageID := ""
	if cmd.TripType == types.TripLocal {
		packageID = types.NormalizePackageID(cmd.PackageID)
		if packageID == "" {
			packageID = types.DefaultPackage
		}
	}
	mode := cmd.TripMode
	if mode == "" {
		mode = types.ModeOneWay
	}

	fare, err := s.fares.GetFare(ctx, pricing.Request{
		VehicleID:  vehicleID,
		DistanceKm: cmd.DistanceKm,
		TripType:   cmd.TripType,
		TripMode:   mode,
		PackageID:  packageID,
		PickupDate: &cmd.PickupAt,
		ReturnDate: cmd.ReturnAt,
	})
	if err != nil {
		return nil, fmt.Errorf("quote fare: %w", err)
	}

	now := s.now()
	id := types.NewID()
	b := &Booking{
		ID:             id,
		Number:         bookingNumber(id, now),
		PassengerUID:   cmd.PassengerUID,
		PassengerName:  strings.TrimSpace(cmd.PassengerName),
		PassengerPhone: strings.TrimSpace(cmd.PassengerPhone),
		PassengerEmail: strings.TrimSpace(cmd.PassengerEmail),
		VehicleID:      vehicleID,
		TripType:       cmd.TripType,
		TripMode:       mode,
		PackageID:      packageID,
		PickupLocation: strings.TrimSpace(cmd.PickupLocation),
		DropLocation:   strings.TrimSpace(cmd.DropLocation),
		PickupAt:       cmd.PickupAt,
		ReturnAt:       cmd.ReturnAt,
		DistanceKm:     cmd.DistanceKm,
		Fare:           types.FromRupees(fare),
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	var actor *string
	if cmd.PassengerUID != "" {
		actor = &cmd.PassengerUID
	}
	s.record(ctx, b, StatusNone, ActorPassenger, actor, nil)
	s.log.Info("booking created", zap.String("booking_id", id.String()), zap.String("number", b.Number), zap.Int64("fare_paise", b.Fare.Amount))
	return b, nil
}

func validateCreate(cmd CreateCommand, now time.Time) error {
	switch {
	case strings.TrimSpace(cmd.PassengerName) == "":
		return fmt.Errorf("%w: passenger name required", ErrBadRequest)
	case strings.TrimSpace(cmd.PassengerPhone) == "":
		return fmt.Errorf("%w: passenger phone required", ErrBadRequest)
	case types.NormalizeVehicleID(cmd.VehicleID) == "":
		return fmt.Errorf("%w: vehicle required", ErrBadRequest)
	case strings.TrimSpace(cmd.PickupLocation) == "":
		return fmt.Errorf("%w: pickup location required", ErrBadRequest)
	case cmd.PickupAt.IsZero() || !cmd.PickupAt.After(now):
		return fmt.Errorf("%w: pickup time must be in the future", ErrBadRequest)
	case cmd.ReturnAt != nil && cmd.ReturnAt.Before(cmd.PickupAt):
		return fmt.Errorf("%w: return before pickup", ErrBadRequest)
	case cmd.DistanceKm < 0:
		return fmt.Errorf("%w: negative distance", ErrBadRequest)
	}
	switch cmd.TripType {
	case types.TripLocal:
	case types.TripOutstation, types.TripAirport:
		if cmd.DistanceKm <= 0 {
			return fmt.Errorf("%w: distance required for %s trips", ErrBadRequest, cmd.TripType)
		}
	default:
		return fmt.Errorf("%w: unknown trip type %q", ErrBadRequest, cmd.TripType)
	}
	return nil
}

// bookingNumber is the short reference printed on receipts and messages.
func bookingNumber(id types.ID, at time.Time) string {
	raw := strings.ReplaceAll(id.String(), "-", "")
	if len(raw) > 6 {
		raw = raw[:6]
	}
	return "VTH" + at.Format("060102") + strings.ToUpper(raw)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Booking, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Approve(ctx context.Context, id types.ID, adminID string) (*Booking, error) {
	return s.transition(ctx, id, StatusApproved, ActorAdmin, optional(adminID), Update{})
}

func (s *Service) Reject(ctx context.Context, id types.ID, adminID, reason string) (*Booking, error) {
	return s.transition(ctx, id, StatusRejected, ActorAdmin, optional(adminID), Update{Reason: optional(reason)})
}

// MarkPaid is idempotent for a repeated payment reference so webhook retries succeed.
func (s *Service) MarkPaid(ctx context.Context, id types.ID, paymentRef string) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == StatusPaid && b.PaymentRef != nil && *b.PaymentRef == paymentRef {
		return b, nil
	}
	return s.transitionFrom(ctx, b, StatusPaid, ActorPayment, nil, Update{PaymentRef: optional(paymentRef)})
}

func (s *Service) Complete(ctx context.Context, id types.ID, actorType string) (*Booking, error) {
	return s.transition(ctx, id, StatusCompleted, actorType, nil, Update{})
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Booking, error) {
	b, err := s.repo.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if cmd.ActorType == ActorPassenger && b.PassengerUID != "" && cmd.ActorID != b.PassengerUID {
		return nil, ErrForbidden
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return nil, ErrInvalidState
	}
	if !CanCancel(b.Status, b.PickupAt, s.now()) {
		return nil, ErrDeadlinePassed
	}
	return s.transitionFrom(ctx, b, StatusCancelled, cmd.ActorType, optional(cmd.ActorID), Update{Reason: optional(cmd.Reason)})
}

func (s *Service) Cancellation(ctx context.Context, id types.ID) (Cancellation, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return Cancellation{}, err
	}
	return Cancellation{
		BookingID: b.ID,
		Status:    b.Status,
		Deadline:  CancellationDeadline(b.PickupAt),
		CanCancel: CanCancel(b.Status, b.PickupAt, s.now()),
	}, nil
}

// CompleteDue moves paid bookings whose pickup is older than age to completed.
func (s *Service) CompleteDue(ctx context.Context, age time.Duration) (int, error) {
	due, err := s.repo.ListPaidBefore(ctx, s.now().Add(-age))
	if err != nil {
		return 0, err
	}
	done := 0
	for i := range due {
		if _, err := s.transitionFrom(ctx, &due[i], StatusCompleted, ActorSystem, nil, Update{}); err != nil {
			if errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidState) {
				continue
			}
			return done, err
		}
		done++
	}
	return done, nil
}

func (s *Service) transition(ctx context.Context, id types.ID, to Status, actorType string, actorID *string, u Update) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transitionFrom(ctx, b, to, actorType, actorID, u)
}

func (s *Service) transitionFrom(ctx context.Context, b *Booking, to Status, actorType string, actorID *string, u Update) (*Booking, error) {
	if !CanTransition(b.Status, to) {
		return nil, ErrInvalidState
	}
	u.At = s.now()
	ok, err := s.repo.UpdateStatus(ctx, b.ID, b.Status, to, b.StatusVersion, u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	from := b.Status
	next := *b
	next.Status = to
	next.StatusVersion++
	next.UpdatedAt = u.At
	if u.Reason != nil {
		next.CancelReason = u.Reason
	}
	if u.PaymentRef != nil {
		next.PaymentRef = u.PaymentRef
	}
	s.record(ctx, &next, from, actorType, actorID, u.Reason)
	return &next, nil
}

// record appends the audit event and publishes the change. Audit failures are logged only.
func (s *Service) record(ctx context.Context, b *Booking, from Status, actorType string, actorID, reason *string) {
	if err := s.repo.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: from,
		ToStatus:   b.Status,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  b.UpdatedAt,
	}); err != nil {
		s.log.Warn("append booking event failed", zap.String("booking_id", b.ID.String()), zap.Error(err))
	}
	payload := events.BookingStatusChanged{
		BookingID:   b.ID.String(),
		Number:      b.Number,
		Kind:        "booking",
		From:        string(from),
		To:          string(b.Status),
		AmountPaise: b.Fare.Amount,
		Contact:     events.Contact{Name: b.PassengerName, Email: b.PassengerEmail, Phone: b.PassengerPhone},
	}
	if reason != nil {
		payload.Reason = *reason
	}
	s.bus.Publish(ctx, events.TopicBookingStatusChanged, payload)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
