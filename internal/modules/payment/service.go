// README: Checkout creation for approved bookings and seat requests, and webhook settlement.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"taxihub/internal/logging"
	"taxihub/internal/modules/booking"
	"taxihub/internal/modules/pooling"
	"taxihub/internal/types"
)

var (
	ErrGateway       = errors.New("payment gateway error")
	ErrSignature     = errors.New("invalid webhook signature")
	ErrBadPayload    = errors.New("bad webhook payload")
	ErrNotPayable    = errors.New("not payable in current state")
	ErrNotConfigured = errors.New("payments not configured")
)

const (
	metaKind = "kind"
	metaID   = "reference_id"

	KindBooking = "booking"
	KindPool    = "pool"
)

type Bookings interface {
	Get(ctx context.Context, id types.ID) (*booking.Booking, error)
	MarkPaid(ctx context.Context, id types.ID, paymentRef string) (*booking.Booking, error)
}

type SeatRequests interface {
	GetRequest(ctx context.Context, id types.ID) (*pooling.SeatRequest, error)
	MarkPaid(ctx context.Context, id types.ID, paymentRef string) (*pooling.SeatRequest, error)
}

type Options struct {
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

type Service struct {
	gateway  Gateway
	bookings Bookings
	seats    SeatRequests
	opts     Options
	log      *zap.Logger
}

// NewService accepts a nil gateway; checkout then fails with ErrNotConfigured.
func NewService(gateway Gateway, bookings Bookings, seats SeatRequests, opts Options, log *zap.Logger) *Service {
	return &Service{gateway: gateway, bookings: bookings, seats: seats, opts: opts, log: logging.OrNop(log)}
}

func (s *Service) CheckoutBooking(ctx context.Context, id types.ID) (Session, error) {
	if s.gateway == nil {
		return Session{}, ErrNotConfigured
	}
	b, err := s.bookings.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if b.Status != booking.StatusApproved {
		return Session{}, fmt.Errorf("%w: booking is %s", ErrNotPayable, b.Status)
	}
	return s.gateway.CreateCheckout(ctx, CheckoutRequest{
		Kind:          KindBooking,
		ReferenceID:   b.ID.String(),
		Description:   fmt.Sprintf("Booking %s (%s, %s)", b.Number, b.VehicleID, b.TripType),
		AmountPaise:   b.Fare.Amount,
		Currency:      b.Fare.Currency,
		CustomerEmail: b.PassengerEmail,
		SuccessURL:    s.redirect(s.opts.SuccessURL, b.ID),
		CancelURL:     s.redirect(s.opts.CancelURL, b.ID),
	})
}

func (s *Service) CheckoutSeatRequest(ctx context.Context, id types.ID) (Session, error) {
	if s.gateway == nil {
		return Session{}, ErrNotConfigured
	}
	r, err := s.seats.GetRequest(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if r.Status != booking.StatusApproved {
		return Session{}, fmt.Errorf("%w: seat request is %s", ErrNotPayable, r.Status)
	}
	return s.gateway.CreateCheckout(ctx, CheckoutRequest{
		Kind:          KindPool,
		ReferenceID:   r.ID.String(),
		Description:   fmt.Sprintf("%d pool seat(s)", r.Seats),
		AmountPaise:   r.Amount.Amount,
		Currency:      r.Amount.Currency,
		CustomerEmail: r.PassengerEmail,
		SuccessURL:    s.redirect(s.opts.SuccessURL, r.ID),
		CancelURL:     s.redirect(s.opts.CancelURL, r.ID),
	})
}

func (s *Service) redirect(base string, id types.ID) string {
	if strings.Contains(base, "{id}") {
		return strings.ReplaceAll(base, "{id}", id.String())
	}
	return base
}

// HandleWebhook verifies the signature and settles completed checkouts. Other event types are ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.opts.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignature, err)
	}
	if event.Type != "checkout.session.completed" {
		s.log.Debug("ignoring stripe event", zap.String("type", string(event.Type)))
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if sess.ID == "" {
		return fmt.Errorf("%w: missing session id", ErrBadPayload)
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		s.log.Info("checkout completed without payment", zap.String("session_id", sess.ID), zap.String("payment_status", string(sess.PaymentStatus)))
		return nil
	}
	ref := types.ID(sess.Metadata[metaID])
	if ref == "" {
		ref = types.ID(sess.ClientReferenceID)
	}
	if ref == "" {
		return fmt.Errorf("%w: missing reference", ErrBadPayload)
	}

	switch sess.Metadata[metaKind] {
	case KindPool:
		_, err = s.seats.MarkPaid(ctx, ref, sess.ID)
	default:
		_, err = s.bookings.MarkPaid(ctx, ref, sess.ID)
	}
	if err != nil {
		return fmt.Errorf("settle %s: %w", ref, err)
	}
	s.log.Info("payment settled", zap.String("reference_id", ref.String()), zap.String("session_id", sess.ID))
	return nil
}
