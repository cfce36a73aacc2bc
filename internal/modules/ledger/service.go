// README: Ledger service records income and expenses and posts paid bookings automatically.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"taxihub/internal/events"
	"taxihub/internal/logging"
	"taxihub/internal/types"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrDuplicate  = errors.New("ledger entry already recorded")
)

const (
	CategoryBooking = "booking"
	CategoryPool    = "pool"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, from, to time.Time) ([]Entry, error)
}

type Service struct {
	repo  Repository
	log   *zap.Logger
	now   func() time.Time
	unsub func()
}

// NewService subscribes to booking status changes when bus is non-nil.
func NewService(repo Repository, bus *events.Bus, log *zap.Logger) *Service {
	s := &Service{repo: repo, log: logging.OrNop(log), now: time.Now}
	if bus != nil {
		s.unsub = bus.Subscribe(events.TopicBookingStatusChanged, s.onBookingStatus)
	}
	return s
}

func (s *Service) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}

func (s *Service) Record(ctx context.Context, e Entry) (*Entry, error) {
	e.Category = strings.ToLower(strings.TrimSpace(e.Category))
	switch {
	case e.Kind != KindIncome && e.Kind != KindExpense:
		return nil, fmt.Errorf("%w: kind must be income or expense", ErrBadRequest)
	case e.Category == "":
		return nil, fmt.Errorf("%w: category required", ErrBadRequest)
	case e.Amount <= 0:
		return nil, fmt.Errorf("%w: amount must be positive", ErrBadRequest)
	}
	now := s.now()
	if e.EntryDate.IsZero() {
		e.EntryDate = now
	}
	if e.Currency == "" {
		e.Currency = types.CurrencyINR
	}
	e.ID = types.NewID()
	e.CreatedAt = now
	if err := s.repo.Create(ctx, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) List(ctx context.Context, from, to time.Time) ([]Entry, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, from, to)
}

func (s *Service) Summarize(ctx context.Context, from, to time.Time) (Summary, error) {
	entries, err := s.List(ctx, from, to)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{From: from, To: to, Entries: len(entries), Currency: types.CurrencyINR}
	for _, e := range entries {
		switch e.Kind {
		case KindIncome:
			sum.Income += e.Amount
		case KindExpense:
			sum.Expense += e.Amount
		}
	}
	sum.Net = sum.Income - sum.Expense
	return sum, nil
}

func checkRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() || !to.After(from) {
		return fmt.Errorf("%w: invalid date range", ErrBadRequest)
	}
	if to.Sub(from) > 366*24*time.Hour {
		return fmt.Errorf("%w: range longer than a year", ErrBadRequest)
	}
	return nil
}

func (s *Service) onBookingStatus(ctx context.Context, e events.Event) {
	change, ok := e.Payload.(events.BookingStatusChanged)
	if !ok || change.To != "paid" || change.AmountPaise <= 0 {
		return
	}
	category := CategoryBooking
	if change.Kind == "pool" {
		category = CategoryPool
	}
	ref := change.BookingID
	note := change.Number
	if note == "" {
		note = change.BookingID
	}
	_, err := s.Record(ctx, Entry{
		Kind:       KindIncome,
		Category:   category,
		Amount:     change.AmountPaise,
		Note:       "payment for " + note,
		BookingRef: &ref,
		EntryDate:  e.At,
	})
	switch {
	case errors.Is(err, ErrDuplicate):
		s.log.Debug("booking income already posted", zap.String("booking_id", ref))
	case err != nil:
		s.log.Error("post booking income failed", zap.String("booking_id", ref), zap.Error(err))
	}
}
