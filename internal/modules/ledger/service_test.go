package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxihub/internal/events"
)

type memRepo struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *memRepo) Create(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.BookingRef != nil {
		for _, x := range m.entries {
			if x.BookingRef != nil && *x.BookingRef == *e.BookingRef && x.Kind == e.Kind {
				return ErrDuplicate
			}
		}
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memRepo) List(_ context.Context, from, to time.Time) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if !e.EntryDate.Before(from) && e.EntryDate.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

var day = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func TestRecordAndSummarize(t *testing.T) {
	svc := NewService(&memRepo{}, nil, nil)
	ctx := context.Background()

	_, err := svc.Record(ctx, Entry{Kind: KindIncome, Category: "Booking", Amount: 240000, EntryDate: day.Add(2 * time.Hour)})
	require.NoError(t, err)
	_, err = svc.Record(ctx, Entry{Kind: KindExpense, Category: "fuel", Amount: 50000, EntryDate: day.Add(5 * time.Hour)})
	require.NoError(t, err)
	_, err = svc.Record(ctx, Entry{Kind: KindExpense, Category: "tolls", Amount: 9000, EntryDate: day.Add(26 * time.Hour)})
	require.NoError(t, err)

	sum, err := svc.Summarize(ctx, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(240000), sum.Income)
	assert.Equal(t, int64(50000), sum.Expense)
	assert.Equal(t, int64(190000), sum.Net)
	assert.Equal(t, 2, sum.Entries)
}

func TestRecord_Validation(t *testing.T) {
	svc := NewService(&memRepo{}, nil, nil)
	ctx := context.Background()

	bad := []Entry{
		{Kind: "refund", Category: "x", Amount: 1},
		{Kind: KindIncome, Category: " ", Amount: 1},
		{Kind: KindExpense, Category: "fuel", Amount: 0},
	}
	for _, e := range bad {
		_, err := svc.Record(ctx, e)
		assert.ErrorIs(t, err, ErrBadRequest)
	}

	_, err := svc.List(ctx, day, day)
	assert.ErrorIs(t, err, ErrBadRequest)
	_, err = svc.List(ctx, day, day.AddDate(2, 0, 0))
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestPaidBookingsArePostedOnce(t *testing.T) {
	repo := &memRepo{}
	bus := events.NewBus(nil)
	svc := NewService(repo, bus, nil)
	defer svc.Close()
	ctx := context.Background()

	paid := events.BookingStatusChanged{BookingID: "b1", Number: "VTH260501ABCDEF", Kind: "booking", From: "approved", To: "paid", AmountPaise: 240000}
	bus.Publish(ctx, events.TopicBookingStatusChanged, paid)
	bus.Publish(ctx, events.TopicBookingStatusChanged, paid)
	bus.Publish(ctx, events.TopicBookingStatusChanged, events.BookingStatusChanged{BookingID: "b2", Kind: "booking", From: "pending", To: "approved", AmountPaise: 100})
	bus.Publish(ctx, events.TopicBookingStatusChanged, events.BookingStatusChanged{BookingID: "r1", Kind: "pool", From: "approved", To: "paid", AmountPaise: 65000})

	require.Len(t, repo.entries, 2)
	assert.Equal(t, CategoryBooking, repo.entries[0].Category)
	assert.Equal(t, "payment for VTH260501ABCDEF", repo.entries[0].Note)
	assert.Equal(t, CategoryPool, repo.entries[1].Category)
	assert.Equal(t, int64(65000), repo.entries[1].Amount)
}
