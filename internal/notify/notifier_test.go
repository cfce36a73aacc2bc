package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"taxihub/internal/events"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Email
	err  error
}

func (m *recordingMailer) SendEmail(_ context.Context, e Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return m.err
}

type recordingTexter struct {
	mu   sync.Mutex
	to   []string
	body []string
}

func (t *recordingTexter) SendSMS(_ context.Context, to, body string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.to = append(t.to, to)
	t.body = append(t.body, body)
	return nil
}

func TestNotifier_SendsOnStatusChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := events.NewBus(nil)
	mailer := &recordingMailer{}
	texter := &recordingTexter{}
	n := NewNotifier(mailer, texter, bus, nil)

	bus.Publish(context.Background(), events.TopicBookingStatusChanged, events.BookingStatusChanged{
		BookingID:   "b1",
		Number:      "VTH260701ABCDEF",
		Kind:        "booking",
		From:        "pending",
		To:          "approved",
		AmountPaise: 240000,
		Contact:     events.Contact{Name: "Ravi", Email: "ravi@example.com", Phone: "98480 12345"},
	})
	bus.Publish(context.Background(), events.TopicBookingStatusChanged, events.BookingStatusChanged{
		BookingID: "b2",
		Kind:      "booking",
		To:        "cancelled",
		Reason:    "flight moved",
		Contact:   events.Contact{Phone: "+91 90000 00000"},
	})
	n.Close()

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ravi@example.com", mailer.sent[0].ToEmail)
	assert.Contains(t, mailer.sent[0].Subject, "VTH260701ABCDEF")
	assert.Contains(t, mailer.sent[0].Text, "Rs 2400.00")

	require.Len(t, texter.to, 2)
	assert.Equal(t, "+919848012345", texter.to[0])
	assert.Equal(t, "+919000000000", texter.to[1])
	assert.Contains(t, texter.body[1], "Reason: flight moved")
}

func TestNotifier_FailuresAreSwallowed(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := events.NewBus(nil)
	mailer := &recordingMailer{err: errors.New("sendgrid down")}
	n := NewNotifier(mailer, nil, bus, nil)

	bus.Publish(context.Background(), events.TopicBookingStatusChanged, events.BookingStatusChanged{
		BookingID: "b1", To: "paid", AmountPaise: 100, Contact: events.Contact{Email: "x@example.com"},
	})
	n.Close()
	n.Close()

	assert.Len(t, mailer.sent, 1)
}

func TestNotifier_EventAfterCloseIsIgnored(t *testing.T) {
	defer goleak.VerifyNone(t)

	mailer := &recordingMailer{}
	n := NewNotifier(mailer, nil, nil, nil)
	n.Close()

	assert.NotPanics(t, func() {
		n.enqueue(context.Background(), events.Event{
			Topic:   events.TopicBookingStatusChanged,
			Payload: events.BookingStatusChanged{BookingID: "b1", To: "paid", Contact: events.Contact{Email: "x@example.com"}},
		})
	})
	assert.Empty(t, mailer.sent)
}

func TestNotifier_EscapesHTMLBody(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := events.NewBus(nil)
	mailer := &recordingMailer{}
	n := NewNotifier(mailer, nil, bus, nil)

	bus.Publish(context.Background(), events.TopicBookingStatusChanged, events.BookingStatusChanged{
		BookingID: "b1",
		To:        "cancelled",
		Reason:    "<b>late</b>",
		Contact:   events.Contact{Name: `<script>alert("x")</script>`, Email: "x@example.com"},
	})
	n.Close()

	require.Len(t, mailer.sent, 1)
	body := mailer.sent[0].HTML
	assert.NotContains(t, body, "<script>")
	assert.NotContains(t, body, "<b>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, mailer.sent[0].Text, "<script>", "plain text keeps the raw name")
}

func TestCompose(t *testing.T) {
	_, ok := compose(events.BookingStatusChanged{To: "none"})
	assert.False(t, ok)

	msg, ok := compose(events.BookingStatusChanged{BookingID: "r1", Kind: "pool", To: "rejected"})
	require.True(t, ok)
	assert.Equal(t, "Vizag Taxi Hub: Sorry, seat request r1 could not be accepted.", msg.sms)
	assert.Contains(t, msg.text, "Hi there")
}

func TestE164(t *testing.T) {
	cases := map[string]string{
		"9848012345":      "+919848012345",
		"09848012345":     "+919848012345",
		"919848012345":    "+919848012345",
		"+1 (415) 555-01": "+141555501",
		"12345":           "12345",
	}
	for in, want := range cases {
		assert.Equal(t, want, E164(in), in)
	}
}
