// README: Booking status notifications dispatched off the event bus by a background worker.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"taxihub/internal/events"
	"taxihub/internal/logging"
	"taxihub/internal/types"
)

const (
	queueSize   = 256
	sendTimeout = 15 * time.Second
)

// Notifier sends email and SMS for booking status changes. A nil channel is skipped.
type Notifier struct {
	mailer Mailer
	texter Texter
	log    *zap.Logger

	queue  chan events.BookingStatusChanged
	unsub  func()
	mu     sync.Mutex
	closed bool
	once   sync.Once
	wg     sync.WaitGroup
}

func NewNotifier(mailer Mailer, texter Texter, bus *events.Bus, log *zap.Logger) *Notifier {
	n := &Notifier{
		mailer: mailer,
		texter: texter,
		log:    logging.OrNop(log),
		queue:  make(chan events.BookingStatusChanged, queueSize),
	}
	if bus != nil {
		n.unsub = bus.Subscribe(events.TopicBookingStatusChanged, n.enqueue)
	}
	n.wg.Add(1)
	go n.run()
	return n
}

// Close stops accepting events, drains the queue and waits for the worker.
func (n *Notifier) Close() {
	n.once.Do(func() {
		if n.unsub != nil {
			n.unsub()
		}
		n.mu.Lock()
		n.closed = true
		close(n.queue)
		n.mu.Unlock()
	})
	n.wg.Wait()
}

func (n *Notifier) enqueue(_ context.Context, e events.Event) {
	change, ok := e.Payload.(events.BookingStatusChanged)
	if !ok {
		return
	}
	// a publish that snapshotted handlers before unsubscribe can still land here
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	select {
	case n.queue <- change:
	default:
		n.log.Warn("notification queue full, dropping", zap.String("booking_id", change.BookingID), zap.String("to", change.To))
	}
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for change := range n.queue {
		n.deliver(change)
	}
}

func (n *Notifier) deliver(change events.BookingStatusChanged) {
	msg, ok := compose(change)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if n.mailer != nil && change.Contact.Email != "" {
		err := n.mailer.SendEmail(ctx, Email{
			ToEmail: change.Contact.Email,
			ToName:  change.Contact.Name,
			Subject: msg.subject,
			Text:    msg.text,
			HTML:    "<p>" + strings.ReplaceAll(html.EscapeString(msg.text), "\n", "<br>") + "</p>",
		})
		if err != nil {
			n.log.Warn("booking email failed", zap.String("booking_id", change.BookingID), zap.Error(err))
		}
	}
	if n.texter != nil && change.Contact.Phone != "" {
		if err := n.texter.SendSMS(ctx, E164(change.Contact.Phone), msg.sms); err != nil {
			n.log.Warn("booking sms failed", zap.String("booking_id", change.BookingID), zap.Error(err))
		}
	}
}

type message struct {
	subject string
	text    string
	sms     string
}

// compose returns false for transitions that do not warrant a message.
func compose(c events.BookingStatusChanged) (message, bool) {
	ref := c.Number
	if ref == "" {
		ref = c.BookingID
	}
	what := "Booking"
	if c.Kind == "pool" {
		what = "Seat request"
	}
	name := c.Contact.Name
	if name == "" {
		name = "there"
	}
	amount := types.Money{Amount: c.AmountPaise, Currency: types.CurrencyINR}

	var line string
	switch c.To {
	case "pending":
		line = fmt.Sprintf("%s %s received. We will confirm shortly.", what, ref)
	case "approved":
		line = fmt.Sprintf("%s %s is confirmed. Amount due: Rs %.2f.", what, ref, amount.Rupees())
	case "paid":
		line = fmt.Sprintf("Payment of Rs %.2f received for %s. Thank you!", amount.Rupees(), ref)
	case "rejected":
		line = fmt.Sprintf("Sorry, %s %s could not be accepted.", strings.ToLower(what), ref)
	case "cancelled":
		line = fmt.Sprintf("%s %s has been cancelled.", what, ref)
	case "completed":
		line = fmt.Sprintf("Trip %s completed. Thanks for riding with Vizag Taxi Hub.", ref)
	default:
		return message{}, false
	}
	if c.Reason != "" && (c.To == "rejected" || c.To == "cancelled") {
		line += " Reason: " + c.Reason
	}
	return message{
		subject: fmt.Sprintf("Vizag Taxi Hub: %s %s %s", what, ref, c.To),
		text:    fmt.Sprintf("Hi %s,\n%s", name, line),
		sms:     "Vizag Taxi Hub: " + line,
	}, true
}
