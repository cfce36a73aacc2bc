// README: Typed in-process publish/subscribe bus for fare, vehicle and booking notifications.
package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"taxihub/internal/logging"
)

type Topic string

const (
	TopicLocalFaresUpdated     Topic = "local-fares-updated"
	TopicHourlyPackageSelected Topic = "hourly-package-selected"
	TopicVehiclesUpdated       Topic = "vehicles-updated"
	TopicFareUpdated           Topic = "fare-updated"
	TopicFareError             Topic = "fare-error"
	TopicBookingStatusChanged  Topic = "booking-status-changed"
)

type Event struct {
	Topic   Topic     `json:"topic"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// FareError is the payload of TopicFareError; it stands in for the user-facing toast.
type FareError struct {
	VehicleID string `json:"vehicle_id"`
	TripType  string `json:"trip_type"`
	Message   string `json:"message"`
}

type FaresUpdated struct {
	TripType  string `json:"trip_type"`
	VehicleID string `json:"vehicle_id,omitempty"`
}

type PackageSelected struct {
	PackageID   string  `json:"package_id"`
	VehicleType string  `json:"vehicle_type"`
	Price       float64 `json:"price"`
}

// BookingStatusChanged is published for bookings (Kind "booking") and pool seat requests (Kind "pool").
type BookingStatusChanged struct {
	BookingID   string  `json:"booking_id"`
	Number      string  `json:"number,omitempty"`
	Kind        string  `json:"kind"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	AmountPaise int64   `json:"amount_paise,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	Contact     Contact `json:"contact"`
}

type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Handler func(ctx context.Context, e Event)

type subscription struct {
	id uint64
	fn Handler
}

type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic][]subscription
	all    []subscription
	log    *zap.Logger
	now    func() time.Time
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{
		subs: make(map[Topic][]subscription),
		log:  logging.OrNop(log),
		now:  time.Now,
	}
}

// Subscribe registers fn for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic Topic, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, fn: fn})
	return func() { b.remove(topic, id) }
}

// SubscribeAll receives every published event regardless of topic.
func (b *Bus) SubscribeAll(fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, fn: fn})
	return func() { b.remove("", id) }
}

func (b *Bus) remove(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.all
	if topic != "" {
		list = b.subs[topic]
	}
	out := list[:0:0]
	for _, s := range list {
		if s.id != id {
			out = append(out, s)
		}
	}
	if topic == "" {
		b.all = out
	} else {
		b.subs[topic] = out
	}
}

// Publish delivers synchronously, in subscription order. A panicking handler is logged and skipped.
func (b *Bus) Publish(ctx context.Context, topic Topic, payload any) {
	if b == nil {
		return
	}
	e := Event{Topic: topic, Payload: payload, At: b.now()}

	b.mu.RLock()
	targets := make([]subscription, 0, len(b.subs[topic])+len(b.all))
	targets = append(targets, b.subs[topic]...)
	targets = append(targets, b.all...)
	b.mu.RUnlock()

	for _, s := range targets {
		b.deliver(ctx, s.fn, e)
	}
}

func (b *Bus) deliver(ctx context.Context, fn Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked", zap.String("topic", string(e.Topic)), zap.Any("panic", r))
		}
	}()
	fn(ctx, e)
}
