package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishToTopicSubscribers(t *testing.T) {
	bus := NewBus(nil)
	var got []Topic
	bus.Subscribe(TopicVehiclesUpdated, func(_ context.Context, e Event) { got = append(got, e.Topic) })
	bus.Subscribe(TopicFareError, func(_ context.Context, e Event) { t.Fatalf("unexpected delivery of %s", e.Topic) })

	bus.Publish(context.Background(), TopicVehiclesUpdated, nil)
	require.Equal(t, []Topic{TopicVehiclesUpdated}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)
	calls := 0
	unsub := bus.Subscribe(TopicLocalFaresUpdated, func(context.Context, Event) { calls++ })
	bus.Publish(context.Background(), TopicLocalFaresUpdated, nil)
	unsub()
	bus.Publish(context.Background(), TopicLocalFaresUpdated, nil)
	assert.Equal(t, 1, calls)
}

func TestBus_PanickingHandlerDoesNotStopDelivery(t *testing.T) {
	bus := NewBus(nil)
	delivered := false
	bus.Subscribe(TopicFareError, func(context.Context, Event) { panic("boom") })
	bus.Subscribe(TopicFareError, func(context.Context, Event) { delivered = true })

	require.NotPanics(t, func() {
		bus.Publish(context.Background(), TopicFareError, FareError{VehicleID: "sedan"})
	})
	assert.True(t, delivered)
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus(nil)
	var mu sync.Mutex
	var topics []Topic
	unsub := bus.SubscribeAll(func(_ context.Context, e Event) {
		mu.Lock()
		defer mu.Unlock()
		topics = append(topics, e.Topic)
	})
	bus.Publish(context.Background(), TopicFareUpdated, nil)
	bus.Publish(context.Background(), TopicBookingStatusChanged, nil)
	unsub()
	bus.Publish(context.Background(), TopicFareUpdated, nil)
	assert.Equal(t, []Topic{TopicFareUpdated, TopicBookingStatusChanged}, topics)
}

func TestBus_NilIsNoop(t *testing.T) {
	var bus *Bus
	require.NotPanics(t, func() { bus.Publish(context.Background(), TopicFareUpdated, nil) })
}

type fakePublisher struct {
	channel string
	msgs    [][]byte
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.msgs = append(f.msgs, message.([]byte))
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	}
	return cmd
}

func TestRedisRelay_ForwardsJSON(t *testing.T) {
	bus := NewBus(nil)
	pub := &fakePublisher{}
	NewRedisRelay(pub, "taxihub:events", nil).Attach(bus)

	bus.Publish(context.Background(), TopicFareUpdated, FaresUpdated{TripType: "airport", VehicleID: "sedan"})

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "taxihub:events", pub.channel)
	var decoded struct {
		Topic   Topic        `json:"topic"`
		Payload FaresUpdated `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(pub.msgs[0], &decoded))
	assert.Equal(t, TopicFareUpdated, decoded.Topic)
	assert.Equal(t, "sedan", decoded.Payload.VehicleID)
}

func TestRedisRelay_PublishErrorIsSwallowed(t *testing.T) {
	bus := NewBus(nil)
	pub := &fakePublisher{err: errors.New("redis down")}
	NewRedisRelay(pub, "c", nil).Attach(bus)
	require.NotPanics(t, func() { bus.Publish(context.Background(), TopicFareUpdated, nil) })
}
