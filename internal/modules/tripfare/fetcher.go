// README: Fare fetcher with per-key throttling, a deferred fetch queue and stale-response discard.
package tripfare

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"taxihub/internal/events"
	"taxihub/internal/logging"
	"taxihub/internal/types"
)

var (
	ErrClosed     = errors.New("fetcher closed")
	ErrBadRequest = errors.New("bad fare fetch request")
)

const (
	DefaultThrottleWindow = 10 * time.Second
	DefaultRequestDelay   = 300 * time.Millisecond
	DefaultStoreTTL       = 15 * time.Minute
)

type Options struct {
	ThrottleWindow time.Duration
	RequestDelay   time.Duration
	StoreTTL       time.Duration
}

func (o Options) withDefaults() Options {
	if o.ThrottleWindow <= 0 {
		o.ThrottleWindow = DefaultThrottleWindow
	}
	if o.RequestDelay < 0 {
		o.RequestDelay = 0
	} else if o.RequestDelay == 0 {
		o.RequestDelay = DefaultRequestDelay
	}
	if o.StoreTTL <= 0 {
		o.StoreTTL = DefaultStoreTTL
	}
	return o
}

type pendingFetch struct {
	vehicleID string
	tripType  types.TripType
	extra     Params
}

// Fetcher owns the fare state of one consumer. At most one request is in flight per Fetcher; a new
// request cancels the previous one and responses to superseded requests are dropped.
type Fetcher struct {
	client Client
	store  PriceStore
	opts   Options
	log    *zap.Logger
	now    func() time.Time

	mu           sync.Mutex
	lastRequest  map[string]time.Time
	fares        map[string]float64
	pending      map[string]pendingFetch
	pendingOrder []string
	counter      uint64
	cancelFlight context.CancelFunc
	processing   bool
	timer        *time.Timer
	closed       bool

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup
	unsub      func()
}

func NewFetcher(client Client, store PriceStore, opts Options, bus *events.Bus, log *zap.Logger) *Fetcher {
	if store == nil {
		store = NewMemoryPriceStore()
	}
	ctx, cancel := context.WithCancel(context.Background())
	f := &Fetcher{
		client:      client,
		store:       store,
		opts:        opts.withDefaults(),
		log:         logging.OrNop(log),
		now:         time.Now,
		lastRequest: make(map[string]time.Time),
		fares:       make(map[string]float64),
		pending:     make(map[string]pendingFetch),
		baseCtx:     ctx,
		baseCancel:  cancel,
	}
	if bus != nil {
		f.unsub = bus.Subscribe(events.TopicLocalFaresUpdated, func(context.Context, events.Event) {
			f.Invalidate(types.TripLocal)
		})
	}
	return f
}

func requestKey(tripType types.TripType, vehicleID string) string {
	return string(tripType) + ":" + vehicleID
}

// FetchFare returns the fare of vehicleID for tripType. Within the throttle window of a previous
// request for the same key (and without forceRefresh) the key is queued for a deferred fetch and
// the last known fare is returned immediately.
func (f *Fetcher) FetchFare(ctx context.Context, vehicleID string, tripType types.TripType, extra Params, forceRefresh bool) (float64, error) {
	vid := types.NormalizeVehicleID(vehicleID)
	if vid == "" {
		return 0, fmt.Errorf("%w: missing vehicle id", ErrBadRequest)
	}
	if _, ok := parsers[tripType]; !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedTripType, tripType)
	}
	key := requestKey(tripType, vid)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return 0, ErrClosed
	}
	now := f.now()
	if last, ok := f.lastRequest[key]; ok && !forceRefresh && now.Sub(last) < f.opts.ThrottleWindow {
		f.enqueueLocked(key, pendingFetch{vehicleID: vid, tripType: tripType, extra: extra})
		f.scheduleLocked(last.Add(f.opts.ThrottleWindow).Sub(now))
		fare, known := f.fares[key]
		f.mu.Unlock()
		if !known {
			fare = f.stored(ctx, tripType, vid)
		}
		f.log.Debug("fare fetch throttled", zap.String("key", key))
		return fare, nil
	}

	f.lastRequest[key] = now
	if f.cancelFlight != nil {
		f.cancelFlight()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	f.cancelFlight = cancel
	f.counter++
	id := f.counter
	f.mu.Unlock()
	defer cancel()

	body, err := f.client.Get(reqCtx, tripType, vid, extra)
	var fare float64
	if err == nil {
		fare, err = parse(tripType, body, vid, extra)
	}

	f.mu.Lock()
	if id != f.counter {
		current := f.fares[key]
		f.mu.Unlock()
		f.log.Debug("discarding superseded fare response", zap.String("key", key), zap.Uint64("request", id))
		return current, nil
	}
	if err != nil {
		previous := f.fares[key]
		f.mu.Unlock()
		return previous, fmt.Errorf("fetch %s fare for %s: %w", tripType, vid, err)
	}
	f.fares[key] = fare
	f.mu.Unlock()

	if err := f.store.Save(ctx, StoreKey(tripType, vid), CachedPrice{Timestamp: f.now().UnixMilli(), Price: fare}, f.opts.StoreTTL); err != nil {
		f.log.Warn("persist fare failed", zap.String("key", key), zap.Error(err))
	}
	return fare, nil
}

// FetchFares fetches one vehicle at a time with RequestDelay between requests. Per-vehicle errors
// are collected; the other vehicles are still fetched.
func (f *Fetcher) FetchFares(ctx context.Context, vehicleIDs []string, tripType types.TripType, extra Params) (map[string]float64, error) {
	out := make(map[string]float64, len(vehicleIDs))
	var errs []error
	for i, id := range vehicleIDs {
		if i > 0 {
			t := time.NewTimer(f.opts.RequestDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return out, errors.Join(append(errs, ctx.Err())...)
			case <-t.C:
			}
		}
		fare, err := f.FetchFare(ctx, id, tripType, extra, false)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[types.NormalizeVehicleID(id)] = fare
	}
	return out, errors.Join(errs...)
}

// Fare is the current in-memory fare of a key.
func (f *Fetcher) Fare(tripType types.TripType, vehicleID string) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.fares[requestKey(tripType, types.NormalizeVehicleID(vehicleID))]
	return v, ok
}

// Invalidate lifts the throttle for every key of tripType so the next call goes to the network.
func (f *Fetcher) Invalidate(tripType types.TripType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := string(tripType) + ":"
	for k := range f.lastRequest {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(f.lastRequest, k)
		}
	}
}

// Close cancels in-flight and queued work and waits for the queue worker to exit.
func (f *Fetcher) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.cancelFlight != nil {
		f.cancelFlight()
	}
	f.pending = make(map[string]pendingFetch)
	f.pendingOrder = nil
	f.mu.Unlock()

	f.baseCancel()
	if f.unsub != nil {
		f.unsub()
	}
	f.wg.Wait()
}

func (f *Fetcher) stored(ctx context.Context, tripType types.TripType, vehicleID string) float64 {
	p, ok, err := f.store.Load(ctx, StoreKey(tripType, vehicleID))
	if err != nil {
		f.log.Warn("load stored fare failed", zap.String("vehicle_id", vehicleID), zap.Error(err))
		return 0
	}
	if !ok {
		return 0
	}
	return p.Price
}

func (f *Fetcher) enqueueLocked(key string, p pendingFetch) {
	if _, queued := f.pending[key]; !queued {
		f.pendingOrder = append(f.pendingOrder, key)
	}
	f.pending[key] = p
}

func (f *Fetcher) scheduleLocked(d time.Duration) {
	if f.timer != nil || f.processing {
		return
	}
	if d < 0 {
		d = 0
	}
	f.timer = time.AfterFunc(d, f.drain)
}

// drain runs queued fetches one by one. Keys still inside their window are put back and the worker
// re-arms the timer for the earliest of them.
func (f *Fetcher) drain() {
	f.mu.Lock()
	f.timer = nil
	if f.closed || f.processing {
		f.mu.Unlock()
		return
	}
	f.processing = true
	f.wg.Add(1)
	f.mu.Unlock()
	defer f.wg.Done()

	for {
		f.mu.Lock()
		if f.closed || len(f.pendingOrder) == 0 {
			f.processing = false
			f.mu.Unlock()
			return
		}
		key := f.pendingOrder[0]
		p := f.pending[key]
		if wait := f.lastRequest[key].Add(f.opts.ThrottleWindow).Sub(f.now()); wait > 0 {
			f.processing = false
			f.scheduleLocked(wait)
			f.mu.Unlock()
			return
		}
		f.pendingOrder = f.pendingOrder[1:]
		delete(f.pending, key)
		f.mu.Unlock()

		if _, err := f.FetchFare(f.baseCtx, p.vehicleID, p.tripType, p.extra, true); err != nil && !errors.Is(err, ErrClosed) {
			f.log.Warn("queued fare fetch failed", zap.String("key", key), zap.Error(err))
		}
	}
}
