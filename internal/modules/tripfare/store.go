// README: Durable price store for fetched fares (fare_<type>_<vehicleId> -> {timestamp, price}).
package tripfare

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"taxihub/internal/types"
)

type CachedPrice struct {
	Timestamp int64   `json:"timestamp"` // unix millis
	Price     float64 `json:"price"`
}

type PriceStore interface {
	Load(ctx context.Context, key string) (CachedPrice, bool, error)
	Save(ctx context.Context, key string, p CachedPrice, ttl time.Duration) error
}

func StoreKey(tripType types.TripType, vehicleID string) string {
	return "fare_" + string(tripType) + "_" + types.NormalizeVehicleID(vehicleID)
}

type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type RedisPriceStore struct {
	redis kv
}

func NewRedisPriceStore(client kv) *RedisPriceStore {
	return &RedisPriceStore{redis: client}
}

func (s *RedisPriceStore) Load(ctx context.Context, key string) (CachedPrice, bool, error) {
	raw, err := s.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return CachedPrice{}, false, nil
	}
	if err != nil {
		return CachedPrice{}, false, err
	}
	var p CachedPrice
	if err := json.Unmarshal(raw, &p); err != nil {
		return CachedPrice{}, false, err
	}
	return p, true, nil
}

func (s *RedisPriceStore) Save(ctx context.Context, key string, p CachedPrice, ttl time.Duration) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, body, ttl).Err()
}

type memEntry struct {
	price     CachedPrice
	expiresAt time.Time
}

// MemoryPriceStore is used by the CLI and tests.
type MemoryPriceStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryPriceStore() *MemoryPriceStore {
	return &MemoryPriceStore{entries: make(map[string]memEntry), now: time.Now}
}

func (s *MemoryPriceStore) Load(_ context.Context, key string) (CachedPrice, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return CachedPrice{}, false, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return CachedPrice{}, false, nil
	}
	return e.price, true, nil
}

func (s *MemoryPriceStore) Save(_ context.Context, key string, p CachedPrice, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memEntry{price: p}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}
