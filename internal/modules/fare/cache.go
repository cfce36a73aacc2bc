// README: In-memory TTL cache of computed fares.
package fare

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"taxihub/internal/modules/pricing"
	"taxihub/internal/types"
)

const DefaultTTL = 15 * time.Minute

type entry struct {
	value     float64
	expiresAt time.Time
}

type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	gen     uint64
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl, entries: make(map[string]entry), now: time.Now}
}

// Get never returns an entry at or past its expiry; such entries are evicted.
func (c *Cache) Get(key string) (float64, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expiresAt == e.expiresAt {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return 0, false
	}
	return e.value, true
}

func (c *Cache) Set(key string, v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: v, expiresAt: c.now().Add(c.ttl)}
}

// SetIf stores v only when no Clear happened since gen was read. It reports whether v was stored.
func (c *Cache) SetIf(key string, v float64, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.entries[key] = entry{value: v, expiresAt: c.now().Add(c.ttl)}
	return true
}

// Generation changes on every Clear.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.gen++
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Key builds the cache key from every input that changes the price.
func Key(req pricing.Request) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
		types.NormalizeVehicleID(req.VehicleID),
		strconv.FormatFloat(req.DistanceKm, 'f', 2, 64),
		req.TripType,
		req.TripMode,
		types.NormalizePackageID(req.PackageID),
		dateKey(req.PickupDate),
		dateKey(req.ReturnDate),
	)
}

func packageKey(packageID, vehicleType string) string {
	return "pkg|" + types.NormalizePackageID(packageID) + "|" + types.NormalizeVehicleID(vehicleType)
}

func dateKey(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
