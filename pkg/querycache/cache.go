// Package querycache implements the bounded, weighted response cache with
// a custom per-key-family expiry policy (C9), plus the background series
// refresh scheduler in refresh.go. The base eviction structure is built on
// the teacher's hashicorp/golang-lru building block; weight tracking, TTL,
// TTI and the hot-key expiry extension are layered on top, since no pack
// library offers that combination (see DESIGN.md).
package querycache

import (
	"math"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// cacheLookups counts Get calls by outcome, mirroring the teacher's
// promauto-registered query counters (engine.go's QueriesBlocked) applied
// to this gateway's own hot path.
var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "qrygw",
	Subsystem: "querycache",
	Name:      "lookups_total",
	Help:      "Cache Get calls by outcome (hit, miss, expired, idle_evicted).",
}, []string{"outcome"})

// SeriesIndexKey is the fixed cache key the label-refresh task stores the
// full serialized series list under.
const SeriesIndexKey = "series-index"

// LabelValuesKeyPrefix identifies cache keys holding a cached label-values
// response; these, together with SeriesIndexKey, get the expiry-extending
// treatment on update instead of a flat TTL.
const LabelValuesKeyPrefix = "label-values:"

func isHotKey(key string) bool {
	return key == SeriesIndexKey || strings.HasPrefix(key, LabelValuesKeyPrefix)
}

type entry struct {
	value      []byte
	expiresAt  time.Time
	lastAccess time.Time
}

// Options configures the cache's capacity and expiry windows.
type Options struct {
	MaxCapacityBytes int64
	TimeToLive       time.Duration
	TimeToIdle       time.Duration
	// ExtendDuration is the minimum remaining TTL a hot-key update
	// guarantees; see the package doc.
	ExtendDuration time.Duration
}

// Cache is the bounded weighted key-value store described by C9. The
// stored value is an immutable byte buffer; capacity is tracked by summed
// buffer length, saturating at math.MaxUint32 per entry.
type Cache struct {
	mu       sync.Mutex
	opts     Options
	lru      *lru.LRU[string, *entry]
	curBytes int64
}

func New(opts Options) *Cache {
	c := &Cache{opts: opts}
	l, _ := lru.NewLRU[string, *entry](math.MaxInt32, func(_ string, e *entry) {
		c.curBytes -= weight(e.value)
	})
	c.lru = l
	return c
}

func weight(v []byte) int64 {
	w := int64(len(v))
	if w > math.MaxUint32 {
		return math.MaxUint32
	}
	return w
}

// Set inserts value under key. Hot keys (the series index key, or any
// label-values-prefixed key) get their expiry extended rather than reset:
// the next expiry is max(current_remaining, ExtendDuration).
func (c *Cache) Set(key string, value []byte) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := now.Add(c.opts.TimeToLive)
	if old, ok := c.lru.Get(key); ok {
		if isHotKey(key) {
			remaining := old.expiresAt.Sub(now)
			extend := c.opts.ExtendDuration
			if remaining > extend {
				expiresAt = old.expiresAt
			} else {
				expiresAt = now.Add(extend)
			}
		}
		c.lru.Remove(key)
	}

	e := &entry{value: value, expiresAt: expiresAt, lastAccess: now}
	c.lru.Add(key, e)
	c.curBytes += weight(value)

	for c.curBytes > c.opts.MaxCapacityBytes && c.lru.Len() > 0 {
		c.lru.RemoveOldest()
	}
}

// Get returns the cached value for key. A missing or expired entry is a
// cache miss, never an error (cache-lookup failures are treated as
// misses per the error-handling design).
func (c *Cache) Get(key string) ([]byte, bool) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		cacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	if now.After(e.expiresAt) {
		c.lru.Remove(key)
		cacheLookups.WithLabelValues("expired").Inc()
		return nil, false
	}
	if c.opts.TimeToIdle > 0 {
		if now.Sub(e.lastAccess) > c.opts.TimeToIdle {
			c.lru.Remove(key)
			cacheLookups.WithLabelValues("idle_evicted").Inc()
			return nil, false
		}
		e.lastAccess = now
	}
	cacheLookups.WithLabelValues("hit").Inc()
	return e.value, true
}

// Len reports the number of live entries (expired entries still counted
// until their next Get/Set eviction, matching a standard lazy-TTL cache).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// LabelValuesKey builds the cache key for a label's cached values response.
func LabelValuesKey(label string) string {
	return LabelValuesKeyPrefix + label
}
