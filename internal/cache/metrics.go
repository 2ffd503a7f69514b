package cache

import (
	"sync/atomic"
	"time"
)

// Observer receives cache outcomes, e.g. to export them as Prometheus
// counters. layer is "l1" or "l2".
type Observer interface {
	CacheHit(layer string)
	CacheMiss()
}

type CacheMetrics struct {
	L1Hits   atomic.Int64
	L2Hits   atomic.Int64
	Misses   atomic.Int64
	Errors   atomic.Int64
	Sets     atomic.Int64
	Deletes  atomic.Int64
	started  time.Time
	observer Observer
}

func NewCacheMetrics(observer Observer) *CacheMetrics {
	return &CacheMetrics{started: time.Now(), observer: observer}
}

func (m *CacheMetrics) recordHit(layer string) {
	if layer == "l1" {
		m.L1Hits.Add(1)
	} else {
		m.L2Hits.Add(1)
	}
	if m.observer != nil {
		m.observer.CacheHit(layer)
	}
}

func (m *CacheMetrics) recordMiss() {
	m.Misses.Add(1)
	if m.observer != nil {
		m.observer.CacheMiss()
	}
}

func (m *CacheMetrics) recordError() {
	m.Errors.Add(1)
}

// HitRate is the percentage of lookups answered by either level.
func (m *CacheMetrics) HitRate() float64 {
	hits := m.L1Hits.Load() + m.L2Hits.Load()
	total := hits + m.Misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

func (m *CacheMetrics) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"l1_hits":        m.L1Hits.Load(),
		"l2_hits":        m.L2Hits.Load(),
		"misses":         m.Misses.Load(),
		"errors":         m.Errors.Load(),
		"sets":           m.Sets.Load(),
		"deletes":        m.Deletes.Load(),
		"hit_rate":       m.HitRate(),
		"uptime_seconds": int64(time.Since(m.started).Seconds()),
	}
}
