// Package submetrics implements the cluster gateway's shell bridge
// subscription counters (spec §4.9): atomic totals plus a per-agent
// active-count map that garbage-collects its own zero entries. Grounded
// on internal/parser's Stats -- the same lock-free-counter,
// occasional-critical-section shape, applied to subscriptions instead of
// parsed lines.
package submetrics

import (
	"sync"
	"sync/atomic"

	"github.com/rosshhun/docktail-go/internal/metrics"
)

// Snapshot is a point-in-time read of every counter.
type Snapshot struct {
	Active        uint64
	TotalCreated  uint64
	TotalMessages uint64
	TotalBytes    uint64
	Failed        uint64
	ActiveByAgent map[string]uint64
}

// Counters tracks shell bridge subscription activity. All counter
// operations are lock-free ("Relaxed" per spec §4.9: no ordering is
// required across counters, only a consistent self-view per counter); the
// per-agent map uses a short critical section since it's a composite
// structure a single atomic can't express.
type Counters struct {
	active        uint64
	totalCreated  uint64
	totalMessages uint64
	totalBytes    uint64
	failed        uint64

	mu      sync.Mutex
	byAgent map[string]uint64
}

// New returns an empty Counters.
func New() *Counters {
	return &Counters{byAgent: make(map[string]uint64)}
}

// SubscriptionStarted records a new subscription for agent, bumping both
// the global active/total counters and the per-agent active count.
func (c *Counters) SubscriptionStarted(agent string) {
	atomic.AddUint64(&c.active, 1)
	atomic.AddUint64(&c.totalCreated, 1)
	metrics.SubscriptionsTotal.Inc()

	c.mu.Lock()
	c.byAgent[agent]++
	n := c.byAgent[agent]
	c.mu.Unlock()
	metrics.SubscriptionsActive.WithLabelValues(agent).Set(float64(n))
}

// SubscriptionEnded decrements active and the per-agent count for agent.
// The global counter is an atomic compare-and-swap loop that refuses to
// underflow below zero; the per-agent entry is removed once it reaches
// zero, which is the GC spec §4.9 asks for.
func (c *Counters) SubscriptionEnded(agent string) {
	for {
		cur := atomic.LoadUint64(&c.active)
		if cur == 0 {
			break
		}
		if atomic.CompareAndSwapUint64(&c.active, cur, cur-1) {
			break
		}
	}

	c.mu.Lock()
	n, ok := c.byAgent[agent]
	if ok && n > 0 {
		n--
		if n == 0 {
			delete(c.byAgent, agent)
		} else {
			c.byAgent[agent] = n
		}
	}
	c.mu.Unlock()
	if n == 0 {
		metrics.SubscriptionsActive.DeleteLabelValues(agent)
	} else {
		metrics.SubscriptionsActive.WithLabelValues(agent).Set(float64(n))
	}
}

// MessageSent records one relayed frame of the given payload size.
func (c *Counters) MessageSent(bytes int) {
	atomic.AddUint64(&c.totalMessages, 1)
	atomic.AddUint64(&c.totalBytes, uint64(bytes))
	metrics.SubscriptionMessagesTotal.Inc()
	metrics.SubscriptionBytesTotal.Add(float64(bytes))
}

// SubscriptionFailed records a subscription that ended in failure (agent
// unavailable, exec create failure, stream error).
func (c *Counters) SubscriptionFailed() {
	atomic.AddUint64(&c.failed, 1)
	metrics.SubscriptionsFailedTotal.Inc()
}

// Snapshot reads every counter. The per-agent map is copied under lock so
// callers never observe a torn view.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	byAgent := make(map[string]uint64, len(c.byAgent))
	for k, v := range c.byAgent {
		byAgent[k] = v
	}
	c.mu.Unlock()

	return Snapshot{
		Active:        atomic.LoadUint64(&c.active),
		TotalCreated:  atomic.LoadUint64(&c.totalCreated),
		TotalMessages: atomic.LoadUint64(&c.totalMessages),
		TotalBytes:    atomic.LoadUint64(&c.totalBytes),
		Failed:        atomic.LoadUint64(&c.failed),
		ActiveByAgent: byAgent,
	}
}
