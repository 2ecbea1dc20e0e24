// Package agentpool holds the cluster gateway's registry of agent
// connections: one record per agent, keyed by id, tracking where the agent
// came from, its last known health, and the gRPC channel used to dispatch
// RPCs to it.
package agentpool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rosshhun/docktail-go/internal/clock"
	"github.com/rosshhun/docktail-go/internal/events"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
	"google.golang.org/grpc"
)

// Source identifies how a record entered the pool.
type Source string

const (
	SourceStatic     Source = "static"
	SourceDiscovered Source = "discovered"
	SourceRegistered Source = "registered"
)

// Role is the agent's Swarm role, when known.
type Role string

const (
	RoleManager Role = "manager"
	RoleWorker  Role = "worker"
	RoleNone    Role = "none"
)

// Health is the pool's coarse view of an agent's reachability, derived
// from consecutive health RPC outcomes (spec §4.7).
type Health string

const (
	HealthHealthy   Health = "healthy"
	HealthDegraded  Health = "degraded"
	HealthUnhealthy Health = "unhealthy"
	HealthUnknown   Health = "unknown"
)

// Info is the static identity of an agent connection.
type Info struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Address string            `json:"address"`
	Labels  map[string]string `json:"labels,omitempty"`
	Version string            `json:"version,omitempty"`
}

// Record is the pool's entry for one agent: identity plus ephemeral
// connectivity/health state. Records are snapshotted by value for
// readers; the live copy lives only inside Pool.
type Record struct {
	Info             Info
	Source           Source
	Role             Role
	Health           Health
	LastSeen         time.Time
	consecutiveFails int

	conn   *grpc.ClientConn
	health rpcapi.HealthServiceClient
}

// Snapshot is the read-only value a caller outside the pool sees.
type Snapshot struct {
	Info     Info
	Source   Source
	Role     Role
	Health   Health
	LastSeen time.Time
}

func (r *Record) snapshot() Snapshot {
	return Snapshot{Info: r.Info, Source: r.Source, Role: r.Role, Health: r.Health, LastSeen: r.LastSeen}
}

// Dialer opens a gRPC channel to an agent's address. Production callers
// pass a function that applies the cluster gateway's mTLS credentials;
// tests pass an in-memory bufconn dialer.
type Dialer func(ctx context.Context, address string) (*grpc.ClientConn, error)

// notFoundError is returned by Get and Conn for an unknown agent id; test
// for it with IsNotFound.
type notFoundError struct{ id string }

func (e notFoundError) Error() string { return fmt.Sprintf("agentpool: agent %q not found", e.id) }

// IsNotFound reports whether err was returned because the agent id is
// absent from the pool.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// unhealthyThreshold is the number of consecutive health-check failures
// after which a record is marked Unhealthy (spec §4.7).
const unhealthyThreshold = 3

// Pool tracks every known agent connection. Mutations (insert/remove,
// health sweep) take the write lock; dispatch lookups (Get) take the read
// lock, so readers never block on each other.
type Pool struct {
	mu      sync.RWMutex
	records map[string]*Record

	clock  clock.Clock
	log    *slog.Logger
	bus    *events.Bus
	dialer Dialer
}

// New creates an empty Pool. Call Initialize to connect Static sources.
func New(c clock.Clock, log *slog.Logger, bus *events.Bus, dialer Dialer) *Pool {
	return &Pool{
		records: make(map[string]*Record),
		clock:   c,
		log:     log,
		bus:     bus,
		dialer:  dialer,
	}
}

// Initialize dials every Static-source agent and records it with health
// Unknown -- the health monitor's first sweep resolves the real state.
func (p *Pool) Initialize(ctx context.Context, statics []Info) error {
	for _, info := range statics {
		if err := p.insert(ctx, info, SourceStatic); err != nil {
			p.log.Warn("failed to dial static agent", "id", info.ID, "address", info.Address, "error", err)
			continue
		}
	}
	return nil
}

// Insert adds or replaces a record for the given source. Idempotent: a
// repeat Insert for the same id re-dials and resets health to Unknown.
func (p *Pool) Insert(ctx context.Context, info Info, source Source) error {
	return p.insert(ctx, info, source)
}

func (p *Pool) insert(ctx context.Context, info Info, source Source) error {
	conn, err := p.dialer(ctx, info.Address)
	if err != nil {
		return fmt.Errorf("dial agent %s at %s: %w", info.ID, info.Address, err)
	}

	rec := &Record{
		Info:     info,
		Source:   source,
		Role:     RoleNone,
		Health:   HealthUnknown,
		LastSeen: p.clock.Now(),
		conn:     conn,
		health:   rpcapi.NewHealthServiceClient(conn),
	}

	p.mu.Lock()
	if old, ok := p.records[info.ID]; ok && old.conn != nil {
		old.conn.Close()
	}
	p.records[info.ID] = rec
	p.mu.Unlock()

	p.bus.Publish(events.AgentEvent{Type: events.EventAgentConnected, AgentID: info.ID, Timestamp: p.clock.Now()})
	return nil
}

// Remove closes the agent's channel and drops it from the pool. Idempotent.
func (p *Pool) Remove(id string) {
	p.mu.Lock()
	rec, ok := p.records[id]
	if ok {
		delete(p.records, id)
	}
	p.mu.Unlock()

	if !ok {
		return
	}
	if rec.conn != nil {
		rec.conn.Close()
	}
	p.bus.Publish(events.AgentEvent{Type: events.EventAgentDisconnected, AgentID: id, Timestamp: p.clock.Now()})
}

// Get returns a point-in-time snapshot of the named agent's record.
func (p *Pool) Get(id string) (Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.records[id]
	if !ok {
		return Snapshot{}, notFoundError{id}
	}
	return rec.snapshot(), nil
}

// Conn returns the live gRPC channel for an agent, for RPC dispatch
// (control, log streaming, shell bridging). The channel itself is
// concurrency-safe; holding it past the call is fine.
func (p *Pool) Conn(id string) (*grpc.ClientConn, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.records[id]
	if !ok {
		return nil, notFoundError{id}
	}
	return rec.conn, nil
}

// List returns a snapshot of every record in the pool.
func (p *Pool) List() []Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Snapshot, 0, len(p.records))
	for _, rec := range p.records {
		out = append(out, rec.snapshot())
	}
	return out
}

// HealthCheckAll issues a one-shot health Check against every record and
// updates its Health field. Three consecutive failures mark a record
// Unhealthy; the first success after any number of failures returns it to
// whatever status the agent reports. Health transitions are monotone
// within one sweep (spec §5): each record changes state at most once per
// call.
func (p *Pool) HealthCheckAll(ctx context.Context, timeout time.Duration) {
	p.mu.RLock()
	ids := make([]string, 0, len(p.records))
	for id := range p.records {
		ids = append(ids, id)
	}
	p.mu.RUnlock()

	for _, id := range ids {
		p.healthCheckOne(ctx, id, timeout)
	}
}

func (p *Pool) healthCheckOne(ctx context.Context, id string, timeout time.Duration) {
	p.mu.RLock()
	rec, ok := p.records[id]
	p.mu.RUnlock()
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := rec.health.Check(cctx, &rpcapi.HealthCheckRequest{})

	p.mu.Lock()
	defer p.mu.Unlock()
	// Re-fetch: the record may have been removed while the RPC was in flight.
	rec, ok = p.records[id]
	if !ok {
		return
	}

	prev := rec.Health
	if err != nil {
		rec.consecutiveFails++
		if rec.consecutiveFails >= unhealthyThreshold {
			rec.Health = HealthUnhealthy
		} else if rec.Health == HealthHealthy {
			rec.Health = HealthDegraded
		}
	} else {
		rec.consecutiveFails = 0
		rec.Health = Health(resp.Status)
		if rec.Health == "" {
			rec.Health = HealthHealthy
		}
	}
	now := p.clock.Now()
	if rec.Source != SourceRegistered {
		// Registered records age by registration time only (ExpireRegistered).
		rec.LastSeen = now
	}

	if prev != rec.Health {
		p.bus.Publish(events.AgentEvent{
			Type:      events.EventAgentHealthChange,
			AgentID:   id,
			Message:   fmt.Sprintf("%s -> %s", prev, rec.Health),
			Timestamp: now,
		})
	}
}

// ExpireRegistered removes every Registered-source record whose LastSeen
// predates now-ttl, the TTL-expiry rule spec §4.7 assigns to that source.
// For Registered records LastSeen is refreshed only by Insert (health checks
// leave it alone), so an agent keeps its record alive by re-registering
// before ttl elapses.
func (p *Pool) ExpireRegistered(ttl time.Duration) []string {
	now := p.clock.Now()
	p.mu.RLock()
	var stale []string
	for id, rec := range p.records {
		if rec.Source == SourceRegistered && now.Sub(rec.LastSeen) > ttl {
			stale = append(stale, id)
		}
	}
	p.mu.RUnlock()

	for _, id := range stale {
		p.Remove(id)
	}
	return stale
}

// SyncDiscovered replaces every Discovered-source record with the given
// set, dialing new entries and removing ones no longer present. Static and
// Registered records are untouched.
func (p *Pool) SyncDiscovered(ctx context.Context, infos []Info) {
	seen := make(map[string]bool, len(infos))
	for _, info := range infos {
		seen[info.ID] = true
		p.mu.RLock()
		_, exists := p.records[info.ID]
		p.mu.RUnlock()
		if exists {
			continue
		}
		if err := p.insert(ctx, info, SourceDiscovered); err != nil {
			p.log.Warn("failed to dial discovered agent", "id", info.ID, "error", err)
		}
	}

	p.mu.RLock()
	var stale []string
	for id, rec := range p.records {
		if rec.Source == SourceDiscovered && !seen[id] {
			stale = append(stale, id)
		}
	}
	p.mu.RUnlock()

	for _, id := range stale {
		p.Remove(id)
	}
}
