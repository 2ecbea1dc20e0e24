// Package inventory maintains the Agent's concurrent container-id to
// snapshot mapping: a background sync pass refreshes it wholesale on a
// fixed interval, while inspect RPCs hot-patch individual entries between
// passes (spec §4.2).
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/moby/moby/api/types/container"
	"github.com/robfig/cron/v3"

	"github.com/rosshhun/docktail-go/internal/docker"
	"github.com/rosshhun/docktail-go/internal/metrics"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
)

// Snapshot is the Inventory Store's unit of record, identical in shape to
// the wire-level rpcapi.ContainerSnapshot; kept as a distinct type so the
// store doesn't depend on the RPC layer's message shapes changing.
type Snapshot struct {
	ID        string
	Name      string
	Image     string
	State     string
	Labels    map[string]string
	CreatedAt time.Time
}

func (s Snapshot) toWire() *rpcapi.ContainerSnapshot {
	return &rpcapi.ContainerSnapshot{
		ID: s.ID, Name: s.Name, Image: s.Image, State: s.State,
		Labels: s.Labels, CreatedAt: s.CreatedAt,
	}
}

func fromEngineSummary(c container.Summary) Snapshot {
	name := c.ID
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}
	return Snapshot{
		ID:        c.ID,
		Name:      name,
		Image:     c.Image,
		State:     c.State,
		Labels:    c.Labels,
		CreatedAt: time.Unix(c.Created, 0).UTC(),
	}
}

// Store is a concurrent container-id keyed map. Readers take per-entry
// snapshots by value; the only writers are the periodic sync pass and
// inspect RPCs.
type Store struct {
	mu       sync.RWMutex
	byID     map[string]Snapshot
	engine   docker.API
	interval func() time.Duration
}

// New creates a Store backed by engine. interval is called fresh on every
// scheduling decision so a runtime change to inventory_sync_interval_secs
// takes effect without restarting the loop.
func New(engine docker.API, interval func() time.Duration) *Store {
	return &Store{
		byID:     make(map[string]Snapshot),
		engine:   engine,
		interval: interval,
	}
}

// Run starts the periodic sync pass and blocks until ctx is canceled. The
// sync cadence is driven by robfig/cron rather than a bare ticker, since
// the interval is a runtime-mutable config value (spec §1): the schedule
// is re-registered whenever it changes, polled once per run of the
// current entry.
func (s *Store) Run(ctx context.Context) error {
	if err := s.syncOnce(ctx); err != nil {
		return fmt.Errorf("inventory: initial sync: %w", err)
	}

	sched := cron.New()
	defer sched.Stop()

	current := s.interval()
	var register func()
	register = func() {
		sched.AddFunc(fmt.Sprintf("@every %s", current), func() {
			_ = s.syncOnce(ctx)
			if next := s.interval(); next != current {
				current = next
				for _, e := range sched.Entries() {
					sched.Remove(e.ID)
				}
				register()
			}
		})
	}
	register()
	sched.Start()

	<-ctx.Done()
	return nil
}

// syncOnce lists every container (including stopped) and replaces the
// store's contents wholesale: absent ids are removed, present ids
// overwritten.
func (s *Store) syncOnce(ctx context.Context) error {
	containers, err := s.engine.ListAllContainers(ctx)
	if err != nil {
		return err
	}

	fresh := make(map[string]Snapshot, len(containers))
	for _, c := range containers {
		fresh[c.ID] = fromEngineSummary(c)
	}

	s.mu.Lock()
	s.byID = fresh
	s.mu.Unlock()

	metrics.ContainersTotal.Set(float64(len(fresh)))
	return nil
}

// Inspect calls the engine's raw inspect, updates the store with the
// freshly derived snapshot (winning over the next sync pass only by
// recency -- no explicit timestamp comparison, per §4.2), and returns
// both the snapshot and the raw detail document.
func (s *Store) Inspect(ctx context.Context, id string) (Snapshot, map[string]any, error) {
	raw, err := s.engine.InspectContainer(ctx, id)
	if err != nil {
		return Snapshot{}, nil, err
	}

	name := strings.TrimPrefix(raw.Name, "/")
	state := ""
	if raw.State != nil {
		state = raw.State.Status
	}
	image := ""
	if raw.Config != nil {
		image = raw.Config.Image
	}
	var labels map[string]string
	if raw.Config != nil {
		labels = raw.Config.Labels
	}
	created, _ := time.Parse(time.RFC3339Nano, raw.Created)

	snap := Snapshot{
		ID:        raw.ID,
		Name:      name,
		Image:     image,
		State:     state,
		Labels:    labels,
		CreatedAt: created,
	}

	s.mu.Lock()
	s.byID[snap.ID] = snap
	s.mu.Unlock()

	detail, err := toDetailMap(raw)
	if err != nil {
		return snap, nil, fmt.Errorf("inventory: marshal detail: %w", err)
	}
	return snap, detail, nil
}

func toDetailMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// List copies every snapshot, applies the state filter / include_stopped
// logic, and truncates to limit -- exactly the contract InventoryService's
// ListContainers RPC needs (§4.2). The returned total_count is the
// pre-truncation match count.
func (s *Store) List(stateFilter string, includeStopped bool, limit int32) ([]*rpcapi.ContainerSnapshot, int32) {
	s.mu.RLock()
	all := make([]Snapshot, 0, len(s.byID))
	for _, snap := range s.byID {
		all = append(all, snap)
	}
	s.mu.RUnlock()

	filtered := make([]Snapshot, 0, len(all))
	switch normalizeFilter(stateFilter) {
	case "", "all":
		if includeStopped {
			filtered = all
		} else {
			for _, snap := range all {
				if strings.EqualFold(snap.State, "running") {
					filtered = append(filtered, snap)
				}
			}
		}
	default:
		want := normalizeFilter(stateFilter)
		for _, snap := range all {
			if strings.EqualFold(snap.State, want) {
				filtered = append(filtered, snap)
			}
		}
	}

	total := int32(len(filtered))
	if limit > 0 && int32(len(filtered)) > limit {
		filtered = filtered[:limit]
	}

	out := make([]*rpcapi.ContainerSnapshot, len(filtered))
	for i, snap := range filtered {
		out[i] = snap.toWire()
	}
	return out, total
}

func normalizeFilter(f string) string {
	f = strings.ToLower(strings.TrimSpace(f))
	if f == "unspecified" {
		return ""
	}
	return f
}
