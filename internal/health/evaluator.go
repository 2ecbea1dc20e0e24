// Package health implements the Agent's self-assessment ladder (spec
// §4.8), shared between the one-shot Check and 5-second Watch RPCs so
// both surfaces agree on identical snapshots. Grounded directly on
// original_source/crates/agent/src/service/health.rs's evaluate_health.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/rosshhun/docktail-go/internal/clock"
	"github.com/rosshhun/docktail-go/internal/metrics"
	"github.com/rosshhun/docktail-go/internal/parser"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
)

// Status is one of the three outcomes the decision ladder can reach.
type Status string

const (
	Healthy   Status = "healthy"
	Degraded  Status = "degraded"
	Unhealthy Status = "unhealthy"
)

// degradedVolumeThreshold and degradedRateThreshold gate rule 3: a low
// success rate over too few samples is noise, not degradation.
const (
	degradedVolumeThreshold = 100
	degradedRateThreshold   = 0.80
	unhealthyFailThreshold  = 3
)

// Evaluate runs the decision ladder (first match wins) over one parser
// Stats snapshot.
func Evaluate(snap parser.StatsSnapshot) (Status, string) {
	switch {
	case snap.ParsePanics > 0:
		return Unhealthy, fmt.Sprintf("Critical: %d parser panics detected", snap.ParsePanics)
	case snap.DockerConsecutiveFailures >= unhealthyFailThreshold:
		return Unhealthy, fmt.Sprintf("Critical: engine unreachable (%d consecutive failures)", snap.DockerConsecutiveFailures)
	case snap.TotalParsed > degradedVolumeThreshold && snap.SuccessRate < degradedRateThreshold:
		return Degraded, fmt.Sprintf("Degraded: Success rate is %.1f%%", snap.SuccessRate*100)
	default:
		return Healthy, fmt.Sprintf("Healthy: %d lines parsed", snap.TotalParsed)
	}
}

// Source supplies the parser stats snapshot the evaluator reads. In
// production this is a *parser.Cache's Stats.Snapshot, injected so tests
// can feed fixed snapshots.
type Source func() parser.StatsSnapshot

// WatchInterval is the Watch RPC's tick cadence (spec §4.8).
const WatchInterval = 5 * time.Second

// Evaluator is the Agent-side shared implementation behind both the
// Check and Watch RPCs.
type Evaluator struct {
	source Source
	clock  clock.Clock
}

// New builds an Evaluator reading snapshots from source.
func New(source Source, c clock.Clock) *Evaluator {
	return &Evaluator{source: source, clock: c}
}

// Check performs one evaluation and records it in the
// docktail_health_checks_total metric, by resulting status.
func (e *Evaluator) Check() *rpcapi.HealthCheckResponse {
	snap := e.source()
	status, msg := Evaluate(snap)
	metrics.HealthChecksTotal.WithLabelValues(string(status)).Inc()
	return &rpcapi.HealthCheckResponse{
		Status:    string(status),
		Message:   msg,
		Timestamp: e.clock.Now().Unix(),
	}
}

// Watch sends a Check result every WatchInterval until ctx is cancelled
// or send returns an error.
func (e *Evaluator) Watch(ctx context.Context, send func(*rpcapi.HealthCheckResponse) error) error {
	for {
		if err := send(e.Check()); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.clock.After(WatchInterval):
		}
	}
}
