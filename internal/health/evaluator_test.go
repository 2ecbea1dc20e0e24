package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rosshhun/docktail-go/internal/parser"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
)

type fakeClock struct {
	now    time.Time
	afterC chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0), afterC: make(chan time.Time, 1)}
}

func (c *fakeClock) Now() time.Time                       { return c.now }
func (c *fakeClock) After(time.Duration) <-chan time.Time { return c.afterC }
func (c *fakeClock) Since(t time.Time) time.Duration      { return c.now.Sub(t) }
func (c *fakeClock) fire()                                { c.afterC <- c.now }

func TestEvaluateParsePanicsIsUnhealthy(t *testing.T) {
	status, msg := Evaluate(parser.StatsSnapshot{ParsePanics: 1})
	if status != Unhealthy {
		t.Fatalf("status = %v, want Unhealthy", status)
	}
	if msg != "Critical: 1 parser panics detected" {
		t.Errorf("msg = %q", msg)
	}
}

func TestEvaluateEngineUnreachableIsUnhealthy(t *testing.T) {
	status, _ := Evaluate(parser.StatsSnapshot{DockerConsecutiveFailures: 3})
	if status != Unhealthy {
		t.Fatalf("status = %v, want Unhealthy", status)
	}
}

func TestEvaluateLowSuccessRateIsDegraded(t *testing.T) {
	status, msg := Evaluate(parser.StatsSnapshot{TotalParsed: 200, SuccessRate: 0.75})
	if status != Degraded {
		t.Fatalf("status = %v, want Degraded", status)
	}
	if want := "Degraded: Success rate is 75.0%"; msg != want {
		t.Errorf("msg = %q, want %q", msg, want)
	}
}

func TestEvaluateLowVolumeStaysHealthy(t *testing.T) {
	status, _ := Evaluate(parser.StatsSnapshot{TotalParsed: 50, SuccessRate: 0.1})
	if status != Healthy {
		t.Fatalf("status = %v, want Healthy below the volume threshold", status)
	}
}

func TestEvaluatePanicsOutranksEngineFailures(t *testing.T) {
	status, msg := Evaluate(parser.StatsSnapshot{ParsePanics: 2, DockerConsecutiveFailures: 5})
	if status != Unhealthy {
		t.Fatalf("status = %v", status)
	}
	if msg != "Critical: 2 parser panics detected" {
		t.Errorf("msg = %q, want the panic message to win the ladder", msg)
	}
}

func TestCheckUsesClockForTimestamp(t *testing.T) {
	c := newFakeClock()
	c.now = time.Unix(1700000000, 0)
	e := New(func() parser.StatsSnapshot { return parser.StatsSnapshot{} }, c)
	resp := e.Check()
	if resp.Timestamp != 1700000000 {
		t.Errorf("Timestamp = %d, want 1700000000", resp.Timestamp)
	}
	if resp.Status != string(Healthy) {
		t.Errorf("Status = %q, want healthy", resp.Status)
	}
}

func TestWatchSendsUntilContextCancelled(t *testing.T) {
	c := newFakeClock()
	e := New(func() parser.StatsSnapshot { return parser.StatsSnapshot{} }, c)

	ctx, cancel := context.WithCancel(context.Background())
	var sent int
	errc := make(chan error, 1)
	go func() {
		errc <- e.Watch(ctx, func(*rpcapi.HealthCheckResponse) error {
			sent++
			if sent == 2 {
				cancel()
			}
			return nil
		})
	}()

	c.fire()
	err := <-errc
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Watch err = %v, want context.Canceled", err)
	}
	if sent < 1 {
		t.Error("expected at least one Check sent before cancellation")
	}
}
