package agentpool

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/rosshhun/docktail-go/internal/events"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// fakeClock lets tests control time without sleeping.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time                         { return c.now }
func (c *fakeClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (c *fakeClock) Since(t time.Time) time.Duration        { return c.now.Sub(t) }

// fakeHealthServer answers HealthService.Check with a fixed, switchable
// status so tests can drive transitions deterministically.
type fakeHealthServer struct {
	rpcapi.UnimplementedHealthServiceServer
	status string
	fail   bool
}

func (f *fakeHealthServer) Check(context.Context, *rpcapi.HealthCheckRequest) (*rpcapi.HealthCheckResponse, error) {
	if f.fail {
		return nil, context.DeadlineExceeded
	}
	return &rpcapi.HealthCheckResponse{Status: f.status}, nil
}

func startFakeAgent(t *testing.T, h *fakeHealthServer) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := grpc.NewServer()
	rpcapi.RegisterHealthServiceServer(srv, h)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)
	return lis.Addr().String()
}

func insecureDialer(ctx context.Context, address string) (*grpc.ClientConn, error) {
	return grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func TestInitializeDialsStaticAgents(t *testing.T) {
	addr := startFakeAgent(t, &fakeHealthServer{status: "healthy"})
	p := New(&fakeClock{now: time.Now()}, slog.Default(), events.New(), insecureDialer)

	if err := p.Initialize(context.Background(), []Info{{ID: "a1", Address: addr}}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	snap, err := p.Get("a1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if snap.Source != SourceStatic {
		t.Errorf("Source = %q, want static", snap.Source)
	}
	if snap.Health != HealthUnknown {
		t.Errorf("Health = %q, want unknown before first sweep", snap.Health)
	}
}

func TestGetUnknownAgentReturnsNotFound(t *testing.T) {
	p := New(&fakeClock{now: time.Now()}, slog.Default(), events.New(), insecureDialer)
	_, err := p.Get("missing")
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false, want true", err)
	}
}

func TestHealthCheckAllUpdatesStatus(t *testing.T) {
	h := &fakeHealthServer{status: "healthy"}
	addr := startFakeAgent(t, h)
	p := New(&fakeClock{now: time.Now()}, slog.Default(), events.New(), insecureDialer)
	if err := p.Initialize(context.Background(), []Info{{ID: "a1", Address: addr}}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	p.HealthCheckAll(context.Background(), time.Second)

	snap, _ := p.Get("a1")
	if snap.Health != HealthHealthy {
		t.Errorf("Health = %q, want healthy", snap.Health)
	}
}

func TestHealthCheckAllMarksUnhealthyAfterThreeFailures(t *testing.T) {
	h := &fakeHealthServer{status: "healthy"}
	addr := startFakeAgent(t, h)
	p := New(&fakeClock{now: time.Now()}, slog.Default(), events.New(), insecureDialer)
	if err := p.Initialize(context.Background(), []Info{{ID: "a1", Address: addr}}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	h.fail = true
	for i := 0; i < unhealthyThreshold; i++ {
		p.HealthCheckAll(context.Background(), time.Second)
	}

	snap, _ := p.Get("a1")
	if snap.Health != HealthUnhealthy {
		t.Errorf("Health = %q, want unhealthy after %d consecutive failures", snap.Health, unhealthyThreshold)
	}

	h.fail = false
	p.HealthCheckAll(context.Background(), time.Second)
	snap, _ = p.Get("a1")
	if snap.Health != HealthHealthy {
		t.Errorf("Health = %q, want healthy after recovery", snap.Health)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	addr := startFakeAgent(t, &fakeHealthServer{status: "healthy"})
	p := New(&fakeClock{now: time.Now()}, slog.Default(), events.New(), insecureDialer)
	_ = p.Initialize(context.Background(), []Info{{ID: "a1", Address: addr}})

	p.Remove("a1")
	p.Remove("a1") // must not panic

	if _, err := p.Get("a1"); !IsNotFound(err) {
		t.Error("expected agent to be gone after Remove")
	}
}

func TestSyncDiscoveredAddsAndRemoves(t *testing.T) {
	addr1 := startFakeAgent(t, &fakeHealthServer{status: "healthy"})
	addr2 := startFakeAgent(t, &fakeHealthServer{status: "healthy"})
	p := New(&fakeClock{now: time.Now()}, slog.Default(), events.New(), insecureDialer)

	p.SyncDiscovered(context.Background(), []Info{{ID: "d1", Address: addr1}})
	if _, err := p.Get("d1"); err != nil {
		t.Fatalf("expected d1 present: %v", err)
	}

	p.SyncDiscovered(context.Background(), []Info{{ID: "d2", Address: addr2}})
	if _, err := p.Get("d1"); !IsNotFound(err) {
		t.Error("expected d1 removed after resync without it")
	}
	if _, err := p.Get("d2"); err != nil {
		t.Fatalf("expected d2 present: %v", err)
	}
}

func TestExpireRegisteredRemovesStaleEntriesOnly(t *testing.T) {
	addr1 := startFakeAgent(t, &fakeHealthServer{status: "healthy"})
	addr2 := startFakeAgent(t, &fakeHealthServer{status: "healthy"})
	clk := &fakeClock{now: time.Now()}
	p := New(clk, slog.Default(), events.New(), insecureDialer)

	if err := p.Insert(context.Background(), Info{ID: "stale", Address: addr1}, SourceRegistered); err != nil {
		t.Fatalf("Insert stale: %v", err)
	}
	clk.now = clk.now.Add(time.Minute)
	if err := p.Insert(context.Background(), Info{ID: "fresh", Address: addr2}, SourceRegistered); err != nil {
		t.Fatalf("Insert fresh: %v", err)
	}

	stale := p.ExpireRegistered(30 * time.Second)
	if len(stale) != 1 || stale[0] != "stale" {
		t.Errorf("ExpireRegistered returned %v, want [stale]", stale)
	}

	if _, err := p.Get("stale"); !IsNotFound(err) {
		t.Error("expected stale registered record to be expired")
	}
	if _, err := p.Get("fresh"); err != nil {
		t.Fatalf("expected fresh record to survive: %v", err)
	}
}

func TestListReturnsSnapshot(t *testing.T) {
	addr := startFakeAgent(t, &fakeHealthServer{status: "healthy"})
	p := New(&fakeClock{now: time.Now()}, slog.Default(), events.New(), insecureDialer)
	_ = p.Initialize(context.Background(), []Info{{ID: "a1", Address: addr}})

	list := p.List()
	if len(list) != 1 || list[0].Info.ID != "a1" {
		t.Errorf("List() = %+v, want one record for a1", list)
	}
}
