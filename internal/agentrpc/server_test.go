package agentrpc

import (
	"context"
	"testing"
	"time"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/swarm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rosshhun/docktail-go/internal/clock"
	"github.com/rosshhun/docktail-go/internal/config"
	"github.com/rosshhun/docktail-go/internal/docker"
	"github.com/rosshhun/docktail-go/internal/health"
	"github.com/rosshhun/docktail-go/internal/inventory"
	"github.com/rosshhun/docktail-go/internal/logging"
	"github.com/rosshhun/docktail-go/internal/logstream"
	"github.com/rosshhun/docktail-go/internal/parser"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
)

func newTestServer(fake *docker.Fake) *Server {
	cfg := &config.Config{MultiLine: config.MultiLine{}}
	inv := inventory.New(fake, func() time.Duration { return time.Second })
	p := parser.New()
	logs := logstream.New(fake, clock.Real{})
	h := health.New(func() parser.StatsSnapshot { return p.Stats.Snapshot() }, clock.Real{})
	return New(fake, inv, p, logs, h, cfg, clock.Real{}, logging.New(false))
}

func TestListContainersAppliesDefaultRunningFilter(t *testing.T) {
	fake := docker.NewFake()
	fake.Containers = []container.Summary{
		{ID: "a", Names: []string{"/a"}, State: "running"},
		{ID: "b", Names: []string{"/b"}, State: "exited"},
	}
	s := newTestServer(fake)

	if err := s.inventory.Run(contextWithImmediateCancel()); err != nil && err != context.Canceled {
		t.Fatalf("inventory sync: %v", err)
	}

	resp, err := s.ListContainers(context.Background(), &rpcapi.ListContainersRequest{})
	if err != nil {
		t.Fatalf("ListContainers: %v", err)
	}
	if len(resp.Containers) != 1 || resp.Containers[0].ID != "a" {
		t.Fatalf("Containers = %+v, want just the running one", resp.Containers)
	}
}

func TestInspectContainerMapsNotFound(t *testing.T) {
	fake := docker.NewFake()
	fake.InspectErr["missing"] = docker.ErrContainerNotFound
	s := newTestServer(fake)

	_, err := s.InspectContainer(context.Background(), &rpcapi.InspectContainerRequest{ContainerID: "missing"})
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.NotFound {
		t.Fatalf("err = %v, want NotFound status", err)
	}
}

func TestContainerActionDispatchesByName(t *testing.T) {
	fake := docker.NewFake()
	s := newTestServer(fake)

	resp, err := s.ContainerAction(context.Background(), &rpcapi.ContainerActionRequest{ContainerID: "c1", Action: "stop"})
	if err != nil {
		t.Fatalf("ContainerAction: %v", err)
	}
	if resp.Outcome != "ok" {
		t.Fatalf("Outcome = %q, want ok", resp.Outcome)
	}
	if len(fake.StopCalls) != 1 || fake.StopCalls[0] != "c1" {
		t.Fatalf("StopCalls = %v, want [c1]", fake.StopCalls)
	}
}

func TestContainerActionRejectsUnknownAction(t *testing.T) {
	fake := docker.NewFake()
	s := newTestServer(fake)

	resp, err := s.ContainerAction(context.Background(), &rpcapi.ContainerActionRequest{ContainerID: "c1", Action: "nuke"})
	if err == nil {
		t.Fatal("expected an error for an unknown action")
	}
	if resp.Outcome != "failed" {
		t.Fatalf("Outcome = %q, want failed", resp.Outcome)
	}
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.InvalidArgument {
		t.Fatalf("err = %v, want InvalidArgument status", err)
	}
}

func TestIsSwarmManagerReflectsFake(t *testing.T) {
	fake := docker.NewFake()
	fake.SwarmManager = true
	s := newTestServer(fake)

	resp, err := s.IsSwarmManager(context.Background(), &rpcapi.IsSwarmManagerRequest{})
	if err != nil {
		t.Fatalf("IsSwarmManager: %v", err)
	}
	if !resp.IsManager {
		t.Fatal("IsManager = false, want true")
	}
}

func TestListNodesConvertsSwarmFields(t *testing.T) {
	fake := docker.NewFake()
	fake.Nodes = []swarm.Node{
		{
			ID: "node-1",
			Spec: swarm.NodeSpec{
				Annotations:  swarm.Annotations{Labels: map[string]string{"docktail.cluster.agent": "true"}},
				Role:         swarm.NodeRoleManager,
				Availability: swarm.NodeAvailabilityActive,
			},
			Description: swarm.NodeDescription{Hostname: "host-1"},
		},
	}
	s := newTestServer(fake)

	resp, err := s.ListNodes(context.Background(), &rpcapi.ListNodesRequest{})
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	if len(resp.Nodes) != 1 {
		t.Fatalf("Nodes = %+v, want 1 entry", resp.Nodes)
	}
	n := resp.Nodes[0]
	if n.ID != "node-1" || n.Hostname != "host-1" || n.Role != "manager" || n.Availability != "active" {
		t.Fatalf("node = %+v", n)
	}
	if n.Labels["docktail.cluster.agent"] != "true" {
		t.Fatalf("labels = %+v", n.Labels)
	}
}

func TestCheckDelegatesToHealthEvaluator(t *testing.T) {
	fake := docker.NewFake()
	s := newTestServer(fake)

	resp, err := s.Check(context.Background(), &rpcapi.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.Status != "healthy" {
		t.Fatalf("Status = %q, want healthy with no parser activity", resp.Status)
	}
}

func contextWithImmediateCancel() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
