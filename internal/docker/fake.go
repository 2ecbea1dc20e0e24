package docker

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/events"
	"github.com/moby/moby/api/types/network"
	"github.com/moby/moby/api/types/swarm"
)

// Fake is an in-memory implementation of API for use in other packages'
// tests, grounded on the teacher's mockDocker pattern
// (internal/engine/mock_test.go) but exported so the Inventory Store,
// Parser Subsystem, Log Stream Core, and Shell Session packages can share
// one fake instead of five local copies.
type Fake struct {
	mu sync.Mutex

	Containers    []container.Summary
	ContainersErr error

	InspectResults map[string]container.InspectResponse
	InspectErr     map[string]error

	LogStreamReaders map[string]io.ReadCloser
	LogStreamTTY     map[string]bool
	LogStreamErr     map[string]error

	StatsReaders map[string]io.ReadCloser
	StatsErr     map[string]error
	OneShotStats map[string]container.StatsResponse

	EventsCh    chan events.Message
	EventsErrCh chan error

	ExecCreateIDs map[string]string
	ExecCreateErr map[string]error
	ExecConns     map[string]io.ReadWriteCloser
	ExecResizeErr map[string]error
	ExecRunning   map[string]bool
	ExecExitCode  map[string]int
	ExecStatusErr map[string]error

	SwarmManager bool
	Nodes        []swarm.Node

	StopCalls []string
}

// NewFake returns a ready-to-use Fake with every map initialized.
func NewFake() *Fake {
	return &Fake{
		InspectResults:   make(map[string]container.InspectResponse),
		InspectErr:       make(map[string]error),
		LogStreamReaders: make(map[string]io.ReadCloser),
		LogStreamTTY:     make(map[string]bool),
		LogStreamErr:     make(map[string]error),
		StatsReaders:     make(map[string]io.ReadCloser),
		StatsErr:         make(map[string]error),
		OneShotStats:     make(map[string]container.StatsResponse),
		ExecCreateIDs:    make(map[string]string),
		ExecCreateErr:    make(map[string]error),
		ExecConns:        make(map[string]io.ReadWriteCloser),
		ExecResizeErr:    make(map[string]error),
		ExecRunning:      make(map[string]bool),
		ExecExitCode:     make(map[string]int),
		ExecStatusErr:    make(map[string]error),
	}
}

func (f *Fake) ListContainers(context.Context) ([]container.Summary, error) {
	return f.Containers, f.ContainersErr
}

func (f *Fake) ListAllContainers(context.Context) ([]container.Summary, error) {
	return f.Containers, f.ContainersErr
}

func (f *Fake) InspectContainer(_ context.Context, id string) (container.InspectResponse, error) {
	if err, ok := f.InspectErr[id]; ok && err != nil {
		return container.InspectResponse{}, err
	}
	return f.InspectResults[id], nil
}

func (f *Fake) StopContainer(_ context.Context, id string, _ int) error {
	f.mu.Lock()
	f.StopCalls = append(f.StopCalls, id)
	f.mu.Unlock()
	return nil
}

func (f *Fake) RemoveContainer(context.Context, string) error { return nil }

func (f *Fake) CreateContainer(_ context.Context, name string, _ *container.Config, _ *container.HostConfig, _ *network.NetworkingConfig) (string, error) {
	return "new-" + name, nil
}

func (f *Fake) StartContainer(context.Context, string) error   { return nil }
func (f *Fake) RestartContainer(context.Context, string) error { return nil }
func (f *Fake) PullImage(context.Context, string) error        { return nil }

func (f *Fake) ImageDigest(context.Context, string) (string, error)        { return "", nil }
func (f *Fake) DistributionDigest(context.Context, string) (string, error) { return "", nil }
func (f *Fake) RemoveImage(context.Context, string) error                  { return nil }
func (f *Fake) TagImage(context.Context, string, string) error             { return nil }
func (f *Fake) RemoveContainerWithVolumes(context.Context, string) error   { return nil }

func (f *Fake) ExecContainer(context.Context, string, []string, int) (int, string, error) {
	return 0, "", nil
}

func (f *Fake) ContainerLogs(context.Context, string, int) (string, error) { return "", nil }

func (f *Fake) StreamLogs(_ context.Context, id string, _ LogStreamOptions) (io.ReadCloser, bool, error) {
	if err, ok := f.LogStreamErr[id]; ok && err != nil {
		return nil, false, err
	}
	return f.LogStreamReaders[id], f.LogStreamTTY[id], nil
}

func (f *Fake) StreamStats(_ context.Context, id string) (io.ReadCloser, error) {
	if err, ok := f.StatsErr[id]; ok && err != nil {
		return nil, err
	}
	return f.StatsReaders[id], nil
}

func (f *Fake) OneShotStats(_ context.Context, id string) (container.StatsResponse, error) {
	if err, ok := f.StatsErr[id]; ok && err != nil {
		return container.StatsResponse{}, err
	}
	return f.OneShotStats[id], nil
}

func (f *Fake) StreamEvents(context.Context, EventOptions) (<-chan events.Message, <-chan error) {
	return f.EventsCh, f.EventsErrCh
}

func (f *Fake) ExecCreate(_ context.Context, containerID string, _ []string, _ bool, _ string, _ []string) (string, error) {
	if err, ok := f.ExecCreateErr[containerID]; ok && err != nil {
		return "", err
	}
	if id, ok := f.ExecCreateIDs[containerID]; ok {
		return id, nil
	}
	return "exec-" + containerID, nil
}

func (f *Fake) ExecAttach(_ context.Context, execID string, _ bool) (io.ReadWriteCloser, error) {
	return f.ExecConns[execID], nil
}

func (f *Fake) ExecResize(_ context.Context, execID string, _, _ uint) error {
	return f.ExecResizeErr[execID]
}

func (f *Fake) ExecStatus(_ context.Context, execID string) (bool, int, error) {
	if err, ok := f.ExecStatusErr[execID]; ok && err != nil {
		return false, 0, err
	}
	return f.ExecRunning[execID], f.ExecExitCode[execID], nil
}

func (f *Fake) IsSwarmManager(context.Context) bool { return f.SwarmManager }

func (f *Fake) ListServices(context.Context) ([]swarm.Service, error) { return nil, nil }
func (f *Fake) InspectService(_ context.Context, id string) (swarm.Service, error) {
	return swarm.Service{}, fmt.Errorf("service %s not found", id)
}
func (f *Fake) UpdateService(context.Context, string, swarm.Version, swarm.ServiceSpec, string) error {
	return nil
}
func (f *Fake) RollbackService(context.Context, string, swarm.Version) error { return nil }
func (f *Fake) ListServiceTasks(context.Context, string) ([]swarm.Task, error) {
	return nil, nil
}

func (f *Fake) ListNodes(context.Context) ([]swarm.Node, error) { return f.Nodes, nil }

func (f *Fake) Close() error { return nil }
