package rpcapi

import "time"

// ContainerSnapshot is the wire form of the Inventory Store's snapshot
// record (spec data model §3).
type ContainerSnapshot struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Image     string            `json:"image"`
	State     string            `json:"state"`
	Labels    map[string]string `json:"labels,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ListContainersRequest is InventoryService.ListContainers's input.
type ListContainersRequest struct {
	StateFilter    string `json:"state_filter,omitempty"` // "", "all", "running", "paused", "stopped", "restarting", "dead", "created", "exited"
	IncludeStopped bool   `json:"include_stopped"`
	Limit          int32  `json:"limit,omitempty"`
}

// ListContainersResponse is InventoryService.ListContainers's output.
type ListContainersResponse struct {
	Containers []*ContainerSnapshot `json:"containers"`
	TotalCount int32                `json:"total_count"`
}

// InspectContainerRequest is InventoryService.InspectContainer's input.
type InspectContainerRequest struct {
	ContainerID string `json:"container_id"`
}

// InspectContainerResponse is InventoryService.InspectContainer's output.
type InspectContainerResponse struct {
	Snapshot *ContainerSnapshot `json:"snapshot"`
	Detail   map[string]any     `json:"detail"`
}

// StreamLogsRequest is LogService.StreamLogs's input (spec §4.4).
type StreamLogsRequest struct {
	ContainerID   string     `json:"container_id"`
	Since         *time.Time `json:"since,omitempty"`
	Until         *time.Time `json:"until,omitempty"`
	Follow        bool       `json:"follow"`
	FilterPattern string     `json:"filter_pattern,omitempty"`
	FilterMode    string     `json:"filter_mode,omitempty"` // "include", "exclude", ""
	TailLines     int32      `json:"tail_lines,omitempty"`
}

// LogResponse is one item of the LogService.StreamLogs response stream.
type LogResponse struct {
	ContainerID string `json:"container_id"`
	Timestamp   int64  `json:"timestamp"` // epoch seconds
	StreamKind  string `json:"stream_kind"`
	Content     []byte `json:"content"`
	Sequence    uint64 `json:"sequence"`
}

// StreamStatsRequest is StatsService.StreamStats's input.
type StreamStatsRequest struct {
	ContainerID string `json:"container_id"`
	Follow      bool   `json:"follow"`
}

// StatsFrame is one item of the StatsService.StreamStats response stream.
type StatsFrame struct {
	ContainerID     string  `json:"container_id"`
	Timestamp       int64   `json:"timestamp"`
	CPUPercent      float64 `json:"cpu_percent"`
	MemUsageBytes   uint64  `json:"mem_usage_bytes"`
	MemLimitBytes   uint64  `json:"mem_limit_bytes"`
	NetRxBytes      uint64  `json:"net_rx_bytes"`
	NetTxBytes      uint64  `json:"net_tx_bytes"`
	BlockReadBytes  uint64  `json:"block_read_bytes"`
	BlockWriteBytes uint64  `json:"block_write_bytes"`
}

// StreamEventsRequest is LogService.StreamEvents's input.
type StreamEventsRequest struct {
	Types []string   `json:"types,omitempty"`
	Since *time.Time `json:"since,omitempty"`
	Until *time.Time `json:"until,omitempty"`
}

// EngineEvent is one item of the engine event feed.
type EngineEvent struct {
	Type            string            `json:"type"`
	Action          string            `json:"action"`
	ActorID         string            `json:"actor_id"`
	ActorAttributes map[string]string `json:"actor_attributes,omitempty"`
	Timestamp       int64             `json:"timestamp"`
}

// HealthCheckRequest is HealthService.Check/Watch's input.
type HealthCheckRequest struct{}

// HealthCheckResponse is HealthService.Check/Watch's output (spec §4.8).
type HealthCheckResponse struct {
	Status    string            `json:"status"` // "healthy", "degraded", "unhealthy"
	Message   string            `json:"message"`
	Timestamp int64             `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ContainerActionRequest is ControlService.ContainerAction's input.
type ContainerActionRequest struct {
	ContainerID string `json:"container_id"`
	Action      string `json:"action"` // "stop", "start", "restart"
}

// ContainerActionResponse is ControlService.ContainerAction's output.
type ContainerActionResponse struct {
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// PullImageRequest is ControlService.PullImage's input.
type PullImageRequest struct {
	ImageRef string `json:"image_ref"`
}

// PullImageResponse is ControlService.PullImage's output.
type PullImageResponse struct {
	Digest string `json:"digest,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ExecCreateRequest is ShellService exec-create input (spec §4.5).
type ExecCreateRequest struct {
	ContainerID string   `json:"container_id"`
	Cmd         []string `json:"cmd"`
	Tty         bool     `json:"tty"`
	WorkingDir  string   `json:"working_dir,omitempty"`
	Env         []string `json:"env,omitempty"`
}

// ExecCreateResponse carries the newly created exec id.
type ExecCreateResponse struct {
	ExecID string `json:"exec_id"`
}

// ExecInspectRequest is ShellService exec-inspect input.
type ExecInspectRequest struct {
	ExecID string `json:"exec_id"`
}

// ExecInspectResponse mirrors the engine's exec status (spec §4.5).
type ExecInspectResponse struct {
	Running  bool  `json:"running"`
	ExitCode int32 `json:"exit_code"`
}

// ShellClientFrame is one item of the ShellService.OpenShell client->agent
// stream. Exactly one of Init/Input/Resize is meaningful, discriminated by
// Type -- the hand-rolled analogue of a protobuf oneof.
type ShellClientFrame struct {
	Type        string   `json:"type"` // "init", "input", "resize"
	ContainerID string   `json:"container_id,omitempty"`
	Command     []string `json:"command,omitempty"`
	Tty         bool     `json:"tty,omitempty"`
	Cols        uint32   `json:"cols,omitempty"`
	Rows        uint32   `json:"rows,omitempty"`
	Input       []byte   `json:"input,omitempty"`
}

// ShellServerFrame is one item of the ShellService.OpenShell agent->client
// stream.
type ShellServerFrame struct {
	Type     string `json:"type"` // "output", "exit", "error"
	Output   []byte `json:"output,omitempty"`
	ExitCode int32  `json:"exit_code,omitempty"`
	Message  string `json:"message,omitempty"`
	Code     string `json:"code,omitempty"`
}

// SwarmNode is the wire form of a Swarm node, trimmed to the fields the
// Agent Pool's Discovered source needs (spec §4.7).
type SwarmNode struct {
	ID           string            `json:"id"`
	Hostname     string            `json:"hostname"`
	Role         string            `json:"role"` // "manager", "worker"
	Availability string            `json:"availability"`
	Labels       map[string]string `json:"labels,omitempty"`
}

// IsSwarmManagerRequest is SwarmService.IsSwarmManager's input.
type IsSwarmManagerRequest struct{}

// IsSwarmManagerResponse is SwarmService.IsSwarmManager's output.
type IsSwarmManagerResponse struct {
	IsManager bool `json:"is_manager"`
}

// ListNodesRequest is SwarmService.ListNodes's input.
type ListNodesRequest struct{}

// ListNodesResponse is SwarmService.ListNodes's output.
type ListNodesResponse struct {
	Nodes []*SwarmNode `json:"nodes"`
}
