// Package agentrpc wires the Agent-side modules (Inventory Store, Parser
// Subsystem, Log Stream Core, Shell Session, Health Evaluator, Engine
// Adapter) to the seven rpcapi service interfaces, the way the teacher's
// cluster/server.Server wires its registry to the proto service
// interfaces (spec §4.1-§4.9, RPC Surface).
package agentrpc

import (
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

// Server implements every rpcapi Agent-side service interface over one
// shared set of modules. It embeds the Unimplemented* structs so adding a
// new RPC to a service interface doesn't break the build until the method
// is filled in.
type Server struct {
	rpcapi.UnimplementedInventoryServiceServer
	rpcapi.UnimplementedLogServiceServer
	rpcapi.UnimplementedShellServiceServer
	rpcapi.UnimplementedHealthServiceServer
	rpcapi.UnimplementedControlServiceServer
	rpcapi.UnimplementedStatsServiceServer
	rpcapi.UnimplementedSwarmServiceServer

	engine    docker.API
	inventory *inventory.Store
	parser    *parser.Cache
	logs      *logstream.Stream
	health    *health.Evaluator
	cfg       *config.Config
	clock     clock.Clock
	log       *logging.Logger
}

// New builds a Server over the given modules. cfg supplies the MultiLine
// grouping policy StreamLogs applies by default.
func New(engine docker.API, inv *inventory.Store, p *parser.Cache, logs *logstream.Stream, h *health.Evaluator, cfg *config.Config, c clock.Clock, log *logging.Logger) *Server {
	return &Server{
		engine:    engine,
		inventory: inv,
		parser:    p,
		logs:      logs,
		health:    h,
		cfg:       cfg,
		clock:     c,
		log:       log,
	}
}

var (
	_ rpcapi.InventoryServiceServer = (*Server)(nil)
	_ rpcapi.LogServiceServer       = (*Server)(nil)
	_ rpcapi.ShellServiceServer     = (*Server)(nil)
	_ rpcapi.HealthServiceServer    = (*Server)(nil)
	_ rpcapi.ControlServiceServer   = (*Server)(nil)
	_ rpcapi.StatsServiceServer     = (*Server)(nil)
	_ rpcapi.SwarmServiceServer     = (*Server)(nil)
)
