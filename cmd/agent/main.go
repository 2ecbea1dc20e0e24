// Command agent runs one docktail-go Agent: the per-host process that
// watches the local Engine Adapter, maintains the Inventory Store and Log
// Stream Core, evaluates health, and answers the Cluster gateway's RPC
// Surface calls.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rosshhun/docktail-go/internal/agentrpc"
	"github.com/rosshhun/docktail-go/internal/clock"
	"github.com/rosshhun/docktail-go/internal/cluster/agent"
	"github.com/rosshhun/docktail-go/internal/config"
	"github.com/rosshhun/docktail-go/internal/docker"
	"github.com/rosshhun/docktail-go/internal/health"
	"github.com/rosshhun/docktail-go/internal/inventory"
	"github.com/rosshhun/docktail-go/internal/logging"
	"github.com/rosshhun/docktail-go/internal/logstream"
	"github.com/rosshhun/docktail-go/internal/metrics"
	"github.com/rosshhun/docktail-go/internal/parser"
)

// version is set at build time via -X main.version=$(VERSION).
var version = "dev"

func main() {
	configPath := flag.String("config", envOr("DOCKTAIL_AGENT_CONFIG", "agent.yaml"), "path to the agent configuration document")
	enrollAddr := flag.String("enroll-addr", envOr("DOCKTAIL_ENROLL_ADDR", ""), "cluster gateway enrollment gRPC address (host:port)")
	registerAddr := flag.String("register-addr", envOr("DOCKTAIL_REGISTER_ADDR", ""), "cluster gateway registration HTTP address (host:port)")
	advertiseAddr := flag.String("advertise-addr", envOr("DOCKTAIL_ADVERTISE_ADDR", ""), "address advertised to the cluster gateway; defaults to bind_address")
	enrollToken := flag.String("enroll-token", envOr("DOCKTAIL_ENROLL_TOKEN", ""), "one-time enrollment token, required on first run")
	hostName := flag.String("host-name", envOr("DOCKTAIL_HOST_NAME", ""), "human-readable name for this agent")
	dataDir := flag.String("data-dir", envOr("DOCKTAIL_DATA_DIR", "/var/lib/docktail/agent"), "directory for enrolled TLS credentials")
	metricsAddr := flag.String("metrics-addr", envOr("DOCKTAIL_METRICS_ADDR", ""), "address to serve Prometheus metrics on; empty disables it")
	metricsTextfile := flag.String("metrics-textfile", envOr("DOCKTAIL_METRICS_TEXTFILE", ""), "path to periodically write metrics in node_exporter textfile-collector format; empty disables it")
	jsonLog := flag.Bool("json-log", os.Getenv("DOCKTAIL_LOG_JSON") == "true", "emit structured JSON logs instead of text")
	flag.Parse()

	log := logging.New(*jsonLog)

	fmt.Println("docktail-go agent " + version)
	fmt.Println("=============================================")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if *hostName == "" {
		if h, err := os.Hostname(); err == nil {
			*hostName = h
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	engine, err := docker.NewClient(cfg.EngineSocket, nil)
	if err != nil {
		log.Error("failed to create engine client", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	inv := inventory.New(engine, cfg.InventorySyncInterval)
	go func() {
		if err := inv.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("inventory sync exited", "error", err)
		}
	}()

	p := parser.New()
	logs := logstream.New(engine, clock.Real{})
	evaluator := health.New(func() parser.StatsSnapshot { return p.Stats.Snapshot() }, clock.Real{})

	rpcSrv := agentrpc.New(engine, inv, p, logs, evaluator, cfg, clock.Real{}, log)

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, log)
	}
	if *metricsTextfile != "" {
		go runMetricsTextfileWriter(ctx, *metricsTextfile, 15*time.Second, log)
	}

	a := agent.New(agent.Config{
		EnrollAddr:    *enrollAddr,
		RegisterAddr:  *registerAddr,
		ListenAddr:    cfg.BindAddress,
		AdvertiseAddr: *advertiseAddr,
		EnrollToken:   *enrollToken,
		HostName:      *hostName,
		DataDir:       *dataDir,
		Version:       version,
	}, rpcSrv, log.Logger)

	log.Info("agent started", "version", version, "bind_address", cfg.BindAddress, "host", *hostName)
	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("agent exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("agent shutdown complete")
}

func serveMetrics(addr string, log *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.Info("metrics server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("metrics server exited", "error", err)
	}
}

// runMetricsTextfileWriter periodically writes docktail_* metrics to path
// for node_exporter's textfile collector, until ctx is cancelled.
func runMetricsTextfileWriter(ctx context.Context, path string, interval time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := metrics.WriteTextfile(path); err != nil {
				log.Warn("failed to write metrics textfile", "path", path, "error", err)
			}
		}
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
