// Command cluster runs the docktail-go Cluster gateway: the Agent Pool,
// its health monitor and Swarm-label discovery sweep, the Shell Bridge,
// and the enrollment/registration bootstrap surface agents dial into.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"gopkg.in/yaml.v3"

	"github.com/rosshhun/docktail-go/internal/agentpool"
	"github.com/rosshhun/docktail-go/internal/cluster"
	"github.com/rosshhun/docktail-go/internal/cluster/server"
	"github.com/rosshhun/docktail-go/internal/clock"
	"github.com/rosshhun/docktail-go/internal/events"
	"github.com/rosshhun/docktail-go/internal/logging"
	"github.com/rosshhun/docktail-go/internal/metrics"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
	"github.com/rosshhun/docktail-go/internal/shellbridge"
	"github.com/rosshhun/docktail-go/internal/store"
	"github.com/rosshhun/docktail-go/internal/submetrics"
)

// version is set at build time via -X main.version=$(VERSION).
var version = "dev"

func main() {
	grpcAddr := flag.String("enroll-addr", envOr("DOCKTAIL_ENROLL_ADDR", "0.0.0.0:50052"), "enrollment gRPC listen address")
	httpAddr := flag.String("register-addr", envOr("DOCKTAIL_REGISTER_ADDR", "0.0.0.0:50053"), "registration HTTP listen address")
	shellAddr := flag.String("shell-addr", envOr("DOCKTAIL_SHELL_ADDR", "0.0.0.0:8443"), "shell bridge WebSocket listen address")
	metricsAddr := flag.String("metrics-addr", envOr("DOCKTAIL_METRICS_ADDR", ""), "address to serve Prometheus metrics on; empty disables it")
	dataDir := flag.String("data-dir", envOr("DOCKTAIL_CLUSTER_DATA_DIR", "/var/lib/docktail/cluster"), "directory for the CA and the BoltDB store")
	staticAgentsFile := flag.String("static-agents", envOr("DOCKTAIL_STATIC_AGENTS", ""), "optional YAML file listing Static-source agents")
	discoveryLabel := flag.String("discovery-label", envOr("DOCKTAIL_DISCOVERY_LABEL", "docktail.cluster.agent"), "Swarm node label whose value is a Discovered agent's RPC address")
	registeredTTL := flag.Duration("registered-ttl", envDuration("DOCKTAIL_REGISTERED_TTL", time.Minute), "TTL granted to Registered-source agents between re-registrations")
	healthInterval := flag.Duration("health-interval", envDuration("DOCKTAIL_HEALTH_INTERVAL", 10*time.Second), "Agent Pool health-check sweep interval")
	discoveryInterval := flag.Duration("discovery-interval", envDuration("DOCKTAIL_DISCOVERY_INTERVAL", 10*time.Second), "Swarm-label discovery sweep interval, matched to the health-check cadence per spec §4.7")
	jsonLog := flag.Bool("json-log", os.Getenv("DOCKTAIL_LOG_JSON") == "true", "emit structured JSON logs instead of text")
	flag.Parse()

	log := logging.New(*jsonLog)

	fmt.Println("docktail-go cluster gateway " + version)
	fmt.Println("=============================================")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := os.MkdirAll(*dataDir, 0700); err != nil {
		log.Error("failed to create data dir", "error", err)
		os.Exit(1)
	}

	ca, err := cluster.EnsureCA(filepath.Join(*dataDir, "ca"))
	if err != nil {
		log.Error("failed to load or create CA", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(filepath.Join(*dataDir, "cluster.db"))
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	bus := events.New()
	go logAgentEvents(ctx, bus, log)

	dialer, err := mtlsDialer(ca)
	if err != nil {
		log.Error("failed to build agent dialer", "error", err)
		os.Exit(1)
	}
	pool := agentpool.New(clock.Real{}, log.Logger, bus, dialer)

	if *staticAgentsFile != "" {
		statics, err := loadStaticAgents(*staticAgentsFile)
		if err != nil {
			log.Error("failed to load static agents", "path", *staticAgentsFile, "error", err)
			os.Exit(1)
		}
		if err := pool.Initialize(ctx, statics); err != nil {
			log.Error("failed to initialize static agents", "error", err)
			os.Exit(1)
		}
		log.Info("static agents loaded", "count", len(statics))
	}

	srv := server.New(ca, st, pool, bus, log.Logger, *registeredTTL)
	if err := srv.LoadPersistedAgents(ctx); err != nil {
		log.Error("failed to load persisted agents", "error", err)
		os.Exit(1)
	}
	if err := srv.Start(*grpcAddr, *httpAddr); err != nil {
		log.Error("failed to start bootstrap servers", "error", err)
		os.Exit(1)
	}

	sub := submetrics.New()
	bridge := shellbridge.New(pool, sub, log)
	shellMux := http.NewServeMux()
	shellMux.HandleFunc("/ws/shell", bridge.HandleWS)
	shellSrv := &http.Server{Addr: *shellAddr, Handler: shellMux, ReadHeaderTimeout: 5 * time.Second}

	var metricsSrv *http.Server
	if *metricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: *metricsAddr, Handler: metricsMux, ReadHeaderTimeout: 5 * time.Second}
	}

	// Every long-lived loop joins this group instead of its own ad hoc
	// goroutine + chan error, so a single Wait reports the first failure
	// and shutdown fans out cleanly across all of them.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("shell bridge listening", "addr", *shellAddr)
		if err := shellSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("shell bridge server: %w", err)
		}
		return nil
	})

	if metricsSrv != nil {
		g.Go(func() error {
			log.Info("metrics server listening", "addr", *metricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		srv.RunExpirySweep(gctx, *registeredTTL/3)
		return nil
	})

	g.Go(func() error {
		runHealthSweep(gctx, pool, *healthInterval)
		return nil
	})

	g.Go(func() error {
		runDiscoverySweep(gctx, pool, *discoveryLabel, *discoveryInterval, log)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutCancel()
		_ = shellSrv.Shutdown(shutCtx)
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutCtx)
		}
		return srv.Stop(shutCtx)
	})

	log.Info("cluster gateway started", "version", version, "enroll_addr", *grpcAddr, "register_addr", *httpAddr, "shell_addr", *shellAddr)

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Error("cluster gateway exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("cluster gateway shutdown complete")
}

// mtlsDialer builds the agentpool.Dialer the pool uses to open gRPC
// channels to agents: the gateway presents its own CA-issued cert so it
// satisfies an agent's RequireAndVerifyClientCert listener, and trusts
// agent certs signed by the same CA in return.
func mtlsDialer(ca *cluster.CA) (agentpool.Dialer, error) {
	certPEM, keyPEM, err := ca.IssueServerCert()
	if err != nil {
		return nil, fmt.Errorf("issue gateway cert: %w", err)
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse gateway keypair: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(ca.CACertPEM()) {
		return nil, fmt.Errorf("failed to add CA cert to pool")
	}
	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caPool,
		MinVersion:   tls.VersionTLS13,
	}
	return func(ctx context.Context, address string) (*grpc.ClientConn, error) {
		return grpc.NewClient(address, grpc.WithTransportCredentials(credentials.NewTLS(tlsCfg)))
	}, nil
}

// runHealthSweep drives the Agent Pool's health monitor on a fixed
// interval until ctx is cancelled, keeping the AgentsConnected /
// AgentsInPool gauges current.
func runHealthSweep(ctx context.Context, pool *agentpool.Pool, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pool.HealthCheckAll(ctx, interval/2)
			reportPoolGauges(pool)
		}
	}
}

func reportPoolGauges(pool *agentpool.Pool) {
	bySource := map[agentpool.Source]int{}
	connected := 0
	for _, snap := range pool.List() {
		bySource[snap.Source]++
		if snap.Health != agentpool.HealthUnhealthy {
			connected++
		}
	}
	for _, src := range []agentpool.Source{agentpool.SourceStatic, agentpool.SourceDiscovered, agentpool.SourceRegistered} {
		metrics.AgentsInPool.WithLabelValues(string(src)).Set(float64(bySource[src]))
	}
	metrics.AgentsConnected.Set(float64(connected))
}

// runDiscoverySweep polls the first reachable Swarm manager in the pool
// for its node list and feeds nodes carrying discoveryLabel into the
// pool's Discovered source, on the same cadence the health monitor uses
// (spec §4.7: "refreshed on the same interval as health checks").
func runDiscoverySweep(ctx context.Context, pool *agentpool.Pool, discoveryLabel string, interval time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			infos, err := discoverFromSwarm(ctx, pool, discoveryLabel)
			if err != nil {
				log.Debug("swarm discovery sweep skipped", "error", err)
				continue
			}
			pool.SyncDiscovered(ctx, infos)
		}
	}
}

func discoverFromSwarm(ctx context.Context, pool *agentpool.Pool, discoveryLabel string) ([]agentpool.Info, error) {
	for _, snap := range pool.List() {
		if snap.Health == agentpool.HealthUnhealthy {
			continue
		}
		conn, err := pool.Conn(snap.Info.ID)
		if err != nil {
			continue
		}
		client := rpcapi.NewSwarmServiceClient(conn)

		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		mgr, err := client.IsSwarmManager(cctx, &rpcapi.IsSwarmManagerRequest{})
		cancel()
		if err != nil || !mgr.IsManager {
			continue
		}

		cctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		nodes, err := client.ListNodes(cctx, &rpcapi.ListNodesRequest{})
		cancel()
		if err != nil {
			return nil, fmt.Errorf("list nodes via %s: %w", snap.Info.ID, err)
		}

		var infos []agentpool.Info
		for _, n := range nodes.Nodes {
			addr, ok := n.Labels[discoveryLabel]
			if !ok || addr == "" {
				continue
			}
			infos = append(infos, agentpool.Info{
				ID:      n.ID,
				Name:    n.Hostname,
				Address: addr,
				Labels:  n.Labels,
			})
		}
		return infos, nil
	}
	return nil, fmt.Errorf("no reachable swarm manager in pool")
}

func logAgentEvents(ctx context.Context, bus *events.Bus, log *logging.Logger) {
	ch, cancel := bus.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-ch:
			log.Info("agent event", "type", evt.Type, "agent_id", evt.AgentID, "message", evt.Message)
		}
	}
}

// loadStaticAgents decodes a YAML list of Static-source agents. Each entry
// matches agentpool.Info's lowercased field names (id, name, address,
// labels, version).
func loadStaticAgents(path string) ([]agentpool.Info, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var infos []agentpool.Info
	if err := yaml.Unmarshal(b, &infos); err != nil {
		return nil, fmt.Errorf("parse static agents file: %w", err)
	}
	return infos, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
