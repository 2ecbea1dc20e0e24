// Package agent implements the bootstrap lifecycle of a docktail-go agent:
// one-time enrollment with the cluster gateway (PKCS#10 CSR exchanged for
// an mTLS identity), then serving the Agent-side RPC Surface
// (internal/agentrpc.Server) over mTLS while periodically refreshing its
// address in the cluster gateway's Registered agent source (spec §4.7).
package agent

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/rosshhun/docktail-go/internal/agentrpc"
	"github.com/rosshhun/docktail-go/internal/cluster"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
)

// Config holds agent-specific bootstrap configuration.
type Config struct {
	EnrollAddr    string // cluster gateway's enrollment gRPC address (host:port)
	RegisterAddr  string // cluster gateway's registration HTTP address (host:port)
	ListenAddr    string // address this agent's own RPC Surface listens on
	AdvertiseAddr string // address advertised to the cluster gateway, defaults to ListenAddr
	EnrollToken   string // one-time enrollment token (empty if already enrolled)
	HostName      string // human-readable label for this agent
	DataDir       string // directory for certs, keys, and the persisted agent id
	Version       string // agent binary version
}

// Agent owns the enrollment and registration lifecycle for one docktail-go
// agent process. Once enrolled it serves rpcSrv's RPC Surface over mTLS and
// keeps the cluster gateway's Registered entry for this agent alive.
type Agent struct {
	cfg    Config
	rpcSrv *agentrpc.Server
	log    *slog.Logger

	agentID string // assigned by the cluster gateway during enrollment

	certPath string
	keyPath  string
	caPath   string

	grpcSrv *grpc.Server
}

// New creates a new Agent. Call Run to start the bootstrap lifecycle.
func New(cfg Config, rpcSrv *agentrpc.Server, log *slog.Logger) *Agent {
	if cfg.AdvertiseAddr == "" {
		cfg.AdvertiseAddr = cfg.ListenAddr
	}
	return &Agent{
		cfg:      cfg,
		rpcSrv:   rpcSrv,
		log:      log,
		certPath: filepath.Join(cfg.DataDir, "agent.pem"),
		keyPath:  filepath.Join(cfg.DataDir, "agent-key.pem"),
		caPath:   filepath.Join(cfg.DataDir, "ca.pem"),
	}
}

// Run enrolls the agent if needed, starts the local RPC Surface listener,
// and runs the registration-refresh loop. Blocks until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	a.log.Info("agent starting", "enroll_addr", a.cfg.EnrollAddr, "host", a.cfg.HostName)

	if err := os.MkdirAll(a.cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if !a.isEnrolled() {
		if a.cfg.EnrollToken == "" {
			return fmt.Errorf("not enrolled and no enrollment token provided")
		}
		a.log.Info("not enrolled, starting enrollment")
		if err := a.enroll(ctx); err != nil {
			return fmt.Errorf("enrollment failed: %w", err)
		}
		a.log.Info("enrollment complete", "agent_id", a.agentID)
	} else {
		id, err := os.ReadFile(filepath.Join(a.cfg.DataDir, "agent-id"))
		if err != nil {
			return fmt.Errorf("read agent id: %w", err)
		}
		a.agentID = strings.TrimSpace(string(id))
		a.log.Info("already enrolled", "agent_id", a.agentID)
	}

	tlsCfg, err := a.loadClientTLSConfig()
	if err != nil {
		return fmt.Errorf("load mTLS credentials: %w", err)
	}

	lis, err := net.Listen("tcp", a.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.ListenAddr, err)
	}

	a.grpcSrv = grpc.NewServer(grpc.Creds(credentials.NewTLS(serverTLSConfig(tlsCfg))))
	rpcapi.RegisterInventoryServiceServer(a.grpcSrv, a.rpcSrv)
	rpcapi.RegisterLogServiceServer(a.grpcSrv, a.rpcSrv)
	rpcapi.RegisterShellServiceServer(a.grpcSrv, a.rpcSrv)
	rpcapi.RegisterHealthServiceServer(a.grpcSrv, a.rpcSrv)
	rpcapi.RegisterControlServiceServer(a.grpcSrv, a.rpcSrv)
	rpcapi.RegisterStatsServiceServer(a.grpcSrv, a.rpcSrv)
	rpcapi.RegisterSwarmServiceServer(a.grpcSrv, a.rpcSrv)

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.grpcSrv.Serve(lis) }()
	a.log.Info("rpc surface listening", "addr", lis.Addr().String())

	go a.registrationLoop(ctx, tlsCfg)

	select {
	case <-ctx.Done():
		a.grpcSrv.GracefulStop()
		return ctx.Err()
	case err := <-serveErr:
		return fmt.Errorf("rpc surface exited: %w", err)
	}
}

// isEnrolled returns true if the agent's certificate, key, and CA files
// all exist on disk.
func (a *Agent) isEnrolled() bool {
	_, certErr := os.Stat(a.certPath)
	_, keyErr := os.Stat(a.keyPath)
	_, caErr := os.Stat(a.caPath)
	return certErr == nil && keyErr == nil && caErr == nil
}

// enroll performs the one-time enrollment handshake with the cluster
// gateway. Generates an ECDSA P-256 key pair, creates a PKCS#10 CSR,
// connects to the gateway's enrollment gRPC endpoint WITHOUT mTLS (it has
// no client cert yet), and exchanges the enrollment token for a signed
// certificate.
func (a *Agent) enroll(ctx context.Context) error {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	csrTemplate := &x509.CertificateRequest{}
	csrTemplate.Subject.CommonName = a.cfg.HostName
	csrDER, err := x509.CreateCertificateRequest(rand.Reader, csrTemplate, key)
	if err != nil {
		return fmt.Errorf("create csr: %w", err)
	}

	// Speak TLS but skip server verification — we don't have the CA cert
	// yet, it comes back in the enrollment response.
	enrollTLS := &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // bootstrapping, no CA yet
		MinVersion:         tls.VersionTLS13,
	}
	conn, err := grpc.NewClient(
		a.cfg.EnrollAddr,
		grpc.WithTransportCredentials(credentials.NewTLS(enrollTLS)),
	)
	if err != nil {
		return fmt.Errorf("dial for enrollment: %w", err)
	}
	defer conn.Close()

	client := rpcapi.NewEnrollmentServiceClient(conn)
	resp, err := client.Enroll(ctx, &cluster.EnrollRequest{
		Token:    a.cfg.EnrollToken,
		HostName: a.cfg.HostName,
		CSR:      csrDER,
	})
	if err != nil {
		return fmt.Errorf("enroll rpc: %w", err)
	}

	a.agentID = resp.AgentID

	// Persist credentials. Order matters: write the key last so a partial
	// write leaves the agent in an "unenrolled" state that retries cleanly.
	if err := os.WriteFile(a.caPath, resp.CACert, 0600); err != nil {
		return fmt.Errorf("write ca cert: %w", err)
	}
	if err := os.WriteFile(a.certPath, resp.AgentCert, 0600); err != nil {
		return fmt.Errorf("write agent cert: %w", err)
	}

	idPath := filepath.Join(a.cfg.DataDir, "agent-id")
	if err := os.WriteFile(idPath, []byte(a.agentID), 0600); err != nil {
		return fmt.Errorf("write agent id: %w", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(a.keyPath, keyPEM, 0600); err != nil {
		return fmt.Errorf("write agent key: %w", err)
	}

	return nil
}

// loadClientTLSConfig builds the base TLS config from the agent's enrolled
// credentials. Callers derive client and server configs from it.
func (a *Agent) loadClientTLSConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(a.certPath, a.keyPath)
	if err != nil {
		return nil, fmt.Errorf("load agent cert/key: %w", err)
	}

	caPEM, err := os.ReadFile(a.caPath)
	if err != nil {
		return nil, fmt.Errorf("read ca cert: %w", err)
	}

	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("failed to parse ca cert")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caPool,
		ClientCAs:    caPool,
		MinVersion:   tls.VersionTLS13,
	}, nil
}

// serverTLSConfig adapts the shared mTLS config for the RPC Surface
// listener, requiring a client certificate signed by the same CA — only
// the cluster gateway should be able to dial in.
func serverTLSConfig(base *tls.Config) *tls.Config {
	cfg := base.Clone()
	cfg.ClientAuth = tls.RequireAndVerifyClientCert
	return cfg
}

// registrationLoop announces this agent's RPC Surface address to the
// cluster gateway's Registered source and keeps re-announcing before the
// TTL the gateway hands back expires. Runs until ctx is cancelled.
func (a *Agent) registrationLoop(ctx context.Context, tlsCfg *tls.Config) {
	httpClient := &http.Client{
		Transport: &http.Transport{TLSClientConfig: tlsCfg},
		Timeout:   10 * time.Second,
	}

	bo := newBackoff()
	for {
		ttl, err := a.register(ctx, httpClient)
		var wait time.Duration
		if err != nil {
			wait = bo.next()
			a.log.Warn("registration failed, retrying", "error", err, "backoff", wait)
		} else {
			bo.reset()
			// Refresh at two-thirds of the TTL so a missed attempt still
			// leaves room for a retry before the gateway expires the entry.
			wait = (ttl * 2) / 3
			if wait <= 0 {
				wait = 10 * time.Second
			}
			a.log.Debug("registered with cluster gateway", "ttl", ttl, "next_refresh", wait)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// register sends one registration request and returns the TTL the gateway
// granted.
func (a *Agent) register(ctx context.Context, client *http.Client) (time.Duration, error) {
	body, err := json.Marshal(cluster.RegisterRequest{
		Address: a.cfg.AdvertiseAddr,
		Name:    a.cfg.HostName,
		Version: a.cfg.Version,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal register request: %w", err)
	}

	url := fmt.Sprintf("https://%s/v1/register", a.cfg.RegisterAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("register request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("register rejected: status %d", resp.StatusCode)
	}

	var out cluster.RegisterResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode register response: %w", err)
	}
	return time.Duration(out.TTLSeconds) * time.Second, nil
}

// --- Backoff ---

// backoff implements exponential backoff for registration retries. Caps
// at maxDelay.
type backoff struct {
	attempt  int
	base     time.Duration
	maxDelay time.Duration
}

func newBackoff() *backoff {
	return &backoff{
		base:     1 * time.Second,
		maxDelay: 30 * time.Second,
	}
}

// next returns the next backoff delay and increments the attempt counter.
// Sequence: 1s, 2s, 4s, 8s, 16s, 30s, 30s, ...
func (b *backoff) next() time.Duration {
	shift := b.attempt
	if shift > 30 {
		shift = 30
	}
	delay := b.base << uint(shift) //nolint:gosec // capped above
	if delay > b.maxDelay || delay < 0 {
		delay = b.maxDelay
	}
	b.attempt++
	return delay
}

// reset clears the attempt counter after a successful registration.
func (b *backoff) reset() {
	b.attempt = 0
}
