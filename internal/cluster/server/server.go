// Package server implements the cluster gateway's agent-facing bootstrap
// surface: one-time token enrollment, issued over gRPC like every other
// service in internal/rpcapi, and the Registered agent source's periodic
// address announcement, exposed as a small HTTP endpoint per spec §4.7
// ("ids added via HTTP registration; removal on TTL expiry").
//
// Actual RPC dispatch to an enrolled/registered agent -- inventory, logs,
// stats, shell, control, swarm -- never passes through this package; once
// an agent is in the Agent Pool the cluster gateway dials it directly and
// talks to its internal/agentrpc.Server over gRPC.
package server

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rosshhun/docktail-go/internal/agentpool"
	"github.com/rosshhun/docktail-go/internal/cluster"
	"github.com/rosshhun/docktail-go/internal/events"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
	"github.com/rosshhun/docktail-go/internal/store"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

// Server answers agent enrollment (gRPC) and registration (HTTP) requests
// over mTLS. Enroll doesn't require a client certificate (the agent has
// none yet); Register does, and the certificate's CN is trusted as the
// agent id.
type Server struct {
	rpcapi.UnimplementedEnrollmentServiceServer

	ca            *cluster.CA
	store         *store.Store
	pool          *agentpool.Pool
	bus           *events.Bus
	log           *slog.Logger
	registeredTTL time.Duration

	grpcSrv *grpc.Server
	grpcLis net.Listener
	httpSrv *http.Server
}

// New creates a Server. Call Start to begin listening.
func New(ca *cluster.CA, st *store.Store, pool *agentpool.Pool, bus *events.Bus, log *slog.Logger, registeredTTL time.Duration) *Server {
	return &Server{
		ca:            ca,
		store:         st,
		pool:          pool,
		bus:           bus,
		log:           log.With("component", "cluster-server"),
		registeredTTL: registeredTTL,
	}
}

// Handler returns the mux the HTTP half answers requests on, exported so
// tests can drive registration without a live TLS listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/register", s.handleRegister)
	return mux
}

// tlsConfig builds the mTLS config shared by both listeners: client certs
// are accepted but not required, since /Enroll is called before an agent
// holds one, and verified against the revocation list when present.
func (s *Server) tlsConfig() (*tls.Config, error) {
	certPEM, keyPEM, err := s.ca.IssueServerCert()
	if err != nil {
		return nil, fmt.Errorf("issue server cert: %w", err)
	}
	serverCert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse server keypair: %w", err)
	}

	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(s.ca.CACertPEM()) {
		return nil, fmt.Errorf("failed to add CA cert to pool")
	}

	return &tls.Config{
		Certificates:          []tls.Certificate{serverCert},
		ClientCAs:             caPool,
		MinVersion:            tls.VersionTLS13,
		ClientAuth:            tls.VerifyClientCertIfGiven,
		VerifyPeerCertificate: s.verifyCRL,
	}, nil
}

// Start listens for gRPC enrollment calls on grpcAddr and HTTP
// registration calls on httpAddr.
func (s *Server) Start(grpcAddr, httpAddr string) error {
	grpcTLS, err := s.tlsConfig()
	if err != nil {
		return fmt.Errorf("grpc tls config: %w", err)
	}
	s.grpcLis, err = net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", grpcAddr, err)
	}
	s.grpcSrv = grpc.NewServer(grpc.Creds(credentials.NewTLS(grpcTLS)))
	rpcapi.RegisterEnrollmentServiceServer(s.grpcSrv, s)

	s.log.Info("enrollment grpc server starting", "addr", s.grpcLis.Addr().String())
	go func() {
		if err := s.grpcSrv.Serve(s.grpcLis); err != nil {
			s.log.Error("enrollment grpc server exited", "error", err)
		}
	}()

	httpTLS, err := s.tlsConfig()
	if err != nil {
		return fmt.Errorf("http tls config: %w", err)
	}
	httpLis, err := tls.Listen("tcp", httpAddr, httpTLS)
	if err != nil {
		return fmt.Errorf("listen %s: %w", httpAddr, err)
	}
	s.httpSrv = &http.Server{Handler: s.Handler()}

	s.log.Info("registration http server starting", "addr", httpLis.Addr().String())
	go func() {
		if err := s.httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("registration http server exited", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down both listeners.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("stopping cluster bootstrap servers")
	var httpErr error
	if s.httpSrv != nil {
		httpErr = s.httpSrv.Shutdown(ctx)
	}
	if s.grpcSrv != nil {
		stopped := make(chan struct{})
		go func() { s.grpcSrv.GracefulStop(); close(stopped) }()
		select {
		case <-stopped:
		case <-ctx.Done():
			s.grpcSrv.Stop()
		}
	}
	return httpErr
}

// RunExpirySweep removes Registered agents that haven't re-registered
// within the TTL window, on a fixed interval, until ctx is cancelled.
func (s *Server) RunExpirySweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range s.pool.ExpireRegistered(s.registeredTTL) {
				if err := s.store.DeleteAgent(id); err != nil {
					s.log.Warn("failed to delete expired agent record", "agent_id", id, "error", err)
				}
			}
		}
	}
}

// LoadPersistedAgents re-inserts every Registered agent record saved by a
// prior handleRegister call, so a cluster gateway restart doesn't drop
// agents that simply haven't re-registered yet. Dial failures are logged
// and skipped; the agent reappears on its next registration.
func (s *Server) LoadPersistedAgents(ctx context.Context) error {
	saved, err := s.store.ListAgents()
	if err != nil {
		return fmt.Errorf("list persisted agents: %w", err)
	}
	for id, data := range saved {
		var info agentpool.Info
		if err := json.Unmarshal(data, &info); err != nil {
			s.log.Warn("failed to decode persisted agent record", "agent_id", id, "error", err)
			continue
		}
		if err := s.pool.Insert(ctx, info, agentpool.SourceRegistered); err != nil {
			s.log.Warn("failed to re-dial persisted agent", "agent_id", id, "address", info.Address, "error", err)
			continue
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Enrollment (gRPC, rpcapi.EnrollmentServiceServer)
// ---------------------------------------------------------------------------

// Enroll validates a one-time enrollment token and signs the agent's CSR.
// Called over a TLS connection the agent makes before it holds a client
// certificate of its own.
func (s *Server) Enroll(ctx context.Context, req *cluster.EnrollRequest) (*cluster.EnrollResponse, error) {
	if req.Token == "" || len(req.CSR) == 0 {
		return nil, fmt.Errorf("token and csr are required")
	}
	if len(req.Token) < 8 {
		return nil, fmt.Errorf("token too short")
	}
	tokenID := req.Token[:8]

	tok, err := s.loadEnrollToken(tokenID)
	if err != nil {
		s.log.Warn("enrollment failed: token lookup", "token_id", tokenID, "error", err)
		return nil, fmt.Errorf("invalid enrollment token")
	}
	if tok.Used {
		return nil, fmt.Errorf("token already used")
	}
	if time.Now().After(tok.ExpiresAt) {
		return nil, fmt.Errorf("token expired")
	}
	if !hmac.Equal(s.hmacToken(req.Token), tok.Hash) {
		return nil, fmt.Errorf("invalid enrollment token")
	}

	// Mark the token used before issuing certs, so a retry after a failed
	// response below can't replay it.
	tok.Used = true
	if err := s.saveEnrollToken(tok); err != nil {
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}

	agentID, err := generateAgentID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate agent id: %w", err)
	}

	certPEM, _, err := s.ca.SignCSR(req.CSR, agentID)
	if err != nil {
		s.log.Error("failed to sign csr", "agent_id", agentID, "error", err)
		return nil, fmt.Errorf("failed to sign certificate: %w", err)
	}

	s.log.Info("agent enrolled", "agent_id", agentID, "name", req.HostName)
	s.bus.Publish(events.AgentEvent{
		Type:      events.EventAgentEnrolled,
		AgentID:   agentID,
		Message:   fmt.Sprintf("host %s enrolled as %s", req.HostName, agentID),
		Timestamp: time.Now(),
	})

	return &cluster.EnrollResponse{
		AgentID:   agentID,
		CACert:    s.ca.CACertPEM(),
		AgentCert: certPEM,
	}, nil
}

// GenerateEnrollToken creates a one-time enrollment token. The plaintext
// token is returned for the caller to hand to the agent out of band; only
// its HMAC is persisted.
func (s *Server) GenerateEnrollToken(expiry time.Duration) (token string, id string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate random token: %w", err)
	}

	token = hex.EncodeToString(raw)
	id = token[:8]

	now := time.Now()
	tok := &cluster.EnrollToken{
		ID:        id,
		Hash:      s.hmacToken(token),
		CreatedAt: now,
		ExpiresAt: now.Add(expiry),
	}

	if err := s.saveEnrollToken(tok); err != nil {
		return "", "", fmt.Errorf("persist token: %w", err)
	}

	s.log.Info("enrollment token generated", "id", id, "expires", tok.ExpiresAt.Format(time.RFC3339))
	return token, id, nil
}

// ---------------------------------------------------------------------------
// Registration (HTTP)
// ---------------------------------------------------------------------------

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	agentID, err := extractAgentID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	if revoked, err := s.isCertRevoked(r); err != nil {
		s.log.Error("cert revocation check failed", "error", err)
		http.Error(w, "revocation check unavailable", http.StatusInternalServerError)
		return
	} else if revoked {
		http.Error(w, "certificate has been revoked", http.StatusForbidden)
		return
	}

	var req cluster.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Address == "" {
		http.Error(w, "address is required", http.StatusBadRequest)
		return
	}

	info := agentpool.Info{ID: agentID, Name: req.Name, Address: req.Address, Labels: req.Labels, Version: req.Version}
	if err := s.pool.Insert(r.Context(), info, agentpool.SourceRegistered); err != nil {
		s.log.Warn("failed to dial registering agent", "agent_id", agentID, "address", req.Address, "error", err)
		http.Error(w, "failed to establish connection to agent", http.StatusBadGateway)
		return
	}

	if data, err := json.Marshal(info); err != nil {
		s.log.Warn("failed to encode agent record for persistence", "agent_id", agentID, "error", err)
	} else if err := s.store.SaveAgent(agentID, data); err != nil {
		s.log.Warn("failed to persist agent record", "agent_id", agentID, "error", err)
	}

	writeJSON(w, http.StatusOK, cluster.RegisterResponse{TTLSeconds: int(s.registeredTTL / time.Second)})
}

// ---------------------------------------------------------------------------
// TLS / CRL helpers
// ---------------------------------------------------------------------------

// verifyCRL is the TLS VerifyPeerCertificate callback shared by both
// listeners. It runs after standard chain validation and rejects a client
// cert whose serial is on the revocation list. A no-op when no client cert
// was presented, so Enroll remains reachable.
func (s *Server) verifyCRL(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return nil
	}

	leaf, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("parse client cert: %w", err)
	}

	serial := fmt.Sprintf("%x", leaf.SerialNumber)
	revoked, err := s.store.IsRevokedCert(serial)
	if err != nil {
		s.log.Error("CRL check failed, rejecting connection", "serial", serial, "error", err)
		return fmt.Errorf("CRL check unavailable")
	}
	if revoked {
		return fmt.Errorf("certificate %s has been revoked", serial)
	}
	return nil
}

// isCertRevoked is the per-request counterpart to verifyCRL, used by
// handlers that need the answer rather than a TLS handshake abort.
func (s *Server) isCertRevoked(r *http.Request) (bool, error) {
	if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
		return false, nil
	}
	serial := fmt.Sprintf("%x", r.TLS.PeerCertificates[0].SerialNumber)
	return s.store.IsRevokedCert(serial)
}

// extractAgentID trusts the CN of the caller's mTLS client certificate as
// its agent id -- the same identity the CA stamped onto the cert in
// SignCSR during enrollment.
func extractAgentID(r *http.Request) (string, error) {
	if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
		return "", fmt.Errorf("no client certificate presented")
	}
	cn := r.TLS.PeerCertificates[0].Subject.CommonName
	if cn == "" {
		return "", fmt.Errorf("client certificate CN is empty")
	}
	return cn, nil
}

// ---------------------------------------------------------------------------
// Token helpers
// ---------------------------------------------------------------------------

// hmacToken computes HMAC-SHA256 of the plaintext token using the CA
// certificate's PEM bytes as key material -- stable and unique per cluster
// gateway instance without needing a separate secret.
func (s *Server) hmacToken(token string) []byte {
	mac := hmac.New(sha256.New, s.ca.CACertPEM())
	mac.Write([]byte(token))
	return mac.Sum(nil)
}

func (s *Server) loadEnrollToken(id string) (*cluster.EnrollToken, error) {
	data, err := s.store.GetEnrollToken(id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("token %s not found", id)
	}
	var tok cluster.EnrollToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	return &tok, nil
}

func (s *Server) saveEnrollToken(tok *cluster.EnrollToken) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	return s.store.SaveEnrollToken(tok.ID, data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// generateAgentID creates a random 16-byte hex string for use as an agent
// id. Raw crypto/rand rather than a UUID library, to avoid an extra
// dependency for sixteen random bytes.
func generateAgentID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
