// Package config loads and validates the Agent's configuration document.
// The Cluster gateway does not use it; it is configured by flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// MultiLine holds the multi-line log grouping defaults and per-deployment
// overrides (§3's `<ns>.multiline.*` engine labels apply on top of these).
type MultiLine struct {
	Enabled             bool `yaml:"enabled"`
	TimeoutMS           int  `yaml:"timeout_ms"`
	MaxLines            int  `yaml:"max_lines"`
	RequireErrorAnchor  bool `yaml:"require_error_anchor"`
}

// Validate enforces enabled ⇒ timeout>0 ∧ max>0.
func (m MultiLine) Validate() error {
	if !m.Enabled {
		return nil
	}
	var errs []error
	if m.TimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("multiline.timeout_ms must be > 0 when multiline.enabled, got %d", m.TimeoutMS))
	}
	if m.MaxLines <= 0 {
		errs = append(errs, fmt.Errorf("multiline.max_lines must be > 0 when multiline.enabled, got %d", m.MaxLines))
	}
	return errors.Join(errs...)
}

// Config holds the Agent's configuration document.
//
// The sync-loop interval is re-readable at runtime behind mu, since the
// inventory sync goroutine reads it on every tick while an RPC handler may
// update it.
type Config struct {
	BindAddress          string `yaml:"bind_address"`
	CertFile             string `yaml:"cert_file"`
	KeyFile              string `yaml:"key_file"`
	CAFile               string `yaml:"ca_file"`
	EngineSocket         string `yaml:"engine_socket"`
	MaxConcurrentStreams uint32 `yaml:"max_concurrent_streams"`
	MultiLine            MultiLine `yaml:"multiline"`

	// DiscoveryLabel names the Swarm node label that marks Discovered-source
	// agents (§3, supplemented; the spec names no default). The Cluster
	// gateway does not read it from here; it takes the label from its own
	// --discovery-label flag.
	DiscoveryLabel string `yaml:"discovery_label"`

	mu                       sync.RWMutex
	inventorySyncIntervalSec int
}

func defaults() *Config {
	return &Config{
		BindAddress:  "0.0.0.0:50051",
		CertFile:     "certs/agent.crt",
		KeyFile:      "certs/agent.key",
		CAFile:       "certs/ca.crt",
		EngineSocket: "",
		MaxConcurrentStreams: 100,
		MultiLine: MultiLine{
			Enabled:            true,
			TimeoutMS:          300,
			MaxLines:           50,
			RequireErrorAnchor: true,
		},
		DiscoveryLabel:           "docktail.cluster.agent",
		inventorySyncIntervalSec: 2,
	}
}

// rawConfig mirrors Config's yaml-visible fields plus the one runtime field
// that also needs a yaml tag, since Config itself can't embed a mutex and
// unmarshal cleanly at the same time.
type rawConfig struct {
	BindAddress              string    `yaml:"bind_address"`
	CertFile                 string    `yaml:"cert_file"`
	KeyFile                  string    `yaml:"key_file"`
	CAFile                   string    `yaml:"ca_file"`
	EngineSocket             string    `yaml:"engine_socket"`
	MaxConcurrentStreams     uint32    `yaml:"max_concurrent_streams"`
	MultiLine                MultiLine `yaml:"multiline"`
	DiscoveryLabel           string    `yaml:"discovery_label"`
	InventorySyncIntervalSec int       `yaml:"inventory_sync_interval_secs"`
}

// Load reads a configuration document from path. Missing fields in a
// partial document take the defaults above.
func Load(path string) (*Config, error) {
	d := defaults()
	raw := rawConfig{
		BindAddress:              d.BindAddress,
		CertFile:                 d.CertFile,
		KeyFile:                  d.KeyFile,
		CAFile:                   d.CAFile,
		EngineSocket:             d.EngineSocket,
		MaxConcurrentStreams:     d.MaxConcurrentStreams,
		MultiLine:                d.MultiLine,
		DiscoveryLabel:           d.DiscoveryLabel,
		InventorySyncIntervalSec: d.inventorySyncIntervalSec,
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fromRaw(raw), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return fromRaw(raw), nil
}

func fromRaw(r rawConfig) *Config {
	return &Config{
		BindAddress:              r.BindAddress,
		CertFile:                 r.CertFile,
		KeyFile:                  r.KeyFile,
		CAFile:                   r.CAFile,
		EngineSocket:             r.EngineSocket,
		MaxConcurrentStreams:     r.MaxConcurrentStreams,
		MultiLine:                r.MultiLine,
		DiscoveryLabel:           r.DiscoveryLabel,
		inventorySyncIntervalSec: r.InventorySyncIntervalSec,
	}
}

// NewTestConfig returns defaults suitable for tests, with setters available
// for overriding individual fields.
func NewTestConfig() *Config {
	return defaults()
}

// Validate checks the configuration document for invalid values. Fatal at
// boot per §5's propagation policy: bind address, TLS material paths, and
// the multi-line invariant are all checked here.
func (c *Config) Validate() error {
	var errs []error
	if c.BindAddress == "" {
		errs = append(errs, errors.New("bind_address must not be empty"))
	}
	if c.CertFile == "" || c.KeyFile == "" || c.CAFile == "" {
		errs = append(errs, errors.New("cert_file, key_file, and ca_file must all be set"))
	}
	if c.MaxConcurrentStreams == 0 {
		errs = append(errs, errors.New("max_concurrent_streams must be > 0"))
	}
	if err := c.MultiLine.Validate(); err != nil {
		errs = append(errs, err)
	}
	c.mu.RLock()
	sync := c.inventorySyncIntervalSec
	c.mu.RUnlock()
	if sync <= 0 {
		errs = append(errs, fmt.Errorf("inventory_sync_interval_secs must be > 0, got %d", sync))
	}
	return errors.Join(errs...)
}

// InventorySyncInterval returns the current sync interval (thread-safe).
func (c *Config) InventorySyncInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.inventorySyncIntervalSec) * time.Second
}

// SetInventorySyncIntervalSecs updates the sync interval at runtime
// (thread-safe); the sync loop picks it up on its next tick.
func (c *Config) SetInventorySyncIntervalSecs(secs int) {
	c.mu.Lock()
	c.inventorySyncIntervalSec = secs
	c.mu.Unlock()
}
