package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BindAddress != "0.0.0.0:50051" {
		t.Errorf("BindAddress = %q, want 0.0.0.0:50051", cfg.BindAddress)
	}
	if cfg.CertFile != "certs/agent.crt" || cfg.KeyFile != "certs/agent.key" || cfg.CAFile != "certs/ca.crt" {
		t.Errorf("cert paths = %q/%q/%q, want certs/agent.{crt,key}, certs/ca.crt", cfg.CertFile, cfg.KeyFile, cfg.CAFile)
	}
	if cfg.EngineSocket != "" {
		t.Errorf("EngineSocket = %q, want empty", cfg.EngineSocket)
	}
	if cfg.MaxConcurrentStreams != 100 {
		t.Errorf("MaxConcurrentStreams = %d, want 100", cfg.MaxConcurrentStreams)
	}
	if cfg.InventorySyncInterval() != 2*time.Second {
		t.Errorf("InventorySyncInterval = %s, want 2s", cfg.InventorySyncInterval())
	}
	want := MultiLine{Enabled: true, TimeoutMS: 300, MaxLines: 50, RequireErrorAnchor: true}
	if cfg.MultiLine != want {
		t.Errorf("MultiLine = %+v, want %+v", cfg.MultiLine, want)
	}
	if cfg.DiscoveryLabel != "docktail.cluster.agent" {
		t.Errorf("DiscoveryLabel = %q, want docktail.cluster.agent", cfg.DiscoveryLabel)
	}
}

func TestLoadPartialDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "bind_address: 10.0.0.5:50051\nmultiline:\n  max_lines: 200\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BindAddress != "10.0.0.5:50051" {
		t.Errorf("BindAddress = %q, want 10.0.0.5:50051", cfg.BindAddress)
	}
	// Untouched fields keep their defaults.
	if cfg.CertFile != "certs/agent.crt" {
		t.Errorf("CertFile = %q, want default certs/agent.crt", cfg.CertFile)
	}
	if cfg.MaxConcurrentStreams != 100 {
		t.Errorf("MaxConcurrentStreams = %d, want default 100", cfg.MaxConcurrentStreams)
	}
	// Partial multiline document: explicit max_lines wins, the rest defaults.
	if cfg.MultiLine.MaxLines != 200 {
		t.Errorf("MultiLine.MaxLines = %d, want 200", cfg.MultiLine.MaxLines)
	}
	if !cfg.MultiLine.Enabled || cfg.MultiLine.TimeoutMS != 300 {
		t.Errorf("MultiLine = %+v, want enabled=true timeout_ms=300 preserved", cfg.MultiLine)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("bind_address: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML, got nil")
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := NewTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v, want nil", err)
	}
}

func TestValidateMultilineInvariant(t *testing.T) {
	tests := []struct {
		name    string
		ml      MultiLine
		wantErr bool
	}{
		{"disabled with zero fields ok", MultiLine{Enabled: false}, false},
		{"enabled with both set ok", MultiLine{Enabled: true, TimeoutMS: 300, MaxLines: 50}, false},
		{"enabled with zero timeout invalid", MultiLine{Enabled: true, TimeoutMS: 0, MaxLines: 50}, true},
		{"enabled with zero max_lines invalid", MultiLine{Enabled: true, TimeoutMS: 300, MaxLines: 0}, true},
		{"enabled with both zero invalid", MultiLine{Enabled: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewTestConfig()
			cfg.MultiLine = tt.ml
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRejectsEmptyBindAddress(t *testing.T) {
	cfg := NewTestConfig()
	cfg.BindAddress = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty bind_address, got nil")
	}
}

func TestValidateRejectsMissingCertMaterial(t *testing.T) {
	cfg := NewTestConfig()
	cfg.CAFile = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing ca_file, got nil")
	}
}

func TestValidateRejectsZeroSyncInterval(t *testing.T) {
	cfg := NewTestConfig()
	cfg.SetInventorySyncIntervalSecs(0)
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero inventory_sync_interval_secs, got nil")
	}
}

func TestSetInventorySyncIntervalSecsIsRuntimeVisible(t *testing.T) {
	cfg := NewTestConfig()
	cfg.SetInventorySyncIntervalSecs(10)
	if got := cfg.InventorySyncInterval(); got != 10*time.Second {
		t.Errorf("InventorySyncInterval = %s, want 10s", got)
	}
}
