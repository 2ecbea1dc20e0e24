package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cluster.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAgentRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveAgent("agent-1", []byte(`{"id":"agent-1"}`)); err != nil {
		t.Fatalf("SaveAgent() error = %v", err)
	}

	got, err := s.GetAgent("agent-1")
	if err != nil {
		t.Fatalf("GetAgent() error = %v", err)
	}
	if string(got) != `{"id":"agent-1"}` {
		t.Errorf("GetAgent() = %s, want stored JSON", got)
	}

	if _, err := s.GetAgent("missing"); err != nil {
		t.Fatalf("GetAgent(missing) error = %v", err)
	}

	all, err := s.ListAgents()
	if err != nil {
		t.Fatalf("ListAgents() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("ListAgents() len = %d, want 1", len(all))
	}

	if err := s.DeleteAgent("agent-1"); err != nil {
		t.Fatalf("DeleteAgent() error = %v", err)
	}
	if got, _ := s.GetAgent("agent-1"); got != nil {
		t.Errorf("GetAgent() after delete = %v, want nil", got)
	}
}

func TestRevokedCerts(t *testing.T) {
	s := openTestStore(t)

	revoked, err := s.IsRevokedCert("abc123")
	if err != nil {
		t.Fatalf("IsRevokedCert() error = %v", err)
	}
	if revoked {
		t.Fatalf("IsRevokedCert() = true before revocation")
	}

	if err := s.AddRevokedCert("abc123"); err != nil {
		t.Fatalf("AddRevokedCert() error = %v", err)
	}

	revoked, err = s.IsRevokedCert("abc123")
	if err != nil {
		t.Fatalf("IsRevokedCert() error = %v", err)
	}
	if !revoked {
		t.Fatalf("IsRevokedCert() = false after revocation")
	}

	list, err := s.ListRevokedCerts()
	if err != nil {
		t.Fatalf("ListRevokedCerts() error = %v", err)
	}
	if _, ok := list["abc123"]; !ok {
		t.Errorf("ListRevokedCerts() missing abc123: %v", list)
	}
}

func TestEnrollTokenRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveEnrollToken("tok1", []byte(`{"id":"tok1"}`)); err != nil {
		t.Fatalf("SaveEnrollToken() error = %v", err)
	}
	got, err := s.GetEnrollToken("tok1")
	if err != nil {
		t.Fatalf("GetEnrollToken() error = %v", err)
	}
	if string(got) != `{"id":"tok1"}` {
		t.Errorf("GetEnrollToken() = %s", got)
	}
	if err := s.DeleteEnrollToken("tok1"); err != nil {
		t.Fatalf("DeleteEnrollToken() error = %v", err)
	}
	if got, _ := s.GetEnrollToken("tok1"); got != nil {
		t.Errorf("GetEnrollToken() after delete = %v", got)
	}
}
