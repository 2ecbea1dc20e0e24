// Package store persists the cluster gateway's durable agent-pool state —
// Registered and Static agent records, enrollment tokens, and revoked
// certificate serials — in a local BoltDB file. Ephemeral pool state
// (health, connectivity, container counts) never touches disk; it is
// rebuilt from scratch as agents reconnect after a restart.
package store

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketAgents       = []byte("agents")        // agent id -> JSON agentpool.Info
	bucketEnrollTokens = []byte("enroll_tokens")  // token id -> JSON cluster.EnrollToken
	bucketRevokedCerts = []byte("revoked_certs")  // serial -> revocation RFC3339 timestamp
)

// Store wraps a BoltDB database for cluster gateway persistence.
type Store struct {
	db *bolt.DB
}

// Open creates or opens a BoltDB database at the given path and ensures
// all required buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketAgents, bucketEnrollTokens, bucketRevokedCerts} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying BoltDB.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveAgent persists the JSON-encoded record for a Static or Registered
// agent. Discovered agents are never persisted -- they are re-derived from
// the Swarm node list on every sync.
func (s *Store) SaveAgent(id string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAgents).Put([]byte(id), data)
	})
}

// GetAgent returns the persisted record for an agent, or nil if absent.
func (s *Store) GetAgent(id string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketAgents).Get([]byte(id))
		if v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	return data, err
}

// ListAgents returns every persisted agent record keyed by id.
func (s *Store) ListAgents() (map[string][]byte, error) {
	out := make(map[string][]byte)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAgents).ForEach(func(k, v []byte) error {
			out[string(k)] = append([]byte(nil), v...)
			return nil
		})
	})
	return out, err
}

// DeleteAgent removes a persisted agent record, e.g. on TTL expiry or
// explicit de-registration.
func (s *Store) DeleteAgent(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAgents).Delete([]byte(id))
	})
}

// SaveEnrollToken persists an enrollment token record.
func (s *Store) SaveEnrollToken(id string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEnrollTokens).Put([]byte(id), data)
	})
}

// GetEnrollToken returns a persisted enrollment token record, or nil.
func (s *Store) GetEnrollToken(id string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketEnrollTokens).Get([]byte(id))
		if v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	return data, err
}

// DeleteEnrollToken removes a consumed or expired enrollment token.
func (s *Store) DeleteEnrollToken(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEnrollTokens).Delete([]byte(id))
	})
}

// AddRevokedCert records a certificate serial as revoked.
func (s *Store) AddRevokedCert(serial string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRevokedCerts).Put([]byte(serial), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

// IsRevokedCert reports whether a certificate serial has been revoked.
func (s *Store) IsRevokedCert(serial string) (bool, error) {
	var revoked bool
	err := s.db.View(func(tx *bolt.Tx) error {
		revoked = tx.Bucket(bucketRevokedCerts).Get([]byte(serial)) != nil
		return nil
	})
	return revoked, err
}

// ListRevokedCerts returns every revoked serial mapped to its revocation
// timestamp (RFC3339).
func (s *Store) ListRevokedCerts() (map[string]string, error) {
	out := make(map[string]string)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRevokedCerts).ForEach(func(k, v []byte) error {
			out[string(k)] = string(v)
			return nil
		})
	})
	return out, err
}
