// internal/database/boltstore.go - BoltDB implementation
package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var (
	HostsBucket     = []byte("hosts")
	ServicesBucket  = []byte("services")
	StatusBucket    = []byte("status")
	InventoryBucket = []byte("inventory")
	CountersBucket  = []byte("counters")
	MetaBucket      = []byte("meta")
)

var allBuckets = [][]byte{HostsBucket, ServicesBucket, StatusBucket, InventoryBucket, CountersBucket, MetaBucket}

// keys of per host entries are "<host>|<rest>"; '|' never occurs in host
// names since it separates agent fields
const keySep = "|"

var errLimitReached = errors.New("limit reached")

var _ ExtendedStore = (*BoltStore)(nil)

type BoltStore struct {
	db   *bbolt.DB
	path string
}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}

	store := &BoltStore{db: db, path: path}

	if err := store.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return store, nil
}

func (s *BoltStore) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
}

func hostKey(hostID, rest string) []byte {
	return []byte(hostID + keySep + rest)
}

func hostPrefix(hostID string) []byte {
	return []byte(hostID + keySep)
}

// deletePrefix removes all keys of b starting with prefix.
func deletePrefix(b *bbolt.Bucket, prefix []byte) (int, error) {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		keys = append(keys, copyBytes(k))
	}
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

func putJSON(b *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return b.Put(key, data)
}

func (s *BoltStore) GetHosts(ctx context.Context, filters HostFilters) ([]Host, error) {
	var hosts []Host

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(HostsBucket)
		return b.ForEach(func(k, v []byte) error {
			var host Host
			if err := json.Unmarshal(v, &host); err != nil {
				return fmt.Errorf("failed to unmarshal host %s: %w", k, err)
			}

			if filters.Enabled != nil && host.Enabled != *filters.Enabled {
				return nil
			}
			if filters.Source != "" && host.Source != filters.Source {
				return nil
			}
			if filters.Piggyback != nil && host.Piggyback() != *filters.Piggyback {
				return nil
			}

			hosts = append(hosts, host)
			return nil
		})
	})

	return hosts, err
}

func (s *BoltStore) GetHost(ctx context.Context, id string) (*Host, error) {
	var host Host

	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(HostsBucket).Get([]byte(id))
		if v == nil {
			return fmt.Errorf("host %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(v, &host)
	})

	if err != nil {
		return nil, err
	}
	return &host, nil
}

// UpsertHost creates the host or updates it, keeping its creation time.
func (s *BoltStore) UpsertHost(ctx context.Context, host *Host) error {
	if host.ID == "" {
		host.ID = host.Name
	}
	if host.ID == "" {
		return fmt.Errorf("host without id and name")
	}
	now := time.Now()

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(HostsBucket)

		host.CreatedAt = now
		if v := b.Get([]byte(host.ID)); v != nil {
			var existing Host
			if err := json.Unmarshal(v, &existing); err == nil {
				host.CreatedAt = existing.CreatedAt
			}
		}
		host.UpdatedAt = now

		return putJSON(b, []byte(host.ID), host)
	})
}

// DeleteHost removes the host together with its services, status entries,
// inventory and counters.
func (s *BoltStore) DeleteHost(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(HostsBucket).Delete([]byte(id)); err != nil {
			return err
		}
		if err := tx.Bucket(InventoryBucket).Delete([]byte(id)); err != nil {
			return err
		}
		for _, name := range [][]byte{ServicesBucket, StatusBucket, CountersBucket} {
			if _, err := deletePrefix(tx.Bucket(name), hostPrefix(id)); err != nil {
				return fmt.Errorf("failed to delete %s of host %s: %w", name, id, err)
			}
		}
		return nil
	})
}

func (s *BoltStore) GetServices(ctx context.Context, hostID string) ([]Service, error) {
	var services []Service

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(ServicesBucket).Cursor()
		prefix := hostPrefix(hostID)
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var svc Service
			if err := json.Unmarshal(v, &svc); err != nil {
				return fmt.Errorf("failed to unmarshal service %s: %w", k, err)
			}
			services = append(services, svc)
		}
		return nil
	})

	sort.Slice(services, func(i, j int) bool { return services[i].Description < services[j].Description })
	return services, err
}

// ReplaceServices sets the discovered services of a host. Status entries of
// vanished services are removed as well.
func (s *BoltStore) ReplaceServices(ctx context.Context, hostID string, services []Service) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(ServicesBucket)
		if _, err := deletePrefix(b, hostPrefix(hostID)); err != nil {
			return fmt.Errorf("failed to clear services: %w", err)
		}

		keep := make(map[string]bool, len(services))
		for i := range services {
			svc := &services[i]
			svc.HostID = hostID
			if svc.ID == "" {
				svc.ID = ServiceID(svc.Plugin, svc.Item)
			}
			keep[svc.ID] = true
			if err := putJSON(b, hostKey(hostID, svc.ID), svc); err != nil {
				return err
			}
		}

		sb := tx.Bucket(StatusBucket)
		var stale [][]byte
		c := sb.Cursor()
		prefix := hostPrefix(hostID)
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			if !keep[string(k[len(prefix):])] {
				stale = append(stale, copyBytes(k))
			}
		}
		for _, k := range stale {
			if err := sb.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) GetStatus(ctx context.Context, filters StatusFilters) ([]Status, error) {
	var statuses []Status

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(StatusBucket).Cursor()
		var prefix []byte
		if filters.HostID != "" {
			prefix = hostPrefix(filters.HostID)
		}

		k, v := c.First()
		if prefix != nil {
			k, v = c.Seek(prefix)
		}
		for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var status Status
			if err := json.Unmarshal(v, &status); err != nil {
				continue // skip malformed entries
			}

			if filters.ServiceID != "" && status.ServiceID != filters.ServiceID {
				continue
			}
			if filters.ExitCode != nil && status.ExitCode != *filters.ExitCode {
				continue
			}
			if filters.Since != nil && status.Timestamp.Before(*filters.Since) {
				continue
			}

			statuses = append(statuses, status)
			if filters.Limit > 0 && len(statuses) >= filters.Limit {
				return errLimitReached
			}
		}
		return nil
	})

	if errors.Is(err, errLimitReached) {
		err = nil
	}
	return statuses, err
}

func (s *BoltStore) UpdateStatus(ctx context.Context, status *Status) error {
	if status.ID == "" {
		status.ID = uuid.New().String()
	}
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx.Bucket(StatusBucket), hostKey(status.HostID, status.ServiceID), status)
	})
}

func (s *BoltStore) GetInventory(ctx context.Context, hostID string) (*InventoryRecord, error) {
	var rec InventoryRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(InventoryBucket).Get([]byte(hostID))
		if v == nil {
			return fmt.Errorf("inventory of %s: %w", hostID, ErrNotFound)
		}
		return json.Unmarshal(v, &rec)
	})

	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *BoltStore) UpdateInventory(ctx context.Context, rec *InventoryRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx.Bucket(InventoryBucket), []byte(rec.HostID), rec)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
