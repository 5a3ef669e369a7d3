// internal/database/boltstore_extended.go - housekeeping on the BoltDB store
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"unifimon/internal/checkapi"
)

func (s *BoltStore) DeleteStatus(ctx context.Context, hostID, serviceID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(StatusBucket).Delete(hostKey(hostID, serviceID))
	})
}

// deleteWhere removes every entry of bucket for which drop returns true.
func (s *BoltStore) deleteWhere(bucket []byte, drop func(v []byte) bool) (int, error) {
	var doomed [][]byte
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if err := b.ForEach(func(k, v []byte) error {
			if drop(v) {
				doomed = append(doomed, copyBytes(k))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range doomed {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(doomed), nil
}

// DeleteStatusBefore removes status entries not refreshed since cutoff,
// e.g. of services whose host stopped delivering data. Undecodable
// entries go as well.
func (s *BoltStore) DeleteStatusBefore(ctx context.Context, cutoff time.Time) (int, error) {
	n, err := s.deleteWhere(StatusBucket, func(v []byte) bool {
		var status Status
		return json.Unmarshal(v, &status) != nil || status.Timestamp.Before(cutoff)
	})
	if err != nil {
		return 0, fmt.Errorf("deleting statuses before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if n > 0 {
		logrus.WithFields(logrus.Fields{"deleted": n, "cutoff": cutoff}).Info("Deleted stale status entries")
	}
	return n, nil
}

// DeleteCountersBefore drops interface counters last written before cutoff.
func (s *BoltStore) DeleteCountersBefore(ctx context.Context, cutoff time.Time) (int, error) {
	n, err := s.deleteWhere(CountersBucket, func(v []byte) bool {
		var counter checkapi.Counter
		return json.Unmarshal(v, &counter) != nil || counter.Timestamp.Before(cutoff)
	})
	if err != nil {
		return 0, fmt.Errorf("deleting counters before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return n, nil
}

// BulkDeleteStatuses deletes the status entries of several services in one
// transaction and reports how many existed.
func (s *BoltStore) BulkDeleteStatuses(ctx context.Context, pairs []HostServicePair) (int, error) {
	n := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(StatusBucket)
		for _, p := range pairs {
			key := hostKey(p.HostID, p.ServiceID)
			if b.Get(key) == nil {
				continue
			}
			if err := b.Delete(key); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("bulk status delete: %w", err)
	}
	logrus.WithField("deleted", n).Debug("Bulk deleted status entries")
	return n, nil
}

func (s *BoltStore) GetDatabaseStats(ctx context.Context) (*DatabaseStats, error) {
	stats := &DatabaseStats{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		count := func(name []byte) int { return tx.Bucket(name).Stats().KeyN }
		stats.TotalHosts = count(HostsBucket)
		stats.TotalServices = count(ServicesBucket)
		stats.TotalStatusEntries = count(StatusBucket)
		stats.TotalInventories = count(InventoryBucket)
		stats.TotalCounters = count(CountersBucket)

		return tx.Bucket(StatusBucket).ForEach(func(_, v []byte) error {
			var status Status
			if json.Unmarshal(v, &status) != nil {
				return nil
			}
			ts := status.Timestamp
			if stats.OldestEntry.IsZero() || ts.Before(stats.OldestEntry) {
				stats.OldestEntry = ts
			}
			if ts.After(stats.NewestEntry) {
				stats.NewestEntry = ts
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("database stats: %w", err)
	}

	if fi, err := os.Stat(s.path); err == nil {
		stats.DatabaseSize = fi.Size()
	}
	return stats, nil
}

// CompactDatabase rewrites all buckets into a fresh file and swaps it in,
// releasing the pages freed by deletions.
func (s *BoltStore) CompactDatabase(ctx context.Context) error {
	tmp := s.path + ".compact"
	if err := s.copyTo(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("compaction copy: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing database: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("swapping compacted database: %w", err)
	}
	db, err := bbolt.Open(s.path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("reopening compacted database: %w", err)
	}
	s.db = db

	logrus.WithField("path", s.path).Info("Database compacted")
	return nil
}

func (s *BoltStore) copyTo(path string) error {
	dst, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return err
	}
	err = s.db.View(func(src *bbolt.Tx) error {
		return dst.Update(func(tx *bbolt.Tx) error {
			for _, name := range allBuckets {
				to, err := tx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				from := src.Bucket(name)
				if from == nil {
					continue
				}
				// src stays open until dst commits
				if err := from.ForEach(to.Put); err != nil {
					return fmt.Errorf("bucket %s: %w", name, err)
				}
			}
			return nil
		})
	})
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	return err
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// GetMeta reads a timestamp kept under key in the meta bucket.
func (s *BoltStore) GetMeta(ctx context.Context, key string) (time.Time, bool, error) {
	var (
		t     time.Time
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(MetaBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		return t.UnmarshalText(v)
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("meta %s: %w", key, err)
	}
	return t, found, nil
}

func (s *BoltStore) SetMeta(ctx context.Context, key string, t time.Time) error {
	v, err := t.MarshalText()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(MetaBucket).Put([]byte(key), v)
	})
}
