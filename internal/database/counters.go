// internal/database/counters.go
package database

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"unifimon/internal/checkapi"
)

// counterStore persists the interface counters of one host so rates survive
// restarts of the daemon.
type counterStore struct {
	store  *BoltStore
	hostID string
}

func (s *BoltStore) Counters(hostID string) checkapi.ValueStore {
	return &counterStore{store: s, hostID: hostID}
}

func (c *counterStore) GetValue(key string) (checkapi.Counter, bool) {
	var counter checkapi.Counter
	found := false

	err := c.store.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(CountersBucket).Get(hostKey(c.hostID, key))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &counter); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"host":  c.hostID,
			"key":   key,
			"error": err,
		}).Warn("Dropping unreadable counter")
		return checkapi.Counter{}, false
	}
	return counter, found
}

func (c *counterStore) SetValue(key string, counter checkapi.Counter) error {
	return c.store.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx.Bucket(CountersBucket), hostKey(c.hostID, key), counter)
	})
}
