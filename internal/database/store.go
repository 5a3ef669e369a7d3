// internal/database/store.go
package database

import (
	"context"
	"time"

	"unifimon/internal/checkapi"
)

// Store defines the interface for database operations
type Store interface {
	// Host operations
	GetHosts(ctx context.Context, filters HostFilters) ([]Host, error)
	GetHost(ctx context.Context, id string) (*Host, error)
	UpsertHost(ctx context.Context, host *Host) error
	DeleteHost(ctx context.Context, id string) error

	// Service operations
	GetServices(ctx context.Context, hostID string) ([]Service, error)
	ReplaceServices(ctx context.Context, hostID string, services []Service) error

	// Status operations
	GetStatus(ctx context.Context, filters StatusFilters) ([]Status, error)
	UpdateStatus(ctx context.Context, status *Status) error
	DeleteStatus(ctx context.Context, hostID, serviceID string) error

	// Inventory operations
	GetInventory(ctx context.Context, hostID string) (*InventoryRecord, error)
	UpdateInventory(ctx context.Context, rec *InventoryRecord) error

	// Counters returns the counter store of a host.
	Counters(hostID string) checkapi.ValueStore

	Close() error
}

// ExtendedStore adds the housekeeping operations.
type ExtendedStore interface {
	Store

	DeleteStatusBefore(ctx context.Context, cutoff time.Time) (int, error)
	BulkDeleteStatuses(ctx context.Context, pairs []HostServicePair) (int, error)
	DeleteCountersBefore(ctx context.Context, cutoff time.Time) (int, error)

	CompactDatabase(ctx context.Context) error
	GetDatabaseStats(ctx context.Context) (*DatabaseStats, error)

	// Meta values record housekeeping bookkeeping such as the last compaction.
	GetMeta(ctx context.Context, key string) (time.Time, bool, error)
	SetMeta(ctx context.Context, key string, t time.Time) error
}
