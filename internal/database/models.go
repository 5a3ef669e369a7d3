// internal/database/models.go
package database

import (
	"time"

	"unifimon/internal/checkapi"
	"unifimon/internal/inventory"
)

// Host is a monitored host: either configured directly or learned from the
// piggyback data of a configured source.
type Host struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Address       string            `json:"address"`
	Source        string            `json:"source,omitempty"` // piggyback source host
	Enabled       bool              `json:"enabled"`
	Labels        map[string]string `json:"labels,omitempty"`
	LastDiscovery time.Time         `json:"last_discovery"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Piggyback reports whether the host was learned from another host's data.
func (h Host) Piggyback() bool {
	return h.Source != ""
}

// Service is a discovered service of a host.
type Service struct {
	ID           string          `json:"id"`
	HostID       string          `json:"host_id"`
	Plugin       string          `json:"plugin"`
	Item         string          `json:"item"`
	Description  string          `json:"description"`
	Parameters   checkapi.Params `json:"parameters,omitempty"`
	DiscoveredAt time.Time       `json:"discovered_at"`
}

// ServiceID builds the id of the service of plugin for item.
func ServiceID(plugin, item string) string {
	if item == "" {
		return plugin
	}
	return plugin + "/" + item
}

// Status is the latest result of a service.
type Status struct {
	ID          string            `json:"id"`
	RunID       string            `json:"run_id"`
	HostID      string            `json:"host_id"`
	ServiceID   string            `json:"service_id"`
	Description string            `json:"description"`
	ExitCode    int               `json:"exit_code"`
	Output      string            `json:"output"`
	PerfData    string            `json:"perf_data"`
	LongOutput  string            `json:"long_output"`
	Metrics     []checkapi.Metric `json:"metrics,omitempty"`
	Duration    float64           `json:"duration_ms"`
	Timestamp   time.Time         `json:"timestamp"`
}

// InventoryRecord is the latest inventory tree of a host.
type InventoryRecord struct {
	HostID    string          `json:"host_id"`
	Tree      *inventory.Tree `json:"tree"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type HostFilters struct {
	Enabled   *bool
	Source    string
	Piggyback *bool
}

type StatusFilters struct {
	HostID    string
	ServiceID string
	ExitCode  *int
	Since     *time.Time
	Limit     int
}

// HostServicePair identifies a status entry for bulk operations.
type HostServicePair struct {
	HostID    string
	ServiceID string
}

// DatabaseStats provides information about database size and health
type DatabaseStats struct {
	TotalHosts         int       `json:"total_hosts"`
	TotalServices      int       `json:"total_services"`
	TotalStatusEntries int       `json:"total_status_entries"`
	TotalInventories   int       `json:"total_inventories"`
	TotalCounters      int       `json:"total_counters"`
	DatabaseSize       int64     `json:"database_size_bytes"`
	OldestEntry        time.Time `json:"oldest_entry"`
	NewestEntry        time.Time `json:"newest_entry"`
}
