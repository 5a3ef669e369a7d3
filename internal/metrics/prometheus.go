// internal/metrics/prometheus.go
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"unifimon/internal/checkapi"
	"unifimon/internal/database"
)

var (
	CheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unifimon_check_duration_seconds",
			Help:    "Time spent evaluating check plugins",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host", "plugin", "state"},
	)

	CheckTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unifimon_checks_total",
			Help: "Total number of service checks evaluated",
		},
		[]string{"host", "plugin", "state"},
	)

	ServiceState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "unifimon_service_state",
			Help: "Current state of services (0=OK, 1=Warning, 2=Critical, 3=Unknown)",
		},
		[]string{"host", "service"},
	)

	PerfValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "unifimon_service_perf_value",
			Help: "Latest value of a metric emitted by a service check",
		},
		[]string{"host", "service", "metric"},
	)

	AgentFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unifimon_agent_fetch_total",
			Help: "Agent output fetches per host",
		},
		[]string{"host", "status"},
	)

	ActiveHosts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "unifimon_active_hosts_total",
			Help: "Number of enabled hosts, piggyback hosts included",
		},
	)

	ActiveServices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "unifimon_active_services_total",
			Help: "Number of discovered services",
		},
	)

	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unifimon_database_operations_total",
			Help: "Total database operations performed",
		},
		[]string{"operation", "status"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "unifimon_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)
)

type Collector struct {
	store database.Store
}

func NewCollector(store database.Store) *Collector {
	return &Collector{store: store}
}

func (c *Collector) RecordCheckResult(host, plugin string, state checkapi.State, duration time.Duration) {
	CheckDuration.WithLabelValues(host, plugin, state.Label()).Observe(duration.Seconds())
	CheckTotal.WithLabelValues(host, plugin, state.Label()).Inc()
}

func (c *Collector) UpdateServiceState(host, service string, state checkapi.State) {
	ServiceState.WithLabelValues(host, service).Set(float64(state))
}

// RecordPerfValues exports the metrics of one service evaluation.
func (c *Collector) RecordPerfValues(host, service string, values []checkapi.Metric) {
	for _, m := range values {
		PerfValue.WithLabelValues(host, service, m.Name).Set(m.Value)
	}
}

// ForgetService drops every series of a service that vanished on rediscovery.
func (c *Collector) ForgetService(host, service string) {
	ServiceState.DeleteLabelValues(host, service)
	PerfValue.DeletePartialMatch(prometheus.Labels{"host": host, "service": service})
}

func (c *Collector) RecordFetch(host string, err error) {
	AgentFetchTotal.WithLabelValues(host, statusLabel(err)).Inc()
}

func (c *Collector) UpdateSystemMetrics(ctx context.Context) error {
	enabled := true
	hosts, err := c.store.GetHosts(ctx, database.HostFilters{Enabled: &enabled})
	c.RecordDatabaseOperation("get_hosts", err)
	if err != nil {
		return err
	}
	ActiveHosts.Set(float64(len(hosts)))

	services := 0
	for _, host := range hosts {
		svcs, err := c.store.GetServices(ctx, host.ID)
		c.RecordDatabaseOperation("get_services", err)
		if err != nil {
			return err
		}
		services += len(svcs)
	}
	ActiveServices.Set(float64(services))

	return nil
}

func (c *Collector) RecordDatabaseOperation(operation string, err error) {
	DatabaseOperations.WithLabelValues(operation, statusLabel(err)).Inc()
}

func (c *Collector) RecordWebSocketConnection(delta int) {
	WebSocketConnections.Add(float64(delta))
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
