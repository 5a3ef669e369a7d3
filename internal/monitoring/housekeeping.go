// internal/monitoring/housekeeping.go - purging of stale hosts, statuses and counters
package monitoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"unifimon/internal/config"
	"unifimon/internal/database"
)

const metaLastCompaction = "last_compaction"

// Housekeeper removes data the configuration no longer backs and keeps the
// database compact.
type Housekeeper struct {
	store  database.ExtendedStore
	config *config.Config
	now    func() time.Time
}

// PurgeReport counts what a purge removed.
type PurgeReport struct {
	Hosts     int  `json:"hosts"`
	Statuses  int  `json:"statuses"`
	Counters  int  `json:"counters"`
	Compacted bool `json:"compacted"`
}

func NewHousekeeper(store database.ExtendedStore, cfg *config.Config) *Housekeeper {
	return &Housekeeper{
		store:  store,
		config: cfg,
		now:    time.Now,
	}
}

// PurgeOrphanedHosts removes hosts that are neither configured nor fed by
// the piggyback data of a configured host.
func (h *Housekeeper) PurgeOrphanedHosts(ctx context.Context) (int, error) {
	configured := make(map[string]bool, len(h.config.Hosts))
	for _, host := range h.config.Hosts {
		configured[host.Key()] = true
	}

	dbHosts, err := h.store.GetHosts(ctx, database.HostFilters{})
	if err != nil {
		return 0, fmt.Errorf("failed to get database hosts: %w", err)
	}

	purged := 0
	for _, dbHost := range dbHosts {
		if configured[dbHost.ID] || (dbHost.Piggyback() && configured[dbHost.Source]) {
			continue
		}
		logrus.WithFields(logrus.Fields{
			"host_id":   dbHost.ID,
			"host_name": dbHost.Name,
		}).Info("Purging orphaned host from database")

		if err := h.store.DeleteHost(ctx, dbHost.ID); err != nil {
			logrus.WithError(err).WithField("host_id", dbHost.ID).Error("Failed to delete orphaned host")
			continue
		}
		purged++
	}
	return purged, nil
}

// PurgeStaleStatuses removes statuses older than the retention and statuses
// of services that are no longer discovered. Piggyback hosts left without
// any status have vanished from the agent output and are removed as well.
func (h *Housekeeper) PurgeStaleStatuses(ctx context.Context) (int, int, error) {
	purged, err := h.store.DeleteStatusBefore(ctx, h.now().Add(-h.config.Database.StatusRetention))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete old statuses: %w", err)
	}

	statuses, err := h.store.GetStatus(ctx, database.StatusFilters{})
	if err != nil {
		return purged, 0, fmt.Errorf("failed to get current statuses: %w", err)
	}

	known := make(map[string]map[string]bool)
	var stale []database.HostServicePair
	for _, status := range statuses {
		ids, ok := known[status.HostID]
		if !ok {
			services, err := h.store.GetServices(ctx, status.HostID)
			if err != nil {
				return purged, 0, fmt.Errorf("failed to get services of %s: %w", status.HostID, err)
			}
			ids = make(map[string]bool, len(services))
			for _, svc := range services {
				ids[svc.ID] = true
			}
			known[status.HostID] = ids
		}
		if !ids[status.ServiceID] {
			stale = append(stale, database.HostServicePair{HostID: status.HostID, ServiceID: status.ServiceID})
		}
	}

	if len(stale) > 0 {
		n, err := h.store.BulkDeleteStatuses(ctx, stale)
		if err != nil {
			return purged, 0, fmt.Errorf("failed to delete stale statuses: %w", err)
		}
		purged += n
	}

	piggyback := true
	hosts, err := h.store.GetHosts(ctx, database.HostFilters{Piggyback: &piggyback})
	if err != nil {
		return purged, 0, fmt.Errorf("failed to get piggyback hosts: %w", err)
	}
	vanished := 0
	for _, host := range hosts {
		left, err := h.store.GetStatus(ctx, database.StatusFilters{HostID: host.ID, Limit: 1})
		if err != nil || len(left) > 0 {
			continue
		}
		if err := h.store.DeleteHost(ctx, host.ID); err != nil {
			logrus.WithError(err).WithField("host_id", host.ID).Error("Failed to delete vanished piggyback host")
			continue
		}
		logrus.WithField("host_id", host.ID).Info("Purged vanished piggyback host")
		vanished++
	}

	return purged, vanished, nil
}

// PurgeCounters drops interface counters that were not updated within the
// counter retention.
func (h *Housekeeper) PurgeCounters(ctx context.Context) (int, error) {
	n, err := h.store.DeleteCountersBefore(ctx, h.now().Add(-h.config.Database.CounterRetention))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old counters: %w", err)
	}
	return n, nil
}

// CompactIfDue compacts the database when the compaction interval elapsed.
// A zero interval disables compaction.
func (h *Housekeeper) CompactIfDue(ctx context.Context) (bool, error) {
	interval := h.config.Database.CompactInterval
	if interval <= 0 {
		return false, nil
	}

	last, found, err := h.store.GetMeta(ctx, metaLastCompaction)
	if err != nil {
		return false, err
	}
	now := h.now()
	if found && now.Sub(last) < interval {
		return false, nil
	}

	if err := h.store.CompactDatabase(ctx); err != nil {
		return false, fmt.Errorf("compaction failed: %w", err)
	}
	if err := h.store.SetMeta(ctx, metaLastCompaction, now); err != nil {
		return true, err
	}
	return true, nil
}

// PurgeAll performs a complete purge of stale data
func (h *Housekeeper) PurgeAll(ctx context.Context) (*PurgeReport, error) {
	logrus.Debug("Starting database purge")

	report := &PurgeReport{}
	var errs []string

	n, err := h.PurgeOrphanedHosts(ctx)
	if err != nil {
		errs = append(errs, fmt.Sprintf("host purge failed: %v", err))
	}
	report.Hosts += n

	statuses, vanished, err := h.PurgeStaleStatuses(ctx)
	if err != nil {
		errs = append(errs, fmt.Sprintf("status purge failed: %v", err))
	}
	report.Statuses = statuses
	report.Hosts += vanished

	if report.Counters, err = h.PurgeCounters(ctx); err != nil {
		errs = append(errs, fmt.Sprintf("counter purge failed: %v", err))
	}

	if report.Compacted, err = h.CompactIfDue(ctx); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return report, fmt.Errorf("purge completed with errors: %s", strings.Join(errs, "; "))
	}

	logrus.WithFields(logrus.Fields{
		"hosts":     report.Hosts,
		"statuses":  report.Statuses,
		"counters":  report.Counters,
		"compacted": report.Compacted,
	}).Info("Database purge finished")
	return report, nil
}

// SchedulePeriodicPurge purges once right away and then every interval.
func (h *Housekeeper) SchedulePeriodicPurge(ctx context.Context, interval time.Duration) {
	go func() {
		if _, err := h.PurgeAll(ctx); err != nil {
			logrus.WithError(err).Error("Initial purge failed")
		}
	}()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logrus.Debug("Stopping periodic purge scheduler")
				return
			case <-ticker.C:
				if _, err := h.PurgeAll(ctx); err != nil {
					logrus.WithError(err).Error("Scheduled purge failed")
				}
			}
		}
	}()

	logrus.WithField("interval", interval).Info("Scheduled periodic database purging")
}
