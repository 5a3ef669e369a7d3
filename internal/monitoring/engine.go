// internal/monitoring/engine.go
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"unifimon/internal/agent"
	"unifimon/internal/checkapi"
	"unifimon/internal/config"
	"unifimon/internal/database"
	"unifimon/internal/metrics"
	"unifimon/internal/unifi"
)

// StatusHandler is called for every stored status. changed is set when the
// state differs from the previous run.
type StatusHandler func(status database.Status, changed bool)

type Engine struct {
	config      *config.Config
	store       database.Store
	metrics     *metrics.Collector
	registry    *checkapi.Registry
	tracker     *StateTracker
	housekeeper *Housekeeper
	scheduler   *Scheduler

	handlers      []StatusHandler
	lastInventory map[string]time.Time
	mu            sync.RWMutex
	running       bool

	now func() time.Time
}

// RunOptions modify a single host run.
type RunOptions struct {
	ForceDiscovery bool
	ForceInventory bool
}

// Run summarizes the evaluation of one agent output.
type Run struct {
	ID       string            `json:"id"`
	Source   string            `json:"source"`
	Hosts    []string          `json:"hosts"`
	Services int               `json:"services"`
	States   map[string]int    `json:"states"`
	Errors   map[string]string `json:"errors,omitempty"`
	Duration time.Duration     `json:"duration"`
}

func NewEngine(cfg *config.Config, store database.Store, metricsCollector *metrics.Collector) (*Engine, error) {
	reg := checkapi.NewRegistry()
	if err := unifi.Register(reg); err != nil {
		return nil, fmt.Errorf("failed to register plugins: %w", err)
	}

	engine := &Engine{
		config:        cfg,
		store:         store,
		metrics:       metricsCollector,
		registry:      reg,
		tracker:       NewStateTracker(),
		lastInventory: make(map[string]time.Time),
		now:           time.Now,
	}

	if ext, ok := store.(database.ExtendedStore); ok {
		engine.housekeeper = NewHousekeeper(ext, cfg)
	} else {
		logrus.Warn("Store does not support housekeeping, purging disabled")
	}

	engine.scheduler = NewScheduler(engine)

	logrus.WithFields(logrus.Fields{
		"checks":    len(reg.Checks()),
		"inventory": len(reg.InventoryPlugins()),
	}).Info("Loaded plugins")

	return engine, nil
}

func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.mu.Unlock()

	logrus.Info("Starting monitoring engine")

	if err := e.syncConfig(ctx); err != nil {
		logrus.WithError(err).Error("Failed to sync config")
		return err
	}

	if err := e.tracker.Load(ctx, e.store); err != nil {
		logrus.WithError(err).Warn("Failed to initialize state tracker from database")
	}

	if e.housekeeper != nil {
		e.housekeeper.SchedulePeriodicPurge(ctx, e.config.Database.CleanupInterval)
	}

	return e.scheduler.Start(ctx)
}

func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	logrus.Info("Stopping monitoring engine")
	e.scheduler.Stop()
	e.running = false
}

func (e *Engine) Registry() *checkapi.Registry {
	return e.registry
}

func (e *Engine) Housekeeper() *Housekeeper {
	return e.housekeeper
}

func (e *Engine) Config() *config.Config {
	return e.config
}

// StateOf returns the tracked state of a service.
func (e *Engine) StateOf(hostID, serviceID string) (StateInfo, bool) {
	return e.tracker.Get(trackerKey(hostID, serviceID))
}

// OnStatus registers a handler for stored statuses.
func (e *Engine) OnStatus(h StatusHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

// syncConfig writes the configured hosts to the store. Piggyback hosts are
// created when they first show up in agent output.
func (e *Engine) syncConfig(ctx context.Context) error {
	for i := range e.config.Hosts {
		hostCfg := &e.config.Hosts[i]

		host, err := e.store.GetHost(ctx, hostCfg.Key())
		if errors.Is(err, database.ErrNotFound) {
			host = &database.Host{ID: hostCfg.Key()}
			logrus.WithField("host", hostCfg.Name).Info("Created host")
		} else if err != nil {
			return fmt.Errorf("failed to read host %s: %w", hostCfg.Key(), err)
		}

		host.Name = hostCfg.Name
		host.Address = hostCfg.Address
		host.Source = ""
		host.Enabled = hostCfg.IsEnabled()
		host.Labels = hostCfg.Labels

		if err := e.store.UpsertHost(ctx, host); err != nil {
			logrus.WithError(err).WithField("host", hostCfg.Name).Error("Failed to update host")
			continue
		}
	}
	return nil
}

// RunHost fetches the agent output of a configured host and evaluates the
// host itself and every piggyback host found in the output.
func (e *Engine) RunHost(ctx context.Context, hostCfg *config.HostConfig, opts RunOptions) (*Run, error) {
	start := e.now()
	run := &Run{
		ID:     uuid.New().String(),
		Source: hostCfg.Key(),
		States: make(map[string]int),
	}

	out, err := agent.Fetch(ctx, hostCfg.Source(e.config.Monitoring.Timeout))
	if e.metrics != nil {
		e.metrics.RecordFetch(hostCfg.Key(), err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent output of %s: %w", hostCfg.Name, err)
	}

	targets := append([]string{agent.SourceHost}, out.Hosts()...)
	for _, name := range targets {
		host, err := e.resolveHost(ctx, hostCfg, name)
		if err != nil {
			if run.Errors == nil {
				run.Errors = make(map[string]string)
			}
			run.Errors[name] = err.Error()
			logrus.WithError(err).WithField("host", name).Error("Failed to resolve host")
			continue
		}
		if !host.Enabled {
			continue
		}

		sections := ParseSections(e.registry, out, name)
		if err := e.evaluateHost(ctx, run, host, hostCfg.Rules, sections, opts); err != nil {
			if run.Errors == nil {
				run.Errors = make(map[string]string)
			}
			run.Errors[host.ID] = err.Error()
			logrus.WithError(err).WithField("host", host.ID).Error("Host evaluation failed")
			continue
		}
		run.Hosts = append(run.Hosts, host.ID)
	}

	run.Duration = e.now().Sub(start)
	logrus.WithFields(logrus.Fields{
		"source":   run.Source,
		"hosts":    len(run.Hosts),
		"services": run.Services,
		"duration": run.Duration,
	}).Debug("Agent output evaluated")

	return run, nil
}

// resolveHost returns the stored host record for a section owner of the
// output of hostCfg, creating piggyback hosts on first sight.
func (e *Engine) resolveHost(ctx context.Context, hostCfg *config.HostConfig, name string) (*database.Host, error) {
	id := hostCfg.Key()
	if name != agent.SourceHost {
		id = name
	}

	host, err := e.store.GetHost(ctx, id)
	if err == nil {
		return host, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	host = &database.Host{ID: id, Name: id, Enabled: true}
	if name == agent.SourceHost {
		host.Name = hostCfg.Name
		host.Address = hostCfg.Address
		host.Enabled = hostCfg.IsEnabled()
		host.Labels = hostCfg.Labels
	} else {
		host.Source = hostCfg.Key()
		logrus.WithFields(logrus.Fields{
			"host":   id,
			"source": hostCfg.Key(),
		}).Info("Created piggyback host")
	}
	if err := e.store.UpsertHost(ctx, host); err != nil {
		return nil, fmt.Errorf("failed to create host %s: %w", id, err)
	}
	return host, nil
}

func (e *Engine) evaluateHost(ctx context.Context, run *Run, host *database.Host, rules config.Rules, sections Sections, opts RunOptions) error {
	now := e.now()

	services, err := e.store.GetServices(ctx, host.ID)
	if err != nil {
		return fmt.Errorf("failed to load services: %w", err)
	}

	if opts.ForceDiscovery || len(services) == 0 || now.Sub(host.LastDiscovery) >= e.config.Monitoring.DiscoveryInterval {
		services, err = e.rediscover(ctx, host, rules, sections, services, now)
		if err != nil {
			return err
		}
	}

	env := checkapi.Env{Host: host.ID, Now: now, Values: e.store.Counters(host.ID)}
	for _, svc := range services {
		res := CheckService(e.registry, svc, sections, rules, env)
		status := database.Status{
			RunID:       run.ID,
			HostID:      host.ID,
			ServiceID:   svc.ID,
			Description: svc.Description,
			ExitCode:    int(res.State),
			Output:      res.Output,
			PerfData:    res.PerfData,
			LongOutput:  res.LongOutput,
			Metrics:     res.Metrics,
			Duration:    float64(res.Duration.Microseconds()) / 1000,
			Timestamp:   now,
		}
		if err := e.store.UpdateStatus(ctx, &status); err != nil {
			return fmt.Errorf("failed to store status of %s: %w", svc.Description, err)
		}

		changed := e.tracker.Update(trackerKey(host.ID, svc.ID), res.State, now)
		if changed {
			logrus.WithFields(logrus.Fields{
				"host":    host.ID,
				"service": svc.Description,
				"state":   res.State.String(),
			}).Info("Service state changed")
		}

		if e.metrics != nil {
			e.metrics.RecordCheckResult(host.ID, svc.Plugin, res.State, res.Duration)
			e.metrics.UpdateServiceState(host.ID, svc.Description, res.State)
			e.metrics.RecordPerfValues(host.ID, svc.Description, res.Metrics)
		}
		e.notify(status, changed)

		run.Services++
		run.States[res.State.Label()]++
	}

	if opts.ForceInventory || e.inventoryDue(host.ID, now) {
		if err := e.updateInventory(ctx, host.ID, sections, now); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) rediscover(ctx context.Context, host *database.Host, rules config.Rules, sections Sections, old []database.Service, now time.Time) ([]database.Service, error) {
	services := Discover(e.registry, sections, rules, now)
	if err := e.store.ReplaceServices(ctx, host.ID, services); err != nil {
		return nil, fmt.Errorf("failed to store services: %w", err)
	}

	kept := make(map[string]bool, len(services))
	for _, svc := range services {
		kept[svc.ID] = true
	}
	for _, svc := range old {
		if kept[svc.ID] {
			continue
		}
		e.tracker.Forget(trackerKey(host.ID, svc.ID))
		if e.metrics != nil {
			e.metrics.ForgetService(host.ID, svc.Description)
		}
	}

	host.LastDiscovery = now
	if err := e.store.UpsertHost(ctx, host); err != nil {
		return nil, fmt.Errorf("failed to update host: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":     host.ID,
		"services": len(services),
		"vanished": len(old) - countKept(old, kept),
	}).Info("Service discovery finished")

	return services, nil
}

func countKept(services []database.Service, kept map[string]bool) int {
	n := 0
	for _, svc := range services {
		if kept[svc.ID] {
			n++
		}
	}
	return n
}

func (e *Engine) inventoryDue(hostID string, now time.Time) bool {
	e.mu.RLock()
	last, ok := e.lastInventory[hostID]
	e.mu.RUnlock()
	return !ok || now.Sub(last) >= e.config.Monitoring.InventoryInterval
}

func (e *Engine) updateInventory(ctx context.Context, hostID string, sections Sections, now time.Time) error {
	tree := BuildInventory(e.registry, sections)
	if tree.Empty() {
		return nil
	}
	if err := e.store.UpdateInventory(ctx, &database.InventoryRecord{HostID: hostID, Tree: tree, UpdatedAt: now}); err != nil {
		return fmt.Errorf("failed to store inventory: %w", err)
	}

	e.mu.Lock()
	e.lastInventory[hostID] = now
	e.mu.Unlock()
	return nil
}

func (e *Engine) notify(status database.Status, changed bool) {
	e.mu.RLock()
	handlers := e.handlers
	e.mu.RUnlock()
	for _, h := range handlers {
		h(status, changed)
	}
}

// Rediscover runs discovery and inventory for a host right away. For a
// piggyback host the agent output of its source is fetched.
func (e *Engine) Rediscover(ctx context.Context, hostID string) (*Run, error) {
	if hostCfg, ok := e.config.Host(hostID); ok {
		return e.RunHost(ctx, hostCfg, RunOptions{ForceDiscovery: true, ForceInventory: true})
	}

	host, err := e.store.GetHost(ctx, hostID)
	if err != nil {
		return nil, err
	}

	sourceID := host.ID
	if host.Piggyback() {
		sourceID = host.Source
	}
	hostCfg, ok := e.config.Host(sourceID)
	if !ok {
		return nil, fmt.Errorf("%w: no configured source for host %s", database.ErrNotFound, hostID)
	}

	return e.RunHost(ctx, hostCfg, RunOptions{ForceDiscovery: true, ForceInventory: true})
}

func trackerKey(hostID, serviceID string) string {
	return hostID + ":" + serviceID
}
