// internal/monitoring/scheduler.go
package monitoring

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"unifimon/internal/checkapi"
	"unifimon/internal/config"
	"unifimon/internal/database"
)

// Scheduler runs one job per configured host on a pool of
// server.workers goroutines. A host is not queued again while its
// previous job is still running.
type Scheduler struct {
	engine  *Engine
	jobs    chan *Job
	results chan *JobResult
	tick    time.Duration

	mu       sync.Mutex
	nextRun  map[string]time.Time
	inFlight map[string]bool
	stop     context.CancelFunc
	wg       sync.WaitGroup
}

// Job is one scheduled agent run of a configured host.
type Job struct {
	HostID  string
	Host    *config.HostConfig
	NextRun time.Time
}

type JobResult struct {
	Job   *Job
	Run   *Run
	Error error
}

func NewScheduler(engine *Engine) *Scheduler {
	queue := len(engine.config.Hosts) + 1
	return &Scheduler{
		engine:   engine,
		jobs:     make(chan *Job, queue),
		results:  make(chan *JobResult, queue),
		tick:     5 * time.Second,
		nextRun:  make(map[string]time.Time),
		inFlight: make(map[string]bool),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}

	ctx, s.stop = context.WithCancel(ctx)
	workers := s.engine.config.Server.Workers
	logrus.WithField("workers", workers).Info("Starting scheduler")

	s.wg.Add(workers + 2)
	for i := 0; i < workers; i++ {
		go func() {
			defer s.wg.Done()
			s.work(ctx)
		}()
	}
	go func() {
		defer s.wg.Done()
		s.collect(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
	return nil
}

// Stop cancels the pool and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	logrus.Info("Stopping scheduler")
	stop()
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	s.processSchedule(time.Now())

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.processSchedule(now)
		}
	}
}

// processSchedule queues every enabled host whose next run is due and
// returns how many were queued.
func (s *Scheduler) processSchedule(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	queued := 0
	for i := range s.engine.config.Hosts {
		host := &s.engine.config.Hosts[i]
		id := host.Key()
		if !host.IsEnabled() || s.inFlight[id] || now.Before(s.nextRun[id]) {
			continue
		}
		select {
		case s.jobs <- &Job{HostID: id, Host: host, NextRun: now}:
			s.inFlight[id] = true
			queued++
		default:
			logrus.WithField("host", id).Warn("Job queue full, skipping host")
		}
	}
	if queued > 0 {
		logrus.WithField("count", queued).Debug("Queued host runs")
	}
	return queued
}

func (s *Scheduler) interval(host *config.HostConfig) time.Duration {
	if host.Interval > 0 {
		return host.Interval
	}
	return s.engine.config.Monitoring.DefaultInterval
}

func (s *Scheduler) collect(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-s.results:
			s.handleResult(res)
		}
	}
}

func (s *Scheduler) handleResult(res *JobResult) {
	interval := s.interval(res.Job.Host)
	// spread hosts sharing an interval
	jitter := time.Duration(rand.Int63n(int64(interval)/10 + 1))

	s.mu.Lock()
	delete(s.inFlight, res.Job.HostID)
	s.nextRun[res.Job.HostID] = res.Job.NextRun.Add(interval + jitter)
	s.mu.Unlock()

	log := logrus.WithField("host", res.Job.HostID)
	if res.Error != nil {
		log.WithError(res.Error).Error("Host run failed")
		return
	}
	log.WithFields(logrus.Fields{
		"run":      res.Run.ID,
		"hosts":    len(res.Run.Hosts),
		"services": res.Run.Services,
		"duration": res.Run.Duration,
	}).Debug("Host run completed")
}

func (s *Scheduler) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.runJob(ctx, job)
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, job *Job) {
	run, err := s.engine.RunHost(ctx, job.Host, RunOptions{})
	select {
	case s.results <- &JobResult{Job: job, Run: run, Error: err}:
	case <-ctx.Done():
	}
}

// StateTracker remembers the last state of every service to detect state
// changes between runs.
type StateTracker struct {
	states map[string]*StateInfo
	mu     sync.RWMutex
}

type StateInfo struct {
	CurrentState    checkapi.State `json:"current_state"`
	LastStateChange time.Time      `json:"last_state_change"`
	LastCheckTime   time.Time      `json:"last_check_time"`
}

func NewStateTracker() *StateTracker {
	return &StateTracker{
		states: make(map[string]*StateInfo),
	}
}

// Load seeds the tracker from the stored statuses.
func (t *StateTracker) Load(ctx context.Context, store database.Store) error {
	statuses, err := store.GetStatus(ctx, database.StatusFilters{})
	if err != nil {
		return fmt.Errorf("failed to get statuses: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, status := range statuses {
		t.states[trackerKey(status.HostID, status.ServiceID)] = &StateInfo{
			CurrentState:    checkapi.State(status.ExitCode),
			LastStateChange: status.Timestamp,
			LastCheckTime:   status.Timestamp,
		}
	}

	logrus.WithField("tracked_states", len(t.states)).Info("Initialized state tracker")
	return nil
}

// Update records state for key and reports whether it differs from the
// previous state. The first sighting of a key counts as a change.
func (t *StateTracker) Update(key string, state checkapi.State, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, exists := t.states[key]
	if !exists {
		t.states[key] = &StateInfo{CurrentState: state, LastStateChange: now, LastCheckTime: now}
		return true
	}

	info.LastCheckTime = now
	if info.CurrentState == state {
		return false
	}
	info.CurrentState = state
	info.LastStateChange = now
	return true
}

func (t *StateTracker) Get(key string) (StateInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info, ok := t.states[key]
	if !ok {
		return StateInfo{}, false
	}
	return *info, true
}

func (t *StateTracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, key)
}

func (t *StateTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.states)
}
