// Package scheduler owns the named sync jobs: cron-armed timers, the per-job
// execution lock, and the manual trigger surface. It is constructed once at
// process start and injected into callers; there is no ambient global
// registry.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/livinlefevreloca/crmsync/internal/cron"
)

// Standard errors
var (
	ErrUnknownJob        = errors.New("scheduler: unknown job")
	ErrAlreadyRunning    = errors.New("scheduler: job already executing")
	ErrAlreadyRegistered = errors.New("scheduler: job already registered")
)

// Trigger identifies what started a run
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// RunFunc is a job callback. It reports its outcome through the run history,
// so the scheduler only logs a returned error.
type RunFunc func(ctx context.Context, trigger Trigger) error

// job is the scheduler's per-name state. Mutable fields are guarded by
// Service.mu; executing state lives in the ExecutionLock.
type job struct {
	name     string
	expr     string
	schedule *cron.Schedule
	run      RunFunc

	armed     bool
	lastRunAt *time.Time
	stop      chan struct{}
}

// JobStatus is a point-in-time snapshot of one job
type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	Armed     bool       `json:"armed"`
	Executing bool       `json:"executing"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
}

// Service is the job registry and scheduler
type Service struct {
	mu     sync.Mutex
	jobs   map[string]*job
	lock   *ExecutionLock
	loc    *time.Location
	logger *slog.Logger
}

// NewService creates a scheduler service. All schedule evaluation happens in
// the given location.
func NewService(loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}

	return &Service{
		jobs:   make(map[string]*job),
		lock:   NewExecutionLock(),
		loc:    loc,
		logger: logger,
	}
}

// Register adds a named job with a cron schedule expression. Jobs start
// disarmed; call Start or StartAll to arm the timer.
func (s *Service) Register(name, expr string, run RunFunc) error {
	schedule, err := cron.Parse(expr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return ErrAlreadyRegistered
	}

	s.jobs[name] = &job{
		name:     name,
		expr:     expr,
		schedule: schedule,
		run:      run,
	}

	s.logger.Info("registered job", "job", name, "schedule", expr)
	return nil
}

// Start arms a job's timer. Starting an armed job is a no-op.
func (s *Service) Start(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, exists := s.jobs[name]
	if !exists {
		return ErrUnknownJob
	}
	if j.armed {
		return nil
	}

	j.armed = true
	j.stop = make(chan struct{})
	go s.runTimer(j, j.stop)

	s.logger.Info("started job", "job", name)
	return nil
}

// Stop disarms a job's timer. An in-flight run is never aborted; only
// future fires are cancelled.
func (s *Service) Stop(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, exists := s.jobs[name]
	if !exists {
		return ErrUnknownJob
	}
	if !j.armed {
		return nil
	}

	j.armed = false
	close(j.stop)
	j.stop = nil

	s.logger.Info("stopped job", "job", name)
	return nil
}

// StartAll arms every registered job
func (s *Service) StartAll() {
	for _, name := range s.names() {
		// Start only errors on unknown names
		_ = s.Start(name)
	}
}

// StopAll disarms every registered job
func (s *Service) StopAll() {
	for _, name := range s.names() {
		_ = s.Stop(name)
	}
}

// RunNow triggers a single manual run. It fails with ErrUnknownJob for an
// unregistered name and with ErrAlreadyRunning when the job holds its
// execution lock; rejected triggers are never queued. The run itself
// proceeds in the background.
func (s *Service) RunNow(name string) error {
	s.mu.Lock()
	j, exists := s.jobs[name]
	s.mu.Unlock()

	if !exists {
		return ErrUnknownJob
	}

	if !s.lock.TryAcquire(name) {
		return ErrAlreadyRunning
	}

	go s.execute(j, TriggerManual)
	return nil
}

// Status returns a snapshot of one job
func (s *Service) Status(name string) (JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, exists := s.jobs[name]
	if !exists {
		return JobStatus{}, ErrUnknownJob
	}

	return s.snapshot(j), nil
}

// StatusAll returns snapshots of every registered job, sorted by name
func (s *Service) StatusAll() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		statuses = append(statuses, s.snapshot(j))
	}

	sort.Slice(statuses, func(a, b int) bool {
		return statuses[a].Name < statuses[b].Name
	})

	return statuses
}

// snapshot builds a status under s.mu
func (s *Service) snapshot(j *job) JobStatus {
	status := JobStatus{
		Name:      j.name,
		Schedule:  j.expr,
		Armed:     j.armed,
		Executing: s.lock.Held(j.name),
		LastRunAt: j.lastRunAt,
	}

	if j.armed {
		// The estimator only understands the restricted grammar; outside it
		// the next run is reported as unknown rather than guessed
		if next, kind := cron.Estimate(j.expr, time.Now().In(s.loc)); kind != cron.KindUnsupported {
			status.NextRunAt = &next
		}
	}

	return status
}

// runTimer waits for the next cron occurrence and fires the job, until the
// stop channel closes
func (s *Service) runTimer(j *job, stop chan struct{}) {
	for {
		now := time.Now().In(s.loc)
		next := j.schedule.Next(now)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-stop:
			timer.Stop()
			return

		case <-timer.C:
			s.fire(j)
		}
	}
}

// fire runs the job on a timer tick. A fire that lands while the job is
// already executing is skipped silently: at most once, never queued.
func (s *Service) fire(j *job) {
	if !s.lock.TryAcquire(j.name) {
		s.logger.Debug("skipping fire, job already executing", "job", j.name)
		return
	}

	go s.execute(j, TriggerScheduled)
}

// execute runs the callback. The caller has already acquired the execution
// lock; release is deferred so the lock is freed on success or panic alike.
func (s *Service) execute(j *job, trigger Trigger) {
	defer s.lock.Release(j.name)

	started := time.Now()
	s.mu.Lock()
	j.lastRunAt = &started
	s.mu.Unlock()

	s.logger.Info("executing job", "job", j.name, "trigger", string(trigger))

	if err := j.run(context.Background(), trigger); err != nil {
		s.logger.Error("job run failed", "job", j.name, "error", err)
		return
	}

	s.logger.Info("job run finished", "job", j.name, "duration", time.Since(started))
}

// names returns registered job names without holding the lock during
// start/stop calls
func (s *Service) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
