package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/martinsuchenak/vlanaudit/internal/log"
	"github.com/robfig/cron/v3"
)

// RunFunc performs one scheduled audit run
type RunFunc func(ctx context.Context) error

// Task status values
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// TaskStatus describes the most recent run
type TaskStatus struct {
	Status  string     `json:"status"`
	Runs    int        `json:"runs"`
	Skipped int        `json:"skipped"`
	LastRun *time.Time `json:"last_run,omitempty"`
	Reason  string     `json:"reason,omitempty"` // what triggered the last run
	Error   string     `json:"error,omitempty"`
}

// Scheduler re-runs the audit manifest on a cron schedule or on demand.
// Runs never overlap; a trigger during a run is counted as skipped.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	run     RunFunc
	running bool
	busy    bool
	status  TaskStatus
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(run RunFunc) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(),
		run:    run,
		ctx:    ctx,
		cancel: cancel,
		status: TaskStatus{Status: StatusPending},
	}
}

// AddSchedule registers a cron spec (standard five fields or @every/@hourly descriptors)
func (s *Scheduler) AddSchedule(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.Trigger("schedule") }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	log.Info("Audit schedule registered", "spec", spec)
	return nil
}

// Start starts the cron loop
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	log.Info("Starting audit scheduler")
}

// Stop stops the cron loop and waits for an in-flight run to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	log.Info("Stopping audit scheduler")
	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
}

// Trigger starts a run in the background unless one is in progress.
// It reports whether a run was started.
func (s *Scheduler) Trigger(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		s.status.Skipped++
		log.Debug("Audit run already in progress, skipping trigger", "reason", reason)
		return false
	}
	if s.ctx.Err() != nil {
		return false
	}

	s.busy = true
	s.status.Status = StatusRunning
	s.status.Reason = reason
	s.wg.Add(1)
	go s.execute(reason)
	return true
}

func (s *Scheduler) execute(reason string) {
	defer s.wg.Done()

	log.Info("Scheduled audit run starting", "reason", reason)
	err := s.run(s.ctx)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy = false
	s.status.Runs++
	s.status.LastRun = &now
	if err != nil {
		s.status.Status = StatusFailed
		s.status.Error = err.Error()
		log.Error("Scheduled audit run failed", "reason", reason, "error", err)
		return
	}
	s.status.Status = StatusCompleted
	s.status.Error = ""
	log.Info("Scheduled audit run completed", "reason", reason)
}

// Status returns a copy of the current task status
func (s *Scheduler) Status() TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.status
	if st.LastRun != nil {
		t := *st.LastRun
		st.LastRun = &t
	}
	return st
}
