// Package reminder schedules one-shot reminder jobs and dispatches the
// resulting notifications to chat channels.
package reminder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// ErrSchedulerStopped is returned by Arm when the scheduler is not running.
var ErrSchedulerStopped = errors.New("reminder scheduler is not running")

// Payload identifies what to deliver when a job fires. It carries data only,
// so a job can be rebuilt from a stored reminder after a restart.
type Payload struct {
	OwnerID    int64
	ReminderID int64
	Text       string
}

// JobHandle is an opaque reference to an armed job.
type JobHandle string

// DeliverFunc is invoked once per fired job. firedAt is the clock time at firing.
type DeliverFunc func(ctx context.Context, payload Payload, firedAt time.Time)

type job struct {
	handle  JobHandle
	fireAt  time.Time
	payload Payload
	timer   Timer
}

// Scheduler keeps an in-memory set of one-shot jobs. Jobs do not survive a
// restart; callers re-arm them from durable storage.
type Scheduler struct {
	deliver DeliverFunc
	clock   Clock
	logger  *slog.Logger

	mu       sync.Mutex
	running  bool
	jobs     map[JobHandle]*job
	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

// NewScheduler creates a scheduler that calls deliver for every fired job.
func NewScheduler(deliver DeliverFunc) *Scheduler {
	return &Scheduler{
		deliver: deliver,
		clock:   realClock{},
		logger:  slog.Default(),
		jobs:    make(map[JobHandle]*job),
	}
}

// SetLogger sets a custom logger.
func (s *Scheduler) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// SetClock replaces the time source. Must be called before Start.
func (s *Scheduler) SetClock(clock Clock) {
	s.clock = clock
}

// Start enables arming. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.running = true
	s.logger.Info("reminder scheduler started")
	return nil
}

// Stop discards every pending job and waits for in-flight deliveries.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	dropped := len(s.jobs)
	for handle, j := range s.jobs {
		j.timer.Stop()
		delete(s.jobs, handle)
	}
	s.mu.Unlock()

	s.inflight.Wait()
	s.cancel()
	s.logger.Info("reminder scheduler stopped", "dropped_jobs", dropped)
}

// IsRunning returns whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Len returns the number of armed jobs that have neither fired nor been cancelled.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Arm schedules payload for delivery at fireAt. An instant that has already
// passed fires as soon as possible.
func (s *Scheduler) Arm(fireAt time.Time, payload Payload) (JobHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return "", ErrSchedulerStopped
	}

	j := &job{
		handle:  JobHandle(shortuuid.New()),
		fireAt:  fireAt.UTC(),
		payload: payload,
	}
	delay := fireAt.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}
	s.jobs[j.handle] = j
	j.timer = s.clock.AfterFunc(delay, func() { s.fire(j.handle) })

	s.logger.Debug("armed reminder job",
		"job_id", j.handle,
		"owner_id", payload.OwnerID,
		"reminder_id", payload.ReminderID,
		"fire_at", j.fireAt,
	)
	return j.handle, nil
}

// Cancel prevents a pending job from firing. Unknown, fired and already
// cancelled handles are ignored.
func (s *Scheduler) Cancel(handle JobHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[handle]
	if !ok {
		return
	}
	j.timer.Stop()
	delete(s.jobs, handle)
	s.logger.Debug("cancelled reminder job", "job_id", handle, "reminder_id", j.payload.ReminderID)
}

// fire claims the job under the lock so that a racing Cancel or a second
// timer callback cannot deliver it again.
func (s *Scheduler) fire(handle JobHandle) {
	s.mu.Lock()
	j, ok := s.jobs[handle]
	if !ok || !s.running {
		s.mu.Unlock()
		return
	}
	delete(s.jobs, handle)
	ctx := s.ctx
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	firedAt := s.clock.Now()
	s.logger.Info("reminder job fired",
		"job_id", handle,
		"owner_id", j.payload.OwnerID,
		"reminder_id", j.payload.ReminderID,
		"lateness", firedAt.Sub(j.fireAt).String(),
	)
	s.deliver(ctx, j.payload, firedAt)
}
