// Package sweeper expires overdue tasks and announces tasks whose deadline
// is approaching.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/tasker-api/internal/events"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/platform/metrics"
	"github.com/phrazzld/tasker-api/internal/store"
)

// Trigger labels recorded with each run.
const (
	TriggerTimer  = "timer"
	TriggerManual = "manual"
)

// Config holds sweeper timing.
type Config struct {
	// Interval between timer ticks. Defaults to 30s.
	Interval time.Duration

	// ReminderWindow is how far ahead of a deadline a reminder is emitted.
	// Defaults to 2h.
	ReminderWindow time.Duration
}

// Result summarizes one run.
type Result struct {
	Expired  int64 `json:"expired"`
	Reminded int   `json:"reminded"`
}

// Sweeper moves overdue ACTIVE tasks to EXPIRED across all users. Every
// write is a single conditional statement, so concurrent runs (timer, HTTP
// trigger, CLI) are safe and repeated runs are no-ops.
type Sweeper struct {
	tasks   store.TaskStore
	emitter events.EventEmitter
	cfg     Config
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithMetrics records runs on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) { s.metrics = m }
}

// New creates a Sweeper. emitter may be nil, in which case Tick skips
// reminders and only expires tasks.
func New(tasks store.TaskStore, emitter events.EventEmitter, cfg Config, logger *slog.Logger, opts ...Option) *Sweeper {
	if tasks == nil {
		panic("tasks cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.ReminderWindow <= 0 {
		cfg.ReminderWindow = 2 * time.Hour
	}

	s := &Sweeper{
		tasks:   tasks,
		emitter: emitter,
		cfg:     cfg,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "sweeper")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep expires every ACTIVE task whose deadline is at or before now.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	start := time.Now()
	expired, err := s.expire(ctx, s.now())
	s.metrics.ObserveSweep(TriggerManual, expired, 0, time.Since(start), err)
	return Result{Expired: expired}, err
}

// Tick is the timer variant of Sweep: it first claims and announces tasks
// entering the reminder window, then expires overdue tasks. Reminder
// problems are logged and never prevent expiration.
func (s *Sweeper) Tick(ctx context.Context) (Result, error) {
	start := time.Now()
	now := s.now()

	reminded := s.remind(ctx, now)
	expired, err := s.expire(ctx, now)

	s.metrics.ObserveSweep(TriggerTimer, expired, reminded, time.Since(start), err)
	return Result{Expired: expired, Reminded: reminded}, err
}

func (s *Sweeper) expire(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	n, err := s.tasks.ExpireOverdue(ctx, now)
	if err != nil {
		log.Error("failed to expire overdue tasks", slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to expire overdue tasks: %w", err)
	}
	if n > 0 {
		log.Info("expired overdue tasks", slog.Int64("count", n))
	}
	return n, nil
}

func (s *Sweeper) remind(ctx context.Context, now time.Time) int {
	if s.emitter == nil {
		return 0
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	due, err := s.tasks.ClaimDueSoon(ctx, now, now.Add(s.cfg.ReminderWindow))
	if err != nil {
		log.Error("failed to claim due-soon tasks", slog.String("error", err.Error()))
		return 0
	}

	emitted := 0
	for _, d := range due {
		event, err := events.NewEvent(events.TypeTaskDueSoon, events.TaskDueSoonPayload{
			TaskID:    d.Task.ID,
			UserID:    d.Task.UserID,
			Title:     d.Task.Title,
			Deadline:  d.Task.Deadline,
			Email:     d.Email,
			FirstName: d.FirstName,
		})
		if err == nil {
			err = s.emitter.EmitEvent(ctx, event)
		}
		if err != nil {
			log.Warn("failed to emit due-soon reminder",
				slog.String("task_id", d.Task.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		emitted++
	}
	return emitted
}

// Start runs Tick immediately and then once per interval until Stop is
// called. Calling Start on a running Sweeper has no effect.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info("starting sweeper",
		slog.Duration("interval", s.cfg.Interval),
		slog.Duration("reminder_window", s.cfg.ReminderWindow))
	go s.loop(ctx, s.done)
}

// Stop halts the timer loop and waits for an in-flight tick to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("sweeper stopped")
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.safeTick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) safeTick(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("sweeper tick panicked", slog.Any("panic", p))
		}
	}()
	// Errors are already logged and counted.
	_, _ = s.Tick(ctx)
}
