package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/tasker-api/internal/platform/metrics"
)

// Errors returned by Dispatcher.Enqueue.
var (
	ErrQueueClosed = errors.New("notification queue is closed")
	ErrQueueFull   = errors.New("notification queue is full")
)

// DispatcherConfig sizes the queue and the worker pool.
type DispatcherConfig struct {
	// QueueSize bounds the number of pending messages. Defaults to 100.
	QueueSize int

	// WorkerCount is the number of concurrent senders. Defaults to 1.
	WorkerCount int

	// SendTimeout bounds a single Notify call. Defaults to 30s.
	SendTimeout time.Duration
}

// Dispatcher is a bounded queue drained by a fixed pool of workers.
type Dispatcher struct {
	notifier Notifier
	queue    chan Message
	cfg      DispatcherConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. Call Start to launch the workers.
func NewDispatcher(notifier Notifier, cfg DispatcherConfig, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "notify_dispatcher"))

	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", cfg.WorkerCount),
			slog.Int("default_count", 1))
		cfg.WorkerCount = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}

	return &Dispatcher{
		notifier: notifier,
		queue:    make(chan Message, cfg.QueueSize),
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
	}
}

// Start launches the workers. Calling it more than once has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	d.logger.Info("starting notification workers", slog.Int("worker_count", d.cfg.WorkerCount))
	for i := 0; i < d.cfg.WorkerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Enqueue queues msg without blocking.
func (d *Dispatcher) Enqueue(msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}

	select {
	case d.queue <- msg:
		d.metrics.SetQueueDepth(len(d.queue))
		return nil
	default:
		d.metrics.ObserveNotification("dropped")
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(d.queue))
	}
}

// Stop refuses new messages, lets the workers drain what is queued, and
// waits for them to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("notification workers stopped")
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	log := d.logger.With(slog.Int("worker_id", id))

	for msg := range d.queue {
		d.metrics.SetQueueDepth(len(d.queue))
		d.send(log, msg)
	}
}

func (d *Dispatcher) send(log *slog.Logger, msg Message) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("notifier panicked",
				slog.String("task_id", msg.TaskID.String()),
				slog.Any("panic", p))
			d.metrics.ObserveNotification("failed")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	if err := d.notifier.Notify(ctx, msg); err != nil {
		if errors.Is(err, ErrNotConfigured) {
			d.metrics.ObserveNotification("skipped")
			return
		}
		log.Error("failed to send reminder",
			slog.String("task_id", msg.TaskID.String()),
			slog.String("error", err.Error()))
		d.metrics.ObserveNotification("failed")
		return
	}
	d.metrics.ObserveNotification("sent")
}
