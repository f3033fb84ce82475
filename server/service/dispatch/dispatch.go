// Package dispatch is the in-process background task queue. Tasks are named,
// carry a conversation id payload, and run with at-least-once semantics under
// a per-task retry policy. Callers enqueue fire-and-forget; results are only
// observable through logs and side effects.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/tleai/thomas/server/metrics"
)

// ErrPermanent marks a task failure that must not be retried, such as the
// target entity having been deleted mid-flight. Wrap with Permanent.
var ErrPermanent = errors.New("permanent task failure")

// Permanent wraps err so the dispatcher treats it as terminal.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// Handler executes one task run. The context carries the per-attempt timeout.
type Handler func(ctx context.Context, conversationID int32) error

// RetryPolicy bounds how a failing task is retried. Backoff doubles per
// attempt starting from InitialBackoff, capped at MaxBackoff.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy is used for tasks registered without an explicit policy.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:    3,
	InitialBackoff: 2 * time.Second,
	MaxBackoff:     30 * time.Second,
}

type registration struct {
	handler Handler
	policy  RetryPolicy
}

type task struct {
	name           string
	conversationID int32
}

// Dispatcher runs registered handlers on a bounded worker pool.
type Dispatcher struct {
	registry map[string]registration
	queue    chan task
	sem      *semaphore.Weighted
	wg       sync.WaitGroup

	attemptTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// New creates a dispatcher running at most workers tasks concurrently.
// Start must be called before Enqueue delivers anything.
func New(workers int64) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	return &Dispatcher{
		registry:       make(map[string]registration),
		queue:          make(chan task, 256),
		sem:            semaphore.NewWeighted(workers),
		attemptTimeout: 2 * time.Minute,
	}
}

// Register binds a handler and retry policy to a task name. Must be called
// before Start; registrations are not synchronized against the run loop.
func (d *Dispatcher) Register(name string, handler Handler, policy RetryPolicy) {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy
	}
	d.registry[name] = registration{handler: handler, policy: policy}
}

// Enqueue submits a task. It never blocks the caller: when the queue is full
// the task is dropped with a warning, which at-least-once delivery permits
// because every trigger is re-evaluated on the next turn.
func (d *Dispatcher) Enqueue(name string, conversationID int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.New("dispatcher is shut down")
	}
	if _, ok := d.registry[name]; !ok {
		return errors.Errorf("unknown task %q", name)
	}
	select {
	case d.queue <- task{name: name, conversationID: conversationID}:
		return nil
	default:
		slog.Warn("dispatch: queue full, dropping task", "task", name, "conversation_id", conversationID)
		return errors.Errorf("queue full, dropped task %q", name)
	}
}

// Start launches the run loop. ctx cancellation stops intake; tasks already
// dequeued run to completion.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case t, ok := <-d.queue:
				if !ok {
					return
				}
				if err := d.sem.Acquire(ctx, 1); err != nil {
					return
				}
				d.wg.Add(1)
				go func() {
					defer d.wg.Done()
					defer d.sem.Release(1)
					d.run(t)
				}()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops intake and waits for in-flight tasks, bounded by ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.New("dispatcher shutdown timed out")
	}
}

func (d *Dispatcher) run(t task) {
	reg := d.registry[t.name]
	backoff := reg.policy.InitialBackoff

	for attempt := 1; attempt <= reg.policy.MaxAttempts; attempt++ {
		err := d.runOnce(reg.handler, t)
		if err == nil {
			return
		}
		if errors.Is(err, ErrPermanent) {
			slog.Warn("dispatch: task failed permanently",
				"task", t.name,
				"conversation_id", t.conversationID,
				"error", err,
			)
			return
		}
		slog.Error("dispatch: task attempt failed",
			"task", t.name,
			"conversation_id", t.conversationID,
			"attempt", attempt,
			"error", err,
		)
		if attempt == reg.policy.MaxAttempts {
			return
		}
		metrics.TaskRetries.WithLabelValues(t.name).Inc()
		time.Sleep(backoff)
		backoff *= 2
		if reg.policy.MaxBackoff > 0 && backoff > reg.policy.MaxBackoff {
			backoff = reg.policy.MaxBackoff
		}
	}
}

// runOnce executes one attempt with panic recovery. Background tasks must
// never take the process down.
func (d *Dispatcher) runOnce(handler Handler, t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("task %q panicked: %v", t.name, r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), d.attemptTimeout)
	defer cancel()
	return handler(ctx, t.conversationID)
}
