/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/xid"
	"go.uber.org/atomic"

	"github.com/acronis/go-ratelimitqueue/log"
	"github.com/acronis/go-ratelimitqueue/retry"
	"github.com/acronis/go-ratelimitqueue/rlqueue"
	"github.com/acronis/go-ratelimitqueue/service"
)

// Handler processes items released by the queue.
type Handler[T any] interface {
	Handle(ctx context.Context, item T) error
}

// HandlerFunc is an adapter to allow the use of ordinary functions as Handler.
type HandlerFunc[T any] func(ctx context.Context, item T) error

// Handle calls f(ctx, item).
func (f HandlerFunc[T]) Handle(ctx context.Context, item T) error {
	return f(ctx, item)
}

// HandlerPanicError wraps a value recovered from a panicking handler.
// Such calls are never retried.
type HandlerPanicError struct {
	Value interface{}
	Stack []byte
}

func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.Value)
}

// Opts represents options for Dispatcher.
type Opts struct {
	// RetryPolicy is used for failed handler calls. Nil means a single attempt.
	RetryPolicy retry.Policy

	// IsRetryable tells which handler errors should be retried. Nil means any error.
	IsRetryable retry.IsRetryable

	// IdlePollInterval is the longest sleep on the empty queue without Notify. DefaultIdlePollInterval is used if zero.
	IdlePollInterval time.Duration

	// LogEvery enables an info log entry per every LogEvery handled items. Zero disables it.
	LogEvery int

	MetricsCollector MetricsCollector
}

// Stats contains counters of handled items.
type Stats struct {
	Succeeded int64
	Failed    int64
	Panicked  int64
}

// Total returns the number of items delivered to the handler.
func (s Stats) Total() int64 {
	return s.Succeeded + s.Failed + s.Panicked
}

// Dispatcher drains a SyncQueue and delivers every released item to the handler.
// The queue paces the delivery, Dispatcher only waits for the items to appear.
type Dispatcher[T any] struct {
	id               xid.ID
	queue            *rlqueue.SyncQueue[T]
	handler          Handler[T]
	logger           log.FieldLogger
	retryPolicy      retry.Policy
	isRetryable      retry.IsRetryable
	idlePollInterval time.Duration
	logEvery         int64
	metricsCollector MetricsCollector

	wakeup    chan struct{}
	succeeded atomic.Int64
	failed    atomic.Int64
	panicked  atomic.Int64
}

var (
	_ service.Worker            = (*Dispatcher[struct{}])(nil)
	_ service.MetricsRegisterer = (*Dispatcher[struct{}])(nil)
)

// New creates a new Dispatcher for the given queue and handler.
func New[T any](queue *rlqueue.SyncQueue[T], handler Handler[T], logger log.FieldLogger, opts Opts) *Dispatcher[T] {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	if opts.IdlePollInterval <= 0 {
		opts.IdlePollInterval = DefaultIdlePollInterval
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetrics{}
	}
	id := xid.New()
	return &Dispatcher[T]{
		id:               id,
		queue:            queue,
		handler:          handler,
		logger:           logger.With(log.String("dispatcher_id", id.String())),
		retryPolicy:      opts.RetryPolicy,
		isRetryable:      opts.IsRetryable,
		idlePollInterval: opts.IdlePollInterval,
		logEvery:         int64(opts.LogEvery),
		metricsCollector: opts.MetricsCollector,
		wakeup:           make(chan struct{}, 1),
	}
}

// NewFromConfig creates a new Dispatcher taking the retry policy, the idle poll interval
// and the progress logging from the configuration. The same Opts fields are ignored.
func NewFromConfig[T any](
	queue *rlqueue.SyncQueue[T], handler Handler[T], logger log.FieldLogger, cfg *Config, opts Opts,
) (*Dispatcher[T], error) {
	retryPolicy, err := cfg.RetryPolicy()
	if err != nil {
		return nil, err
	}
	opts.RetryPolicy = retryPolicy
	opts.IdlePollInterval = time.Duration(cfg.IdlePollInterval)
	opts.LogEvery = cfg.LogEvery
	return New[T](queue, handler, logger, opts), nil
}

// ID returns a unique identifier of the dispatcher. It is also added to all log entries.
func (d *Dispatcher[T]) ID() string {
	return d.id.String()
}

// Enqueue appends items to the queue and wakes up the dispatcher.
func (d *Dispatcher[T]) Enqueue(items ...T) {
	d.queue.Extend(items...)
	d.Notify()
}

// Notify wakes up the dispatcher waiting on the empty queue. It never blocks.
// Producers that write to the queue directly should call it after enqueueing.
func (d *Dispatcher[T]) Notify() {
	select {
	case d.wakeup <- struct{}{}:
	default:
	}
}

// Stats returns counters of handled items.
func (d *Dispatcher[T]) Stats() Stats {
	return Stats{
		Succeeded: d.succeeded.Load(),
		Failed:    d.failed.Load(),
		Panicked:  d.panicked.Load(),
	}
}

// Run drains the queue until ctx is done. Handler errors never stop the loop.
// Implements service.Worker interface.
func (d *Dispatcher[T]) Run(ctx context.Context) error {
	d.logger.Info("rate limited queue dispatcher is started", log.Duration("idle_poll_interval", d.idlePollInterval))
	defer func() {
		stats := d.Stats()
		d.logger.Info("rate limited queue dispatcher is stopped",
			log.Int64("succeeded", stats.Succeeded),
			log.Int64("failed", stats.Failed),
			log.Int64("panicked", stats.Panicked),
		)
	}()

	for ctx.Err() == nil {
		item, err := d.queue.DequeueContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !errors.Is(err, rlqueue.ErrEmpty) && !errors.Is(err, rlqueue.ErrZeroRate) {
				return fmt.Errorf("dequeue item: %w", err)
			}
			if !d.waitForItems(ctx) {
				return nil
			}
			continue
		}
		d.handle(ctx, item)
	}
	return nil
}

// waitForItems returns false if ctx is done before Notify is called or the idle poll interval elapses.
func (d *Dispatcher[T]) waitForItems(ctx context.Context) bool {
	timer := time.NewTimer(d.idlePollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-d.wakeup:
		return true
	case <-timer.C:
		return true
	}
}

func (d *Dispatcher[T]) handle(ctx context.Context, item T) {
	err := retry.DoWithRetry(ctx, d.retryPolicy, d.shouldRetry, func(err error, delay time.Duration) {
		d.logger.Warn("failed to handle queue item, retrying", log.Error(err), log.Duration("delay", delay))
	}, func(ctx context.Context) error {
		return d.callHandler(ctx, item)
	})

	var panicErr *HandlerPanicError
	status := HandleStatusSucceeded
	switch {
	case err == nil:
		d.succeeded.Inc()
	case errors.As(err, &panicErr):
		status = HandleStatusPanicked
		d.panicked.Inc()
		d.logger.Error(fmt.Sprintf("panic while handling queue item: %+v", panicErr.Value), log.Bytes("stack", panicErr.Stack))
	default:
		status = HandleStatusFailed
		d.failed.Inc()
		d.logger.Error("failed to handle queue item", log.Error(err))
	}
	d.metricsCollector.IncHandled(status)

	if d.logEvery > 0 {
		if total := d.Stats().Total(); total%d.logEvery == 0 {
			d.logger.Info("queue items are dispatched", log.Int64("total", total), log.Int("pending", d.queue.Len()))
		}
	}
}

func (d *Dispatcher[T]) callHandler(ctx context.Context, item T) (err error) {
	defer func() {
		if p := recover(); p != nil {
			const logStackSize = 8192
			stack := make([]byte, logStackSize)
			stack = stack[:runtime.Stack(stack, false)]
			err = &HandlerPanicError{Value: p, Stack: stack}
		}
	}()
	return d.handler.Handle(ctx, item)
}

func (d *Dispatcher[T]) shouldRetry(err error) bool {
	var panicErr *HandlerPanicError
	if errors.As(err, &panicErr) {
		return false
	}
	return d.isRetryable == nil || d.isRetryable(err)
}

// MustRegisterMetrics registers metrics of the dispatcher if its MetricsCollector supports registration.
// Implements service.MetricsRegisterer interface.
func (d *Dispatcher[T]) MustRegisterMetrics() {
	if r, ok := d.metricsCollector.(interface{ MustRegister() }); ok {
		r.MustRegister()
	}
}

// UnregisterMetrics unregisters metrics of the dispatcher if its MetricsCollector supports registration.
// Implements service.MetricsRegisterer interface.
func (d *Dispatcher[T]) UnregisterMetrics() {
	if r, ok := d.metricsCollector.(interface{ Unregister() }); ok {
		r.Unregister()
	}
}
