/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package rlqueue

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/gammazero/deque"
	xrate "golang.org/x/time/rate"

	"github.com/acronis/go-ratelimitqueue/log"
)

// DefaultLimitLogInterval is the default minimal interval between two log messages
// about the queue being rate limited.
const DefaultLimitLogInterval = time.Second * 10

// ErrEmpty is returned by DequeueContext when the queue has no items.
var ErrEmpty = errors.New("rate limited queue is empty")

// ErrZeroRate is returned by DequeueContext when the queue has items, but the rate is zero,
// so no item can ever be released.
var ErrZeroRate = errors.New("rate limited queue has zero rate")

// ErrInvariantViolated is used as a panic value when the allowance bookkeeping is inconsistent,
// i.e. the queue refused to release an item after the whole rate limiting window had been waited.
var ErrInvariantViolated = errors.New("rate limited queue invariant violated")

// ErrConcurrentRemoval is used as a panic value when items are removed from the queue
// while AllMut is iterating over it.
var ErrConcurrentRemoval = errors.New("rate limited queue items removed during mutable iteration")

// Opts represents options for the Queue.
type Opts struct {
	// InitialCapacity is a hint for the backing storage about the expected number of items.
	InitialCapacity int

	// Clock is a source of time. The real clock is used if it is nil.
	Clock Clock

	// Logger is used for debug logging of the rate limiting windows. Logging is disabled if it is nil.
	Logger log.FieldLogger

	// LimitLogInterval is a minimal interval between two log messages about the queue being rate limited.
	// DefaultLimitLogInterval is used if it is zero, negative values are rejected.
	// Sampling always runs on the real time, Clock is not used for it.
	LimitLogInterval time.Duration

	// MetricsCollector is used to collect statistics about the queue usage. Metrics are disabled if it is nil.
	MetricsCollector MetricsCollector
}

// Queue is a FIFO queue that releases at most rate items per interval.
// Enqueue never blocks, removal is gated by the allowance of the current window.
// Queue is not safe for concurrent use, see SyncQueue.
type Queue[T any] struct {
	rate        int
	interval    time.Duration
	allowance   int
	windowStart time.Time

	items deque.Deque[T]
	// removals is bumped whenever items leave the queue, AllMut uses it to detect removals during iteration.
	removals uint64

	clock            Clock
	logger           log.FieldLogger
	limitLogSampler  *xrate.Sometimes
	metricsCollector MetricsCollector
}

// New creates a new empty Queue that releases at most rate items per interval.
func New[T any](rate int, interval time.Duration) (*Queue[T], error) {
	return NewWithOpts[T](rate, interval, Opts{})
}

// NewWithOpts creates a new empty Queue with the provided options.
// Zero rate is allowed and means that no item is ever released.
func NewWithOpts[T any](rate int, interval time.Duration, opts Opts) (*Queue[T], error) {
	if rate < 0 {
		return nil, fmt.Errorf("rate must be greater or equal to 0, got %d", rate)
	}
	if interval < 0 {
		return nil, fmt.Errorf("interval must be greater or equal to 0, got %s", interval)
	}
	if opts.LimitLogInterval < 0 {
		return nil, fmt.Errorf("limit log interval must be greater or equal to 0, got %s", opts.LimitLogInterval)
	}
	if opts.InitialCapacity < 0 {
		return nil, fmt.Errorf("initial capacity must be greater or equal to 0, got %d", opts.InitialCapacity)
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.LimitLogInterval == 0 {
		opts.LimitLogInterval = DefaultLimitLogInterval
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetrics{}
	}

	q := &Queue[T]{
		rate:             rate,
		interval:         interval,
		allowance:        rate,
		windowStart:      opts.Clock.Now(),
		clock:            opts.Clock,
		logger:           opts.Logger,
		limitLogSampler:  &xrate.Sometimes{First: 1, Interval: opts.LimitLogInterval},
		metricsCollector: opts.MetricsCollector,
	}
	if opts.InitialCapacity > 0 {
		q.items.Grow(opts.InitialCapacity)
	}
	return q, nil
}

// NewFromConfig creates a new empty Queue using rate, interval and initial capacity from the configuration.
// Opts.InitialCapacity is ignored.
func NewFromConfig[T any](cfg *Config, opts Opts) (*Queue[T], error) {
	opts.InitialCapacity = cfg.InitialCapacity
	return NewWithOpts[T](cfg.Rate, time.Duration(cfg.Interval), opts)
}

// Rate returns the maximum number of items released per interval.
func (q *Queue[T]) Rate() int {
	return q.rate
}

// SetRate changes the maximum number of items released per interval. Negative value is treated as zero.
// The allowance of the current window is not touched, the new value takes effect on the next rollover.
func (q *Queue[T]) SetRate(rate int) {
	q.rate = max(rate, 0)
}

// Interval returns the length of the rate limiting window.
func (q *Queue[T]) Interval() time.Duration {
	return q.interval
}

// SetInterval changes the length of the rate limiting window. Negative value is treated as zero.
// The current window start is not touched, the new value takes effect on the next rollover decision.
func (q *Queue[T]) SetInterval(interval time.Duration) {
	q.interval = max(interval, 0)
}

// Allowance returns the number of items that may be released in the current window
// without checking the clock.
func (q *Queue[T]) Allowance() int {
	return q.allowance
}

// Enqueue appends the item to the tail of the queue.
func (q *Queue[T]) Enqueue(item T) {
	q.items.PushBack(item)
	q.metricsCollector.SetAmount(q.items.Len())
}

// Extend appends all items to the tail of the queue preserving their order.
func (q *Queue[T]) Extend(items ...T) {
	q.items.Grow(len(items))
	for _, item := range items {
		q.items.PushBack(item)
	}
	q.metricsCollector.SetAmount(q.items.Len())
}

// ExtendSeq appends all items produced by the sequence to the tail of the queue.
func (q *Queue[T]) ExtendSeq(seq iter.Seq[T]) {
	for item := range seq {
		q.items.PushBack(item)
	}
	q.metricsCollector.SetAmount(q.items.Len())
}

// TryDequeue tries to remove the head item without blocking.
//
// Empty is returned if the queue has no items regardless of the allowance.
// Data is returned if the allowance of the current window is not exhausted or the window has elapsed.
// Otherwise, Limit is returned with the time remaining until the current window ends.
func (q *Queue[T]) TryDequeue() DequeueResult[T] {
	if q.items.Len() == 0 {
		q.metricsCollector.IncEmpty()
		return Empty[T]()
	}

	if q.allowance > 0 {
		q.allowance--
		return Data(q.popFront())
	}

	now := q.clock.Now()
	if elapsed := now.Sub(q.windowStart); elapsed < q.interval {
		return q.limit(q.interval - elapsed)
	}

	q.windowStart = now
	q.metricsCollector.IncRollovers()
	if q.rate == 0 {
		q.allowance = 0
		return q.limit(q.interval)
	}
	q.allowance = q.rate - 1
	q.logger.Debug("rate limited queue window is rolled over",
		log.Int("rate", q.rate), log.Duration("interval", q.interval), log.Int("queue_length", q.items.Len()))
	return Data(q.popFront())
}

// Dequeue removes the head item and returns it, or returns false if the queue is empty.
// If the allowance is exhausted, Dequeue sleeps until the current window ends.
// The wait cannot be interrupted, use DequeueContext for that.
// False is also returned immediately if the rate is zero, since no item can be released in this case.
func (q *Queue[T]) Dequeue() (item T, ok bool) {
	res := q.TryDequeue()
	switch res.kind {
	case ResultData:
		return res.value, true
	case ResultEmpty:
		return item, false
	}
	if q.rate == 0 {
		return item, false
	}
	q.clock.Sleep(res.retryAfter)
	return q.takeAfterWait(), true
}

// DequeueContext works like Dequeue, but the wait for the next window may be interrupted by the context.
// ErrEmpty is returned if the queue has no items, ErrZeroRate if the rate is zero.
func (q *Queue[T]) DequeueContext(ctx context.Context) (item T, err error) {
	res := q.TryDequeue()
	switch res.kind {
	case ResultData:
		return res.value, nil
	case ResultEmpty:
		return item, ErrEmpty
	}
	if q.rate == 0 {
		return item, ErrZeroRate
	}
	select {
	case <-ctx.Done():
		return item, ctx.Err()
	case <-q.clock.After(res.retryAfter):
	}
	return q.takeAfterWait(), nil
}

// All returns a sequence over the items that may be released in the current window,
// i.e. at most Allowance items from the head. Iteration doesn't remove items and doesn't change the allowance.
func (q *Queue[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		n := min(q.allowance, q.items.Len())
		for i := 0; i < n; i++ {
			if !yield(q.items.At(i)) {
				return
			}
		}
	}
}

// AllMut works like All, but yields pointers that may be used to modify the items in place.
// A pointer is valid only during its own step: the modification is stored in the queue
// when the step ends, writes through a pointer kept after that are not seen by the queue.
// Removing items (TryDequeue, Dequeue, Truncate, Clear) while iterating panics with ErrConcurrentRemoval.
func (q *Queue[T]) AllMut() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		n := min(q.allowance, q.items.Len())
		for i := 0; i < n; i++ {
			item := q.items.At(i)
			removals := q.removals
			more := yield(&item)
			if q.removals != removals {
				panic(ErrConcurrentRemoval)
			}
			q.items.Set(i, item)
			if !more {
				return
			}
		}
	}
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	return q.items.Len()
}

// IsEmpty reports whether the queue has no items.
func (q *Queue[T]) IsEmpty() bool {
	return q.items.Len() == 0
}

// Cap returns the number of items the queue can hold without reallocating.
func (q *Queue[T]) Cap() int {
	return q.items.Cap()
}

// Grow grows the queue capacity, if necessary, to guarantee space for another n items.
// Non-positive n is ignored.
func (q *Queue[T]) Grow(n int) {
	if n > 0 {
		q.items.Grow(n)
	}
}

// Truncate shortens the queue to n items dropping excess items from the tail.
func (q *Queue[T]) Truncate(n int) {
	for q.items.Len() > max(n, 0) {
		q.items.PopBack()
		q.removals++
	}
	q.metricsCollector.SetAmount(q.items.Len())
}

// Clear removes all items from the queue. The rate limiting window is not affected.
func (q *Queue[T]) Clear() {
	if q.items.Len() > 0 {
		q.items.Clear()
		q.removals++
	}
	q.metricsCollector.SetAmount(0)
}

func (q *Queue[T]) popFront() T {
	item := q.items.PopFront()
	q.removals++
	q.metricsCollector.IncDequeued()
	q.metricsCollector.SetAmount(q.items.Len())
	return item
}

func (q *Queue[T]) limit(retryAfter time.Duration) DequeueResult[T] {
	q.metricsCollector.IncLimited()
	q.limitLogSampler.Do(func() {
		q.logger.Debug("rate limited queue is throttled",
			log.Int("queue_length", q.items.Len()), log.Duration("retry_after", retryAfter))
	})
	return Limit[T](retryAfter)
}

// takeAfterWait is called after the whole remaining part of the window has been waited.
// The window must have elapsed by now and the queue is still non-empty.
func (q *Queue[T]) takeAfterWait() T {
	res := q.TryDequeue()
	if !res.IsData() {
		panic(fmt.Errorf("%w: %s result after waiting for the next window", ErrInvariantViolated, res))
	}
	return res.value
}
