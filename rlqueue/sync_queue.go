/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package rlqueue

import (
	"context"
	"sync"
	"time"
)

// SyncQueue wraps Queue with a mutex, so it may be shared between goroutines.
// The lock is not held while waiting for the next window, so producers are never blocked by consumers.
// Since several consumers may compete for the tokens of the same window,
// blocking removals retry until they get an item instead of treating a repeated limit as a bug.
type SyncQueue[T any] struct {
	mu    sync.Mutex
	queue *Queue[T]
}

// NewSync creates a new SyncQueue that guards the passed queue.
// The queue must not be used directly after that.
func NewSync[T any](queue *Queue[T]) *SyncQueue[T] {
	return &SyncQueue[T]{queue: queue}
}

// Enqueue appends the item to the tail of the queue.
func (s *SyncQueue[T]) Enqueue(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Enqueue(item)
}

// Extend appends all items to the tail of the queue preserving their order.
func (s *SyncQueue[T]) Extend(items ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Extend(items...)
}

// TryDequeue tries to remove the head item without blocking. See Queue.TryDequeue.
func (s *SyncQueue[T]) TryDequeue() DequeueResult[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.TryDequeue()
}

// Dequeue removes the head item and returns it, or returns false if the queue is empty or the rate is zero.
// If the allowance is exhausted, Dequeue sleeps until the current window ends and tries again.
func (s *SyncQueue[T]) Dequeue() (item T, ok bool) {
	for {
		res, zeroRate, clock := s.tryDequeue()
		switch res.kind {
		case ResultData:
			return res.value, true
		case ResultEmpty:
			return item, false
		}
		if zeroRate {
			return item, false
		}
		clock.Sleep(res.retryAfter)
	}
}

// DequeueContext works like Dequeue, but the wait may be interrupted by the context.
// ErrEmpty is returned if the queue has no items, ErrZeroRate if the rate is zero.
func (s *SyncQueue[T]) DequeueContext(ctx context.Context) (item T, err error) {
	for {
		res, zeroRate, clock := s.tryDequeue()
		switch res.kind {
		case ResultData:
			return res.value, nil
		case ResultEmpty:
			return item, ErrEmpty
		}
		if zeroRate {
			return item, ErrZeroRate
		}
		select {
		case <-ctx.Done():
			return item, ctx.Err()
		case <-clock.After(res.retryAfter):
		}
	}
}

// Peek returns a copy of the items that may be released in the current window.
func (s *SyncQueue[T]) Peek() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]T, 0, min(s.queue.allowance, s.queue.Len()))
	for item := range s.queue.All() {
		items = append(items, item)
	}
	return items
}

// Do calls fn with the underlying queue while holding the lock.
// The queue must not be retained by fn.
func (s *SyncQueue[T]) Do(fn func(q *Queue[T])) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.queue)
}

// Len returns the number of items in the queue.
func (s *SyncQueue[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// IsEmpty reports whether the queue has no items.
func (s *SyncQueue[T]) IsEmpty() bool {
	return s.Len() == 0
}

// SetRate changes the maximum number of items released per interval. See Queue.SetRate.
func (s *SyncQueue[T]) SetRate(rate int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.SetRate(rate)
}

// SetInterval changes the length of the rate limiting window. See Queue.SetInterval.
func (s *SyncQueue[T]) SetInterval(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.SetInterval(interval)
}

func (s *SyncQueue[T]) tryDequeue() (res DequeueResult[T], zeroRate bool, clock Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.TryDequeue(), s.queue.rate == 0, s.queue.clock
}
