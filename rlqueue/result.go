/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package rlqueue

import (
	"fmt"
	"time"
)

// ResultKind describes the outcome of the TryDequeue call.
type ResultKind int

// Possible outcomes of the TryDequeue call.
const (
	// ResultEmpty means that the queue has no items.
	ResultEmpty ResultKind = iota
	// ResultData means that the head item was removed from the queue.
	ResultData
	// ResultLimit means that the queue has items, but the allowance of the current window is exhausted.
	ResultLimit
)

// String returns a human-readable name of the kind.
func (k ResultKind) String() string {
	switch k {
	case ResultEmpty:
		return "empty"
	case ResultData:
		return "data"
	case ResultLimit:
		return "limit"
	}
	return fmt.Sprintf("ResultKind(%d)", int(k))
}

// DequeueResult is a result of the non-blocking removal.
// Neither "empty" nor "limit" is an error: the first one says that there is no pending work,
// the second one is a backpressure signal that carries the exact time to wait before retrying.
type DequeueResult[T any] struct {
	kind       ResultKind
	value      T
	retryAfter time.Duration
}

// Data returns a DequeueResult that holds the removed item.
func Data[T any](value T) DequeueResult[T] {
	return DequeueResult[T]{kind: ResultData, value: value}
}

// Empty returns a DequeueResult that signals the queue has no items.
func Empty[T any]() DequeueResult[T] {
	return DequeueResult[T]{kind: ResultEmpty}
}

// Limit returns a DequeueResult that signals the allowance is exhausted
// and the next item may be released only after retryAfter.
func Limit[T any](retryAfter time.Duration) DequeueResult[T] {
	return DequeueResult[T]{kind: ResultLimit, retryAfter: retryAfter}
}

// ResultOf converts the comma-ok pair into DequeueResult: Data if ok is true, Empty otherwise.
func ResultOf[T any](value T, ok bool) DequeueResult[T] {
	if !ok {
		return Empty[T]()
	}
	return Data(value)
}

// Kind returns the kind of the result.
func (r DequeueResult[T]) Kind() ResultKind {
	return r.kind
}

// IsData reports whether the result holds an item.
func (r DequeueResult[T]) IsData() bool {
	return r.kind == ResultData
}

// IsEmpty reports whether the queue was empty.
func (r DequeueResult[T]) IsEmpty() bool {
	return r.kind == ResultEmpty
}

// IsLimit reports whether the removal was rate limited.
func (r DequeueResult[T]) IsLimit() bool {
	return r.kind == ResultLimit
}

// Value returns the removed item. Zero value is returned if the result is not data.
func (r DequeueResult[T]) Value() T {
	return r.value
}

// RetryAfter returns the time that should pass before the next removal attempt can succeed.
// It is zero for the data and empty results.
func (r DequeueResult[T]) RetryAfter() time.Duration {
	return r.retryAfter
}

// Get returns the removed item and true if the result is data, and zero value and false otherwise.
func (r DequeueResult[T]) Get() (value T, ok bool) {
	return r.value, r.kind == ResultData
}

// String implements fmt.Stringer.
func (r DequeueResult[T]) String() string {
	switch r.kind {
	case ResultData:
		return fmt.Sprintf("data(%v)", r.value)
	case ResultLimit:
		return fmt.Sprintf("limit(%s)", r.retryAfter)
	}
	return r.kind.String()
}
