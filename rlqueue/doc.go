/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package rlqueue provides a generic FIFO queue that releases at most a fixed number of items
// per fixed time window.
//
// Items are always accepted by Enqueue. Removal is gated by an allowance that is refilled lazily:
// the elapsed time is checked only when a removal is attempted after the allowance has been exhausted,
// there is no background timer. Unused tokens are never carried over to the next window.
//
// Three flavors of removal are available:
//   - TryDequeue never blocks and returns a DequeueResult that is either data, empty or limit
//     (the latter carries the time after which the next item becomes available);
//   - Dequeue blocks the calling goroutine until the rate limit allows the next item to be released;
//   - DequeueContext does the same, but the wait may be interrupted by the context.
//
// Queue is not safe for concurrent use. SyncQueue wraps it with a mutex for the cases when
// the queue is shared between producers and consumers running in different goroutines.
package rlqueue
