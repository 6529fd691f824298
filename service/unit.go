/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package service provides a minimal lifecycle abstraction for long-running consumers of the queue.
package service

// Unit represents a component that can be started and stopped.
type Unit interface {
	// Start begins the unit's operation. It may block for the whole lifetime of the unit.
	// If Start fails, it writes the error to fatalErr. The channel must not be used after Start returns.
	Start(fatalErr chan<- error)

	// Stop halts the unit. If gracefully is true, Stop waits until the unit finishes its current work.
	// It may be called even if Start has failed or was never called.
	Stop(gracefully bool) error
}

// MetricsRegisterer is an interface for objects that can register its own metrics.
type MetricsRegisterer interface {
	MustRegisterMetrics()
	UnregisterMetrics()
}
