/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package service

import "context"

// Worker is a long-running job, e.g. a queue dispatcher. Run blocks until ctx is canceled or the job fails.
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc lets a plain function act as a Worker.
type WorkerFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f WorkerFunc) Run(ctx context.Context) error { return f(ctx) }
