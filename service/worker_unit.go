/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/atomic"
)

// ErrWorkerUnitStopTimeoutExceeded is an error that occurs when WorkerUnit's gracefully stop timeout is exceeded.
var ErrWorkerUnitStopTimeoutExceeded = errors.New("worker unit stop timeout exceeded")

// ErrWorkerUnitAlreadyStarted is sent to the fatal error channel when Start is called more than once.
var ErrWorkerUnitAlreadyStarted = errors.New("worker unit is already started")

// WorkerUnit allows presenting Worker as Unit.
type WorkerUnit struct {
	worker              Worker
	metricsRegisterer   MetricsRegisterer
	gracefulStopTimeout time.Duration

	ctx       context.Context
	ctxCancel context.CancelFunc
	started   atomic.Bool
	running   atomic.Bool
	stopDone  chan struct{}
}

// WorkerUnitOpts contains optional parameters for constructing WorkerUnit.
type WorkerUnitOpts struct {
	// MetricsRegisterer is used when it is not nil, otherwise the worker itself is checked for MetricsRegisterer.
	MetricsRegisterer   MetricsRegisterer
	GracefulStopTimeout time.Duration
}

// NewWorkerUnit creates a new instance of WorkerUnit.
func NewWorkerUnit(worker Worker) *WorkerUnit {
	return NewWorkerUnitWithOpts(worker, WorkerUnitOpts{})
}

// NewWorkerUnitWithOpts creates a new instance of WorkerUnit
// with an ability to specify different optional parameters.
func NewWorkerUnitWithOpts(worker Worker, opts WorkerUnitOpts) *WorkerUnit {
	metricsRegisterer := opts.MetricsRegisterer
	if metricsRegisterer == nil {
		metricsRegisterer, _ = worker.(MetricsRegisterer)
	}
	ctx, ctxCancel := context.WithCancel(context.Background())
	return &WorkerUnit{
		worker:              worker,
		metricsRegisterer:   metricsRegisterer,
		gracefulStopTimeout: opts.GracefulStopTimeout,
		ctx:                 ctx,
		ctxCancel:           ctxCancel,
		stopDone:            make(chan struct{}),
	}
}

// Start calls Run method of the underlying Worker and blocks until it returns.
// An error returned by Run is sent to fatalError.
// A repeated call returns at once, ErrWorkerUnitAlreadyStarted is sent only if fatalError has room for it.
func (u *WorkerUnit) Start(fatalError chan<- error) {
	if !u.started.CompareAndSwap(false, true) {
		select {
		case fatalError <- ErrWorkerUnitAlreadyStarted:
		default:
		}
		return
	}
	u.running.Store(true)
	defer func() {
		u.running.Store(false)
		close(u.stopDone)
	}()
	if err := u.worker.Run(u.ctx); err != nil {
		fatalError <- err
	}
}

// Running reports whether the underlying Worker is being run at the moment.
func (u *WorkerUnit) Running() bool {
	return u.running.Load()
}

// Stop cancels the context of the underlying Worker.
// If gracefully is true, it waits until Run returns (but no longer than GracefulStopTimeout if it is set).
func (u *WorkerUnit) Stop(gracefully bool) error {
	u.ctxCancel()
	if !gracefully || !u.started.Load() {
		return nil
	}
	if u.gracefulStopTimeout == 0 {
		<-u.stopDone
		return nil
	}
	select {
	case <-u.stopDone:
		return nil
	case <-time.After(u.gracefulStopTimeout):
		return ErrWorkerUnitStopTimeoutExceeded
	}
}

// MustRegisterMetrics registers underlying Worker's metrics.
func (u *WorkerUnit) MustRegisterMetrics() {
	if u.metricsRegisterer != nil {
		u.metricsRegisterer.MustRegisterMetrics()
	}
}

// UnregisterMetrics unregisters underlying Worker's metrics.
func (u *WorkerUnit) UnregisterMetrics() {
	if u.metricsRegisterer != nil {
		u.metricsRegisterer.UnregisterMetrics()
	}
}
