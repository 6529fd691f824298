/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package dispatch provides Dispatcher, a long-running consumer that drains a rate limited queue
// and delivers every released item to a handler.
//
// Dispatcher implements service.Worker, so it can be run as a service.Unit:
//
//	q, _ := rlqueue.New[Email](10, time.Second)
//	d := dispatch.New[Email](rlqueue.NewSync(q), dispatch.HandlerFunc[Email](send), logger, dispatch.Opts{})
//	unit := service.NewWorkerUnit(d)
//	go unit.Start(fatalErr)
//	d.Enqueue(email)
package dispatch
