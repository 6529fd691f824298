/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package testutil contains assertion helpers shared by tests of the queue and its consumers.
package testutil

type tHelper interface {
	Helper()
}
