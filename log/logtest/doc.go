/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides log.FieldLogger implementations for tests:
// a Recorder that keeps every entry for later inspection and a plain JSON logger.
package logtest
