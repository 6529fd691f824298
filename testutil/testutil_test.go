/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import "fmt"

// MockT records failures instead of stopping the test, so assertion helpers can be checked themselves.
type MockT struct {
	Failed   bool
	Messages []string
}

func (t *MockT) Helper() {}

func (t *MockT) FailNow() {
	t.Failed = true
}

func (t *MockT) Errorf(format string, args ...interface{}) {
	t.Messages = append(t.Messages, fmt.Sprintf(format, args...))
}
