/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"fmt"
	"time"

	"github.com/acronis/go-ratelimitqueue/log"
)

func Example() {
	drain := func(pending int, wait time.Duration, logger log.FieldLogger) {
		logger.Info("queue is throttled", log.Int("pending", pending), log.Duration("retry_after", wait))
	}

	logRecorder := NewRecorder()
	drain(42, time.Second, logRecorder)

	if logEntry, found := logRecorder.FindEntry("queue is throttled"); found {
		fmt.Printf("[%s] %s\n", logEntry.Level, logEntry.Text)
		if pending, found := logEntry.FindField("pending"); found {
			fmt.Printf("pending: %d\n", pending.Int)
		}
		if retryAfter, found := logEntry.FindField("retry_after"); found {
			fmt.Printf("retry_after: %s\n", time.Duration(retryAfter.Int))
		}
	}

	// Output:
	// [info] queue is throttled
	// pending: 42
	// retry_after: 1s
}
