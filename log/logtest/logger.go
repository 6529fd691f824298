/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"io"
	"os"
	"sync"

	"github.com/ssgreg/logf"

	"github.com/acronis/go-ratelimitqueue/log"
)

// LoggerOpts configures the logger returned by NewLoggerWithOpts.
type LoggerOpts struct {
	// Output receives JSON encoded entries, one per line. Stderr is used when nil.
	Output io.Writer
	// Level is a minimal level of logged entries. Debug is used when empty.
	Level log.Level
}

// NewLogger returns a synchronous JSON logger writing entries of all levels to stderr.
// Unlike log.NewLogger it needs no closing, which makes it handy in tests.
func NewLogger() log.FieldLogger {
	return NewLoggerWithOpts(LoggerOpts{})
}

// NewLoggerWithOpts returns a synchronous JSON logger configured by opts.
func NewLoggerWithOpts(opts LoggerOpts) log.FieldLogger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	w := &syncEntryWriter{
		enc: logf.NewJSONEncoder(logf.JSONEncoderConfig{
			EncodeTime:   logf.RFC3339NanoTimeEncoder,
			FieldKeyTime: "time",
		}),
		out: opts.Output,
	}
	var logger log.FieldLogger = &log.LogfAdapter{Logger: logf.NewLogger(logf.LevelDebug, w)}
	if opts.Level != "" {
		logger = logger.WithLevel(opts.Level)
	}
	return logger
}

// syncEntryWriter encodes and writes every entry in the caller goroutine.
type syncEntryWriter struct {
	mu  sync.Mutex
	enc logf.Encoder
	out io.Writer
}

//nolint:gocritic // logf.EntryWriter passes entries by value
func (w *syncEntryWriter) WriteEntry(e logf.Entry) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var buf logf.Buffer
	if err := w.enc.Encode(&buf, e); err != nil {
		_, _ = io.WriteString(w.out, err.Error())
		return
	}
	_, _ = w.out.Write(buf.Data)
}
