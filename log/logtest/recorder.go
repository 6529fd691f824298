/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"slices"
	"sync"
	"time"

	"github.com/ssgreg/logf"

	"github.com/acronis/go-ratelimitqueue/log"
)

// RecordedEntry represents recorded entry which was logged.
type RecordedEntry struct {
	LoggerName string
	Fields     []log.Field
	Level      log.Level
	Time       time.Time
	Text       string
}

// FindField tries to find field in logging entry by key.
// Fields passed to the logging call win over fields bound with With.
func (re *RecordedEntry) FindField(key string) (*log.Field, bool) {
	idx := slices.IndexFunc(re.Fields, func(field log.Field) bool { return field.Key == key })
	if idx < 0 {
		return nil, false
	}
	field := re.Fields[idx]
	return &field, true
}

type recordingEntryWriter struct {
	mu      sync.RWMutex
	entries []RecordedEntry
}

//nolint:gocritic
func (ew *recordingEntryWriter) WriteEntry(e logf.Entry) {
	fields := make([]log.Field, 0, len(e.Fields)+len(e.DerivedFields))
	fields = append(fields, e.Fields...)
	fields = append(fields, e.DerivedFields...)
	entry := RecordedEntry{
		LoggerName: e.LoggerName,
		Fields:     fields,
		Level:      convertLogfLevelToLevel(e.Level),
		Time:       e.Time,
		Text:       e.Text,
	}

	ew.mu.Lock()
	defer ew.mu.Unlock()
	ew.entries = append(ew.entries, entry)
}

func (ew *recordingEntryWriter) filter(fn func(entry RecordedEntry) bool, limit int) []RecordedEntry {
	ew.mu.RLock()
	defer ew.mu.RUnlock()
	var found []RecordedEntry
	for _, entry := range ew.entries {
		if fn(entry) {
			found = append(found, entry)
			if limit > 0 && len(found) == limit {
				break
			}
		}
	}
	return found
}

// Recorder is an implementation of log.FieldLogger that records all logged entries
// (including debug ones) for later inspection in tests. It is safe for concurrent use,
// so it may be passed to background workers.
type Recorder struct {
	*log.LogfAdapter
	entryWriter *recordingEntryWriter
}

// NewRecorder returns an initialized Recorder.
func NewRecorder() *Recorder {
	ew := &recordingEntryWriter{}
	return &Recorder{&log.LogfAdapter{Logger: logf.NewLogger(logf.LevelDebug, ew)}, ew}
}

// With returns a new Recorder with the given additional fields. Both recorders share recorded entries.
func (r *Recorder) With(fs ...log.Field) log.FieldLogger {
	return &Recorder{r.LogfAdapter.With(fs...).(*log.LogfAdapter), r.entryWriter}
}

// WithLevel returns a new Recorder with the given additional level check. Both recorders share recorded entries.
func (r *Recorder) WithLevel(level log.Level) log.FieldLogger {
	return &Recorder{r.LogfAdapter.WithLevel(level).(*log.LogfAdapter), r.entryWriter}
}

// Entries returns all recorded logging entries.
func (r *Recorder) Entries() []RecordedEntry {
	r.entryWriter.mu.RLock()
	defer r.entryWriter.mu.RUnlock()
	return slices.Clone(r.entryWriter.entries)
}

// FindEntry tries to find the first recorded logging entry with the given message.
func (r *Recorder) FindEntry(msg string) (RecordedEntry, bool) {
	return r.FindEntryByFilter(func(entry RecordedEntry) bool {
		return entry.Text == msg
	})
}

// FindEntryByFilter tries to find the first recorded logging entry accepted by filter.
func (r *Recorder) FindEntryByFilter(filter func(entry RecordedEntry) bool) (RecordedEntry, bool) {
	if found := r.entryWriter.filter(filter, 1); len(found) != 0 {
		return found[0], true
	}
	return RecordedEntry{}, false
}

// FindAllEntriesByFilter returns all recorded logging entries accepted by filter.
func (r *Recorder) FindAllEntriesByFilter(filter func(entry RecordedEntry) bool) []RecordedEntry {
	return r.entryWriter.filter(filter, 0)
}

// Reset removes all recorded entries.
func (r *Recorder) Reset() {
	r.entryWriter.mu.Lock()
	defer r.entryWriter.mu.Unlock()
	r.entryWriter.entries = nil
}

func convertLogfLevelToLevel(value logf.Level) log.Level {
	switch value {
	case logf.LevelError:
		return log.LevelError
	case logf.LevelWarn:
		return log.LevelWarn
	case logf.LevelDebug:
		return log.LevelDebug
	}
	return log.LevelInfo
}
