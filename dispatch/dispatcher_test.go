/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/acronis/go-ratelimitqueue/log/logtest"
	"github.com/acronis/go-ratelimitqueue/retry"
	"github.com/acronis/go-ratelimitqueue/rlqueue"
	"github.com/acronis/go-ratelimitqueue/service"
	appTestutil "github.com/acronis/go-ratelimitqueue/testutil"
)

var errDelivery = errors.New("delivery error")

type collectingHandler struct {
	mu    sync.Mutex
	items []int
	times []time.Time
}

func (h *collectingHandler) Handle(_ context.Context, item int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = append(h.items, item)
	h.times = append(h.times, time.Now())
	return nil
}

func (h *collectingHandler) Items() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int{}, h.items...)
}

func (h *collectingHandler) Times() []time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]time.Time{}, h.times...)
}

func newSyncQueue(t *testing.T, rate int, interval time.Duration) *rlqueue.SyncQueue[int] {
	t.Helper()
	q, err := rlqueue.New[int](rate, interval)
	require.NoError(t, err)
	return rlqueue.NewSync(q)
}

// runDispatcher runs the dispatcher in background and returns a function that stops it and checks the result.
func runDispatcher[T any](t *testing.T, d *Dispatcher[T]) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() {
		runErr <- d.Run(ctx)
	}()
	return func() {
		cancel()
		appTestutil.RequireNoErrorInChannel(t, runErr, time.Second*5)
	}
}

func TestDispatcher_DeliversItemsInOrder(t *testing.T) {
	handler := &collectingHandler{}
	d := New[int](newSyncQueue(t, 100, time.Second), handler, nil, Opts{})
	stop := runDispatcher(t, d)
	defer stop()

	d.Enqueue(1, 2, 3, 4, 5)

	require.Eventually(t, func() bool { return len(handler.Items()) == 5 }, time.Second*2, time.Millisecond*10)
	require.Equal(t, []int{1, 2, 3, 4, 5}, handler.Items())
	require.Equal(t, Stats{Succeeded: 5}, d.Stats())
	require.NotEmpty(t, d.ID())
}

func TestDispatcher_NotifyWakesUpIdleLoop(t *testing.T) {
	handler := &collectingHandler{}
	q := newSyncQueue(t, 100, time.Second)
	d := New[int](q, handler, nil, Opts{IdlePollInterval: time.Hour})
	stop := runDispatcher(t, d)
	defer stop()

	time.Sleep(time.Millisecond * 50) // Let the dispatcher find the queue empty.
	q.Enqueue(42)
	d.Notify()

	require.Eventually(t, func() bool { return len(handler.Items()) == 1 }, time.Second*2, time.Millisecond*10)
}

func TestDispatcher_PollsIdleQueue(t *testing.T) {
	handler := &collectingHandler{}
	q := newSyncQueue(t, 100, time.Second)
	d := New[int](q, handler, nil, Opts{IdlePollInterval: time.Millisecond * 20})
	stop := runDispatcher(t, d)
	defer stop()

	time.Sleep(time.Millisecond * 50)
	q.Enqueue(42) // No notification.

	require.Eventually(t, func() bool { return len(handler.Items()) == 1 }, time.Second*2, time.Millisecond*10)
}

func TestDispatcher_PacesDelivery(t *testing.T) {
	const interval = time.Millisecond * 200

	startTime := time.Now() // The first window starts when the queue is created.
	handler := &collectingHandler{}
	d := New[int](newSyncQueue(t, 2, interval), handler, nil, Opts{})
	d.Enqueue(1, 2, 3, 4, 5, 6)

	stop := runDispatcher(t, d)
	defer stop()

	require.Eventually(t, func() bool { return len(handler.Items()) == 6 }, time.Second*3, time.Millisecond*10)
	times := handler.Times()
	require.Less(t, times[1].Sub(startTime), interval)
	require.GreaterOrEqual(t, times[2].Sub(startTime), interval)
	require.GreaterOrEqual(t, times[4].Sub(startTime), 2*interval)
}

func TestDispatcher_ZeroRate(t *testing.T) {
	handler := &collectingHandler{}
	q := newSyncQueue(t, 0, time.Millisecond*50)
	d := New[int](q, handler, nil, Opts{IdlePollInterval: time.Millisecond * 10})
	stop := runDispatcher(t, d)
	defer stop()

	d.Enqueue(1, 2)
	time.Sleep(time.Millisecond * 200)
	require.Empty(t, handler.Items())

	q.SetRate(10)
	d.Notify()
	require.Eventually(t, func() bool { return len(handler.Items()) == 2 }, time.Second*2, time.Millisecond*10)
}

func TestDispatcher_Retries(t *testing.T) {
	t.Run("succeeded after retries", func(t *testing.T) {
		var attempts atomic.Int32
		handler := HandlerFunc[int](func(ctx context.Context, item int) error {
			if attempts.Inc() < 3 {
				return errDelivery
			}
			return nil
		})
		logRecorder := logtest.NewRecorder()
		d := New[int](newSyncQueue(t, 10, time.Second), handler, logRecorder, Opts{
			RetryPolicy: retry.NewConstantBackoffPolicy(time.Millisecond, 5),
		})
		stop := runDispatcher(t, d)
		defer stop()

		d.Enqueue(1)
		require.Eventually(t, func() bool { return d.Stats().Succeeded == 1 }, time.Second*2, time.Millisecond*10)
		require.Equal(t, int32(3), attempts.Load())
		retries := logRecorder.FindAllEntriesByFilter(func(entry logtest.RecordedEntry) bool {
			return entry.Text == "failed to handle queue item, retrying"
		})
		require.Len(t, retries, 2)
	})

	t.Run("failed after all attempts", func(t *testing.T) {
		var attempts atomic.Int32
		handler := HandlerFunc[int](func(ctx context.Context, item int) error {
			attempts.Inc()
			return errDelivery
		})
		logRecorder := logtest.NewRecorder()
		d := New[int](newSyncQueue(t, 10, time.Second), handler, logRecorder, Opts{
			RetryPolicy: retry.NewConstantBackoffPolicy(time.Millisecond, 2),
		})
		stop := runDispatcher(t, d)
		defer stop()

		d.Enqueue(1, 2)
		require.Eventually(t, func() bool { return d.Stats().Failed == 2 }, time.Second*2, time.Millisecond*10)
		require.Equal(t, int32(6), attempts.Load())
		logEntry, found := logRecorder.FindEntry("failed to handle queue item")
		require.True(t, found)
		require.Equal(t, d.ID(), mustFindStringField(t, logEntry, "dispatcher_id"))
	})

	t.Run("not retryable error", func(t *testing.T) {
		var attempts atomic.Int32
		handler := HandlerFunc[int](func(ctx context.Context, item int) error {
			attempts.Inc()
			return errDelivery
		})
		d := New[int](newSyncQueue(t, 10, time.Second), handler, nil, Opts{
			RetryPolicy: retry.NewConstantBackoffPolicy(time.Millisecond, 5),
			IsRetryable: func(err error) bool { return !errors.Is(err, errDelivery) },
		})
		stop := runDispatcher(t, d)
		defer stop()

		d.Enqueue(1)
		require.Eventually(t, func() bool { return d.Stats().Failed == 1 }, time.Second*2, time.Millisecond*10)
		require.Equal(t, int32(1), attempts.Load())
	})
}

func TestDispatcher_RecoversHandlerPanic(t *testing.T) {
	var attempts atomic.Int32
	handler := HandlerFunc[int](func(ctx context.Context, item int) error {
		if item == 2 {
			attempts.Inc()
			panic("malformed item")
		}
		return nil
	})
	logRecorder := logtest.NewRecorder()
	d := New[int](newSyncQueue(t, 10, time.Second), handler, logRecorder, Opts{
		RetryPolicy: retry.NewConstantBackoffPolicy(time.Millisecond, 5),
	})
	stop := runDispatcher(t, d)
	defer stop()

	d.Enqueue(1, 2, 3)
	require.Eventually(t, func() bool { return d.Stats().Total() == 3 }, time.Second*2, time.Millisecond*10)
	require.Equal(t, Stats{Succeeded: 2, Panicked: 1}, d.Stats())
	require.Equal(t, int32(1), attempts.Load())

	_, found := logRecorder.FindEntryByFilter(func(entry logtest.RecordedEntry) bool {
		return strings.HasPrefix(entry.Text, "panic while handling queue item: malformed item")
	})
	require.True(t, found)
}

func TestDispatcher_LogEvery(t *testing.T) {
	logRecorder := logtest.NewRecorder()
	d := New[int](newSyncQueue(t, 100, time.Second), &collectingHandler{}, logRecorder, Opts{LogEvery: 2})
	stop := runDispatcher(t, d)

	d.Enqueue(1, 2, 3, 4, 5)
	require.Eventually(t, func() bool { return d.Stats().Total() == 5 }, time.Second*2, time.Millisecond*10)
	stop()

	progressEntries := logRecorder.FindAllEntriesByFilter(func(entry logtest.RecordedEntry) bool {
		return entry.Text == "queue items are dispatched"
	})
	require.Len(t, progressEntries, 2)

	_, found := logRecorder.FindEntry("rate limited queue dispatcher is started")
	require.True(t, found)
	_, found = logRecorder.FindEntry("rate limited queue dispatcher is stopped")
	require.True(t, found)
}

func TestDispatcher_Metrics(t *testing.T) {
	handler := HandlerFunc[int](func(ctx context.Context, item int) error {
		if item%2 == 0 {
			return errDelivery
		}
		return nil
	})
	metrics := NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{Namespace: "mail"})
	d := New[int](newSyncQueue(t, 100, time.Second), handler, nil, Opts{MetricsCollector: metrics})
	stop := runDispatcher(t, d)
	defer stop()

	d.Enqueue(1, 2, 3)
	require.Eventually(t, func() bool { return d.Stats().Total() == 3 }, time.Second*2, time.Millisecond*10)
	require.Equal(t, 2, int(testutil.ToFloat64(metrics.HandledTotal.WithLabelValues(string(HandleStatusSucceeded)))))
	require.Equal(t, 1, int(testutil.ToFloat64(metrics.HandledTotal.WithLabelValues(string(HandleStatusFailed)))))

	d.MustRegisterMetrics()
	d.UnregisterMetrics()
}

func TestDispatcher_AsWorkerUnit(t *testing.T) {
	handler := &collectingHandler{}
	d := New[int](newSyncQueue(t, 100, time.Second), handler, nil, Opts{})

	unit := service.NewWorkerUnit(d)
	fatalErr := make(chan error, 1)
	go unit.Start(fatalErr)

	d.Enqueue(7, 8)
	require.Eventually(t, func() bool { return len(handler.Items()) == 2 }, time.Second*2, time.Millisecond*10)
	require.NoError(t, unit.Stop(true))
	require.Len(t, fatalErr, 0)
}

func TestNewFromConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Retry.Policy = retry.PolicyNameExponential
	d, err := NewFromConfig[int](newSyncQueue(t, 1, time.Second), &collectingHandler{}, nil, cfg, Opts{})
	require.NoError(t, err)
	require.Equal(t, retry.NewExponentialBackoffPolicy(DefaultRetryInterval, DefaultRetryMaxAttempts), d.retryPolicy)
	require.Equal(t, DefaultIdlePollInterval, d.idlePollInterval)

	cfg.Retry.Policy = "linear"
	_, err = NewFromConfig[int](newSyncQueue(t, 1, time.Second), &collectingHandler{}, nil, cfg, Opts{})
	require.EqualError(t, err, `unknown retry policy "linear"`)
}

func mustFindStringField(t *testing.T, entry logtest.RecordedEntry, key string) string {
	t.Helper()
	field, found := entry.FindField(key)
	require.True(t, found)
	return string(field.Bytes)
}
