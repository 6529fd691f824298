/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package rlqueue

import "github.com/prometheus/client_golang/prometheus"

// MetricsCollector represents a collector of metrics to analyze how the queue is paced.
type MetricsCollector interface {
	// SetAmount sets the current number of items in the queue.
	SetAmount(int)

	// IncDequeued increments the total number of items released from the queue.
	IncDequeued()

	// IncLimited increments the total number of removal attempts rejected by the rate limit.
	IncLimited()

	// IncEmpty increments the total number of removal attempts on the empty queue.
	IncEmpty()

	// IncRollovers increments the total number of started rate limiting windows.
	IncRollovers()
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels

	// CurriedLabelNames is a list of label names that will be curried with the provided labels.
	// If it is not empty, PrometheusMetrics.MustCurryWith must be called with the same labels.
	CurriedLabelNames []string
}

// PrometheusMetrics represents Prometheus metrics for the queue.
type PrometheusMetrics struct {
	ItemsAmount    *prometheus.GaugeVec
	DequeuedTotal  *prometheus.CounterVec
	LimitedTotal   *prometheus.CounterVec
	EmptyTotal     *prometheus.CounterVec
	RolloversTotal *prometheus.CounterVec
}

var _ MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	newCounter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        name,
			Help:        help,
			ConstLabels: opts.ConstLabels,
		}, opts.CurriedLabelNames)
	}

	itemsAmount := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   opts.Namespace,
		Name:        "rate_limit_queue_items_amount",
		Help:        "Current number of items in the rate limited queue.",
		ConstLabels: opts.ConstLabels,
	}, opts.CurriedLabelNames)

	return &PrometheusMetrics{
		ItemsAmount:    itemsAmount,
		DequeuedTotal:  newCounter("rate_limit_queue_dequeued_total", "Number of items released from the queue."),
		LimitedTotal:   newCounter("rate_limit_queue_limited_total", "Number of removal attempts rejected by the rate limit."),
		EmptyTotal:     newCounter("rate_limit_queue_empty_total", "Number of removal attempts on the empty queue."),
		RolloversTotal: newCounter("rate_limit_queue_rollovers_total", "Number of started rate limiting windows."),
	}
}

// MustCurryWith curries the metrics collector with the provided labels.
func (pm *PrometheusMetrics) MustCurryWith(labels prometheus.Labels) *PrometheusMetrics {
	return &PrometheusMetrics{
		ItemsAmount:    pm.ItemsAmount.MustCurryWith(labels),
		DequeuedTotal:  pm.DequeuedTotal.MustCurryWith(labels),
		LimitedTotal:   pm.LimitedTotal.MustCurryWith(labels),
		EmptyTotal:     pm.EmptyTotal.MustCurryWith(labels),
		RolloversTotal: pm.RolloversTotal.MustCurryWith(labels),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.ItemsAmount, pm.DequeuedTotal, pm.LimitedTotal, pm.EmptyTotal, pm.RolloversTotal)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.ItemsAmount)
	prometheus.Unregister(pm.DequeuedTotal)
	prometheus.Unregister(pm.LimitedTotal)
	prometheus.Unregister(pm.EmptyTotal)
	prometheus.Unregister(pm.RolloversTotal)
}

// SetAmount sets the current number of items in the queue.
func (pm *PrometheusMetrics) SetAmount(amount int) {
	pm.ItemsAmount.With(nil).Set(float64(amount))
}

// IncDequeued increments the total number of items released from the queue.
func (pm *PrometheusMetrics) IncDequeued() {
	pm.DequeuedTotal.With(nil).Inc()
}

// IncLimited increments the total number of removal attempts rejected by the rate limit.
func (pm *PrometheusMetrics) IncLimited() {
	pm.LimitedTotal.With(nil).Inc()
}

// IncEmpty increments the total number of removal attempts on the empty queue.
func (pm *PrometheusMetrics) IncEmpty() {
	pm.EmptyTotal.With(nil).Inc()
}

// IncRollovers increments the total number of started rate limiting windows.
func (pm *PrometheusMetrics) IncRollovers() {
	pm.RolloversTotal.With(nil).Inc()
}

type disabledMetrics struct{}

func (disabledMetrics) SetAmount(int) {}
func (disabledMetrics) IncDequeued()  {}
func (disabledMetrics) IncLimited()   {}
func (disabledMetrics) IncEmpty()     {}
func (disabledMetrics) IncRollovers() {}
