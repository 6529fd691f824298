/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package dispatch

import "github.com/prometheus/client_golang/prometheus"

const labelStatus = "status"

// HandleStatus is an outcome of delivering a single item to the handler.
type HandleStatus string

// Handle statuses.
const (
	HandleStatusSucceeded HandleStatus = "succeeded"
	HandleStatusFailed    HandleStatus = "failed"
	HandleStatusPanicked  HandleStatus = "panicked"
)

// MetricsCollector represents a collector of metrics for dispatched items.
type MetricsCollector interface {
	// IncHandled increments the total number of items delivered to the handler with the given outcome.
	IncHandled(status HandleStatus)
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

// PrometheusMetrics represents Prometheus metrics for the dispatcher.
type PrometheusMetrics struct {
	HandledTotal *prometheus.CounterVec
}

var _ MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	labelNames := append(append([]string{}, opts.CurriedLabelNames...), labelStatus)
	return &PrometheusMetrics{
		HandledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "dispatch_handled_total",
			Help:        "Number of queue items delivered to the handler.",
			ConstLabels: opts.ConstLabels,
		}, labelNames),
	}
}

// MustCurryWith curries the metrics collector with the provided labels.
func (pm *PrometheusMetrics) MustCurryWith(labels prometheus.Labels) *PrometheusMetrics {
	return &PrometheusMetrics{HandledTotal: pm.HandledTotal.MustCurryWith(labels)}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.HandledTotal)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.HandledTotal)
}

// IncHandled increments the total number of items delivered to the handler with the given outcome.
func (pm *PrometheusMetrics) IncHandled(status HandleStatus) {
	pm.HandledTotal.With(prometheus.Labels{labelStatus: string(status)}).Inc()
}

type disabledMetrics struct{}

func (disabledMetrics) IncHandled(HandleStatus) {}
