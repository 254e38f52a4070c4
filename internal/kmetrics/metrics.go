// Package kmetrics declares the handful of Prometheus collectors the
// reconciliation kernel updates, registered into controller-runtime's
// global metrics.Registry the same way the teacher's controller
// package registers its own. No HTTP exporter is stood up here —
// registration only, the same split cmd/operator's own manager
// bootstrap already gives every controller-runtime binary.
package kmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	activeFibersGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "weblogic",
			Name:      "kernel_active_fibers",
			Help:      "Number of fibers currently held by the FiberGate, keyed by domain UID.",
		},
		[]string{"domain_uid"},
	)

	fiberCancellationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weblogic",
			Name:      "kernel_fiber_cancellations_total",
			Help:      "Total number of fibers cancelled by a preempting submission for the same domain UID.",
		},
		[]string{"domain_uid"},
	)

	rollsInProgressGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "weblogic",
			Name:      "kernel_rolls_in_progress",
			Help:      "Number of managed-server cycles currently in flight per cluster.",
		},
		[]string{"domain_uid", "cluster_name"},
	)

	stepThrowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weblogic",
			Name:      "kernel_step_throws_total",
			Help:      "Total number of steps that threw a failure, by classification.",
		},
		[]string{"domain_uid", "classification"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		activeFibersGauge,
		fiberCancellationsTotal,
		rollsInProgressGauge,
		stepThrowsTotal,
	)
}

// SetActiveFibers reports the current fiber count for domainUID.
func SetActiveFibers(domainUID string, count int) {
	activeFibersGauge.WithLabelValues(domainUID).Set(float64(count))
}

// RecordFiberCancellation increments the cancellation counter for
// domainUID, called from DomainProcessor.Submit when it preempts a
// running fiber.
func RecordFiberCancellation(domainUID string) {
	fiberCancellationsTotal.WithLabelValues(domainUID).Inc()
}

// SetRollsInProgress reports how many cycles are currently in flight
// for one cluster.
func SetRollsInProgress(domainUID, clusterName string, count int) {
	rollsInProgressGauge.WithLabelValues(domainUID, clusterName).Set(float64(count))
}

// RecordStepThrow increments the throw counter for domainUID, tagged
// with a coarse classification (transient, permanent, watch-timeout).
func RecordStepThrow(domainUID, classification string) {
	stepThrowsTotal.WithLabelValues(domainUID, classification).Inc()
}
