// Package klog provides the reconciliation kernel's structured audit
// logging: a distinct, filterable log line for the handful of events
// worth surfacing separately from ordinary step-level debug output
// (fiber preemption, roll start/stop, gate takeover). Adapted from the
// teacher's internal/logging package.
package klog

import "github.com/go-logr/logr"

// Audit logs a structured audit event tagged with eventType and the
// given key/value fields, using logr's structured Info logging rather
// than a formatted string so log aggregation can filter and group on
// "audit"=true the same way the teacher's own audit events do.
func Audit(logger logr.Logger, eventType string, fields map[string]string) {
	auditLogger := logger.WithValues("audit", true, "event_type", eventType)
	for key, value := range fields {
		auditLogger = auditLogger.WithValues(key, value)
	}
	auditLogger.Info("kernel audit event")
}
