// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TemplateOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "template_operations_total",
			Help: "Total number of template operations by type",
		},
		[]string{"operation"},
	)

	TemplateOperationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "template_operation_failures_total",
			Help: "Total number of failed template operations",
		},
		[]string{"operation", "error_code"},
	)

	TemplateOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "template_operation_duration_seconds",
			Help: "Duration of template operations in seconds",
		},
		[]string{"operation"},
	)

	VersionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "template_version_conflicts_total",
			Help: "Total number of lost races on the latest-flag swap",
		},
	)

	ValidationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "template_validation_failures_total",
			Help: "Total number of templates rejected with critical validation errors",
		},
	)
)
