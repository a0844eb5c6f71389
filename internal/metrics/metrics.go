// Package metrics provides Prometheus metrics for stores and registries.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/anotes/pkg/core"
)

var (
	// StoreOperations counts store calls.
	// Labels: store (flat, blobs), op (get, set, remove, put, delete, keys), result (ok, not_found, capacity, error)
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "anotes",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total number of store operations",
		},
		[]string{"store", "op", "result"},
	)

	// StoreOperationDuration tracks how long store calls take.
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "anotes",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Duration of store operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"store", "op"},
	)

	// NotesPurged counts notes removed by trash expiry.
	NotesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "anotes",
			Subsystem: "notes",
			Name:      "purged_total",
			Help:      "Total number of trashed notes purged after the retention window",
		},
	)

	// Notes is the number of notes held, including trashed and private ones.
	Notes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "anotes",
			Subsystem: "notes",
			Name:      "count",
			Help:      "Number of notes held by the registry",
		},
	)

	// DocumentsRejected counts uploads refused by a quota.
	// Labels: scope (file, total, storage)
	DocumentsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "anotes",
			Subsystem: "documents",
			Name:      "rejected_total",
			Help:      "Total number of documents rejected by a size ceiling",
		},
		[]string{"scope"},
	)

	// DocumentsDropped counts metadata entries dropped at load because their payload was missing.
	DocumentsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "anotes",
			Subsystem: "documents",
			Name:      "dropped_total",
			Help:      "Total number of documents dropped during load reconciliation",
		},
	)

	// DocumentBytes is the aggregate size of held documents.
	DocumentBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "anotes",
			Subsystem: "documents",
			Name:      "bytes",
			Help:      "Total size of documents held by the registry in bytes",
		},
	)
)

// ObserveRejection records a quota rejection. Other errors are ignored.
func ObserveRejection(err error) {
	var qe *core.QuotaError
	if errors.As(err, &qe) {
		DocumentsRejected.WithLabelValues(string(qe.Scope)).Inc()
	}
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrCapacity):
		return "capacity"
	default:
		return "error"
	}
}
