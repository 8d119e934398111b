package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var totalComparisons atomic.Int64

var (
	SweepComparisonsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fp_sweep_comparisons_total",
		Help: "The total number of operations compared against the reference",
	}, []string{"operation", "rounding_mode"})

	SweepMismatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fp_sweep_mismatches_total",
		Help: "Total number of results that disagreed with the reference",
	}, []string{"operation", "rounding_mode"})

	SweepDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "fp_sweep_duration_seconds",
		Help: "Duration of verification sweeps",
	})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fp_operation_duration_seconds",
		Help:    "Histogram of single-operation evaluation times",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	VectorsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fp_vectors_emitted_total",
		Help: "Total number of test vectors written out",
	}, []string{"sink"})

	SymbolicNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fp_symbolic_nodes",
		Help:    "Distribution of expression-graph sizes per encoded operation",
		Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 25000, 50000},
	})

	SpecialCaseHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fp_special_case_hits_total",
		Help: "Total number of NaN/Inf/zero results observed in sweeps",
	}, []string{"operation", "class"})
)

// RecordComparison counts one evaluated comparison and reports whether
// it matched the reference.
func RecordComparison(operation, roundingMode string, matched bool) {
	totalComparisons.Add(1)
	SweepComparisonsTotal.WithLabelValues(operation, roundingMode).Inc()
	if !matched {
		SweepMismatchesTotal.WithLabelValues(operation, roundingMode).Inc()
	}
}

// TotalComparisons returns the process-lifetime comparison count.
func TotalComparisons() int64 {
	return totalComparisons.Load()
}
