package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MrSnakeDoc/bookmark-checker/internal/domain"
)

var (
	// ChecksTotal tracks probes by outcome
	ChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookmark_checker_checks_total",
			Help: "Total number of bookmark probes by outcome",
		},
		[]string{"outcome"},
	)

	// CheckDuration tracks probe latency
	CheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookmark_checker_check_duration_seconds",
			Help:    "Bookmark probe latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ChecksInFlight tracks probes currently waiting on the network
	ChecksInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookmark_checker_checks_in_flight",
			Help: "Number of bookmark probes in flight",
		},
	)

	// LastScanFailures tracks failing entries per kind in the latest report
	LastScanFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookmark_checker_last_scan_failures",
			Help: "Failing bookmarks per kind in the latest report",
		},
		[]string{"kind"},
	)
)

// OutcomeLabel returns the label value used for an outcome.
func OutcomeLabel(o domain.CheckOutcome) string {
	if o.OK() {
		return "success"
	}
	return o.Kind.String()
}

// ObserveCheck records one completed probe.
func ObserveCheck(o domain.CheckOutcome, elapsed time.Duration) {
	ChecksTotal.WithLabelValues(OutcomeLabel(o)).Inc()
	CheckDuration.Observe(elapsed.Seconds())
}

// SetLastScan publishes the per-kind failure counts of a report.
func SetLastScan(counts map[domain.FailureKind]int) {
	for _, kind := range domain.FailureKinds {
		LastScanFailures.WithLabelValues(kind.String()).Set(float64(counts[kind]))
	}
}
