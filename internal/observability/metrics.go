package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Password verification outcomes recorded by PasswordVerifications.
const (
	VerificationMatch    = "match"
	VerificationMismatch = "mismatch"
	VerificationError    = "error"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "board_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PasswordVerifications counts edit/delete password checks by result.
	PasswordVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_password_verifications_total",
		Help: "Total number of post password verifications by result",
	}, []string{"result"})

	// PostsMutated counts successful post mutations by operation.
	PostsMutated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_posts_mutated_total",
		Help: "Total number of successful post mutations by operation",
	}, []string{"operation"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordVerification increments the verification counter for result.
func RecordVerification(result string) {
	PasswordVerifications.WithLabelValues(result).Inc()
}

// RecordMutation increments the mutation counter for operation.
func RecordMutation(operation string) {
	PostsMutated.WithLabelValues(operation).Inc()
}
