package metrics

import (
	"time"

	"github.com/namelens/genproxy/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Admission gate metrics
	AdmissionDecisionsTotal = "admission_decisions_total"
	AdmissionTrackedClients = "admission_tracked_clients"
	AdmissionEvictionsTotal = "admission_evictions_total"

	// Upstream metrics
	UpstreamRequestsTotal   = "upstream_requests_total"
	UpstreamRequestDuration = "upstream_request_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
)

// RecordAdmission records an admission decision.
func RecordAdmission(allowed bool) {
	result := "allowed"
	if !allowed {
		result = "rejected"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			AdmissionDecisionsTotal,
			1,
			map[string]string{
				"result": result,
			},
		)
	}
}

// RecordSweep records the outcome of an admission sweep.
func RecordSweep(evicted, tracked int) {
	if observability.TelemetrySystem == nil {
		return
	}

	if evicted > 0 {
		_ = observability.TelemetrySystem.Counter(
			AdmissionEvictionsTotal,
			float64(evicted),
			nil,
		)
	}

	_ = observability.TelemetrySystem.Gauge(
		AdmissionTrackedClients,
		float64(tracked),
		nil,
	)
}

// RecordUpstreamRequest records one upstream call with its outcome.
func RecordUpstreamRequest(provider, outcome string, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	labels := map[string]string{
		"provider": provider,
		"outcome":  outcome,
	}

	_ = observability.TelemetrySystem.Counter(
		UpstreamRequestsTotal,
		1,
		labels,
	)

	_ = observability.TelemetrySystem.Histogram(
		UpstreamRequestDuration,
		duration,
		map[string]string{
			"provider": provider,
		},
	)
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
