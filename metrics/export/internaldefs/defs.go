package internaldefs

import (
	goSessions "github.com/MrEthical07/goSessions"
)

// CounterDef defines a public type used by goSessions APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goSessions.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goSessions APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goSessions.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session engine.
var CounterDefs = []CounterDef{
	{ID: goSessions.MetricLoginSuccess, Name: "gosessions_login_success_total", Help: "Successful login attempts."},
	{ID: goSessions.MetricLoginFailure, Name: "gosessions_login_failure_total", Help: "Failed login attempts."},
	{ID: goSessions.MetricRegisterSuccess, Name: "gosessions_register_success_total", Help: "Successful account registrations."},
	{ID: goSessions.MetricRegisterDuplicate, Name: "gosessions_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: goSessions.MetricRefreshSuccess, Name: "gosessions_refresh_success_total", Help: "Successful refresh operations."},
	{ID: goSessions.MetricRefreshFailure, Name: "gosessions_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: goSessions.MetricRefreshReuseDetected, Name: "gosessions_refresh_reuse_detected_total", Help: "Detected session token reuses."},
	{ID: goSessions.MetricSessionCreated, Name: "gosessions_session_created_total", Help: "Created sessions."},
	{ID: goSessions.MetricSessionInvalidated, Name: "gosessions_session_invalidated_total", Help: "Invalidated sessions."},
	{ID: goSessions.MetricLogout, Name: "gosessions_logout_total", Help: "Logout operations."},
}

// HistogramDefs is an exported constant or variable used by the session engine.
var HistogramDefs = []HistogramDef{
	{ID: goSessions.MetricValidateLatency, Name: "gosessions_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the session engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
