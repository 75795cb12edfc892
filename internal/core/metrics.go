package core

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Grant dispatch; result is "success" or a denial code
	RecordGrant(grantType, result string, duration time.Duration)

	// Token lifecycle
	RecordTokenIssued(tokenType string)
	RecordTokenRevoked(tokenType string)
	RecordTokenValidation(result string)

	// Interactive flow; result is "challenge", "code" or a denial code
	RecordAuthorize(result string)
	RecordLogin(success bool)
	RecordLogout()

	// Lockout bookkeeping; event is "failure", "locked" or "reset"
	RecordLockout(event string)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}
