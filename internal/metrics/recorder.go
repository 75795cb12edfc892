package metrics

import "time"

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// RecordGrant records one grant dispatch
func (m *Metrics) RecordGrant(grantType, result string, duration time.Duration) {
	m.GrantsTotal.WithLabelValues(grantType, result).Inc()
	m.GrantDuration.WithLabelValues(grantType).Observe(duration.Seconds())
}

// RecordTokenIssued records token issuance
func (m *Metrics) RecordTokenIssued(tokenType string) {
	m.TokensIssuedTotal.WithLabelValues(tokenType).Inc()
}

// RecordTokenRevoked records a revocation list entry
func (m *Metrics) RecordTokenRevoked(tokenType string) {
	m.TokensRevokedTotal.WithLabelValues(tokenType).Inc()
}

// RecordTokenValidation records a bearer token validation result
func (m *Metrics) RecordTokenValidation(result string) {
	m.TokenValidationTotal.WithLabelValues(result).Inc()
}

// RecordAuthorize records the outcome of an authorize request
func (m *Metrics) RecordAuthorize(result string) {
	m.AuthorizeTotal.WithLabelValues(result).Inc()
}

// RecordLogin records an interactive login attempt
func (m *Metrics) RecordLogin(success bool) {
	result := resultSuccess
	if !success {
		result = resultFailure
	}
	m.LoginTotal.WithLabelValues(result).Inc()
}

// RecordLogout records a logout
func (m *Metrics) RecordLogout() {
	m.LogoutTotal.Inc()
}

// RecordLockout records a lockout bookkeeping event
func (m *Metrics) RecordLockout(event string) {
	m.LockoutEvents.WithLabelValues(event).Inc()
}

// RecordDatabaseQueryError records a failed store call
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
