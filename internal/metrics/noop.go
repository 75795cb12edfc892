package metrics

import "time"

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NoopMetrics is used when metrics are disabled
type NoopMetrics struct{}

// NewNoopMetrics creates a new no-op metrics recorder
func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordGrant(grantType, result string, duration time.Duration) {}
func (n *NoopMetrics) RecordTokenIssued(tokenType string)                         {}
func (n *NoopMetrics) RecordTokenRevoked(tokenType string)                        {}
func (n *NoopMetrics) RecordTokenValidation(result string)                        {}
func (n *NoopMetrics) RecordAuthorize(result string)                              {}
func (n *NoopMetrics) RecordLogin(success bool)                                   {}
func (n *NoopMetrics) RecordLogout()                                              {}
func (n *NoopMetrics) RecordLockout(event string)                                 {}
func (n *NoopMetrics) RecordDatabaseQueryError(operation string)                  {}
