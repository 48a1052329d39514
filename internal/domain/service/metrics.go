package service

import "time"

// Outcome labels recorded for authentication operations.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// AuthMetrics records authentication activity.
type AuthMetrics interface {
	ObserveLogin(outcome string, elapsed time.Duration)
	ObserveRegistration(outcome string, elapsed time.Duration)
	ObserveLogout(outcome string)
	ObserveTokenValidation(outcome string)
	ObserveCache(hit bool)
	SetActiveSessions(count int64)
	ObserveExpiredSessionsRemoved(count int64)
}
