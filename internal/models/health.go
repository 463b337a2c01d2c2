// internal/models/health.go
package models

import "time"

type HealthStatus string

const (
	HealthUnknown   HealthStatus = "unknown"
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half-open"
)

// ProviderHealth is the point-in-time snapshot of one provider, safe to
// serialize for the UI. All fields are copies; mutations happen only inside
// the resilience tracker.
type ProviderHealth struct {
	Provider            string       `json:"provider"`
	Status              HealthStatus `json:"status"`
	LastCheckTime       time.Time    `json:"lastCheckTime"`
	ResponseTimeMs      int64        `json:"responseTimeMs,omitempty"`
	CircuitState        CircuitState `json:"circuitState"`
	ConsecutiveFailures int          `json:"consecutiveFailures"`
}
