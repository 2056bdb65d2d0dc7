package domain

import "time"

// DependencyStatus is the outcome of probing one external dependency.
type DependencyStatus string

const (
	DependencyOK            DependencyStatus = "ok"
	DependencyError         DependencyStatus = "error"
	DependencyNotConfigured DependencyStatus = "not_configured"
	// DependencyUnknown marks an answer outside the recognized set.
	DependencyUnknown DependencyStatus = "unknown"
)

// IsRecognized reports whether s is one of ok, error or not_configured.
func (s DependencyStatus) IsRecognized() bool {
	switch s {
	case DependencyOK, DependencyError, DependencyNotConfigured:
		return true
	}
	return false
}

// OverallHealth is the status derived from all dependency checks.
type OverallHealth string

const (
	HealthHealthy  OverallHealth = "healthy"
	HealthDegraded OverallHealth = "degraded"
	HealthWarning  OverallHealth = "warning"
)

// DependencyCheck is the result of probing one dependency.
type DependencyCheck struct {
	Name      string           `json:"name"`
	Status    DependencyStatus `json:"status"`
	LatencyMS int64            `json:"latency_ms"`
	Error     string           `json:"error,omitempty"`
}

// HealthCheckResult aggregates a probe run.
type HealthCheckResult struct {
	Status       OverallHealth     `json:"status"`
	Dependencies []DependencyCheck `json:"dependencies"`
	CheckedAt    time.Time         `json:"checked_at"`
}

// DeriveOverallHealth applies the fixed rule: degraded if any dependency errored,
// healthy if all are ok or not_configured, warning otherwise.
func DeriveOverallHealth(checks []DependencyCheck) OverallHealth {
	allKnownGood := true
	for _, c := range checks {
		if c.Status == DependencyError {
			return HealthDegraded
		}
		if c.Status != DependencyOK && c.Status != DependencyNotConfigured {
			allKnownGood = false
		}
	}
	if allKnownGood {
		return HealthHealthy
	}
	return HealthWarning
}

// FailedDependencies returns the names of the dependencies that errored.
func (r *HealthCheckResult) FailedDependencies() []string {
	var failed []string
	for _, c := range r.Dependencies {
		if c.Status == DependencyError {
			failed = append(failed, c.Name)
		}
	}
	return failed
}
