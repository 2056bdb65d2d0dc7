package ports

import (
	"context"
	"errors"

	"condo-automation/internal/core/domain"
)

// ErrNotConfigured is returned by a checker whose dependency is intentionally absent.
var ErrNotConfigured = errors.New("dependency not configured")

// HealthChecker checks external dependency health.
type HealthChecker interface {
	// Ping verifies connectivity. Returns nil if healthy, ErrNotConfigured if the
	// dependency has no credentials.
	Ping(ctx context.Context) error
	// Name returns the dependency name (e.g., "postgresql", "redis").
	Name() string
}

// StatusChecker is implemented by checkers that can report a status beyond
// pass/fail, such as a reachable dependency answering something unexpected.
type StatusChecker interface {
	HealthChecker
	Check(ctx context.Context) (domain.DependencyStatus, error)
}
