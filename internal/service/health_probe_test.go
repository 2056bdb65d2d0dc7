package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"condo-automation/internal/core/domain"
	"condo-automation/internal/core/ports"
	"condo-automation/internal/core/ports/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func pingChecker(ctrl *gomock.Controller, name string, err error) *mocks.MockHealthChecker {
	c := mocks.NewMockHealthChecker(ctrl)
	c.EXPECT().Name().Return(name).AnyTimes()
	c.EXPECT().Ping(gomock.Any()).Return(err)
	return c
}

func statusChecker(ctrl *gomock.Controller, name string, status domain.DependencyStatus, err error) *mocks.MockStatusChecker {
	c := mocks.NewMockStatusChecker(ctrl)
	c.EXPECT().Name().Return(name).AnyTimes()
	c.EXPECT().Check(gomock.Any()).Return(status, err)
	return c
}

func dependency(t *testing.T, r domain.HealthCheckResult, name string) domain.DependencyCheck {
	t.Helper()
	for _, d := range r.Dependencies {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("dependency %q missing from result", name)
	return domain.DependencyCheck{}
}

func TestHealthProbe_Check_AllOK(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	probe := NewHealthProbe([]ports.HealthChecker{
		pingChecker(ctrl, "database", nil),
		pingChecker(ctrl, "email", ports.ErrNotConfigured),
		statusChecker(ctrl, "payment_provider", domain.DependencyOK, nil),
	}, &recordingLogs{}, time.Second, newTestLogger())

	result := probe.Check(context.Background())

	assert.Equal(t, domain.HealthHealthy, result.Status)
	require.Len(t, result.Dependencies, 3)
	assert.Equal(t, "database", result.Dependencies[0].Name)
	assert.Equal(t, domain.DependencyOK, result.Dependencies[0].Status)
	assert.Equal(t, domain.DependencyNotConfigured, dependency(t, result, "email").Status)
	assert.Empty(t, dependency(t, result, "email").Error)
	assert.False(t, result.CheckedAt.IsZero())
}

func TestHealthProbe_Check_ErrorDegrades(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	probe := NewHealthProbe([]ports.HealthChecker{
		pingChecker(ctrl, "database", errors.New("connection refused")),
		pingChecker(ctrl, "redis", nil),
	}, &recordingLogs{}, time.Second, newTestLogger())

	result := probe.Check(context.Background())

	assert.Equal(t, domain.HealthDegraded, result.Status)
	db := dependency(t, result, "database")
	assert.Equal(t, domain.DependencyError, db.Status)
	assert.Equal(t, "connection refused", db.Error)
	assert.Equal(t, domain.DependencyOK, dependency(t, result, "redis").Status)
}

func TestHealthProbe_Check_UnrecognizedStatusWarns(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	probe := NewHealthProbe([]ports.HealthChecker{
		pingChecker(ctrl, "database", nil),
		statusChecker(ctrl, "payment_provider", domain.DependencyStatus("maintenance"), nil),
	}, &recordingLogs{}, time.Second, newTestLogger())

	result := probe.Check(context.Background())

	assert.Equal(t, domain.HealthWarning, result.Status)
	assert.Equal(t, domain.DependencyUnknown, dependency(t, result, "payment_provider").Status)
}

func TestHealthProbe_Check_PanicIsolatedToOneChecker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bad := mocks.NewMockHealthChecker(ctrl)
	bad.EXPECT().Name().Return("push").AnyTimes()
	bad.EXPECT().Ping(gomock.Any()).DoAndReturn(func(context.Context) error { panic("nil client") })

	probe := NewHealthProbe([]ports.HealthChecker{
		pingChecker(ctrl, "database", nil),
		bad,
	}, &recordingLogs{}, time.Second, newTestLogger())

	var result domain.HealthCheckResult
	require.NotPanics(t, func() { result = probe.Check(context.Background()) })

	assert.Equal(t, domain.HealthDegraded, result.Status)
	assert.Equal(t, domain.DependencyOK, dependency(t, result, "database").Status)
	push := dependency(t, result, "push")
	assert.Equal(t, domain.DependencyError, push.Status)
	assert.Contains(t, push.Error, "panic: nil client")
}

func TestHealthProbe_Check_AppliesPerCheckTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	slow := mocks.NewMockHealthChecker(ctrl)
	slow.EXPECT().Name().Return("whatsapp").AnyTimes()
	slow.EXPECT().Ping(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	probe := NewHealthProbe([]ports.HealthChecker{slow}, &recordingLogs{}, 20*time.Millisecond, newTestLogger())

	result := probe.Check(context.Background())

	wa := dependency(t, result, "whatsapp")
	assert.Equal(t, domain.DependencyError, wa.Status)
	assert.Contains(t, wa.Error, "deadline exceeded")
}

func TestHealthProbe_Check_DoesNotPersist(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	logs := mocks.NewMockSystemLogService(ctrl)
	// No LogOrIgnore expectation: any call fails the test.
	probe := NewHealthProbe([]ports.HealthChecker{pingChecker(ctrl, "database", nil)}, logs, time.Second, newTestLogger())

	probe.Check(context.Background())
}

func TestHealthProbe_Run_WritesSummaryAndAlert(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	logs := &recordingLogs{}
	probe := NewHealthProbe([]ports.HealthChecker{
		pingChecker(ctrl, "database", errors.New("timeout")),
		pingChecker(ctrl, "redis", errors.New("refused")),
		pingChecker(ctrl, "email", nil),
	}, logs, time.Second, newTestLogger())

	out, err := probe.Run(context.Background())
	require.NoError(t, err)

	result, ok := out.(domain.HealthCheckResult)
	require.True(t, ok)
	assert.Equal(t, domain.HealthDegraded, result.Status)

	require.Len(t, logs.entries, 2)
	info := logs.byLevel(domain.LogLevelInfo)
	require.Len(t, info, 1)
	assert.Equal(t, JobHealthCheck, info[0].Source)
	assert.Equal(t, "health check completed: degraded", info[0].Message)

	alerts := logs.byLevel(domain.LogLevelError)
	require.Len(t, alerts, 1)
	assert.Equal(t, "dependencies failing: database,redis", alerts[0].Message)
	assert.Equal(t, "database,redis", alerts[0].Details["failed"])
}

func TestHealthProbe_Run_NoAlertWhenHealthy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	logs := &recordingLogs{}
	probe := NewHealthProbe([]ports.HealthChecker{pingChecker(ctrl, "database", nil)}, logs, time.Second, newTestLogger())

	_, err := probe.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, logs.entries, 1)
	assert.Equal(t, domain.LogLevelInfo, logs.entries[0].Level)
	assert.Equal(t, JobHealthCheck, probe.Name())
}
