package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"condo-automation/config"
	"condo-automation/internal/core/domain"
	"condo-automation/internal/core/ports"
	"condo-automation/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *LedgerClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewLedgerClient(config.ProviderConfig{
		BaseURL:       srv.URL + "/",
		APIToken:      "test-token",
		Timeout:       time.Second,
		RatePerSecond: 100,
		Burst:         10,
	}, srv.Client())
}

func TestGetPaymentStatus_OK(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payments/mp-123", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 123, "status": "approved"}`))
	})

	status, err := client.GetPaymentStatus(context.Background(), "mp-123")
	require.NoError(t, err)
	assert.Equal(t, "approved", status)
}

func TestGetPaymentStatus_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{"not found", http.StatusNotFound, `{"message":"not found"}`, "PRV_003"},
		{"server error", http.StatusInternalServerError, `oops`, "PRV_001"},
		{"malformed json", http.StatusOK, `{"status":`, "PRV_002"},
		{"missing status", http.StatusOK, `{"id": 1}`, "PRV_002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.GetPaymentStatus(context.Background(), "mp-1")
			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestGetPaymentStatus_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewLedgerClient(config.ProviderConfig{
		BaseURL: srv.URL, APIToken: "t", Timeout: 50 * time.Millisecond, RatePerSecond: 100, Burst: 1,
	}, srv.Client())

	start := time.Now()
	_, err := client.GetPaymentStatus(context.Background(), "slow")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "per-call timeout should bound the request")
}

func TestGetPaymentStatus_NotConfigured(t *testing.T) {
	client := NewLedgerClient(config.ProviderConfig{BaseURL: "http://unused"}, nil)

	_, err := client.GetPaymentStatus(context.Background(), "mp-1")
	assert.ErrorIs(t, err, ports.ErrNotConfigured)
}

func TestGetPaymentStatus_EscapesID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/a%2Fb", r.URL.RawPath)
		_, _ = w.Write([]byte(`{"status":"pending"}`))
	})

	status, err := client.GetPaymentStatus(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "pending", status)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   domain.DependencyStatus
		err    bool
	}{
		{"ok", http.StatusOK, `{"id": 987, "nickname": "CONDO"}`, domain.DependencyOK, false},
		{"unauthorized", http.StatusUnauthorized, `{}`, domain.DependencyError, true},
		{"unexpected body", http.StatusOK, `{"nickname":"x"}`, domain.DependencyUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/users/me", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := client.Check(context.Background())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.err, err != nil)
		})
	}
}

func TestCheck_NotConfigured(t *testing.T) {
	client := NewLedgerClient(config.ProviderConfig{BaseURL: "http://unused"}, nil)

	got, err := client.Check(context.Background())
	assert.Equal(t, domain.DependencyNotConfigured, got)
	assert.ErrorIs(t, err, ports.ErrNotConfigured)
	assert.ErrorIs(t, client.Ping(context.Background()), ports.ErrNotConfigured)
	assert.Equal(t, "payment_provider", client.Name())
}

func TestRateLimiter_HonoursContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"approved"}`))
	})
	client.limiter.SetLimit(0.001)
	client.limiter.SetBurst(1)

	_, err := client.GetPaymentStatus(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.GetPaymentStatus(ctx, "second")
	assert.ErrorContains(t, err, "rate limiter")
}
