package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"condo-automation/config"
	"condo-automation/internal/core/domain"
	"condo-automation/internal/core/ports"
	"condo-automation/pkg/apperror"

	"golang.org/x/time/rate"
)

// maxBody caps how much of a provider response is read.
const maxBody = 1 << 20

// LedgerClient implements ports.LedgerClient and ports.StatusChecker against the
// payment provider's REST API.
type LedgerClient struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewLedgerClient builds a client from provider config. httpClient may be nil.
func NewLedgerClient(cfg config.ProviderConfig, httpClient *http.Client) *LedgerClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Limit(cfg.RatePerSecond)
	if cfg.RatePerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &LedgerClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.APIToken,
		timeout:    timeout,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
	}
}

type paymentStatusResponse struct {
	ID     json.RawMessage `json:"id"`
	Status string          `json:"status"`
}

// GetPaymentStatus returns the raw provider status for providerPaymentID.
func (c *LedgerClient) GetPaymentStatus(ctx context.Context, providerPaymentID string) (string, error) {
	if c.token == "" {
		return "", ports.ErrNotConfigured
	}

	body, status, err := c.get(ctx, "/v1/payments/"+url.PathEscape(providerPaymentID))
	if err != nil {
		return "", err
	}
	switch {
	case status == http.StatusNotFound:
		return "", apperror.ErrProviderNotFound(providerPaymentID)
	case status < 200 || status > 299:
		return "", apperror.ErrProviderRequest(fmt.Errorf("unexpected HTTP %d", status))
	}

	var resp paymentStatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apperror.ErrProviderMalformed(err)
	}
	if resp.Status == "" {
		return "", apperror.ErrProviderMalformed(errors.New("missing status field"))
	}
	return resp.Status, nil
}

// Name returns the dependency name.
func (c *LedgerClient) Name() string {
	return "payment_provider"
}

// Ping performs the authenticated "who am I" call.
func (c *LedgerClient) Ping(ctx context.Context) error {
	_, err := c.Check(ctx)
	return err
}

// Check reports not_configured without a token, error on transport or HTTP
// failure, and unknown when the provider answers 2xx without an account id.
func (c *LedgerClient) Check(ctx context.Context) (domain.DependencyStatus, error) {
	if c.token == "" {
		return domain.DependencyNotConfigured, ports.ErrNotConfigured
	}

	body, status, err := c.get(ctx, "/users/me")
	if err != nil {
		return domain.DependencyError, err
	}
	if status < 200 || status > 299 {
		return domain.DependencyError, apperror.ErrProviderRequest(fmt.Errorf("unexpected HTTP %d", status))
	}

	var me paymentStatusResponse
	if err := json.Unmarshal(body, &me); err != nil || len(me.ID) == 0 || string(me.ID) == "null" {
		return domain.DependencyUnknown, nil
	}
	return domain.DependencyOK, nil
}

func (c *LedgerClient) get(ctx context.Context, path string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, apperror.ErrProviderRequest(fmt.Errorf("rate limiter: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, apperror.ErrProviderRequest(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, apperror.ErrProviderRequest(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, resp.StatusCode, apperror.ErrProviderRequest(fmt.Errorf("read body: %w", err))
	}
	return body, resp.StatusCode, nil
}
