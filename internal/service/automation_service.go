package service

import (
	"context"
	"fmt"
	"time"

	"condo-automation/internal/core/domain"
	"condo-automation/internal/core/ports"
	"condo-automation/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AutomationService resolves tenant settings and evaluates invoices against them.
type AutomationService struct {
	settings ports.AutomationSettingsRepository
	now      func() time.Time
	log      zerolog.Logger
}

// NewAutomationService creates a new AutomationService.
func NewAutomationService(settings ports.AutomationSettingsRepository, log zerolog.Logger) *AutomationService {
	return &AutomationService{settings: settings, now: time.Now, log: log}
}

// SettingsFor returns the tenant's settings, creating the defaults on first access.
func (s *AutomationService) SettingsFor(ctx context.Context, tenantID uuid.UUID) (*domain.AutomationSettings, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("tenant id required")
	}
	settings, err := s.settings.GetOrCreate(ctx, domain.DefaultAutomationSettings(tenantID, s.now().UTC()))
	if err != nil {
		s.log.Error().Err(err).Str("tenant_id", tenantID.String()).Msg("failed to load automation settings")
		return nil, apperror.ErrDatabaseError(err)
	}
	return settings, nil
}

// Evaluate loads the tenant's settings and evaluates inv against them.
func (s *AutomationService) Evaluate(ctx context.Context, tenantID uuid.UUID, inv Invoice) (Evaluation, error) {
	settings, err := s.SettingsFor(ctx, tenantID)
	if err != nil {
		return Evaluation{}, err
	}
	return EvaluateInvoice(*settings, inv), nil
}
