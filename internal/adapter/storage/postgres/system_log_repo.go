package postgres

import (
	"context"
	"fmt"

	"condo-automation/internal/core/domain"
)

// SystemLogRepo implements ports.SystemLogRepository.
type SystemLogRepo struct {
	pool Pool
}

// NewSystemLogRepo creates a new SystemLogRepo.
func NewSystemLogRepo(pool Pool) *SystemLogRepo {
	return &SystemLogRepo{pool: pool}
}

// Create appends an audit row.
func (r *SystemLogRepo) Create(ctx context.Context, entry *domain.SystemLog) error {
	details, err := encodeJSONB(entry.Details)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO system_logs (id, level, source, message, details, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		entry.ID, entry.Level, entry.Source, entry.Message, details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert system log: %w", err)
	}
	return nil
}
