package service

import (
	"context"
	"time"

	"condo-automation/internal/core/domain"
	"condo-automation/internal/core/ports"

	"github.com/rs/zerolog"
)

const logWriteTimeout = 5 * time.Second

type systemLogService struct {
	repo ports.SystemLogRepository
	log  zerolog.Logger
}

// NewSystemLogService creates the best-effort audit writer.
// If repo is nil, entries are only written to the logger.
func NewSystemLogService(repo ports.SystemLogRepository, log zerolog.Logger) ports.SystemLogService {
	return &systemLogService{repo: repo, log: log}
}

// LogOrIgnore persists entry and swallows any failure, including a panic in the
// repository. The write survives cancellation of ctx.
func (s *systemLogService) LogOrIgnore(ctx context.Context, entry *domain.SystemLog) {
	if entry == nil {
		return
	}

	s.log.WithLevel(zerologLevel(entry.Level)).
		Str("source", entry.Source).
		Fields(entry.Details).
		Msg(entry.Message)

	if s.repo == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("source", entry.Source).Msg("system log write panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logWriteTimeout)
	defer cancel()

	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("source", entry.Source).Msg("failed to persist system log")
	}
}

func zerologLevel(l domain.LogLevel) zerolog.Level {
	switch l {
	case domain.LogLevelError:
		return zerolog.ErrorLevel
	case domain.LogLevelWarning:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
