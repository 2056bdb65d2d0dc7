package domain

import (
	"time"

	"github.com/google/uuid"
)

// LogLevel is the severity of a system log row.
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// SystemLog is one append-only audit row written by a scheduled job.
type SystemLog struct {
	ID        uuid.UUID      `json:"id"`
	Level     LogLevel       `json:"level"`
	Source    string         `json:"source"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewSystemLog builds a log row with a fresh id.
func NewSystemLog(level LogLevel, source, message string, details map[string]any, now time.Time) *SystemLog {
	return &SystemLog{
		ID:        uuid.New(),
		Level:     level,
		Source:    source,
		Message:   message,
		Details:   details,
		CreatedAt: now,
	}
}
