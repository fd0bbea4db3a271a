package domain

import "time"

// Log levels used by LogRecord
const (
	LevelDebug = "DEBUG"
	LevelError = "ERROR"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
)

// LogRecord is one entry of the session log shown while tasks run
type LogRecord struct {
	ID      string    `json:"id"`
	Level   string    `json:"level"`
	Message string    `json:"msg"`
	Task    string    `json:"task,omitempty"`
	Time    time.Time `json:"timestamp"`
}
