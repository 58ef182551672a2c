package testutil

import (
	"strings"
	"sync"
	"time"
)

// LogLevel represents different log levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// LogEntry represents a log entry
type LogEntry struct {
	Level   LogLevel
	Message string
	Args    []interface{}
	Time    time.Time
}

// Field returns the value logged under key, if any
func (e LogEntry) Field(key string) (interface{}, bool) {
	for i := 0; i+1 < len(e.Args); i += 2 {
		if k, ok := e.Args[i].(string); ok && k == key {
			return e.Args[i+1], true
		}
	}
	return nil, false
}

// MockLogger captures log calls for assertions. It is safe for concurrent use.
type MockLogger struct {
	mu   sync.Mutex
	logs []LogEntry
}

// NewMockLogger creates a new MockLogger
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

// Debug logs a debug message
func (m *MockLogger) Debug(message string, args ...interface{}) {
	m.log(LogLevelDebug, message, args...)
}

// Info logs an info message
func (m *MockLogger) Info(message string, args ...interface{}) {
	m.log(LogLevelInfo, message, args...)
}

// Warn logs a warning message
func (m *MockLogger) Warn(message string, args ...interface{}) {
	m.log(LogLevelWarn, message, args...)
}

// Error logs an error message
func (m *MockLogger) Error(message string, args ...interface{}) {
	m.log(LogLevelError, message, args...)
}

func (m *MockLogger) log(level LogLevel, message string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, LogEntry{
		Level:   level,
		Message: message,
		Args:    args,
		Time:    time.Now(),
	})
}

// GetLogs returns a copy of all logged entries
func (m *MockLogger) GetLogs() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LogEntry(nil), m.logs...)
}

// GetLogsByLevel returns logs filtered by level
func (m *MockLogger) GetLogsByLevel(level LogLevel) []LogEntry {
	var filtered []LogEntry
	for _, entry := range m.GetLogs() {
		if entry.Level == level {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// ContainsMessage checks if any log contains the specified message
func (m *MockLogger) ContainsMessage(message string) bool {
	for _, entry := range m.GetLogs() {
		if strings.Contains(entry.Message, message) {
			return true
		}
	}
	return false
}

// Reset clears all logs
func (m *MockLogger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = nil
}
