// Package testutil holds test doubles shared by package-level tests.
package testutil

import (
	"sync"

	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
)

// MockLogger records every entry so tests can assert on degraded paths
// (generative fallback, ignored clarification keys, persistence failures).
type MockLogger struct {
	mu       *sync.Mutex
	entries  *[]LogMessage
	name     string
	inherits []logging.Field
}

// LogMessage is one recorded entry.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// NewMockLogger returns an empty recording logger.
func NewMockLogger() *MockLogger {
	entries := make([]LogMessage, 0)
	return &MockLogger{mu: &sync.Mutex{}, entries: &entries}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(m.inherits)+len(fields))
	all = append(all, m.inherits...)
	all = append(all, fields...)

	m.mu.Lock()
	defer m.mu.Unlock()
	*m.entries = append(*m.entries, LogMessage{Level: level, Logger: m.name, Message: msg, Fields: all})
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.log("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.log("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.log("fatal", msg, fields) }

// With returns a child sharing the same entry buffer.
func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	child := *m
	child.inherits = append(append([]logging.Field{}, m.inherits...), fields...)
	return &child
}

// Named returns a child sharing the same entry buffer.
func (m *MockLogger) Named(name string) logging.Logger {
	child := *m
	if m.name != "" {
		child.name = m.name + "." + name
	} else {
		child.name = name
	}
	return &child
}

func (m *MockLogger) Sync() error { return nil }

// GetMessages returns a copy of all recorded entries.
func (m *MockLogger) GetMessages() []LogMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LogMessage, len(*m.entries))
	copy(out, *m.entries)
	return out
}

// Clear drops every recorded entry.
func (m *MockLogger) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.entries = (*m.entries)[:0]
}

// HasMessage reports whether an entry with level and msg was recorded.
func (m *MockLogger) HasMessage(level, msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logged := range *m.entries {
		if logged.Level == level && logged.Message == msg {
			return true
		}
	}
	return false
}

// CountLevel returns how many entries were recorded at level.
func (m *MockLogger) CountLevel(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, logged := range *m.entries {
		if logged.Level == level {
			n++
		}
	}
	return n
}

//Personal.AI order the ending
