package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
)

type Logger interface {
	Log(format string, args ...any)
}

// moduleLogger indents pipeline output under the engine's log lines.
type moduleLogger struct {
	logger *log.Logger
}

func (m *moduleLogger) Log(format string, args ...any) {
	m.logger.Printf("      "+format, args...)
}

type nopLogger struct{}

func (nopLogger) Log(string, ...any) {}

func generateRequestID() string {
	return uuid.New().String()[:8]
}

// requestLogger wraps a logger with a request ID prefix.
type requestLogger struct {
	id   string
	base Logger
}

func (r *requestLogger) Log(format string, args ...any) {
	r.base.Log("[%s] "+format, append([]any{r.id}, args...)...)
}

// Trace is the ordered stage log returned to the caller. Every line is also
// written to the process log.
type Trace struct {
	lines  []string
	logger Logger
}

func newTrace(logger Logger) *Trace {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Trace{logger: logger}
}

func (t *Trace) Add(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	t.lines = append(t.lines, line)
	t.logger.Log("%s", line)
}

// Lines returns a copy so callers can't rewrite history.
func (t *Trace) Lines() []string {
	return append([]string(nil), t.lines...)
}

func (t *Trace) String() string {
	return strings.Join(t.lines, "\n")
}
