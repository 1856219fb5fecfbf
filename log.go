package main

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	styleError  = lipgloss.NewStyle().Foreground(lipgloss.Color("167"))
	styleDetail = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// newLogger creates a logger writing to w at the given level.
// Timestamps are formatted as "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the attached logger, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// logReporter forwards hydration progress to a logger.
type logReporter struct {
	logger *log.Logger
}

func (r logReporter) Start(msg string) {
	r.logger.Debug(msg)
}

func (r logReporter) Status(msg string, details ...string) {
	r.logger.Info(msg)
	for _, d := range details {
		r.logger.Info(styleDetail.Render("  " + d))
	}
}

// Error prints multi-line messages (file and raw parse error) line by line
// so every failure stays readable in the log.
func (r logReporter) Error(msg string) {
	for _, line := range strings.Split(msg, "\n") {
		r.logger.Error(styleError.Render(line))
	}
}

func (r logReporter) Done(msg string) {
	r.logger.Info(msg)
}

func (r logReporter) Cancel() {
	r.logger.Debug("Dependency analysis complete")
}
