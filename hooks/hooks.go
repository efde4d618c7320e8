// Package hooks provides production-ready Hook, Logger and MetricsCollector
// implementations.
package hooks

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
)

// ── Structured logger adapter ─────────────────────────────────────────────────

// SlogLogger wraps the standard library slog.Logger to satisfy core.Logger.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger creates a logger backed by slog.
func NewSlogLogger(l *slog.Logger) *SlogLogger { return &SlogLogger{log: l} }

// NewLogger builds a SlogLogger writing to w.  format is "json" or "text";
// level is one of debug, info, warn, error (default info).
func NewLogger(w io.Writer, level, format string) *SlogLogger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return NewSlogLogger(slog.New(h))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func (s *SlogLogger) Debug(msg string, fields ...interface{}) { s.log.Debug(msg, fields...) }
func (s *SlogLogger) Info(msg string, fields ...interface{})  { s.log.Info(msg, fields...) }
func (s *SlogLogger) Warn(msg string, fields ...interface{})  { s.log.Warn(msg, fields...) }
func (s *SlogLogger) Error(msg string, fields ...interface{}) { s.log.Error(msg, fields...) }

// ── Logging hook ──────────────────────────────────────────────────────────────

// LoggingHook logs before/after each pipeline stage.
type LoggingHook struct {
	logger core.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) BeforeStep(_ context.Context, st *core.JobState) {
	h.logger.Debug("pipeline.stage.start",
		"job", st.ID,
		"stage", string(st.Stage),
	)
}

func (h *LoggingHook) AfterStep(_ context.Context, st *core.JobState, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("pipeline.stage.error",
			"job", st.ID,
			"stage", string(st.Stage),
			"kind", string(apperrors.KindOf(err)),
			"duration_ms", d.Milliseconds(),
			"error", err.Error(),
		)
		return
	}
	h.logger.Debug("pipeline.stage.done",
		"job", st.ID,
		"stage", string(st.Stage),
		"width", st.Meta.Width,
		"height", st.Meta.Height,
		"duration_ms", d.Milliseconds(),
	)
}

// ── In-memory metrics collector ───────────────────────────────────────────────

// InMemoryMetrics accumulates metrics; safe for concurrent use.
type InMemoryMetrics struct {
	mu sync.RWMutex

	stageDurations map[core.Stage]time.Duration // cumulative per stage
	stageCalls     map[core.Stage]int64
	stageErrors    map[core.Stage]int64
	failuresByKind map[string]int64

	jobsOK     int64
	jobsFailed int64
}

var _ core.MetricsCollector = (*InMemoryMetrics)(nil)

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		stageDurations: make(map[core.Stage]time.Duration),
		stageCalls:     make(map[core.Stage]int64),
		stageErrors:    make(map[core.Stage]int64),
		failuresByKind: make(map[string]int64),
	}
}

func (m *InMemoryMetrics) RecordStageTime(stage core.Stage, d time.Duration) {
	m.mu.Lock()
	m.stageDurations[stage] += d
	m.stageCalls[stage]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordStageError(stage core.Stage, _ string) {
	m.mu.Lock()
	m.stageErrors[stage]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordJob(res core.TransformResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if res.OK {
		m.jobsOK++
		return
	}
	m.jobsFailed++
	m.failuresByKind[kindLabel(res.Err)]++
}

// Snapshot returns a copy of current metrics.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		StageDurations: make(map[core.Stage]time.Duration, len(m.stageDurations)),
		StageCalls:     make(map[core.Stage]int64, len(m.stageCalls)),
		StageErrors:    make(map[core.Stage]int64, len(m.stageErrors)),
		FailuresByKind: make(map[string]int64, len(m.failuresByKind)),
		JobsOK:         m.jobsOK,
		JobsFailed:     m.jobsFailed,
	}
	for k, v := range m.stageDurations {
		snap.StageDurations[k] = v
	}
	for k, v := range m.stageCalls {
		snap.StageCalls[k] = v
	}
	for k, v := range m.stageErrors {
		snap.StageErrors[k] = v
	}
	for k, v := range m.failuresByKind {
		snap.FailuresByKind[k] = v
	}
	return snap
}

// MetricsSnapshot is an immutable point-in-time copy of metrics.
type MetricsSnapshot struct {
	StageDurations map[core.Stage]time.Duration
	StageCalls     map[core.Stage]int64
	StageErrors    map[core.Stage]int64
	FailuresByKind map[string]int64
	JobsOK         int64
	JobsFailed     int64
}

// ── Metrics hook ──────────────────────────────────────────────────────────────

// MetricsHook feeds pipeline events into a MetricsCollector.
type MetricsHook struct {
	collector core.MetricsCollector
}

// NewMetricsHook creates a MetricsHook.
func NewMetricsHook(c core.MetricsCollector) *MetricsHook { return &MetricsHook{collector: c} }

func (h *MetricsHook) BeforeStep(context.Context, *core.JobState) {}

func (h *MetricsHook) AfterStep(_ context.Context, st *core.JobState, d time.Duration, err error) {
	h.collector.RecordStageTime(st.Stage, d)
	if err != nil {
		h.collector.RecordStageError(st.Stage, kindLabel(err))
	}
}

func kindLabel(err error) string {
	if k := apperrors.KindOf(err); k != "" {
		return string(k)
	}
	return "unknown"
}

// compile-time interface checks
var (
	_ core.Logger = (*SlogLogger)(nil)
	_ core.Hook   = (*LoggingHook)(nil)
	_ core.Hook   = (*MetricsHook)(nil)
)
