package etl

import (
	"time"

	"go.uber.org/zap"
)

// Phase groups pipeline events.
type Phase string

// Pipeline phases.
const (
	PhaseExtract    Phase = "EXTRACT"
	PhaseDedup      Phase = "DEDUP"
	PhaseTransform  Phase = "TRANSFORM"
	PhaseValidation Phase = "VALIDATION"
	PhaseLoad       Phase = "LOAD"
	PhaseWarn       Phase = "WARN"
)

// EventKind identifies what happened. Sinks aggregate on the kind.
type EventKind string

// Event kinds.
const (
	EventRunStarted           EventKind = "run_started"
	EventRowsExtracted        EventKind = "rows_extracted"
	EventDuplicateDetected    EventKind = "duplicate_detected"
	EventRecordRejected       EventKind = "record_rejected"
	EventRecordsNormalized    EventKind = "records_normalized"
	EventEntitiesExtracted    EventKind = "entities_extracted"
	EventTableLoaded          EventKind = "table_loaded"
	EventEnrollmentSkipped    EventKind = "enrollment_skipped"
	EventTransactionStarted   EventKind = "transaction_started"
	EventTransactionCommitted EventKind = "transaction_committed"
	EventTransactionRolled    EventKind = "transaction_rolled_back"
	EventRunFinished          EventKind = "run_finished"
	EventProgress             EventKind = "progress"
)

// Context keys shared by producers and sinks.
const (
	KeyRunID    = "run_id"
	KeyRow      = "row"
	KeyKeptRow  = "kept_row"
	KeyEmail    = "email"
	KeyCourse   = "course"
	KeyErrors   = "errors"
	KeyCount    = "count"
	KeyTable    = "table"
	KeyStatus   = "status"
	KeyDuration = "duration"
	KeySummary  = "summary"
	KeyError    = "error"
)

// Event is one progress notification of a pipeline run.
type Event struct {
	Phase   Phase                  `json:"phase"`
	Kind    EventKind              `json:"kind"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
	Time    time.Time              `json:"time"`
}

// Int returns an integer context value or 0.
func (e Event) Int(key string) int {
	switch v := e.Context[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

// String returns a string context value or "".
func (e Event) String(key string) string {
	s, _ := e.Context[key].(string)
	return s
}

// EventSink receives pipeline events. Implementations must not block for long.
type EventSink interface {
	Emit(Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event)

// Emit implements EventSink.
func (f SinkFunc) Emit(e Event) { f(e) }

// NopSink discards events.
type NopSink struct{}

// Emit implements EventSink.
func (NopSink) Emit(Event) {}

// MultiSink fans an event out to every non-nil sink.
type MultiSink []EventSink

// Emit implements EventSink.
func (m MultiSink) Emit(e Event) {
	for _, sink := range m {
		if sink != nil {
			sink.Emit(e)
		}
	}
}

// Emit stamps and delivers an event. A nil sink is treated as NopSink.
func Emit(sink EventSink, phase Phase, kind EventKind, message string, ctx map[string]interface{}) {
	if sink == nil {
		return
	}
	sink.Emit(Event{Phase: phase, Kind: kind, Message: message, Context: ctx, Time: time.Now().UTC()})
}

// ZapSink writes events to a zap logger.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink returns a sink logging through logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

// Emit implements EventSink.
func (s *ZapSink) Emit(e Event) {
	fields := make([]zap.Field, 0, len(e.Context)+2)
	fields = append(fields, zap.String("phase", string(e.Phase)), zap.String("kind", string(e.Kind)))
	for key, value := range e.Context {
		fields = append(fields, zap.Any(key, value))
	}

	switch e.Phase {
	case PhaseWarn, PhaseValidation:
		s.logger.Warn(e.Message, fields...)
	default:
		if e.Kind == EventTransactionRolled {
			s.logger.Error(e.Message, fields...)
			return
		}
		s.logger.Info(e.Message, fields...)
	}
}
