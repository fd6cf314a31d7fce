package telemetry

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/haltiala/vahti/types"
)

// OTELHook adds trace and span IDs to every log entry
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL integration
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a new logger with OTEL hooks
func NewLogger(service string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", service).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context (for trace propagation)
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// Convenience methods for report runs

func (l *Logger) LogStageStart(ctx context.Context, stage string) {
	l.WithContext(ctx).Info().
		Str("stage", stage).
		Msg("stage started")
}

func (l *Logger) LogStageEnd(ctx context.Context, stage string, err error) {
	if err != nil {
		l.WithContext(ctx).Error().
			Err(err).
			Str("stage", stage).
			Msg("stage failed")
		return
	}
	l.WithContext(ctx).Debug().
		Str("stage", stage).
		Msg("stage completed")
}

func (l *Logger) LogRecordCollected(ctx context.Context, record types.InventoryRecord) {
	l.WithContext(ctx).Debug().
		Str("resource_id", record.ResourceID).
		Str("resource_type", record.ResourceType).
		Str("change_type", string(record.ChangeType)).
		Str("identity", record.Identity).
		Msg("record collected")
}

func (l *Logger) LogRunComplete(ctx context.Context, reportDate, reportKey string, summary types.RunSummary) {
	event := l.WithContext(ctx).Info().
		Str("report_date", reportDate).
		Str("report_key", reportKey).
		Int("resources_tracked", summary.Total())
	for _, ct := range types.SummaryOrder {
		if n, ok := summary[ct]; ok {
			event = event.Int(string(ct), n)
		}
	}
	event.Msg("report run completed")
}
