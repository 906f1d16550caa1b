package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tasksSpanName    = "vibelist.tasks.list"
	tasksEventName   = "tasks.list"
	tasksEventDomain = "vibelist"
	tasksRoute       = "/api/tasks"
)

// taskRequestMetrics records per-stage timings for the task list
// request and emits both an otel span and a logrus observability
// event when the request completes.
type taskRequestMetrics struct {
	logger *log.Logger
	span   trace.Span
	start  time.Time

	authDuration  time.Duration
	queryDuration time.Duration
	tasksReturned int
	errorStage    string
}

func newTaskRequestMetrics(ctx context.Context, logger *log.Logger) (*taskRequestMetrics, context.Context) {
	spanCtx, span := otel.Tracer("vibelist-api/api").Start(ctx, tasksSpanName)
	return &taskRequestMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
	}, spanCtx
}

func (m *taskRequestMetrics) ObserveAuth(d time.Duration) {
	if d > 0 {
		m.authDuration = d
	}
}

func (m *taskRequestMetrics) ObserveQuery(d time.Duration) {
	if d > 0 {
		m.queryDuration = d
	}
}

func (m *taskRequestMetrics) SetTasksReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.tasksReturned = count
}

func (m *taskRequestMetrics) SetErrorStage(stage string) {
	if stage != "" {
		m.errorStage = stage
	}
}

// Log finishes the span and emits the observability event. It must be
// called exactly once per request.
func (m *taskRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	totalMs := durationToMillis(time.Since(m.start))

	attrs := []attribute.KeyValue{
		attribute.String("http.route", tasksRoute),
		attribute.Int("http.status_code", status),
		attribute.Float64("vibelist.tasks.total_ms", totalMs),
		attribute.Int("vibelist.tasks.tasks_returned", m.tasksReturned),
	}
	if m.authDuration > 0 {
		attrs = append(attrs, attribute.Float64("vibelist.tasks.auth_ms", durationToMillis(m.authDuration)))
	}
	if m.queryDuration > 0 {
		attrs = append(attrs, attribute.Float64("vibelist.tasks.query_ms", durationToMillis(m.queryDuration)))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("vibelist.tasks.error_stage", m.errorStage))
	}

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		if err != nil {
			m.span.RecordError(err)
			m.span.SetStatus(codes.Error, err.Error())
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"event.name":     tasksEventName,
		"event.domain":   tasksEventDomain,
		"http.route":     tasksRoute,
		"status":         status,
		"total_ms":       totalMs,
		"tasks_returned": m.tasksReturned,
	}
	if m.authDuration > 0 {
		fields["auth_ms"] = durationToMillis(m.authDuration)
	}
	if m.queryDuration > 0 {
		fields["query_ms"] = durationToMillis(m.queryDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
	}
	m.logger.WithFields(fields).Info("observability.event")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
