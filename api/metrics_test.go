package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return tp, exporter
}

func attributesToMap(attrs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func TestTaskRequestMetricsEmitsSpanAndLogEvent(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetFormatter(&log.JSONFormatter{})
	_, exporter := setupTestTracer(t)

	metrics, spanCtx := newTaskRequestMetrics(context.Background(), logger)
	if spanCtx == nil {
		t.Fatal("expected a span context")
	}
	metrics.start = metrics.start.Add(-50 * time.Millisecond)
	metrics.ObserveAuth(10 * time.Millisecond)
	metrics.ObserveQuery(15 * time.Millisecond)
	metrics.SetTasksReturned(3)

	metrics.Log(http.StatusOK, nil)

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Message != "observability.event" {
		t.Fatalf("unexpected message: %s", entry.Message)
	}
	if entry.Data["event.name"] != tasksEventName {
		t.Fatalf("unexpected event name: %v", entry.Data["event.name"])
	}
	if entry.Data["tasks_returned"] != 3 {
		t.Fatalf("unexpected tasks_returned: %v", entry.Data["tasks_returned"])
	}
	if total, ok := entry.Data["total_ms"].(float64); !ok || total <= 0 {
		t.Fatalf("expected total_ms to be set, got %#v", entry.Data["total_ms"])
	}
	if traceID, ok := entry.Data["trace_id"].(string); !ok || traceID == "" {
		t.Fatalf("expected trace_id, got %#v", entry.Data["trace_id"])
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != tasksSpanName {
		t.Fatalf("unexpected span name: %s", span.Name)
	}
	attrs := attributesToMap(span.Attributes)
	if attrs["http.route"] != tasksRoute {
		t.Fatalf("unexpected route attribute: %#v", attrs["http.route"])
	}
	if code, ok := attrs["http.status_code"].(int64); !ok || code != int64(http.StatusOK) {
		t.Fatalf("unexpected status attribute: %#v", attrs["http.status_code"])
	}
	if span.Status.Code != codes.Ok {
		t.Fatalf("expected span status Ok, got %v", span.Status.Code)
	}
}

func TestTaskRequestMetricsRecordsErrorStage(t *testing.T) {
	logger, hook := test.NewNullLogger()
	_, exporter := setupTestTracer(t)

	metrics, _ := newTaskRequestMetrics(context.Background(), logger)
	metrics.SetErrorStage("storage")
	metrics.Log(http.StatusBadGateway, errors.New("redis is down"))

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Data["error_stage"] != "storage" {
		t.Fatalf("unexpected error_stage: %v", entry.Data["error_stage"])
	}
	if entry.Data["error"] != "redis is down" {
		t.Fatalf("unexpected error: %v", entry.Data["error"])
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Fatalf("expected span status Error, got %v", spans[0].Status.Code)
	}
	attrs := attributesToMap(spans[0].Attributes)
	if attrs["vibelist.tasks.error_stage"] != "storage" {
		t.Fatalf("unexpected span error stage: %#v", attrs["vibelist.tasks.error_stage"])
	}
}
