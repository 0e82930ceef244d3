package webhooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"fiattoken/core/events"
)

func TestDispatcherSignsPayload(t *testing.T) {
	var (
		mu        sync.Mutex
		signature string
		eventType string
		body      []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		mu.Lock()
		body = payload
		signature = r.Header.Get(HeaderSignature)
		eventType = r.Header.Get(HeaderEvent)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	dispatcher, err := NewDispatcher(server.URL, []byte("secret"))
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	dispatcher.Emit(events.Paused{})
	dispatcher.Close()

	mu.Lock()
	defer mu.Unlock()
	if eventType != events.TypePaused {
		t.Fatalf("unexpected event header %q", eventType)
	}
	if !strings.Contains(string(body), `"event":"paused"`) {
		t.Fatalf("unexpected body %s", body)
	}
	if signature != Sign([]byte("secret"), body) {
		t.Fatalf("signature mismatch: %s", signature)
	}
}

func TestDispatcherRetries(t *testing.T) {
	attempts := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	dispatcher, err := NewDispatcher(server.URL, []byte("secret"), WithRetryPolicy(5, time.Millisecond*10, time.Millisecond*20))
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	if err := dispatcher.Enqueue(events.Unpaused{}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	dispatcher.Close()
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestNewDispatcherValidates(t *testing.T) {
	if _, err := NewDispatcher(" ", []byte("secret")); err == nil {
		t.Fatalf("expected endpoint error")
	}
	if _, err := NewDispatcher("http://localhost", nil); err == nil {
		t.Fatalf("expected secret error")
	}
}

func countingServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDispatcherTracesDeliveries(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})

	var hits int32
	server := countingServer(t, &hits)
	dispatcher, err := NewDispatcher(server.URL, []byte("secret"))
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	if _, ok := dispatcher.client.Transport.(*otelhttp.Transport); !ok {
		t.Fatalf("default transport is %T", dispatcher.client.Transport)
	}
	dispatcher.Emit(events.Paused{})
	dispatcher.Close()

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected 1 delivery, got %d", got)
	}
	spans := recorder.Ended()
	if len(spans) == 0 {
		t.Fatalf("expected a client span for the delivery")
	}
	if kind := spans[0].SpanKind(); kind != trace.SpanKindClient {
		t.Fatalf("unexpected span kind %v", kind)
	}
}

func TestDispatcherClientWithoutTimeout(t *testing.T) {
	var hits int32
	server := countingServer(t, &hits)
	dispatcher, err := NewDispatcher(server.URL, []byte("secret"),
		WithHTTPClient(&http.Client{}),
		WithRetryPolicy(1, time.Millisecond, time.Millisecond))
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	dispatcher.Emit(events.Unpaused{})
	dispatcher.Close()
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected 1 delivery, got %d", got)
	}
}

func TestDispatcherRateLimit(t *testing.T) {
	var hits int32
	server := countingServer(t, &hits)
	dispatcher, err := NewDispatcher(server.URL, []byte("secret"), WithRateLimit(20, 1))
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := dispatcher.Enqueue(events.Paused{}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	dispatcher.Close()
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Fatalf("deliveries were not throttled: %s", elapsed)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected 3 deliveries, got %d", got)
	}
}

func TestSendErrorOmitsEndpoint(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL + "/hook?token=sekrit"
	server.Close()

	dispatcher, err := NewDispatcher(endpoint, []byte("secret"))
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	defer dispatcher.Close()
	err = dispatcher.send(context.Background(), delivery{id: "d-1", eventType: events.TypePaused, body: []byte(`{}`)})
	if err == nil {
		t.Fatalf("expected delivery to a closed server to fail")
	}
	if strings.Contains(err.Error(), "sekrit") {
		t.Fatalf("error leaks endpoint: %v", err)
	}
}
