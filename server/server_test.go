package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"recall/client"
	"recall/domain"
	"recall/store"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func createTestServer(t *testing.T) (*httptest.Server, *client.Client) {
	t.Helper()

	st, err := store.Open(t.Context(), filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ts := httptest.NewServer(New(st).Handler())
	t.Cleanup(ts.Close)

	return ts, client.New(ts.URL)
}

func TestMemoryLifecycle(t *testing.T) {
	_, c := createTestServer(t)

	meta := domain.Metadata{domain.String("source", "test")}

	mem, err := c.Add(t.Context(), "alice", "prefers window seats", meta)
	require.NoError(t, err)
	require.NotEmpty(t, mem.ID)
	require.Equal(t, "alice", mem.UserID)
	require.Equal(t, meta, mem.Metadata)

	read, err := c.Get(t.Context(), mem.ID)
	require.NoError(t, err)
	require.Equal(t, mem.Content, read.Content)
	require.Equal(t, meta, read.Metadata)

	all, err := c.GetAll(t.Context(), "alice")
	require.NoError(t, err)
	require.Len(t, all, 1)

	updated, err := c.Update(t.Context(), mem.ID, "prefers aisle seats", nil)
	require.NoError(t, err)
	require.Equal(t, "prefers aisle seats", updated.Content)

	entries, err := c.History(t.Context(), mem.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, domain.EventCreated, entries[0].Event)
	require.Equal(t, domain.EventUpdated, entries[1].Event)

	require.NoError(t, c.Delete(t.Context(), mem.ID))

	_, err = c.Get(t.Context(), mem.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchOverHttp(t *testing.T) {
	_, c := createTestServer(t)

	_, err := c.Add(t.Context(), "alice", "learning to sail this summer", nil)
	require.NoError(t, err)
	_, err = c.Add(t.Context(), "alice", "allergic to peanuts", nil)
	require.NoError(t, err)

	results, err := c.Search(t.Context(), "alice", "sailing summer", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "learning to sail this summer", results[0].Content)

	// terms are matched whole, "sail" does not match "sailing"
	require.Equal(t, 0.5, results[0].Score)
}

func TestGetByPrefix(t *testing.T) {
	_, c := createTestServer(t)

	mem, err := c.Add(t.Context(), "alice", "findable by prefix", nil)
	require.NoError(t, err)

	read, err := c.Get(t.Context(), mem.ID[:8])
	require.NoError(t, err)
	require.Equal(t, mem.ID, read.ID)
}

func TestValidationErrors(t *testing.T) {
	_, c := createTestServer(t)

	_, err := c.Add(t.Context(), "", "content without a user", nil)
	require.ErrorIs(t, err, domain.ErrInvalid)

	_, err = c.Add(t.Context(), "alice", "", nil)
	require.ErrorIs(t, err, domain.ErrInvalid)

	_, err = c.Get(t.Context(), "no-such-id")
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = c.Delete(t.Context(), "no-such-id")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMalformedMetadataIsRejected(t *testing.T) {
	ts, _ := createTestServer(t)

	body := `{
		"user_id": "alice",
		"content": "legitimate content",
		"metadata": [{"Key": "k", "Value": {"Type": "BOOL", "Value": "not-a-bool"}}]
	}`

	res, err := http.Post(ts.URL+"/v1/memories", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestEventStream(t *testing.T) {
	ts, c := createTestServer(t)

	wsUrl := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/events"
	conn, res, err := websocket.DefaultDialer.Dial(wsUrl, nil)
	require.NoError(t, err)
	defer res.Body.Close()
	defer conn.Close()

	// give the handler a moment to subscribe to the hub
	time.Sleep(50 * time.Millisecond)

	mem, err := c.Add(t.Context(), "alice", "announce me", nil)
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	event := domain.Event{}
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, domain.EventCreated, event.Kind)
	require.Equal(t, mem.ID, event.Memory.ID)
	require.Equal(t, "announce me", event.Memory.Content)
}

func TestClientAndServerShareTrace(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	_, c := createTestServer(t)

	_, err := c.Add(t.Context(), "alice", "watch the trace", nil)
	require.NoError(t, err)

	spans := exporter.GetSpans()

	var opTraceID, serverTraceID trace.TraceID
	serverSpanName := ""
	for _, span := range spans {
		if span.Name == "memory.add" {
			opTraceID = span.SpanContext.TraceID()
		}
		if span.SpanKind == trace.SpanKindServer {
			serverTraceID = span.SpanContext.TraceID()
			serverSpanName = span.Name
		}
	}

	require.True(t, opTraceID.IsValid())
	require.True(t, serverTraceID.IsValid())
	require.Equal(t, opTraceID, serverTraceID)

	// the matched route names the server span, not the handler wrapper
	require.Equal(t, "POST /v1/memories", serverSpanName)
}

func TestStoreSwap(t *testing.T) {
	st, err := store.Open(t.Context(), filepath.Join(t.TempDir(), "first.sqlite"))
	require.NoError(t, err)

	srv := New(st)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c := client.New(ts.URL)

	_, err = c.Add(t.Context(), "alice", "lives in the first database", nil)
	require.NoError(t, err)

	second, err := store.Open(t.Context(), filepath.Join(t.TempDir(), "second.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	old := srv.SetStore(second)
	require.Same(t, st, old)
	old.Close()

	all, err := c.GetAll(t.Context(), "alice")
	require.NoError(t, err)
	require.Empty(t, all)
}
