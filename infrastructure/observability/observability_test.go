package observability

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"kgview/application/ports"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var _ ports.Metrics = (*Collector)(nil)

func TestCollectorRecordsEngineMetrics(t *testing.T) {
	c := NewCollector("kgview")

	c.IncRebuilds("load")
	c.IncRebuilds("reconfigure")
	c.IncRebuilds("reconfigure")
	c.AddInferencePairs(28)
	c.AddInferencePairs(0)
	c.AddGeneratedEdges(3)
	c.IncSnapshotLoads("fallback")
	c.SetLiveSessions(4)
	c.IncLayoutSteps()
	c.ObserveTick(2 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Rebuilds.WithLabelValues("reconfigure")))
	assert.Equal(t, 28.0, testutil.ToFloat64(c.InferencePairs))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.GeneratedEdges))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SnapshotLoads.WithLabelValues("fallback")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.LiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LayoutSteps))
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector("kgview")
	b := NewCollector("kgview")
	a.IncLayoutSteps()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.LayoutSteps))
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector("kgview")
	c.RecordHTTPRequest("GET", "/health", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `kgview_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestTracerProviderRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := NewTracerProvider(TracingConfig{Environment: "development"}, sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer().Start(context.Background(), "snapshot.Load")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "snapshot.Load", spans[0].Name())
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(TracingConfig{Environment: "development"}).Description(), "AlwaysOn")
	assert.Contains(t, sampler(TracingConfig{Environment: "production"}).Description(), "TraceIDRatioBased{0.01}")
	assert.Contains(t, sampler(TracingConfig{SampleRate: 0.5}).Description(), "TraceIDRatioBased{0.5}")
}
