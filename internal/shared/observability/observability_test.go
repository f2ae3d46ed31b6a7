package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"symscope/internal/engine/symtab"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricValue(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	if pb.Counter != nil {
		return pb.Counter.GetValue()
	}
	return pb.Gauge.GetValue()
}

func TestStackMetrics_RecordsScopeLifecycle(t *testing.T) {
	opened := metricValue(t, ScopesOpenedTotal)
	closed := metricValue(t, ScopesClosedTotal)
	released := metricValue(t, SymbolsReleasedTotal)
	overflows := metricValue(t, StackErrorsTotal.WithLabelValues("overflow"))
	underflows := metricValue(t, StackErrorsTotal.WithLabelValues("underflow"))

	stack := symtab.NewStack(symtab.Limits{MaxDepth: 2}, symtab.WithObserver(NewStackMetrics()))
	outer, err := stack.EnterScope()
	require.NoError(t, err)
	_, err = outer.Install("a", 1)
	require.NoError(t, err)
	_, err = stack.EnterScope()
	require.NoError(t, err)
	_, err = stack.EnterScope()
	require.Error(t, err)

	require.NoError(t, stack.Pop())
	require.NoError(t, stack.Pop())
	require.Error(t, stack.Pop())

	assert.Equal(t, opened+2, metricValue(t, ScopesOpenedTotal))
	assert.Equal(t, closed+2, metricValue(t, ScopesClosedTotal))
	assert.Equal(t, released+1, metricValue(t, SymbolsReleasedTotal))
	assert.Equal(t, overflows+1, metricValue(t, StackErrorsTotal.WithLabelValues("overflow")))
	assert.Equal(t, underflows+1, metricValue(t, StackErrorsTotal.WithLabelValues("underflow")))
	assert.GreaterOrEqual(t, metricValue(t, ScopeDepthMax), 2.0)
}

func TestServer_Handler(t *testing.T) {
	srv := NewServer("127.0.0.1:0")
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"up"`)

	ScopesOpenedTotal.Add(0)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "symscope_scopes_opened_total"))
}

func TestServer_StopWithoutStart(t *testing.T) {
	assert.NoError(t, NewServer("127.0.0.1:0").Stop(context.Background()))
}

func TestInitTracing_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "", "symscope")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	_, span := Tracer.Start(context.Background(), "noop")
	span.End()
}
