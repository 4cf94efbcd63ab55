package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/quotes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/quotes/"+id, nil))
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/api/quotes/{id}", "404"))
	assert.Equal(t, 2.0, got)
}

func TestRecordPricing(t *testing.T) {
	m := New()
	m.RecordPricing("rate_plan", nil)
	m.RecordPricing("rate_plan", errors.New("boom"))
	m.RecordPricing("rate_plan", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pricings.WithLabelValues("rate_plan", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pricings.WithLabelValues("rate_plan", "error")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.RecordCatalogRefresh("completed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `cpq_catalog_refresh_total{status="completed"} 1`))
}

func TestNilMetrics_IsNoop(t *testing.T) {
	var m *Metrics
	m.RecordPricing("summary", nil)
	m.RecordCatalogRefresh("failed")
	assert.Nil(t, m.Registry())

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	m.Middleware(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}
