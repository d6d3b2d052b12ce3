package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keepsafe/internal/platform/metrics"
)

func latencyFixture() (*prometheus.Registry, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "request_duration_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(hist)
	return reg, &metrics.Metrics{RequestDuration: hist}
}

func routeLabels(t *testing.T, reg *prometheus.Registry) map[string]uint64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	labels := make(map[string]uint64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "route" {
					labels[lp.GetValue()] = m.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	return labels
}

func TestLatencyLabelsByRoutePattern(t *testing.T) {
	reg, m := latencyFixture()

	r := chi.NewRouter()
	r.Use(Latency(m))
	r.Delete("/family/document/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"11111111-aaaa", "22222222-bbbb"} {
		req := httptest.NewRequest(http.MethodDelete, "/family/document/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	labels := routeLabels(t, reg)
	assert.Equal(t, uint64(2), labels["/family/document/{id}"])
	assert.NotContains(t, labels, "/family/document/11111111-aaaa")
}

func TestLatencyOutsideChiFallsBackToPath(t *testing.T) {
	reg, m := latencyFixture()

	h := Latency(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	labels := routeLabels(t, reg)
	assert.Equal(t, uint64(1), labels["/healthz"])
}

func TestLatencyNilMetricsPassthrough(t *testing.T) {
	called := false
	h := Latency(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}
