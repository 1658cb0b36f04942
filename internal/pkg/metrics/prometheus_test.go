package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/shortlink/config"
)

func testConfig() config.MetricsConfig {
	return config.MetricsConfig{
		Enabled:   true,
		Path:      "/metrics",
		Namespace: "test",
		Subsystem: "test",
	}
}

func TestNewPrometheusRegistry(t *testing.T) {
	tests := []struct {
		name   string
		config config.MetricsConfig
	}{
		{
			name: "valid config",
			config: config.MetricsConfig{
				Enabled:        true,
				Path:           "/metrics",
				Namespace:      "shortlink",
				Subsystem:      "api",
				CollectRuntime: true,
			},
		},
		{
			name:   "minimal config",
			config: testConfig(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, err := NewPrometheusRegistry(tt.config)
			require.NoError(t, err)
			assert.NotNil(t, registry)
			assert.NotNil(t, registry.GetRegistry())
			assert.NotNil(t, registry.GetHandler())
		})
	}
}

func TestPrometheusRegistry_HTTPMetrics(t *testing.T) {
	registry, err := NewPrometheusRegistry(testConfig())
	require.NoError(t, err)

	registry.RecordHTTPRequest("GET", "/health", "200", 0.1)
	registry.RecordHTTPRequest("POST", "/api/shorten", "201", 0.05)
	registry.RecordHTTPRequest("GET", "/{code}", "302", 0.02)

	registry.IncHTTPRequestsInFlight()
	registry.IncHTTPRequestsInFlight()
	registry.DecHTTPRequestsInFlight()

	prom := registry.(*PrometheusRegistry)
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.httpRequestsInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.httpRequestsTotal.WithLabelValues("GET", "/{code}", "302")))
}

func TestPrometheusRegistry_LinkMetrics(t *testing.T) {
	registry, err := NewPrometheusRegistry(testConfig())
	require.NoError(t, err)

	registry.IncLinksCreated(true)
	registry.IncLinksCreated(false)
	registry.IncLinksCreated(false)
	registry.IncLinksResolved()
	registry.IncLinkLookupFailures(ReasonExpired)

	prom := registry.(*PrometheusRegistry)
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.linksCreatedTotal.WithLabelValues(CodeKindCustom)))
	assert.Equal(t, 2.0, testutil.ToFloat64(prom.linksCreatedTotal.WithLabelValues(CodeKindGenerated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.linksResolvedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.linkLookupFailuresTotal.WithLabelValues(ReasonExpired)))
	assert.Equal(t, 0.0, testutil.ToFloat64(prom.linkLookupFailuresTotal.WithLabelValues(ReasonNotFound)))
}

func TestNoOpRegistry(t *testing.T) {
	registry := NewNoOpRegistry()

	assert.NotPanics(t, func() {
		registry.RecordHTTPRequest("GET", "/test", "200", 0.1)
		registry.IncHTTPRequestsInFlight()
		registry.DecHTTPRequestsInFlight()
		registry.IncLinksCreated(true)
		registry.IncLinksResolved()
		registry.IncLinkLookupFailures(ReasonNotFound)

		assert.Nil(t, registry.GetRegistry())
		assert.Nil(t, registry.GetHandler())
	})
}

func TestPrometheusMiddleware_UsesRoutePattern(t *testing.T) {
	registry, err := NewPrometheusRegistry(testConfig())
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(PrometheusMiddleware(registry, "/metrics"))
	r.Get("/{code}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusFound)
	})
	r.Handle("/metrics", registry.GetHandler())

	for _, path := range []string{"/abc", "/def", "/metrics"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	}

	prom := registry.(*PrometheusRegistry)
	assert.Equal(t, 2.0, testutil.ToFloat64(prom.httpRequestsTotal.WithLabelValues("GET", "/{code}", "302")))
	assert.Equal(t, 0.0, testutil.ToFloat64(prom.httpRequestsTotal.WithLabelValues("GET", "/metrics", "200")))
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"":                  "/",
		"/":                 "/",
		"/health":           "/health",
		"/api/shorten":      "/api/shorten",
		"/api/links":        "/api/links",
		"/api/links/abc":    "/api/links/{code}",
		"/stats/abc":        "/stats/{code}",
		"/swagger/doc.json": "/swagger/*",
		"/Xy12abc":          "/{code}",
		"/a/b/c":            "/a/b/c",
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizePath(in), "path %q", in)
	}
}
