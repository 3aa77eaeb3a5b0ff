package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/food-ordering/internal/handler"
	"github.com/xenking/food-ordering/pkg/health"
	"github.com/xenking/food-ordering/pkg/httpmiddleware"
)

type noopTelemetry struct{}

func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (noopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }

func TestRouter(t *testing.T) {
	cfg := &Config{RateLimit: RateLimitConfig{Max: 1, Window: time.Minute}}
	checker := health.New()
	h := handler.NewHandler(handler.Config{}, nil, nil, nil, nil)
	router := newRouter(t.Context(), zap.NewNop(), noopTelemetry{}, cfg, h, checker)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	t.Run("probes bypass the rate limit", func(t *testing.T) {
		for range 3 {
			w := get("/livez")
			require.Equal(t, http.StatusOK, w.Code)
			assert.NotEmpty(t, w.Header().Get(httpmiddleware.RequestIDHeader))
		}
		assert.Equal(t, http.StatusServiceUnavailable, get("/readyz").Code)
		checker.SetReady(true)
		assert.Equal(t, http.StatusOK, get("/readyz").Code)
	})

	t.Run("api is limited and authenticated", func(t *testing.T) {
		w := get("/api/profile")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, `Bearer realm="food"`, w.Header().Get("WWW-Authenticate"))

		assert.Equal(t, http.StatusTooManyRequests, get("/api/profile").Code)
	})
}
