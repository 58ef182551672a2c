package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-qa/internal/app/model"
)

func TestNewUsesPrivateRegistry(t *testing.T) {
	// two instances must not collide on registration
	a := New()
	b := New()

	assert.NotSame(t, a.Registry(), b.Registry())
}

func TestRecorderEvents(t *testing.T) {
	m := New()

	m.CacheHit(model.RoleContent)
	m.CacheHit(model.RoleContent)
	m.CacheMiss(model.RoleProduction)
	m.VariantFailed(model.RoleContent)
	m.SynthesisFallback("weak_match")
	m.SearchObserved(model.RoleTechnical, "multi", 20*time.Millisecond, 4)
	m.BuildObserved("success", 2*time.Second, 120)
	m.BuildObserved("failure", time.Second, 50)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheOperations.WithLabelValues("content", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheOperations.WithLabelValues("production", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VariantFailures.WithLabelValues("content")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SynthesisFallbacks.WithLabelValues("weak_match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchesTotal.WithLabelValues("technical", "multi")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BuildsTotal.WithLabelValues("failure")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.FramesIndexed))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodPost, "/api/v1/videos/:id/chat", http.StatusOK, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `vqa_http_requests_total{method="POST",route="/api/v1/videos/:id/chat",status="200"} 1`), body)
}
