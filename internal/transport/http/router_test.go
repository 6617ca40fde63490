package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgtrakker/internal/platform/metrics"
	"orgtrakker/pkg/requestcontext"
	"orgtrakker/pkg/testutil"
)

// collectors register globally, so the package shares one set.
var testMetrics = metrics.New()

type probe struct {
	seen requestcontext.Actor
	id   string
}

func (p *probe) Register(r chi.Router) {
	r.Get("/probe/{id}", func(w http.ResponseWriter, r *http.Request) {
		p.seen = requestcontext.ActorFrom(r.Context())
		p.id = requestcontext.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})
}

func newTestRouter(checks map[string]HealthCheck) (http.Handler, *probe) {
	p := &probe{}
	h := NewRouter(Router{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: testMetrics,
		Health:  checks,
	}, p)
	return h, p
}

func TestHealthz(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		h, _ := newTestRouter(map[string]HealthCheck{
			"redis": func(context.Context) error { return nil },
		})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "ok", body["redis"])
	})

	t.Run("dependency down", func(t *testing.T) {
		h, _ := newTestRouter(map[string]HealthCheck{
			"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
		})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "degraded", body["status"])
		assert.Equal(t, "unavailable", body["redis"])
	})
}

func TestRoutesRequireActor(t *testing.T) {
	h, p := newTestRouter(nil)

	w := testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/probe/1", nil))
	testutil.AssertStatusAndError(t, w, http.StatusUnauthorized, "unauthorized")
	assert.Empty(t, p.seen.Username)

	req := testutil.WithActorHeaders(httptest.NewRequest(http.MethodGet, "/probe/1", nil), "hr.admin", "acme")
	w = testutil.DoRequest(h, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "hr.admin", p.seen.Username)
	assert.Equal(t, "acme", p.seen.CompanyID)
	assert.NotEmpty(t, p.id)
}

func TestRequestMetricsUseRoutePattern(t *testing.T) {
	h, _ := newTestRouter(nil)
	counter := testMetrics.RequestsTotal.WithLabelValues("/probe/{id}", http.MethodGet, "418")
	before := promtest.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		testutil.DoRequest(h, testutil.WithActorHeaders(httptest.NewRequest(http.MethodGet, "/probe/"+id, nil), "hr.admin", ""))
	}

	assert.Equal(t, before+2, promtest.ToFloat64(counter))
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
