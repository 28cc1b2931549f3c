package obs_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/obs"
)

func TestParseBucketsCSV(t *testing.T) {
	got := obs.ParseBucketsCSV(" 5, abc, -3, 10 ,0,250")
	want := []float64{5, 10, 250}
	if len(got) != len(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v got %v", want, got)
		}
	}
	if out := obs.ParseBucketsCSV(""); out != nil {
		t.Fatalf("expected nil for empty input, got %v", out)
	}
}

func TestNewHTTPMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("foodtruck", nil, registry)
	second := obs.NewHTTPMetrics("foodtruck", nil, registry)

	first.ReqTotal.WithLabelValues(http.MethodGet, "/healthz", "200").Inc()
	total := testutil.ToFloat64(second.ReqTotal.WithLabelValues(http.MethodGet, "/healthz", "200"))
	if total != 1 {
		t.Fatalf("expected shared counter to read 1, got %v", total)
	}
}

func TestRoutePatternContextRoundTrip(t *testing.T) {
	ctx := obs.WithRoutePattern(context.Background(), "/v1/carts/{id}")
	if got := obs.RoutePatternFromContext(ctx); got != "/v1/carts/{id}" {
		t.Fatalf("unexpected pattern %q", got)
	}
	if got := obs.RoutePatternFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty pattern, got %q", got)
	}
}

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("foodtruck", []float64{1, 10}, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/healthz"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/healthz", "204"))
	if total != 1 {
		t.Fatalf("expected counter to be 1, got %v", total)
	}

	samples := testutil.CollectAndCount(metrics.ReqDur)
	if samples == 0 {
		t.Fatalf("expected histogram sample")
	}

	if metrics.InFlight != nil {
		if val := testutil.ToFloat64(metrics.InFlight); val != 0 {
			t.Fatalf("expected no in-flight requests, got %v", val)
		}
	}
}
