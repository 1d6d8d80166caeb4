package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/indices/{index}/stats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, index := range []string{"logs-1", "logs-2"} {
		req := httptest.NewRequest("GET", "/api/indices/"+index+"/stats", http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/indices/{index}/stats", "404"))
	if got < 2 {
		t.Fatalf("expected both requests under the route pattern, got %f", got)
	}
}

func TestMiddlewareDefaultsToOK(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/plain", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/plain", http.NoBody))

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/plain", "200")); got < 1 {
		t.Fatalf("expected a 200 observation, got %f", got)
	}
}

func TestObserveElastic(t *testing.T) {
	before := testutil.ToFloat64(elasticRequestsTotal.WithLabelValues("search_test", StatusError))
	ObserveElastic("search_test", time.Now(), errors.New("boom"))
	ObserveElastic("search_test", time.Now(), nil)

	if got := testutil.ToFloat64(elasticRequestsTotal.WithLabelValues("search_test", StatusError)); got != before+1 {
		t.Fatalf("expected error counter to grow by one, got %f", got)
	}
	if got := testutil.ToFloat64(elasticRequestsTotal.WithLabelValues("search_test", StatusOK)); got < 1 {
		t.Fatalf("expected ok counter, got %f", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	ObserveElastic("ping", time.Now(), nil)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "esview_elastic_requests_total") {
		t.Fatalf("expected esview metrics in output")
	}
}
