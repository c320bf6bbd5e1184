package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"finboard/internal/goals"
)

func TestObserveDecision(t *testing.T) {
	m := New()
	m.ObserveDecision(goals.Decision{Outcome: goals.OutcomeApply})
	m.ObserveDecision(goals.Decision{Outcome: goals.OutcomeSkip, Reason: goals.ReasonRateLimited})
	m.ObserveDecision(goals.Decision{Outcome: goals.OutcomeSkip, Reason: goals.ReasonRateLimited})

	if got := testutil.ToFloat64(m.goalDecisions.WithLabelValues("apply", "none")); got != 1 {
		t.Errorf("apply count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.goalDecisions.WithLabelValues("skip", "rate_limited")); got != 2 {
		t.Errorf("rate limited count = %v, want 2", got)
	}
}

func TestObserveWorker(t *testing.T) {
	m := New()
	m.ObserveMessage(nil)
	m.ObserveMessage(errors.New("boom"))
	m.ObserveSnapshots(3, nil)
	m.ObserveSnapshots(1, errors.New("partial"))

	if got := testutil.ToFloat64(m.messagesProcessed.WithLabelValues("error")); got != 1 {
		t.Errorf("failed messages = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.snapshots.WithLabelValues("ok")); got != 4 {
		t.Errorf("snapshots ok = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.snapshots.WithLabelValues("error")); got != 1 {
		t.Errorf("snapshot failures = %v, want 1", got)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/goals/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/goals/"+id, nil))
	}

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/goals/{id}", "418")); got != 2 {
		t.Errorf("request count = %v, want 2", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "finboard_http_requests_total") {
		t.Errorf("metrics endpoint = %d %q", rec.Code, rec.Body.String())
	}
}
