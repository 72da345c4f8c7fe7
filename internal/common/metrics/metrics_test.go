package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservePublish(t *testing.T) {
	m := New()
	m.ObservePublish(nil)
	m.ObservePublish(nil)
	m.ObservePublish(errors.New("closed"))

	if got := testutil.ToFloat64(m.Publishes.WithLabelValues("ok")); got != 2 {
		t.Fatalf("ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Publishes.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed = %v, want 1", got)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ReconnectCounter("mysql")()
	m.Submissions.WithLabelValues("queued").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`judgegate_reconnects_total{target="mysql"} 1`,
		`judgegate_submissions_total{outcome="queued"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
