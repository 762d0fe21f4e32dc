package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestManager_CountersAndHandler(t *testing.T) {
	m := NewTestManager()

	m.CounterPeriodsBuilt.Add(3)
	m.CounterAdjustmentWrites.WithLabelValues("ok").Inc()
	m.HistQueryDuration.WithLabelValues("select client").Observe(0.002)

	if got := testutil.ToFloat64(m.CounterPeriodsBuilt); got != 3 {
		t.Errorf("periods built = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.CounterAdjustmentWrites.WithLabelValues("ok")); got != 1 {
		t.Errorf("adjustment writes = %v, want 1", got)
	}

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), "coachdesk_adherence_periods_built_total 3") {
		t.Errorf("metrics output missing periods counter:\n%s", body)
	}
}

func TestNewTestManager_IsolatedRegistries(t *testing.T) {
	a := NewTestManager()
	b := NewTestManager()
	a.CounterPeriodsBuilt.Inc()
	if got := testutil.ToFloat64(b.CounterPeriodsBuilt); got != 0 {
		t.Errorf("second manager saw %v, want 0", got)
	}
}
