package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func counterValue(t *testing.T, m *Metrics, name, label, value string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == label && l.GetValue() == value {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCounters(t *testing.T) {
	m := New()
	m.ReceiptProcessed("success")
	m.ReceiptProcessed("success")
	m.ReceiptProcessed("error")
	m.PantryItems("active", 6)
	m.PantryItems("donated", 0)
	m.ReminderSent(false)

	if got := counterValue(t, m, "expiry_tracker_receipts_processed_total", "result", "success"); got != 2 {
		t.Errorf("success receipts = %v", got)
	}
	if got := counterValue(t, m, "expiry_tracker_pantry_items_total", "status", "active"); got != 6 {
		t.Errorf("active items = %v", got)
	}
	if got := counterValue(t, m, "expiry_tracker_reminders_total", "result", "failed"); got != 1 {
		t.Errorf("failed reminders = %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ReceiptProcessed("success")
	m.PantryItems("active", 1)
	m.ReminderSent(true)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	for _, want := range []string{
		`expiry_tracker_http_request_duration_seconds_count{method="GET",route="/ping",status="200"} 1`,
		`route="unmatched",status="404"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
