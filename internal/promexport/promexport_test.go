package promexport

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edeline-labs/assurance-agent/internal/graph"
	"github.com/edeline-labs/assurance-agent/internal/health"
	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
	"github.com/edeline-labs/assurance-agent/internal/rules"
)

func TestObserveExposesHealthScoreAndSymptoms(t *testing.T) {
	e := New()

	rule := &rules.CompiledRule{Name: "cpu_idle_warning", Severity: ringbuffer.Orange}
	res := health.Result{
		Scores: map[string]int{"/node[name=host1]": 90},
		Positives: []*graph.Symptom{
			{Rule: rule, Args: []string{"/node[name=host1]/bm/cpus/cpu[name=cpu0]"}},
		},
	}
	e.Observe(res, 12*time.Millisecond)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	e.Handler().ServeHTTP(rec, req)
	body := rec.Body.String()

	if !strings.Contains(body, `assurance_health_score{fullname="/node[name=host1]"} 90`) {
		t.Fatalf("missing expected health_score series:\n%s", body)
	}
	if !strings.Contains(body, `assurance_positive_symptoms{fullname="/node[name=host1]/bm/cpus/cpu[name=cpu0]",severity="orange"} 1`) {
		t.Fatalf("missing expected positive_symptoms series:\n%s", body)
	}
	if !strings.Contains(body, "assurance_ticks_total 1") {
		t.Fatalf("missing ticks_total counter:\n%s", body)
	}
}
