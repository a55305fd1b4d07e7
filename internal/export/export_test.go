package export

import (
	"testing"
	"time"

	"github.com/edeline-labs/assurance-agent/internal/health"
	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
	"github.com/edeline-labs/assurance-agent/internal/rules"

	"github.com/edeline-labs/assurance-agent/internal/graph"
)

func TestSanitizeSubjectReplacesDelimiters(t *testing.T) {
	in := "/node[name=host1].bm/cpus/cpu[name=cpu*0]>"
	out := sanitizeSubject(in)
	for _, c := range []byte{'.', '*', '>', ' '} {
		for i := 0; i < len(out); i++ {
			if out[i] == c {
				t.Fatalf("sanitizeSubject left delimiter %q in output: %s", c, out)
			}
		}
	}
}

func TestPublishNoopsWithoutClient(t *testing.T) {
	p := NewPublisher(nil, "assurance")
	rule := &rules.CompiledRule{Name: "cpu_idle_warning", Severity: ringbuffer.Orange}
	res := health.Result{
		Positives: []*graph.Symptom{
			{Rule: rule, Args: []string{"/node[name=host1]/bm/cpus/cpu[name=cpu0]"}, Timestamp: time.Now().Unix()},
		},
	}
	// Must not panic despite a nil underlying client.
	p.Publish(res)
}

func TestMirrorUpdateAndRead(t *testing.T) {
	m := NewMirror()
	rule := &rules.CompiledRule{Name: "cpu_idle_warning", Severity: ringbuffer.Orange}
	res := health.Result{
		Scores: map[string]int{"/node[name=host1]": 80},
		Positives: []*graph.Symptom{
			{Rule: rule, Args: []string{"/node[name=host1]"}},
		},
	}
	m.Update(res)

	score, ok := m.Score("/node[name=host1]")
	if !ok || score != 80 {
		t.Fatalf("expected score 80, ok=true; got %d, ok=%v", score, ok)
	}

	syms := m.Symptoms("/node[name=host1]")
	if len(syms) != 1 || syms[0] != "cpu_idle_warning" {
		t.Fatalf("expected [cpu_idle_warning], got %v", syms)
	}

	snap := m.Snapshot()
	if snap["/node[name=host1]"] != 80 {
		t.Fatalf("expected snapshot to carry score 80, got %v", snap)
	}

	// A second Update fully replaces prior state.
	m.Update(health.Result{Scores: map[string]int{"/node[name=host2]": 50}})
	if _, ok := m.Score("/node[name=host1]"); ok {
		t.Fatalf("expected host1 score to be gone after a replacing Update")
	}
}
