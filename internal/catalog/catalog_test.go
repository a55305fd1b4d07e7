package catalog

import (
	"strings"
	"testing"

	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
)

const metricsCSV = `name,subservice,type,unit,is_list,counter
idle_time,/node/bm/cpus/cpu,float,pct,0,0
rx_drop,/node/bm/net/if,int,pkts,0,1
junk,/node/bm/net/if,bogus,pkts,0,0
`

const rulesCSV = `name,path,severity,rule
cpu_idle,/node/bm/cpus/cpu,red,idle_time < 10 and 1min(idle_time) < 10
bad_sev,/node/bm/cpus/cpu,purple,idle_time < 1
`

func TestLoadMetricsSkipsBadRows(t *testing.T) {
	cat, err := loadMetrics(strings.NewReader(metricsCSV))
	if err != nil {
		t.Fatalf("loadMetrics: %v", err)
	}
	if len(cat.Metrics) != 2 {
		t.Fatalf("got %d metrics, want 2 (bogus type skipped)", len(cat.Metrics))
	}
	m, ok := cat.Metrics["rx_drop"]
	if !ok || m.Kind != ringbuffer.KindInt || !m.Counter {
		t.Fatalf("rx_drop not parsed correctly: %+v ok=%v", m, ok)
	}
	if len(cat.BySubservice["/node/bm/cpus/cpu"]) != 1 {
		t.Fatalf("expected idle_time grouped under cpu subservice")
	}
}

func TestLoadRulesSkipsInvalidSeverity(t *testing.T) {
	cat, err := loadMetrics(strings.NewReader(metricsCSV))
	if err != nil {
		t.Fatalf("loadMetrics: %v", err)
	}
	if err := cat.loadRules(strings.NewReader(rulesCSV)); err != nil {
		t.Fatalf("loadRules: %v", err)
	}
	if len(cat.Rules) != 1 {
		t.Fatalf("got %d rules, want 1 (bad severity skipped)", len(cat.Rules))
	}
	if cat.Rules[0].Name != "cpu_idle" {
		t.Fatalf("unexpected rule survived: %+v", cat.Rules[0])
	}
}
