package collect

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
	"github.com/edeline-labs/assurance-agent/internal/store"
)

// cpuJiffyFields is /proc/stat's per-cpu column order (after the
// "cpuN" label): user, nice, system, idle, iowait, irq, softirq, ...
// We only keep the fields internal/metricupdate's copyCPU reads.
var cpuJiffyFields = []string{"user", "nice", "system", "idle", "iowait", "irq", "softirq"}

// CPUSampler reads /proc/stat's per-cpu lines into store bucket
// "stat/cpu", one child bucket per "cpuN" label.
type CPUSampler struct {
	Path string
}

func (c *CPUSampler) Sample(st *store.Store) error {
	f, err := os.Open(c.Path)
	if err != nil {
		return fmt.Errorf("collect: open %s: %w", c.Path, err)
	}
	defer f.Close()

	dst := st.Bucket("stat/cpu")
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "cpu") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 1+len(cpuJiffyFields) {
			continue
		}
		label := fields[0]
		if label == "cpu" {
			continue // aggregate line, not a per-cpu instance
		}
		cpu := dst.Child(label)
		for i, name := range cpuJiffyFields {
			v, err := strconv.ParseInt(fields[1+i], 10, 64)
			if err != nil {
				continue
			}
			cpu.RB(name, ringbuffer.KindInt).Append(v)
		}
	}
	return sc.Err()
}
