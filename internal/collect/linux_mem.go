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

// MemSampler reads /proc/meminfo directly into the top-level "meminfo"
// bucket (there is no per-instance nesting here — the bm node itself
// owns these values, per internal/metricupdate's copyMem).
type MemSampler struct {
	Path string
}

func (m *MemSampler) Sample(st *store.Store) error {
	f, err := os.Open(m.Path)
	if err != nil {
		return fmt.Errorf("collect: open %s: %w", m.Path, err)
	}
	defer f.Close()

	dst := st.Bucket("meminfo")
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		key := line[:idx]
		if key != "MemTotal" && key != "MemAvailable" {
			continue
		}
		fields := strings.Fields(line[idx+1:])
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(fields[0], 64) // kB, per /proc/meminfo's units suffix
		if err != nil {
			continue
		}
		dst.RB(key, ringbuffer.KindFloat).Append(v)
	}
	return sc.Err()
}
