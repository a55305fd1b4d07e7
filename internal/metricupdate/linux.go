package metricupdate

import (
	"strings"

	"github.com/edeline-labs/assurance-agent/internal/graph"
	"github.com/edeline-labs/assurance-agent/internal/ringbuffer"
	"github.com/edeline-labs/assurance-agent/internal/store"
)

// linuxTable is the (host_os=linux, node.path) dispatch, exhaustive
// over the subservice set declared in configs/metrics.csv: baremetal
// reads straight off procfs-shaped raw buckets, VM/KB instances read
// off the equivalent hypervisor/remote-collector raw buckets, keyed
// the same way underneath their hosting instance.
func linuxTable() Table {
	return Table{
		"/node/bm":                copyMem("meminfo"),
		"/node/bm/cpus/cpu":       copyCPU("stat/cpu"),
		"/node/bm/net/if":         copyNetIf("net/dev"),
		"/node/bm/disks/disk":     copyDisk("diskstats"),
		"/node/bm/sensors/sensor": copySensor("sensors"),

		"/node/vm/cpus/cpu": copyCPU("virtualbox/cpu"),
		"/node/vm/net/if":   copyNetIf("virtualbox/net"),

		"/node/kb/cpus/cpu": copyCPU("vpp/cpu"),
		"/node/kb/net/if":   copyNetIf("vpp/if"),
	}
}

var cpuJiffyFields = []string{"user", "nice", "system", "idle", "iowait", "irq", "softirq"}

// copyCPU normalizes /proc/stat-shaped per-cpu jiffy counters into
// idle_time (pct): ratio of the idle field's delta to the sum of all
// fields' deltas over the tick.
func copyCPU(rawBucket string) CopyFunc {
	return func(st *store.Store, n *graph.Node, dst *store.Bucket) {
		cpu, ok := lookupInstance(st, rawBucket, n.Name)
		if !ok {
			return
		}
		var total, idle float64
		anyOK := false
		for _, f := range cpuJiffyFields {
			rb, ok := cpu.LookupRB(f)
			if !ok {
				continue
			}
			d, ok := rb.Delta(1)
			if !ok {
				continue
			}
			anyOK = true
			total += d
			if f == "idle" {
				idle = d
			}
		}
		if !anyOK || total <= 0 {
			return
		}
		dst.RB("idle_time", ringbuffer.KindFloat).Append(idle / total * 100)
	}
}

// copyNetIf normalizes /proc/net/dev-shaped per-interface counters:
// rx/tx byte counts (bytes→kB), rx/tx drop counts passed through as
// counters.
func copyNetIf(rawBucket string) CopyFunc {
	return func(st *store.Store, n *graph.Node, dst *store.Bucket) {
		ifc, ok := lookupInstance(st, rawBucket, n.Name)
		if !ok {
			return
		}
		for _, f := range []string{"rx_bytes", "tx_bytes"} {
			rb, ok := ifc.LookupRB(f)
			if !ok {
				continue
			}
			dst.RB(f+"_kb", ringbuffer.KindFloat).Append(rb.Top().FloatValue() / 1024)
		}
		for _, f := range []string{"rx_drop", "tx_drop"} {
			rb, ok := ifc.LookupRB(f)
			if !ok {
				continue
			}
			dst.RB(f, ringbuffer.KindInt).Append(rb.Top().IntValue())
		}
	}
}

// copyDisk normalizes /proc/diskstats-shaped per-device counters:
// sector counts (512B sectors→kB) and cumulative io time (jiffies→ms,
// USER_HZ=100).
func copyDisk(rawBucket string) CopyFunc {
	return func(st *store.Store, n *graph.Node, dst *store.Bucket) {
		dev, ok := lookupInstance(st, rawBucket, n.Name)
		if !ok {
			return
		}
		for _, f := range []string{"read_sectors", "write_sectors"} {
			rb, ok := dev.LookupRB(f)
			if !ok {
				continue
			}
			metric := strings.TrimSuffix(f, "_sectors") + "_kb"
			dst.RB(metric, ringbuffer.KindFloat).Append(rb.Top().FloatValue() * 512 / 1024)
		}
		if rb, ok := dev.LookupRB("io_ticks"); ok {
			dst.RB("io_time_ms", ringbuffer.KindFloat).Append(rb.Top().FloatValue() * 10)
		}
	}
}

// copySensor passes a lm-sensors-shaped temperature reading through
// unchanged (already in degrees C, no normalization needed).
func copySensor(rawBucket string) CopyFunc {
	return func(st *store.Store, n *graph.Node, dst *store.Bucket) {
		s, ok := lookupInstance(st, rawBucket, n.Name)
		if !ok {
			return
		}
		if rb, ok := s.LookupRB("temp"); ok {
			dst.RB("temp", ringbuffer.KindFloat).Append(rb.Top().FloatValue())
		}
	}
}

// copyMem normalizes /proc/meminfo-shaped totals (already in kB) into
// mem_used_pct. Unlike the other copy funcs this one is attached to
// the bm node itself rather than an indexed child, so there is no
// per-instance raw lookup.
func copyMem(rawBucket string) CopyFunc {
	return func(st *store.Store, n *graph.Node, dst *store.Bucket) {
		raw, ok := st.LookupBucket(rawBucket)
		if !ok {
			return
		}
		total, tok := raw.LookupRB("MemTotal")
		avail, aok := raw.LookupRB("MemAvailable")
		if !tok || !aok {
			return
		}
		t := total.Top().FloatValue()
		if t <= 0 {
			return
		}
		used := t - avail.Top().FloatValue()
		dst.RB("mem_used_pct", ringbuffer.KindFloat).Append(used / t * 100)
	}
}

func lookupInstance(st *store.Store, rawBucket, instance string) (*store.Bucket, bool) {
	raw, ok := st.LookupBucket(rawBucket)
	if !ok {
		return nil, false
	}
	return raw.LookupChild(instance)
}
