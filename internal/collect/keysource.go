package collect

import (
	"github.com/edeline-labs/assurance-agent/internal/graph"
	"github.com/edeline-labs/assurance-agent/internal/store"
)

// FlatChildKeys builds a graph.ChildKeySource that reports the child
// names currently observed under a flat (non-hosted) raw bucket, e.g.
// "stat/cpu" for baremetal CPUs. The parent argument is ignored: these
// buckets are not nested per hosting instance, unlike their VM/KB
// counterparts (which package collect does not populate — see
// internal/graph/update.go's KeySource doc, real hypervisor/remote
// parsing is out of scope).
func FlatChildKeys(bucket string) graph.ChildKeySource {
	return func(st *store.Store, _ *graph.Node) []string {
		b, ok := st.LookupBucket(bucket)
		if !ok {
			return nil
		}
		return b.ChildNames()
	}
}

// LinuxKeySources wires the baremetal ChildKeySource set to the raw
// buckets this package's Linux samplers populate.
func LinuxKeySources() (cpu, ifc, disk, sensor graph.ChildKeySource) {
	return FlatChildKeys("stat/cpu"),
		FlatChildKeys("net/dev"),
		FlatChildKeys("diskstats"),
		FlatChildKeys("sensors")
}
